package line

import (
	"encoding/json"
	"fmt"

	"github.com/line-dify-relay/server/internal/relay/model"
)

// WebhookPayload is the body of one LINE webhook delivery. A delivery may
// carry zero or more events.
type WebhookPayload struct {
	Destination string  `json:"destination"`
	Events      []Event `json:"events"`
}

// Event is one platform event inside a delivery. Only text-message events
// are relayed; everything else (stickers, follows, joins, ...) is skipped.
type Event struct {
	Type       string         `json:"type"`
	ReplyToken string         `json:"replyToken"`
	Source     EventSource    `json:"source"`
	Message    *MessageDetail `json:"message"`
}

type EventSource struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

type MessageDetail struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Text string `json:"text"`
}

// ParseWebhook decodes a verified delivery body and extracts the
// text-message events in delivery order.
func ParseWebhook(body []byte) ([]model.InboundMessage, error) {
	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode webhook payload: %w", err)
	}

	var messages []model.InboundMessage
	for _, ev := range payload.Events {
		if ev.Type != "message" || ev.Message == nil || ev.Message.Type != "text" {
			continue
		}
		if ev.Source.UserID == "" || ev.ReplyToken == "" {
			continue
		}
		messages = append(messages, model.InboundMessage{
			UserID:     ev.Source.UserID,
			Text:       ev.Message.Text,
			ReplyToken: ev.ReplyToken,
		})
	}
	return messages, nil
}
