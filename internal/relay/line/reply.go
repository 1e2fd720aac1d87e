package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	logx "github.com/line-dify-relay/server/pkg/logger"
)

// Replier sends the outbound reply for an inbound event.
type Replier interface {
	ReplyText(ctx context.Context, replyToken, text string) error
}

// ReplyClient posts text replies through the LINE messaging API using the
// single-use reply token from the inbound event.
type ReplyClient struct {
	accessToken string
	baseURL     string
	http        *http.Client
}

func NewReplyClient(accessToken, baseURL string, timeout time.Duration) *ReplyClient {
	return &ReplyClient{
		accessToken: accessToken,
		baseURL:     baseURL,
		http:        &http.Client{Timeout: timeout},
	}
}

type replyRequest struct {
	ReplyToken string        `json:"replyToken"`
	Messages   []textMessage `json:"messages"`
}

type textMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (c *ReplyClient) ReplyText(ctx context.Context, replyToken, text string) error {
	body, err := json.Marshal(replyRequest{
		ReplyToken: replyToken,
		Messages:   []textMessage{{Type: "text", Text: text}},
	})
	if err != nil {
		return fmt.Errorf("marshal reply request: %w", err)
	}

	url := c.baseURL + "/v2/bot/message/reply"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build reply request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		logx.Error().Int("status", resp.StatusCode).Bytes("body", snippet).
			Msg("line reply API returned non-2xx status")
		return fmt.Errorf("send reply: status %d", resp.StatusCode)
	}
	return nil
}

var _ Replier = (*ReplyClient)(nil)
