package model

import "context"

// ConversationStore maps a platform user ID to the conversation handle the
// AI backend issued for that user. An empty handle means no active
// conversation.
type ConversationStore interface {
	// Get retrieves the conversation handle for the given user. Unseen
	// users yield an empty handle, never an error.
	Get(ctx context.Context, userID string) (string, error)

	// Set stores the conversation handle for the given user. An empty
	// handle clears the entry.
	Set(ctx context.Context, userID, handle string) error
}

// InboundMessage is one text-message event extracted from a webhook
// delivery. ReplyToken is the single-use token required to address the
// outbound reply.
type InboundMessage struct {
	UserID     string
	Text       string
	ReplyToken string
}
