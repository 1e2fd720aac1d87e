package relay

import (
	"context"

	"github.com/line-dify-relay/server/internal/relay/dify"
	"github.com/line-dify-relay/server/internal/relay/line"
	"github.com/line-dify-relay/server/internal/relay/model"
	logx "github.com/line-dify-relay/server/pkg/logger"
)

const (
	// resetCommand clears the sender's conversation context. Exact match,
	// case-sensitive, no trimming.
	resetCommand = "reset"

	resetReply    = "conversation reset"
	fallbackReply = "sorry, the service is unavailable right now, please try again later"
)

// ChatBackend is the AI side of the relay, satisfied by *dify.Client.
type ChatBackend interface {
	Chat(ctx context.Context, userID, text, conversationID string) (dify.Result, error)
}

// Handler relays one inbound text message: consult the conversation store,
// ask the AI backend (or handle the reset command), persist the new handle
// and reply through the chat platform.
type Handler struct {
	store   model.ConversationStore
	backend ChatBackend
	replier line.Replier
}

func NewHandler(store model.ConversationStore, backend ChatBackend, replier line.Replier) *Handler {
	return &Handler{store: store, backend: backend, replier: replier}
}

// Handle processes one inbound message and sends exactly one reply.
// Backend and store failures degrade to a fixed fallback reply instead of
// leaving the user without an answer; reply-send failures are logged and
// dropped because the reply token is single-use and there is no retry.
func (h *Handler) Handle(ctx context.Context, msg model.InboundMessage) {
	reply := h.buildReply(ctx, msg)

	if err := h.replier.ReplyText(ctx, msg.ReplyToken, reply); err != nil {
		logx.Error().Err(err).Str("userID", msg.UserID).Msg("failed to send reply")
	}
}

func (h *Handler) buildReply(ctx context.Context, msg model.InboundMessage) string {
	if msg.Text == resetCommand {
		if err := h.store.Set(ctx, msg.UserID, ""); err != nil {
			logx.Error().Err(err).Str("userID", msg.UserID).Msg("failed to clear conversation")
			return fallbackReply
		}
		logx.Info().Str("userID", msg.UserID).Msg("conversation reset")
		return resetReply
	}

	handle, err := h.store.Get(ctx, msg.UserID)
	if err != nil {
		logx.Error().Err(err).Str("userID", msg.UserID).Msg("failed to load conversation handle")
		return fallbackReply
	}

	result, err := h.backend.Chat(ctx, msg.UserID, msg.Text, handle)
	if err != nil {
		logx.Error().Err(err).Str("userID", msg.UserID).Msg("ai backend call failed")
		return fallbackReply
	}

	// Always overwrite, even when the handle did not change.
	if err := h.store.Set(ctx, msg.UserID, result.ConversationID); err != nil {
		logx.Error().Err(err).Str("userID", msg.UserID).Msg("failed to store conversation handle")
	}

	return result.Answer
}
