package dify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	errx "github.com/line-dify-relay/server/internal/core/error"
	logx "github.com/line-dify-relay/server/pkg/logger"
	"golang.org/x/time/rate"
)

// Client calls the Dify chat-messages API. Outbound calls are paced by a
// shared rate limiter: at most one call per minimum interval, process-wide,
// regardless of which user triggered it.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// Config holds everything needed to construct a Client.
type Config struct {
	APIKey      string
	BaseURL     string
	MinInterval time.Duration
	Timeout     time.Duration
}

// Result is one chat turn from the backend. ConversationID correlates
// follow-up turns into the same dialogue context on the Dify side.
type Result struct {
	ConversationID string
	Answer         string
}

type chatRequest struct {
	Inputs         map[string]any `json:"inputs"`
	Query          string         `json:"query"`
	User           string         `json:"user"`
	ResponseMode   string         `json:"response_mode"`
	ConversationID string         `json:"conversation_id,omitempty"`
}

type chatResponse struct {
	ConversationID string  `json:"conversation_id"`
	Answer         *string `json:"answer"`
}

func NewClient(cfg Config) *Client {
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Every(cfg.MinInterval), 1),
	}
}

// Chat sends one user message to the backend and returns the answer along
// with the conversation handle to use on the next turn. conversationID may
// be empty, in which case the backend starts a new conversation.
//
// Chat blocks on the pacing limiter before dispatch, so calls from
// concurrent handlers serialize here.
func (c *Client) Chat(ctx context.Context, userID, text, conversationID string) (Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Result{}, fmt.Errorf("wait for pacing limiter: %w", err)
	}

	body, err := json.Marshal(chatRequest{
		Inputs:         map[string]any{},
		Query:          text,
		User:           userID,
		ResponseMode:   "blocking",
		ConversationID: conversationID,
	})
	if err != nil {
		return Result{}, fmt.Errorf("marshal chat request: %w", err)
	}

	url := c.baseURL + "/v1/chat-messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		logx.Error().Err(err).Str("userID", userID).Msg("dify request failed")
		return Result{}, fmt.Errorf("%w: %v", errx.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		logx.Error().Int("status", resp.StatusCode).Str("userID", userID).
			Bytes("body", snippet).Msg("dify returned non-2xx status")
		return Result{}, fmt.Errorf("%w: status %d", errx.ErrBackendUnavailable, resp.StatusCode)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		logx.Error().Err(err).Str("userID", userID).Msg("failed to decode dify response")
		return Result{}, fmt.Errorf("%w: %v", errx.ErrBackendUnavailable, err)
	}
	if out.Answer == nil {
		return Result{}, fmt.Errorf("%w: missing answer field", errx.ErrMalformedBackendResponse)
	}

	return Result{ConversationID: out.ConversationID, Answer: *out.Answer}, nil
}
