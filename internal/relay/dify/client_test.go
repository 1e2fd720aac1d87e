package dify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	errx "github.com/line-dify-relay/server/internal/core/error"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, minInterval time.Duration) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(Config{
		APIKey:      "test-key",
		BaseURL:     srv.URL,
		MinInterval: minInterval,
		Timeout:     5 * time.Second,
	})
}

func TestChat_NewConversationOmitsConversationID(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat-messages", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]string{
			"conversation_id": "c1",
			"answer":          "hi there",
		})
	}, time.Millisecond)

	res, err := client.Chat(context.Background(), "U1", "hello", "")
	require.NoError(t, err)

	assert.Equal(t, "hello", got["query"])
	assert.Equal(t, "U1", got["user"])
	assert.Equal(t, "blocking", got["response_mode"])
	assert.NotContains(t, got, "conversation_id")

	assert.Equal(t, "c1", res.ConversationID)
	assert.Equal(t, "hi there", res.Answer)
}

func TestChat_ContinuedConversationCarriesHandle(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]string{
			"conversation_id": "c1",
			"answer":          "still here",
		})
	}, time.Millisecond)

	_, err := client.Chat(context.Background(), "U1", "again", "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", got["conversation_id"])
}

func TestChat_PacingSeparatesCalls(t *testing.T) {
	const interval = 150 * time.Millisecond

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"conversation_id": "c1",
			"answer":          "ok",
		})
	}, interval)

	ctx := context.Background()
	start := time.Now()
	_, err := client.Chat(ctx, "U1", "one", "")
	require.NoError(t, err)
	_, err = client.Chat(ctx, "U2", "two", "")
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), interval)
}

func TestChat_MissingAnswerIsMalformed(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"conversation_id": "c1"})
	}, time.Millisecond)

	_, err := client.Chat(context.Background(), "U1", "hello", "")
	assert.ErrorIs(t, err, errx.ErrMalformedBackendResponse)
}

func TestChat_Non2xxIsBackendUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
	}, time.Millisecond)

	_, err := client.Chat(context.Background(), "U1", "hello", "")
	assert.ErrorIs(t, err, errx.ErrBackendUnavailable)
}

func TestChat_BadJSONIsBackendUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>gateway timeout</html>"))
	}, time.Millisecond)

	_, err := client.Chat(context.Background(), "U1", "hello", "")
	assert.ErrorIs(t, err, errx.ErrBackendUnavailable)
}

func TestChat_ContextCancelledDuringPacing(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"conversation_id": "c1",
			"answer":          "ok",
		})
	}, time.Hour)

	ctx := context.Background()
	_, err := client.Chat(ctx, "U1", "one", "")
	require.NoError(t, err)

	// Second call would have to wait an hour; cancel instead.
	cancelled, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = client.Chat(cancelled, "U1", "two", "")
	assert.Error(t, err)
}
