package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"note-article-api/internal/config"
	"note-article-api/internal/workflow/port"
)

// fakeBackend 记录最后一次请求体并返回固定响应
type fakeBackend struct {
	status int
	body   string
	path   string
	last   map[string]any
}

func (f *fakeBackend) start(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.path = r.URL.Path
		f.last = map[string]any{}
		_ = json.NewDecoder(r.Body).Decode(&f.last)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(f.body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClaude(t *testing.T, backend *fakeBackend) port.CompletionProvider {
	t.Helper()
	srv := backend.start(t)
	p, err := NewClaudeProvider(context.Background(), "claude", config.ProviderConfig{
		Type:    config.ProviderTypeClaude,
		APIKey:  "test-key",
		BaseURL: srv.URL + "/",
		Model:   "claude-test",
	})
	require.NoError(t, err)
	return p
}

func TestClaudeCompleteSumsUsageAndClampsTemperature(t *testing.T) {
	backend := &fakeBackend{status: http.StatusOK, body: `{
		"id": "msg_1",
		"type": "message",
		"role": "assistant",
		"model": "claude-test",
		"content": [{"type": "text", "text": "{\"title\":\"A\"}"}],
		"stop_reason": "end_turn",
		"usage": {"input_tokens": 120, "output_tokens": 80}
	}`}
	p := newTestClaude(t, backend)

	out, err := p.Complete(context.Background(), &port.CompletionRequest{
		SystemPrompt:    "system",
		UserPrompt:      "user",
		MaxOutputTokens: 6000,
		Temperature:     1.5,
	})
	require.NoError(t, err)

	assert.Equal(t, "/v1/messages", backend.path)
	assert.Equal(t, 1.0, backend.last["temperature"])
	assert.Equal(t, float64(6000), backend.last["max_tokens"])
	assert.Equal(t, "claude-test", backend.last["model"])

	assert.Equal(t, `{"title":"A"}`, out.Text)
	assert.Equal(t, int64(120), out.Usage.PromptTokens)
	assert.Equal(t, int64(80), out.Usage.CompletionTokens)
	assert.Equal(t, int64(200), out.Usage.TotalTokens)
}

func TestClaudeCompleteKeepsTemperatureWithinRange(t *testing.T) {
	backend := &fakeBackend{status: http.StatusOK, body: `{
		"id": "msg_1", "type": "message", "role": "assistant", "model": "claude-test",
		"content": [{"type": "text", "text": "{}"}],
		"usage": {"input_tokens": 1, "output_tokens": 1}
	}`}
	p := newTestClaude(t, backend)

	_, err := p.Complete(context.Background(), &port.CompletionRequest{UserPrompt: "u", MaxOutputTokens: 10, Temperature: 0.3})
	require.NoError(t, err)
	assert.InDelta(t, 0.3, backend.last["temperature"], 1e-9)
}

func TestClaudeCompleteEmptyContentIsProviderError(t *testing.T) {
	backend := &fakeBackend{status: http.StatusOK, body: `{
		"id": "msg_1", "type": "message", "role": "assistant", "model": "claude-test",
		"content": [],
		"usage": {"input_tokens": 5, "output_tokens": 0}
	}`}
	p := newTestClaude(t, backend)

	_, err := p.Complete(context.Background(), &port.CompletionRequest{UserPrompt: "u", MaxOutputTokens: 10})
	require.Error(t, err)
	assert.True(t, IsProviderError(err))
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestClaudeCompleteHTTPFailureIsProviderError(t *testing.T) {
	backend := &fakeBackend{status: http.StatusUnauthorized, body: `{
		"type": "error",
		"error": {"type": "authentication_error", "message": "invalid x-api-key"}
	}`}
	p := newTestClaude(t, backend)

	_, err := p.Complete(context.Background(), &port.CompletionRequest{UserPrompt: "u", MaxOutputTokens: 10})
	require.Error(t, err)

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "claude", pe.Provider)
	assert.Equal(t, "claude-test", pe.Model)
}
