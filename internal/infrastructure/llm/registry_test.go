package llm

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"note-article-api/internal/config"
	"note-article-api/internal/workflow/port"
)

type stubProvider struct {
	name string
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Complete(context.Context, *port.CompletionRequest) (*port.Completion, error) {
	return &port.Completion{Text: "{}"}, nil
}

func testLLMConfig() *config.LLMConfig {
	return &config.LLMConfig{
		DefaultProvider: "local",
		Providers: map[string]config.ProviderConfig{
			"local":  {Type: config.ProviderTypeMock, Model: "mock-writer"},
			"broken": {Type: "gemini"},
		},
	}
}

func TestRegistryBuildsConfiguredProviderOnce(t *testing.T) {
	r := NewRegistry(testLLMConfig())

	var mu sync.Mutex
	builds := 0
	r.RegisterBuilder(config.ProviderTypeMock, func(_ context.Context, name string, _ config.ProviderConfig) (port.CompletionProvider, error) {
		mu.Lock()
		builds++
		mu.Unlock()
		return &stubProvider{name: name}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := r.Get(context.Background(), "local")
			assert.NoError(t, err)
			assert.Equal(t, "local", p.Name())
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, builds)
}

func TestRegistryUnknownNames(t *testing.T) {
	r := NewRegistry(testLLMConfig())

	_, err := r.Get(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrProviderNotFound))

	_, err = r.Get(context.Background(), "broken")
	assert.True(t, errors.Is(err, ErrProviderNotFound))
	assert.False(t, r.Has("broken"))
	assert.True(t, r.Has("local"))
}

func TestRegistryRegisterOverridesConfig(t *testing.T) {
	r := NewRegistry(testLLMConfig())
	r.Register(&stubProvider{name: "extra"})

	p, err := r.Get(context.Background(), "extra")
	require.NoError(t, err)
	assert.Equal(t, "extra", p.Name())
	assert.Equal(t, []string{"broken", "extra", "local"}, r.Names())
}

func TestMockProviderReturnsFencedJSONWithUsage(t *testing.T) {
	p, err := NewMockProvider(context.Background(), "mock", config.ProviderConfig{})
	require.NoError(t, err)

	out, err := p.Complete(context.Background(), &port.CompletionRequest{
		SystemPrompt:    "You write articles.",
		UserPrompt:      "Topic: remote work\nAudience: managers",
		MaxOutputTokens: 6000,
		Temperature:     0.7,
	})
	require.NoError(t, err)
	assert.Contains(t, out.Text, "```json")
	assert.Contains(t, out.Text, "[mock] Topic: remote work")
	assert.Equal(t, "mock-writer", out.Model)
	assert.Greater(t, out.Usage.PromptTokens, int64(0))
	assert.Greater(t, out.Usage.CompletionTokens, int64(0))
	assert.Equal(t, out.Usage.PromptTokens+out.Usage.CompletionTokens, out.Usage.TotalTokens)
}

func TestProviderErrorUnwraps(t *testing.T) {
	cause := errors.New("401 unauthorized")
	err := newProviderError("claude", "claude-3-5-sonnet-20241022", cause)
	assert.True(t, IsProviderError(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "claude-3-5-sonnet-20241022")
}
