package prompt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderDraft(t *testing.T) {
	r := NewRegistry()

	out, err := r.Render(context.Background(), PromptDraftV1, map[string]any{
		"topic":           "副業の始め方",
		"audience":        "会社員",
		"goal":            "最初の一歩を踏み出す",
		"article_type":    "how_to",
		"length_class":    "short",
		"intensity_level": 3,
		"request_json":    `{"topic":"副業の始め方"}`,
	})
	require.NoError(t, err)
	assert.Contains(t, out.System, `"sections"`)
	assert.Contains(t, out.User, "Topic: 副業の始め方")
	assert.Contains(t, out.User, "Intensity level: 3")
	assert.Contains(t, out.User, `{"topic":"副業の始め方"}`)
}

func TestRenderStyleKeepsDraftJSON(t *testing.T) {
	r := NewRegistry()
	draft := `{"title":"A","lead":"","sections":[],"cta":"C"}`

	out, err := r.Render(context.Background(), PromptStyleV1, map[string]any{"draft_json": draft})
	require.NoError(t, err)
	assert.Contains(t, out.User, draft)
	assert.NotEmpty(t, out.System)
}

func TestUnknownPrompt(t *testing.T) {
	_, err := NewRegistry().ChatTemplate("missing_v9")
	assert.Error(t, err)
}

func TestChatTemplateIsCached(t *testing.T) {
	r := NewRegistry()
	a, err := r.ChatTemplate(PromptDraftV1)
	require.NoError(t, err)
	b, err := r.ChatTemplate(PromptDraftV1)
	require.NoError(t, err)
	assert.Same(t, a, b)
}
