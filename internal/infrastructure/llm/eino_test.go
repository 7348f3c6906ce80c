package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"note-article-api/internal/workflow/port"
)

// fakeChatModel 返回预设消息并记录调用参数
type fakeChatModel struct {
	out   *schema.Message
	err   error
	input []*schema.Message
	opts  *model.Options
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.input = input
	f.opts = model.GetCommonOptions(&model.Options{}, opts...)
	return f.out, f.err
}

func (f *fakeChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not supported")
}

func assistantMessage(content string, usage *schema.TokenUsage) *schema.Message {
	msg := schema.AssistantMessage(content, nil)
	if usage != nil {
		msg.ResponseMeta = &schema.ResponseMeta{Usage: usage}
	}
	return msg
}

func TestEinoCompletePassesOptionsAndUsage(t *testing.T) {
	cm := &fakeChatModel{out: assistantMessage(`{"title":"C"}`, &schema.TokenUsage{
		PromptTokens: 40, CompletionTokens: 10, TotalTokens: 50,
	})}
	p := NewEinoProviderWithModel("compatible", "deepseek-chat", cm)

	out, err := p.Complete(context.Background(), &port.CompletionRequest{
		SystemPrompt:    "system",
		UserPrompt:      "user",
		MaxOutputTokens: 6000,
		Temperature:     0.7,
	})
	require.NoError(t, err)

	require.Len(t, cm.input, 2)
	assert.Equal(t, schema.System, cm.input[0].Role)
	assert.Equal(t, schema.User, cm.input[1].Role)
	require.NotNil(t, cm.opts.Temperature)
	assert.InDelta(t, 0.7, *cm.opts.Temperature, 1e-6)
	require.NotNil(t, cm.opts.MaxTokens)
	assert.Equal(t, 6000, *cm.opts.MaxTokens)
	require.NotNil(t, cm.opts.Model)
	assert.Equal(t, "deepseek-chat", *cm.opts.Model)

	assert.Equal(t, `{"title":"C"}`, out.Text)
	assert.Equal(t, "deepseek-chat", out.Model)
	assert.Equal(t, int64(50), out.Usage.TotalTokens)
}

func TestEinoCompleteSumsUsageWhenTotalMissing(t *testing.T) {
	cm := &fakeChatModel{out: assistantMessage("{}", &schema.TokenUsage{PromptTokens: 7, CompletionTokens: 3})}
	p := NewEinoProviderWithModel("compatible", "deepseek-chat", cm)

	out, err := p.Complete(context.Background(), &port.CompletionRequest{UserPrompt: "u", MaxOutputTokens: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(10), out.Usage.TotalTokens)
}

func TestEinoCompleteWithoutUsageReportsZero(t *testing.T) {
	cm := &fakeChatModel{out: assistantMessage("{}", nil)}
	p := NewEinoProviderWithModel("compatible", "deepseek-chat", cm)

	out, err := p.Complete(context.Background(), &port.CompletionRequest{UserPrompt: "u", MaxOutputTokens: 10})
	require.NoError(t, err)
	assert.Zero(t, out.Usage.TotalTokens)
}

func TestEinoCompleteFailuresAreProviderErrors(t *testing.T) {
	cases := map[string]*fakeChatModel{
		"backend error": {err: errors.New("connection refused")},
		"empty content": {out: assistantMessage("", nil)},
		"nil message":   {},
	}
	for name, cm := range cases {
		t.Run(name, func(t *testing.T) {
			p := NewEinoProviderWithModel("compatible", "deepseek-chat", cm)
			_, err := p.Complete(context.Background(), &port.CompletionRequest{UserPrompt: "u", MaxOutputTokens: 10})
			require.Error(t, err)

			var pe *ProviderError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, "compatible", pe.Provider)
		})
	}
}
