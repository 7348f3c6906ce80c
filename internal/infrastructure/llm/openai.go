package llm

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"note-article-api/internal/config"
	"note-article-api/internal/domain/entity"
	"note-article-api/internal/workflow/port"
)

// OpenAIProvider 通过 OpenAI Chat Completions API 生成文本
type OpenAIProvider struct {
	name   string
	model  string
	client openai.Client
}

// NewOpenAIProvider 构造 OpenAI 提供商；SDK 自带的重试被关闭
func NewOpenAIProvider(_ context.Context, name string, cfg config.ProviderConfig) (port.CompletionProvider, error) {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	return &OpenAIProvider{
		name:   name,
		model:  cfg.Model,
		client: openai.NewClient(opts...),
	}, nil
}

func (p *OpenAIProvider) Name() string {
	return p.name
}

func (p *OpenAIProvider) Complete(ctx context.Context, req *port.CompletionRequest) (*port.Completion, error) {
	model := firstNonEmpty(req.Model, p.model)

	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.SystemPrompt != "" {
		msgs = append(msgs, openai.SystemMessage(req.SystemPrompt))
	}
	msgs = append(msgs, openai.UserMessage(req.UserPrompt))

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(model),
		Messages:    msgs,
		MaxTokens:   openai.Int(int64(req.MaxOutputTokens)),
		Temperature: openai.Float(req.Temperature),
	})
	if err != nil {
		return nil, newProviderError(p.name, model, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, newProviderError(p.name, model, ErrEmptyCompletion)
	}

	usage := entity.TokenUsage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	if usage.TotalTokens == 0 {
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	}

	return &port.Completion{
		Text:  resp.Choices[0].Message.Content,
		Model: firstNonEmpty(resp.Model, model),
		Usage: usage,
	}, nil
}
