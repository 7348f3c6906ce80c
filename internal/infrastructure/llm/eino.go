package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"note-article-api/internal/config"
	"note-article-api/internal/domain/entity"
	"note-article-api/internal/workflow/port"
)

// EinoProvider 通过 Eino 的 OpenAI 兼容适配器访问任意兼容端点（DeepSeek、Qwen、本地网关等）
type EinoProvider struct {
	name      string
	model     string
	chatModel model.BaseChatModel
}

// NewEinoProvider 构造兼容端点提供商
func NewEinoProvider(ctx context.Context, name string, cfg config.ProviderConfig) (port.CompletionProvider, error) {
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create eino chat model for %s: %w", name, err)
	}
	return NewEinoProviderWithModel(name, cfg.Model, chatModel), nil
}

// NewEinoProviderWithModel 包装已有的 ChatModel
func NewEinoProviderWithModel(name, defaultModel string, chatModel model.BaseChatModel) *EinoProvider {
	return &EinoProvider{name: name, model: defaultModel, chatModel: chatModel}
}

func (p *EinoProvider) Name() string {
	return p.name
}

func (p *EinoProvider) Complete(ctx context.Context, req *port.CompletionRequest) (*port.Completion, error) {
	modelName := firstNonEmpty(req.Model, p.model)

	msgs := make([]*schema.Message, 0, 2)
	if req.SystemPrompt != "" {
		msgs = append(msgs, schema.SystemMessage(req.SystemPrompt))
	}
	msgs = append(msgs, schema.UserMessage(req.UserPrompt))

	opts := []model.Option{
		model.WithTemperature(float32(req.Temperature)),
		model.WithMaxTokens(req.MaxOutputTokens),
	}
	if modelName != "" {
		opts = append(opts, model.WithModel(modelName))
	}

	out, err := p.chatModel.Generate(ctx, msgs, opts...)
	if err != nil {
		return nil, newProviderError(p.name, modelName, err)
	}
	if out == nil || out.Content == "" {
		return nil, newProviderError(p.name, modelName, ErrEmptyCompletion)
	}

	var usage entity.TokenUsage
	if out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
		u := out.ResponseMeta.Usage
		usage = entity.TokenUsage{
			PromptTokens:     int64(u.PromptTokens),
			CompletionTokens: int64(u.CompletionTokens),
			TotalTokens:      int64(u.TotalTokens),
		}
		if usage.TotalTokens == 0 {
			usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
		}
	}

	return &port.Completion{
		Text:  out.Content,
		Model: modelName,
		Usage: usage,
	}, nil
}
