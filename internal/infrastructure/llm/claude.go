package llm

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"note-article-api/internal/config"
	"note-article-api/internal/domain/entity"
	"note-article-api/internal/workflow/port"
)

// Anthropic Messages API 接受的 temperature 上限
const claudeMaxTemperature = 1.0

// ClaudeProvider 通过 Anthropic Messages API 生成文本
type ClaudeProvider struct {
	name   string
	model  string
	client anthropic.Client
}

// NewClaudeProvider 构造 Claude 提供商；SDK 自带的重试被关闭
func NewClaudeProvider(_ context.Context, name string, cfg config.ProviderConfig) (port.CompletionProvider, error) {
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

	return &ClaudeProvider{
		name:   name,
		model:  cfg.Model,
		client: anthropic.NewClient(opts...),
	}, nil
}

func (p *ClaudeProvider) Name() string {
	return p.name
}

func (p *ClaudeProvider) Complete(ctx context.Context, req *port.CompletionRequest) (*port.Completion, error) {
	model := firstNonEmpty(req.Model, p.model)

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   int64(req.MaxOutputTokens),
		Temperature: anthropic.Float(min(req.Temperature, claudeMaxTemperature)),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserPrompt)),
		},
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{
				Type: "text",
				Text: req.SystemPrompt,
			},
		}
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, newProviderError(p.name, model, err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return nil, newProviderError(p.name, model, ErrEmptyCompletion)
	}

	return &port.Completion{
		Text:  sb.String(),
		Model: firstNonEmpty(string(msg.Model), model),
		Usage: entity.NewTokenUsage(msg.Usage.InputTokens, msg.Usage.OutputTokens),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
