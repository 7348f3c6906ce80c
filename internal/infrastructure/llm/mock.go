package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tiktoken-go/tokenizer"

	"note-article-api/internal/config"
	"note-article-api/internal/domain/entity"
	"note-article-api/internal/workflow/port"
)

const mockDefaultModel = "mock-writer"

// MockProvider 离线提供商：不访问网络，返回固定结构的记事 JSON，用量按 cl100k 编码计数
type MockProvider struct {
	name  string
	model string
	codec tokenizer.Codec
}

// NewMockProvider 构造离线提供商
func NewMockProvider(_ context.Context, name string, cfg config.ProviderConfig) (port.CompletionProvider, error) {
	codec, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}
	return &MockProvider{
		name:  name,
		model: firstNonEmpty(cfg.Model, mockDefaultModel),
		codec: codec,
	}, nil
}

func (p *MockProvider) Name() string {
	return p.name
}

func (p *MockProvider) Complete(ctx context.Context, req *port.CompletionRequest) (*port.Completion, error) {
	model := firstNonEmpty(req.Model, p.model)
	if err := ctx.Err(); err != nil {
		return nil, newProviderError(p.name, model, err)
	}

	subject := firstLine(req.UserPrompt, 60)
	article := entity.CompletionResult{
		Title: fmt.Sprintf("[mock] %s", subject),
		Lead:  "This article was produced by the offline mock provider.",
		Sections: []entity.Section{
			{Heading: "Overview", Body: subject},
			{Heading: "Next steps", Body: "Replace the mock provider with a real backend to generate content."},
		},
		CTA: "Follow for more.",
	}
	body, err := json.MarshalIndent(article, "", "  ")
	if err != nil {
		return nil, newProviderError(p.name, model, err)
	}
	text := "```json\n" + string(body) + "\n```"

	prompt := p.count(req.SystemPrompt) + p.count(req.UserPrompt)
	completion := p.count(text)
	if req.MaxOutputTokens > 0 && completion > int64(req.MaxOutputTokens) {
		completion = int64(req.MaxOutputTokens)
	}

	return &port.Completion{
		Text:  text,
		Model: model,
		Usage: entity.NewTokenUsage(prompt, completion),
	}, nil
}

func (p *MockProvider) count(text string) int64 {
	if text == "" {
		return 0
	}
	ids, _, err := p.codec.Encode(text)
	if err != nil {
		return int64(utf8.RuneCountInString(text))
	}
	return int64(len(ids))
}

func firstLine(s string, maxRunes int) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if utf8.RuneCountInString(s) > maxRunes {
		s = string([]rune(s)[:maxRunes])
	}
	return s
}
