// Package port 定义工作流层对外部能力的最小依赖
package port

import (
	"context"

	"note-article-api/internal/domain/entity"
)

// CompletionRequest 单次文本生成请求
type CompletionRequest struct {
	SystemPrompt    string
	UserPrompt      string
	MaxOutputTokens int
	Temperature     float64
	// Model 为空时使用提供商配置的默认模型
	Model string
}

// Completion 生成结果与提供商报告的用量
type Completion struct {
	Text  string
	Model string
	Usage entity.TokenUsage
}

// CompletionProvider 文本生成后端。实现不做内部重试，所有后端故障以 ProviderError 返回。
type CompletionProvider interface {
	Name() string
	Complete(ctx context.Context, req *CompletionRequest) (*Completion, error)
}

// ProviderResolver 按名称查找已注册的提供商
type ProviderResolver interface {
	Get(ctx context.Context, name string) (CompletionProvider, error)
}
