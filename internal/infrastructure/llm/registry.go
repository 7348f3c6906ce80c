package llm

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"note-article-api/internal/config"
	"note-article-api/internal/workflow/port"
)

// Builder 根据配置构造某一类型的提供商
type Builder func(ctx context.Context, name string, cfg config.ProviderConfig) (port.CompletionProvider, error)

// Registry 提供商查找表：类型到构造函数、名称到实例
//
// 实例在首次 Get 时惰性创建并缓存。
type Registry struct {
	configs  map[string]config.ProviderConfig
	builders map[string]Builder

	mu        sync.RWMutex
	providers map[string]port.CompletionProvider
}

var _ port.ProviderResolver = (*Registry)(nil)

// NewRegistry 创建注册表并登记内置类型
func NewRegistry(cfg *config.LLMConfig) *Registry {
	r := &Registry{
		configs:   make(map[string]config.ProviderConfig, len(cfg.Providers)),
		builders:  make(map[string]Builder),
		providers: make(map[string]port.CompletionProvider),
	}
	for name, pc := range cfg.Providers {
		r.configs[name] = pc
	}

	r.RegisterBuilder(config.ProviderTypeClaude, NewClaudeProvider)
	r.RegisterBuilder(config.ProviderTypeOpenAI, NewOpenAIProvider)
	r.RegisterBuilder(config.ProviderTypeCompatible, NewEinoProvider)
	r.RegisterBuilder(config.ProviderTypeMock, NewMockProvider)
	return r
}

// RegisterBuilder 登记或替换某个类型的构造函数
func (r *Registry) RegisterBuilder(providerType string, b Builder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders[providerType] = b
}

// Register 直接登记一个提供商实例，覆盖同名配置
func (r *Registry) Register(p port.CompletionProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Has 名称是否可解析（已有实例或存在配置）
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.providers[name]; ok {
		return true
	}
	pc, ok := r.configs[name]
	if !ok {
		return false
	}
	_, ok = r.builders[pc.Type]
	return ok
}

// Names 返回所有可解析的提供商名称
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool)
	for name := range r.providers {
		seen[name] = true
	}
	for name := range r.configs {
		seen[name] = true
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get 按名称获取提供商
func (r *Registry) Get(ctx context.Context, name string) (port.CompletionProvider, error) {
	r.mu.RLock()
	p, ok := r.providers[name]
	r.mu.RUnlock()
	if ok {
		return p, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok = r.providers[name]; ok {
		return p, nil
	}

	pc, ok := r.configs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}
	build, ok := r.builders[pc.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %s has unsupported type %q", ErrProviderNotFound, name, pc.Type)
	}

	p, err := build(ctx, name, pc)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm provider %s: %w", name, err)
	}
	r.providers[name] = p
	return p, nil
}
