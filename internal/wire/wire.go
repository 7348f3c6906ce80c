//go:build wireinject
// +build wireinject

// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/google/wire"

	"note-article-api/internal/config"
	"note-article-api/internal/infrastructure/persistence/postgres"
	"note-article-api/internal/interfaces/http/router"
	"note-article-api/internal/workflow/prompt"
)

// InitializeApp 初始化整个应用（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*router.Router, func(), error) {
	wire.Build(
		DataSet,
		GenerationSet,
		RouterSet,
	)
	return nil, nil, nil
}

// InitializeMigrator 仅初始化 PostgreSQL 台账（用于 bootstrap）
func InitializeMigrator(ctx context.Context, cfg *config.Config) (*postgres.NoteLogRepository, func(), error) {
	wire.Build(
		ProvidePostgresClientStrict,
		postgres.NewNoteLogRepository,
	)
	return nil, nil, nil
}

// DataSet 存储与外部连接
var DataSet = wire.NewSet(
	ProvidePostgresClient,
	ProvideRedisClient,
	ProvideNoteLedger,
	ProvideRateLimiter,
	ProvideNoteEventPublisher,
)

// GenerationSet 生成流水线
var GenerationSet = wire.NewSet(
	ProvideProviderRegistry,
	prompt.NewRegistry,
	ProvideQuotaGuard,
	ProvideGenerator,
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	ProvideHealthHandler,
	ProvideNoteHandler,
	ProvideUsageHandler,
	wire.Struct(new(router.Handlers), "*"),
	ProvideRouter,
)
