package wire

import (
	"context"
	"errors"
	"fmt"
	"time"

	"note-article-api/internal/application/note"
	"note-article-api/internal/application/quota"
	"note-article-api/internal/config"
	"note-article-api/internal/domain/repository"
	"note-article-api/internal/domain/service"
	"note-article-api/internal/infrastructure/llm"
	"note-article-api/internal/infrastructure/messaging"
	"note-article-api/internal/infrastructure/persistence/memory"
	"note-article-api/internal/infrastructure/persistence/postgres"
	"note-article-api/internal/infrastructure/persistence/redis"
	"note-article-api/internal/interfaces/http/handler"
	"note-article-api/internal/interfaces/http/middleware"
	"note-article-api/internal/interfaces/http/router"
	"note-article-api/internal/workflow/prompt"
	"note-article-api/pkg/logger"
)

var errClientNotConnected = errors.New("client not connected at startup")

// ProvidePostgresClient 仅在台账使用 postgres 时连接；连接失败不阻塞启动
func ProvidePostgresClient(ctx context.Context, cfg *config.Config) (*postgres.Client, func(), error) {
	if cfg.Ledger.Backend != config.LedgerBackendPostgres {
		return nil, func() {}, nil
	}
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		logger.Warn(ctx, "postgres not available, ledger degraded", "error", err.Error())
		return nil, func() {}, nil
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvidePostgresClientStrict 连接失败直接返回错误（用于 bootstrap）
func ProvidePostgresClientStrict(cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideRedisClient 台账、限流或事件任一需要时连接；连接失败不阻塞启动
func ProvideRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, func(), error) {
	needed := cfg.Cache.Redis.Enabled ||
		cfg.Ledger.Backend == config.LedgerBackendRedis ||
		cfg.Messaging.RedisStream.Enabled
	if !needed {
		return nil, func() {}, nil
	}
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		logger.Warn(ctx, "redis not available, dependent features degraded", "error", err.Error())
		return nil, func() {}, nil
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideNoteLedger 按配置选择台账后端；后端未连接时返回始终报 LedgerError 的台账
func ProvideNoteLedger(ctx context.Context, cfg *config.Config, pg *postgres.Client, rc *redis.Client) repository.NoteLedger {
	switch cfg.Ledger.Backend {
	case config.LedgerBackendPostgres:
		if pg == nil {
			return memory.NewUnavailable(config.LedgerBackendPostgres, errClientNotConnected)
		}
		repo := postgres.NewNoteLogRepository(pg)
		if cfg.Ledger.AutoMigrate {
			if err := repo.Migrate(ctx); err != nil {
				logger.Warn(ctx, "note_logs migration failed", "error", err.Error())
			}
		}
		return repo
	case config.LedgerBackendRedis:
		if rc == nil {
			return memory.NewUnavailable(config.LedgerBackendRedis, errClientNotConnected)
		}
		return redis.NewNoteLedger(rc, cfg.Ledger.RedisKeyPrefix)
	default:
		logger.Warn(ctx, "using in-memory ledger, history is lost on restart")
		return memory.NewLedger()
	}
}

// ProvideRateLimiter redis 不可用时返回 nil，中间件随之放行
func ProvideRateLimiter(rc *redis.Client) middleware.RateLimiter {
	if rc == nil {
		return nil
	}
	return redis.NewRateLimiter(rc)
}

// ProvideNoteEventPublisher 未启用事件或 redis 不可用时返回 nil
func ProvideNoteEventPublisher(cfg *config.Config, rc *redis.Client) service.NoteEventPublisher {
	if !cfg.Messaging.RedisStream.Enabled || rc == nil {
		return nil
	}
	return messaging.NewProducer(rc.Redis(), int64(cfg.Messaging.RedisStream.MaxLen))
}

// ProvideProviderRegistry 构建提供商注册表并检查阶段引用
func ProvideProviderRegistry(ctx context.Context, cfg *config.Config) (*llm.Registry, error) {
	reg := llm.NewRegistry(&cfg.LLM)
	for stage, sc := range map[string]config.StageConfig{"draft": cfg.LLM.Draft, "style": cfg.LLM.Style} {
		name := cfg.LLM.ProviderName(sc)
		if !reg.Has(name) {
			return nil, fmt.Errorf("llm %s stage: provider %q is not available (known: %v)", stage, name, reg.Names())
		}
	}
	for _, name := range cfg.MissingAPIKeys() {
		logger.Warn(ctx, "llm provider has no API key, calls will fail", "provider", name)
	}
	return reg, nil
}

func quotaLocation(cfg *config.Config) (*time.Location, error) {
	return cfg.Quota.Location()
}

// ProvideQuotaGuard 月度配额
func ProvideQuotaGuard(cfg *config.Config, ledger repository.NoteLedger) (*quota.Guard, error) {
	loc, err := quotaLocation(cfg)
	if err != nil {
		return nil, err
	}
	return quota.NewGuard(ledger, cfg.Quota.MonthlyTokenLimit, loc), nil
}

// ProvideGenerator 生成流水线
func ProvideGenerator(
	cfg *config.Config,
	guard *quota.Guard,
	providers *llm.Registry,
	prompts *prompt.Registry,
	ledger repository.NoteLedger,
	publisher service.NoteEventPublisher,
) (*note.Generator, error) {
	loc, err := quotaLocation(cfg)
	if err != nil {
		return nil, err
	}
	return note.NewGenerator(&cfg.LLM, guard, providers, prompts, ledger, publisher, loc), nil
}

// ProvideHealthHandler 只把已连接的客户端登记为就绪检查项
func ProvideHealthHandler(cfg *config.Config, pg *postgres.Client, rc *redis.Client) *handler.HealthHandler {
	checks := map[string]handler.HealthChecker{}
	if pg != nil {
		checks["postgres"] = pg
	} else if cfg.Ledger.Backend == config.LedgerBackendPostgres {
		checks["postgres"] = unavailableCheck{backend: "postgres"}
	}
	if rc != nil {
		checks["redis"] = rc
	}
	return handler.NewHealthHandler(cfg.App.Version, checks)
}

// unavailableCheck 启动时未能连接的依赖
type unavailableCheck struct {
	backend string
}

func (u unavailableCheck) HealthCheck(context.Context) error {
	return fmt.Errorf("%s: %w", u.backend, errClientNotConnected)
}

func ProvideNoteHandler(gen *note.Generator, ledger repository.NoteLedger) *handler.NoteHandler {
	return handler.NewNoteHandler(gen, ledger)
}

func ProvideUsageHandler(guard *quota.Guard) *handler.UsageHandler {
	return handler.NewUsageHandler(guard)
}

func ProvideRouter(cfg *config.Config, handlers router.Handlers, limiter middleware.RateLimiter) *router.Router {
	return router.New(cfg, handlers, limiter)
}
