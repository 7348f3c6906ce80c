// Package config 提供配置加载功能
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// 支持的提供商类型
const (
	ProviderTypeClaude     = "claude"
	ProviderTypeOpenAI     = "openai"
	ProviderTypeCompatible = "compatible"
	ProviderTypeMock       = "mock"
)

// 支持的台账后端
const (
	LedgerBackendPostgres = "postgres"
	LedgerBackendRedis    = "redis"
	LedgerBackendMemory   = "memory"
)

var envPattern = regexp.MustCompile(`\${(\w+)(:([^}]*))?}`)

// Load 从 configs 目录加载配置
// 按优先级加载：默认配置 -> 环境配置 -> 环境变量
func Load() (*Config, error) {
	return LoadFrom("configs")
}

// LoadFrom 从指定目录加载配置
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if err := loadConfigFile(v, filepath.Join(dir, "config.yaml"), false); err != nil {
		return nil, err
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	envFile := filepath.Join(dir, fmt.Sprintf("config.%s.yaml", env))
	if err := loadConfigFile(v, envFile, true); err != nil {
		return nil, err
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadConfigFile 读取文件，执行环境变量替换，并加载到 viper
func loadConfigFile(v *viper.Viper, path string, optional bool) error {
	content, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	reader := strings.NewReader(expandEnv(string(content)))
	if v.ConfigFileUsed() == "" {
		if err := v.ReadConfig(reader); err != nil {
			return fmt.Errorf("failed to read processed config %s: %w", path, err)
		}
		v.SetConfigFile(path)
	} else {
		if err := v.MergeConfig(reader); err != nil {
			return fmt.Errorf("failed to merge processed config %s: %w", path, err)
		}
	}

	return nil
}

// expandEnv 替换字符串中的 ${VAR:default} 占位符，未定义且无默认值时保留原样
func expandEnv(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		submatch := envPattern.FindStringSubmatch(match)
		if val, ok := os.LookupEnv(submatch[1]); ok {
			return val
		}
		if submatch[2] != "" {
			return submatch[3]
		}
		return match
	})
}

// MustLoad 加载配置，失败时 panic
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// Validate 校验配置的结构性错误
//
// 缺少 API Key 不在此处报错，由 MissingAPIKeys 给出告警。
func (c *Config) Validate() error {
	var errs []error

	if c.Quota.MonthlyTokenLimit <= 0 {
		errs = append(errs, fmt.Errorf("quota.monthly_token_limit must be positive, got %d", c.Quota.MonthlyTokenLimit))
	}
	if _, err := c.Quota.Location(); err != nil {
		errs = append(errs, err)
	}

	switch c.Ledger.Backend {
	case LedgerBackendPostgres, LedgerBackendRedis, LedgerBackendMemory:
	default:
		errs = append(errs, fmt.Errorf("unsupported ledger.backend %q", c.Ledger.Backend))
	}

	for name, p := range c.LLM.Providers {
		switch p.Type {
		case ProviderTypeClaude, ProviderTypeOpenAI, ProviderTypeCompatible, ProviderTypeMock:
		default:
			errs = append(errs, fmt.Errorf("llm.providers.%s: unsupported type %q", name, p.Type))
		}
	}

	for stage, sc := range map[string]StageConfig{"draft": c.LLM.Draft, "style": c.LLM.Style} {
		name := c.LLM.ProviderName(sc)
		if _, ok := c.LLM.Providers[name]; !ok {
			errs = append(errs, fmt.Errorf("llm.%s: provider %q is not configured", stage, name))
		}
		if sc.MaxTokens <= 0 {
			errs = append(errs, fmt.Errorf("llm.%s.max_tokens must be positive", stage))
		}
	}

	return errors.Join(errs...)
}

// MissingAPIKeys 返回被阶段引用但没有配置 API Key 的非 mock 提供商
func (c *Config) MissingAPIKeys() []string {
	seen := make(map[string]bool)
	var missing []string
	for _, sc := range []StageConfig{c.LLM.Draft, c.LLM.Style} {
		name := c.LLM.ProviderName(sc)
		if seen[name] {
			continue
		}
		seen[name] = true
		p, ok := c.LLM.Providers[name]
		if !ok || p.Type == ProviderTypeMock {
			continue
		}
		if strings.TrimSpace(p.APIKey) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

// setDefaults 设置配置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "note-article-api")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.env", "development")

	v.SetDefault("server.http.host", "0.0.0.0")
	v.SetDefault("server.http.port", 8080)
	v.SetDefault("server.http.read_timeout", "30s")
	v.SetDefault("server.http.write_timeout", "180s")
	v.SetDefault("server.http.idle_timeout", "120s")

	// 生成阶段默认值
	v.SetDefault("llm.default_provider", "claude")
	v.SetDefault("llm.draft.max_tokens", 6000)
	v.SetDefault("llm.style.max_tokens", 4000)
	v.SetDefault("llm.style.temperature", 0.3)

	v.SetDefault("quota.monthly_token_limit", 300000)
	v.SetDefault("quota.timezone", "Asia/Tokyo")

	v.SetDefault("ledger.backend", LedgerBackendPostgres)
	v.SetDefault("ledger.auto_migrate", true)
	v.SetDefault("ledger.redis_key_prefix", "note_logs")

	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "postgres")
	v.SetDefault("database.postgres.database", "note_article")
	v.SetDefault("database.postgres.ssl_mode", "disable")
	v.SetDefault("database.postgres.max_open_conns", 20)
	v.SetDefault("database.postgres.max_idle_conns", 5)
	v.SetDefault("database.postgres.conn_max_lifetime", "30m")
	v.SetDefault("database.postgres.conn_max_idle_time", "5m")

	v.SetDefault("cache.redis.enabled", false)
	v.SetDefault("cache.redis.host", "localhost")
	v.SetDefault("cache.redis.port", 6379)
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.pool_size", 20)
	v.SetDefault("cache.redis.min_idle_conns", 2)
	v.SetDefault("cache.redis.dial_timeout", "5s")
	v.SetDefault("cache.redis.read_timeout", "3s")
	v.SetDefault("cache.redis.write_timeout", "3s")

	v.SetDefault("messaging.redis_stream.enabled", false)
	v.SetDefault("messaging.redis_stream.max_len", 10000)

	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.logging.format", "json")
	v.SetDefault("observability.tracing.enabled", false)
	v.SetDefault("observability.tracing.endpoint", "localhost:4317")
	v.SetDefault("observability.tracing.sample_rate", 1.0)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.path", "/metrics")

	v.SetDefault("security.rate_limit.enabled", false)
	v.SetDefault("security.rate_limit.requests_per_minute", 30)
}
