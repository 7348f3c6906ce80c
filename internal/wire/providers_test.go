package wire

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"note-article-api/internal/config"
	"note-article-api/internal/domain/repository"
	"note-article-api/internal/infrastructure/persistence/memory"
)

func testConfig(backend string) *config.Config {
	return &config.Config{
		Ledger: config.LedgerConfig{Backend: backend},
		Quota:  config.QuotaConfig{MonthlyTokenLimit: 300000, Timezone: "Asia/Tokyo"},
		LLM: config.LLMConfig{
			DefaultProvider: "mock",
			Providers: map[string]config.ProviderConfig{
				"mock": {Type: config.ProviderTypeMock, Model: "mock-writer"},
			},
			Draft: config.StageConfig{MaxTokens: 6000},
			Style: config.StageConfig{MaxTokens: 4000, Temperature: 0.3},
		},
	}
}

func TestProvideNoteLedgerSelectsBackend(t *testing.T) {
	ctx := context.Background()

	l := ProvideNoteLedger(ctx, testConfig(config.LedgerBackendMemory), nil, nil)
	_, ok := l.(*memory.Ledger)
	assert.True(t, ok)

	for _, backend := range []string{config.LedgerBackendPostgres, config.LedgerBackendRedis} {
		l := ProvideNoteLedger(ctx, testConfig(backend), nil, nil)
		assert.Equal(t, backend, l.Backend())
		_, err := l.SumUsageSince(ctx, time.Now())
		assert.True(t, repository.IsLedgerError(err), backend)
	}
}

func TestOptionalRedisDependentsAreNil(t *testing.T) {
	cfg := testConfig(config.LedgerBackendMemory)
	cfg.Messaging.RedisStream.Enabled = true

	assert.Nil(t, ProvideRateLimiter(nil))
	assert.Nil(t, ProvideNoteEventPublisher(cfg, nil))
}

func TestProvideProviderRegistry(t *testing.T) {
	reg, err := ProvideProviderRegistry(context.Background(), testConfig(config.LedgerBackendMemory))
	require.NoError(t, err)
	assert.True(t, reg.Has("mock"))

	cfg := testConfig(config.LedgerBackendMemory)
	cfg.LLM.Draft.Provider = "missing"
	_, err = ProvideProviderRegistry(context.Background(), cfg)
	assert.Error(t, err)
}

func TestProvideHealthHandlerReportsUnconnectedPostgres(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := ProvideHealthHandler(testConfig(config.LedgerBackendPostgres), nil, nil)

	r := gin.New()
	r.GET("/ready", h.Ready)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "postgres")
	assert.Contains(t, w.Body.String(), "degraded")
}

func TestProvideQuotaGuardRejectsBadTimezone(t *testing.T) {
	cfg := testConfig(config.LedgerBackendMemory)
	cfg.Quota.Timezone = "Mars/Olympus"
	_, err := ProvideQuotaGuard(cfg, memory.NewLedger())
	assert.Error(t, err)
}
