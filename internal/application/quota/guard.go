// Package quota 提供月度 token 配额判断
package quota

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/singleflight"

	"note-article-api/internal/domain/repository"
	"note-article-api/pkg/logger"
	"note-article-api/pkg/metrics"
)

// ExceededError 预计用量超出当月配额
type ExceededError struct {
	Limit     int64
	Current   int64
	Estimate  int64
	Projected int64
	Remaining int64
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("monthly token quota exceeded: current=%d estimate=%d projected=%d limit=%d",
		e.Current, e.Estimate, e.Projected, e.Limit)
}

// Decision 一次配额判断的结果
type Decision struct {
	Allowed   bool
	Degraded  bool
	Limit     int64
	Current   int64
	Estimate  int64
	Projected int64
	Remaining int64
}

// Err 不允许时返回 ExceededError
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &ExceededError{
		Limit:     d.Limit,
		Current:   d.Current,
		Estimate:  d.Estimate,
		Projected: d.Projected,
		Remaining: d.Remaining,
	}
}

// Stats 当月用量概览
type Stats struct {
	Limit      int64   `json:"monthly_limit"`
	Current    int64   `json:"current_usage"`
	Remaining  int64   `json:"remaining"`
	Percentage float64 `json:"usage_percentage"`
	Degraded   bool    `json:"degraded"`
}

// Guard 基于台账的月度配额判断。
// 月度窗口从所在时区当月 1 日零点开始。
type Guard struct {
	ledger repository.UsageLedger
	limit  int64
	loc    *time.Location
	now    func() time.Time
	group  singleflight.Group
}

func NewGuard(ledger repository.UsageLedger, limit int64, loc *time.Location) *Guard {
	if loc == nil {
		loc = time.Local
	}
	return &Guard{
		ledger: ledger,
		limit:  limit,
		loc:    loc,
		now:    time.Now,
	}
}

// Limit 月度上限
func (g *Guard) Limit() int64 {
	return g.limit
}

// MonthStart 返回 t 所在月份的起点
func (g *Guard) MonthStart(t time.Time) time.Time {
	local := t.In(g.loc)
	return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, g.loc)
}

// WouldExceed 判断当月已用量加上 estimate 是否超出上限。
// 台账读取失败时放行并标记 Degraded。
func (g *Guard) WouldExceed(ctx context.Context, estimate int64) (Decision, error) {
	current, err := g.currentUsage(ctx)
	if err != nil {
		if !repository.IsLedgerError(err) {
			return Decision{}, err
		}
		logger.Warn(ctx, "quota check degraded, ledger unavailable",
			"error", err.Error(),
			"estimate", estimate,
		)
		metrics.QuotaDegradedTotal.Inc()
		return Decision{
			Allowed:   true,
			Degraded:  true,
			Limit:     g.limit,
			Estimate:  estimate,
			Projected: estimate,
			Remaining: g.limit,
		}, nil
	}

	projected := current + estimate
	return Decision{
		Allowed:   projected <= g.limit,
		Limit:     g.limit,
		Current:   current,
		Estimate:  estimate,
		Projected: projected,
		Remaining: remaining(g.limit, current),
	}, nil
}

// UsageStats 当月用量概览；台账不可用时返回零用量
func (g *Guard) UsageStats(ctx context.Context) (Stats, error) {
	current, err := g.currentUsage(ctx)
	if err != nil {
		if !repository.IsLedgerError(err) {
			return Stats{}, err
		}
		logger.Warn(ctx, "usage stats degraded, ledger unavailable", "error", err.Error())
		return Stats{
			Limit:     g.limit,
			Remaining: g.limit,
			Degraded:  true,
		}, nil
	}

	var pct float64
	if g.limit > 0 {
		pct = math.Round(float64(current)/float64(g.limit)*10000) / 100
	}
	return Stats{
		Limit:      g.limit,
		Current:    current,
		Remaining:  remaining(g.limit, current),
		Percentage: pct,
	}, nil
}

// currentUsage 同一月份的并发读取合并为一次台账查询
func (g *Guard) currentUsage(ctx context.Context) (int64, error) {
	since := g.MonthStart(g.now())
	v, err, _ := g.group.Do(since.Format(time.RFC3339), func() (any, error) {
		return g.ledger.SumUsageSince(ctx, since)
	})
	if err != nil {
		return 0, err
	}
	current := v.(int64)
	metrics.QuotaMonthlyUsage.Set(float64(current))
	return current, nil
}

func remaining(limit, current int64) int64 {
	if current >= limit {
		return 0
	}
	return limit - current
}
