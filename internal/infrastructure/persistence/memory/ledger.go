// Package memory 提供进程内台账，用于本地开发与测试
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"note-article-api/internal/domain/entity"
	"note-article-api/internal/domain/repository"
)

const backendName = "memory"

// Ledger 进程内台账，重启后数据丢失
type Ledger struct {
	mu      sync.RWMutex
	header  []string
	entries []*entity.NoteLog
}

var _ repository.NoteLedger = (*Ledger)(nil)

func NewLedger() *Ledger {
	return &Ledger{}
}

func (l *Ledger) Backend() string {
	return backendName
}

// Header 返回当前表头；尚未写入任何记录时为空
func (l *Ledger) Header() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.header...)
}

func (l *Ledger) Append(ctx context.Context, entry *entity.NoteLog) error {
	if err := ctx.Err(); err != nil {
		return repository.NewLedgerError(backendName, "append", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, e := range l.entries {
		if e.NoteID == entry.NoteID {
			return repository.NewLedgerError(backendName, "append", repository.ErrDuplicateNoteID)
		}
	}
	if len(l.header) == 0 {
		l.header = append([]string(nil), entity.LedgerColumns...)
	}
	cp := *entry
	l.entries = append(l.entries, &cp)
	return nil
}

func (l *Ledger) SumUsageSince(ctx context.Context, since time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, repository.NewLedgerError(backendName, "sum_usage", err)
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	var total int64
	for _, e := range l.entries {
		if !e.CreatedAt.Before(since) {
			total += e.TotalTokens
		}
	}
	return total, nil
}

func (l *Ledger) ListRecent(ctx context.Context, limit int) ([]*entity.NoteLog, error) {
	if err := ctx.Err(); err != nil {
		return nil, repository.NewLedgerError(backendName, "list_recent", err)
	}
	l.mu.RLock()
	sorted := make([]*entity.NoteLog, len(l.entries))
	copy(sorted, l.entries)
	l.mu.RUnlock()

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if limit >= 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

func (l *Ledger) FindByID(ctx context.Context, noteID string) (*entity.NoteLog, error) {
	if err := ctx.Err(); err != nil {
		return nil, repository.NewLedgerError(backendName, "find", err)
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, e := range l.entries {
		if e.NoteID == noteID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, repository.ErrNoteLogNotFound
}

// ErrUnavailable 配置的台账后端在启动时不可达
var ErrUnavailable = errors.New("ledger backend unavailable")

// Unavailable 所有操作都返回 LedgerError 的台账
//
// 启动时后端连接失败会使用它替代，服务以降级模式运行。
type Unavailable struct {
	backend string
	cause   error
}

var _ repository.NoteLedger = (*Unavailable)(nil)

func NewUnavailable(backend string, cause error) *Unavailable {
	if cause == nil {
		cause = ErrUnavailable
	}
	return &Unavailable{backend: backend, cause: cause}
}

func (u *Unavailable) Backend() string {
	return u.backend
}

func (u *Unavailable) Append(context.Context, *entity.NoteLog) error {
	return repository.NewLedgerError(u.backend, "append", u.cause)
}

func (u *Unavailable) SumUsageSince(context.Context, time.Time) (int64, error) {
	return 0, repository.NewLedgerError(u.backend, "sum_usage", u.cause)
}

func (u *Unavailable) ListRecent(context.Context, int) ([]*entity.NoteLog, error) {
	return nil, repository.NewLedgerError(u.backend, "list_recent", u.cause)
}

func (u *Unavailable) FindByID(context.Context, string) (*entity.NoteLog, error) {
	return nil, repository.NewLedgerError(u.backend, "find", u.cause)
}
