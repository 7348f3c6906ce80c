// Package repository 定义数据访问层接口
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"note-article-api/internal/domain/entity"
)

// ErrNoteLogNotFound 台账中不存在该记录
var ErrNoteLogNotFound = errors.New("note log not found")

// ErrDuplicateNoteID 同一 note_id 已写入过台账；以 LedgerError 的形式返回
var ErrDuplicateNoteID = errors.New("note_id already recorded")

// LedgerError 台账后端故障。调用方只对这一种错误做降级处理。
type LedgerError struct {
	Backend string
	Op      string
	Err     error
}

func (e *LedgerError) Error() string {
	return fmt.Sprintf("ledger %s %s: %v", e.Backend, e.Op, e.Err)
}

func (e *LedgerError) Unwrap() error {
	return e.Err
}

// NewLedgerError 包装后端错误；nil 原样返回
func NewLedgerError(backend, op string, err error) error {
	if err == nil {
		return nil
	}
	var le *LedgerError
	if errors.As(err, &le) {
		return err
	}
	return &LedgerError{Backend: backend, Op: op, Err: err}
}

// IsLedgerError 判断是否为台账故障
func IsLedgerError(err error) bool {
	var le *LedgerError
	return errors.As(err, &le)
}

// UsageLedger 配额计算依赖的最小台账能力
type UsageLedger interface {
	// SumUsageSince 统计 since（含）之后记录的 total_tokens 之和
	SumUsageSince(ctx context.Context, since time.Time) (int64, error)
	// Append 追加一条记录
	Append(ctx context.Context, entry *entity.NoteLog) error
}

// NoteLogReader 历史记录查询
type NoteLogReader interface {
	// ListRecent 按创建时间倒序返回最多 limit 条
	ListRecent(ctx context.Context, limit int) ([]*entity.NoteLog, error)
	// FindByID 按 note_id 查询；不存在时返回 ErrNoteLogNotFound
	FindByID(ctx context.Context, noteID string) (*entity.NoteLog, error)
}

// NoteLedger 完整的台账能力
type NoteLedger interface {
	UsageLedger
	NoteLogReader
	// Backend 后端名称，用于日志与指标
	Backend() string
}
