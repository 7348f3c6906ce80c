package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"

	"note-article-api/internal/domain/entity"
	"note-article-api/internal/domain/repository"
)

const backendName = "redis"

// NoteLedger 基于 Redis 的台账
//
// 键布局（prefix 默认为 note_logs）：
//
//	<prefix>:header  表头 JSON 数组，首次写入前创建
//	<prefix>:rows    hash，note_id -> 行 JSON 数组
//	<prefix>:index   zset，note_id 按 created_at 毫秒排序
type NoteLedger struct {
	client *Client
	prefix string
}

var _ repository.NoteLedger = (*NoteLedger)(nil)

func NewNoteLedger(client *Client, prefix string) *NoteLedger {
	if prefix == "" {
		prefix = "note_logs"
	}
	return &NoteLedger{client: client, prefix: prefix}
}

func (l *NoteLedger) Backend() string {
	return backendName
}

func (l *NoteLedger) headerKey() string { return l.prefix + ":header" }
func (l *NoteLedger) rowsKey() string   { return l.prefix + ":rows" }
func (l *NoteLedger) indexKey() string  { return l.prefix + ":index" }

// ensureHeader 表头不存在时写入
func (l *NoteLedger) ensureHeader(ctx context.Context) error {
	header, err := json.Marshal(entity.LedgerColumns)
	if err != nil {
		return err
	}
	return l.client.rdb.SetNX(ctx, l.headerKey(), header, 0).Err()
}

func (l *NoteLedger) Append(ctx context.Context, entry *entity.NoteLog) error {
	ctx, span := tracer.Start(ctx, "redis.NoteLedger.Append")
	span.SetAttributes(attribute.String("note.id", entry.NoteID))
	defer span.End()

	if err := l.ensureHeader(ctx); err != nil {
		span.RecordError(err)
		return repository.NewLedgerError(backendName, "ensure_header", err)
	}

	row, err := json.Marshal(entry.Row())
	if err != nil {
		return repository.NewLedgerError(backendName, "append", err)
	}

	// 已存在的 note_id 不覆盖：HSETNX 与 ZADD NX 在同一事务内要么都生效要么都不生效
	var created *redis.BoolCmd
	_, err = l.client.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		created = pipe.HSetNX(ctx, l.rowsKey(), entry.NoteID, row)
		pipe.ZAddNX(ctx, l.indexKey(), redis.Z{
			Score:  float64(entry.CreatedAt.UnixMilli()),
			Member: entry.NoteID,
		})
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return repository.NewLedgerError(backendName, "append", err)
	}
	if !created.Val() {
		span.RecordError(repository.ErrDuplicateNoteID)
		return repository.NewLedgerError(backendName, "append", repository.ErrDuplicateNoteID)
	}
	return nil
}

func (l *NoteLedger) SumUsageSince(ctx context.Context, since time.Time) (int64, error) {
	ctx, span := tracer.Start(ctx, "redis.NoteLedger.SumUsageSince")
	defer span.End()

	ids, err := l.client.rdb.ZRangeByScore(ctx, l.indexKey(), &redis.ZRangeBy{
		Min: strconv.FormatInt(since.UnixMilli(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		span.RecordError(err)
		return 0, repository.NewLedgerError(backendName, "sum_usage", err)
	}

	logs, err := l.loadRows(ctx, ids)
	if err != nil {
		span.RecordError(err)
		return 0, repository.NewLedgerError(backendName, "sum_usage", err)
	}

	var total int64
	for _, log := range logs {
		total += log.TotalTokens
	}
	span.SetAttributes(attribute.Int64("ledger.total_tokens", total))
	return total, nil
}

func (l *NoteLedger) ListRecent(ctx context.Context, limit int) ([]*entity.NoteLog, error) {
	ctx, span := tracer.Start(ctx, "redis.NoteLedger.ListRecent")
	defer span.End()

	if limit <= 0 {
		return []*entity.NoteLog{}, nil
	}
	ids, err := l.client.rdb.ZRevRange(ctx, l.indexKey(), 0, int64(limit-1)).Result()
	if err != nil {
		span.RecordError(err)
		return nil, repository.NewLedgerError(backendName, "list_recent", err)
	}

	logs, err := l.loadRows(ctx, ids)
	if err != nil {
		span.RecordError(err)
		return nil, repository.NewLedgerError(backendName, "list_recent", err)
	}
	return logs, nil
}

func (l *NoteLedger) FindByID(ctx context.Context, noteID string) (*entity.NoteLog, error) {
	ctx, span := tracer.Start(ctx, "redis.NoteLedger.FindByID")
	span.SetAttributes(attribute.String("note.id", noteID))
	defer span.End()

	raw, err := l.client.rdb.HGet(ctx, l.rowsKey(), noteID).Result()
	if IsNil(err) {
		return nil, repository.ErrNoteLogNotFound
	}
	if err != nil {
		span.RecordError(err)
		return nil, repository.NewLedgerError(backendName, "find", err)
	}
	log, err := decodeRow(raw)
	if err != nil {
		return nil, repository.NewLedgerError(backendName, "find", err)
	}
	return log, nil
}

// loadRows 按 ids 顺序读取行，缺失的行被跳过
func (l *NoteLedger) loadRows(ctx context.Context, ids []string) ([]*entity.NoteLog, error) {
	if len(ids) == 0 {
		return []*entity.NoteLog{}, nil
	}
	values, err := l.client.rdb.HMGet(ctx, l.rowsKey(), ids...).Result()
	if err != nil {
		return nil, err
	}
	return decodeRows(values)
}

func decodeRows(values []any) ([]*entity.NoteLog, error) {
	logs := make([]*entity.NoteLog, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		log, err := decodeRow(raw)
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, nil
}

func decodeRow(raw string) (*entity.NoteLog, error) {
	var row []string
	if err := json.Unmarshal([]byte(raw), &row); err != nil {
		return nil, fmt.Errorf("decode ledger row: %w", err)
	}
	return entity.NoteLogFromRow(row)
}
