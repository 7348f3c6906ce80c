// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"note-article-api/internal/domain/entity"
	"note-article-api/internal/domain/repository"
)

const backendName = "postgres"

// NoteLogRepository 以 note_logs 表作为台账
type NoteLogRepository struct {
	client *Client
}

var _ repository.NoteLedger = (*NoteLogRepository)(nil)

func NewNoteLogRepository(client *Client) *NoteLogRepository {
	return &NoteLogRepository{client: client}
}

func (r *NoteLogRepository) Backend() string {
	return backendName
}

// Migrate 创建或更新 note_logs 表
func (r *NoteLogRepository) Migrate(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "postgres.NoteLogRepository.Migrate")
	defer span.End()

	if err := r.client.db.WithContext(ctx).AutoMigrate(&entity.NoteLog{}); err != nil {
		span.RecordError(err)
		return repository.NewLedgerError(backendName, "migrate", err)
	}
	return nil
}

func (r *NoteLogRepository) Append(ctx context.Context, entry *entity.NoteLog) error {
	ctx, span := tracer.Start(ctx, "postgres.NoteLogRepository.Append")
	span.SetAttributes(attribute.String("note.id", entry.NoteID))
	defer span.End()

	if err := r.client.db.WithContext(ctx).Create(entry).Error; err != nil {
		span.RecordError(err)
		return repository.NewLedgerError(backendName, "append", err)
	}
	return nil
}

func (r *NoteLogRepository) SumUsageSince(ctx context.Context, since time.Time) (int64, error) {
	ctx, span := tracer.Start(ctx, "postgres.NoteLogRepository.SumUsageSince")
	defer span.End()

	var total int64
	if err := r.client.db.WithContext(ctx).
		Model(&entity.NoteLog{}).
		Where("created_at >= ?", since).
		Select("COALESCE(SUM(total_tokens),0)").
		Scan(&total).Error; err != nil {
		span.RecordError(err)
		return 0, repository.NewLedgerError(backendName, "sum_usage", err)
	}
	span.SetAttributes(attribute.Int64("ledger.total_tokens", total))
	return total, nil
}

func (r *NoteLogRepository) ListRecent(ctx context.Context, limit int) ([]*entity.NoteLog, error) {
	ctx, span := tracer.Start(ctx, "postgres.NoteLogRepository.ListRecent")
	defer span.End()

	var logs []*entity.NoteLog
	if err := r.client.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error; err != nil {
		span.RecordError(err)
		return nil, repository.NewLedgerError(backendName, "list_recent", err)
	}
	return logs, nil
}

func (r *NoteLogRepository) FindByID(ctx context.Context, noteID string) (*entity.NoteLog, error) {
	ctx, span := tracer.Start(ctx, "postgres.NoteLogRepository.FindByID")
	span.SetAttributes(attribute.String("note.id", noteID))
	defer span.End()

	var log entity.NoteLog
	err := r.client.db.WithContext(ctx).Where("note_id = ?", noteID).First(&log).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrNoteLogNotFound
	}
	if err != nil {
		span.RecordError(err)
		return nil, repository.NewLedgerError(backendName, "find", err)
	}
	return &log, nil
}
