package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"note-article-api/internal/domain/entity"
	"note-article-api/internal/domain/repository"
)

func setupMockRepo(t *testing.T) (*NoteLogRepository, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	dialector := postgres.New(postgres.Config{
		Conn: sqlDB,
	})
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return NewNoteLogRepository(NewClientFromDB(db)), mock
}

func sampleLog() *entity.NoteLog {
	return &entity.NoteLog{
		NoteID:         "note_20250101_120000_123",
		Topic:          "X",
		Audience:       "Y",
		Goal:           "Z",
		ArticleType:    "education",
		LengthClass:    "short",
		Temperature:    0.7,
		IntensityLevel: 5,
		Title:          "B",
		RawJSON:        `{"status":"SUCCESS"}`,
		TotalTokens:    210,
		CreatedAt:      time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestAppendInsertsRow(t *testing.T) {
	repo, mock := setupMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "note_logs"`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Append(context.Background(), sampleLog()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendFailureIsLedgerError(t *testing.T) {
	repo, mock := setupMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "note_logs"`).WillReturnError(errors.New("duplicate key value"))
	mock.ExpectRollback()

	err := repo.Append(context.Background(), sampleLog())
	require.Error(t, err)
	assert.True(t, repository.IsLedgerError(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSumUsageSince(t *testing.T) {
	repo, mock := setupMockRepo(t)
	since := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(total_tokens\),0\) FROM "note_logs" WHERE created_at >= \$1`).
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(298000))

	total, err := repo.SumUsageSince(context.Background(), since)
	require.NoError(t, err)
	assert.Equal(t, int64(298000), total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSumUsageSinceFailureIsLedgerError(t *testing.T) {
	repo, mock := setupMockRepo(t)

	mock.ExpectQuery(`SELECT COALESCE`).WillReturnError(errors.New("connection refused"))

	_, err := repo.SumUsageSince(context.Background(), time.Now())
	require.Error(t, err)

	var le *repository.LedgerError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "postgres", le.Backend)
	assert.Equal(t, "sum_usage", le.Op)
}

func TestListRecentOrdersNewestFirst(t *testing.T) {
	repo, mock := setupMockRepo(t)
	newer := sampleLog()
	older := sampleLog()
	older.NoteID = "note_20241231_000000_000"
	older.CreatedAt = newer.CreatedAt.Add(-24 * time.Hour)

	rows := sqlmock.NewRows(entity.LedgerColumns)
	for _, l := range []*entity.NoteLog{newer, older} {
		rows.AddRow(l.NoteID, l.Topic, l.Audience, l.Goal, l.ArticleType, l.LengthClass,
			l.Temperature, l.IntensityLevel, l.Title, l.RawJSON, l.TotalTokens, l.CreatedAt)
	}
	mock.ExpectQuery(`SELECT \* FROM "note_logs" ORDER BY created_at DESC LIMIT`).WillReturnRows(rows)

	logs, err := repo.ListRecent(context.Background(), 20)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, newer.NoteID, logs[0].NoteID)
	assert.Equal(t, older.NoteID, logs[1].NoteID)
}

func TestFindByIDNotFound(t *testing.T) {
	repo, mock := setupMockRepo(t)

	mock.ExpectQuery(`SELECT \* FROM "note_logs" WHERE note_id = \$1`).
		WillReturnRows(sqlmock.NewRows(entity.LedgerColumns))

	_, err := repo.FindByID(context.Background(), "note_missing")
	assert.ErrorIs(t, err, repository.ErrNoteLogNotFound)
	assert.False(t, repository.IsLedgerError(err))
}
