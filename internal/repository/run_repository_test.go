package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mishrapeekay/campuskona-timetable/internal/models"
)

func newRunRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestGenerationRunRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRunRepoMock(t)
	defer cleanup()
	repo := NewGenerationRunRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO generation_runs")).
		WithArgs(sqlmock.AnyArg(), "term-1", types.JSONText(`["sec-1","sec-2"]`), string(models.RunStatusDraft),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	run := &models.GenerationRun{
		TermID:     "term-1",
		SectionIDs: types.JSONText(`["sec-1","sec-2"]`),
	}
	err := repo.Create(context.Background(), run)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, models.RunStatusDraft, run.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerationRunRepositoryCreateRequiresTerm(t *testing.T) {
	db, _, cleanup := newRunRepoMock(t)
	defer cleanup()
	repo := NewGenerationRunRepository(db)

	err := repo.Create(context.Background(), &models.GenerationRun{})
	assert.Error(t, err)
}

func TestGenerationRunRepositoryListByTerm(t *testing.T) {
	db, mock, cleanup := newRunRepoMock(t)
	defer cleanup()
	repo := NewGenerationRunRepository(db)

	rows := sqlmock.NewRows([]string{"id", "term_id", "section_ids", "status", "fitness", "schedule", "snapshot", "stats", "error_detail", "created_at", "updated_at", "applied_at", "rolled_back_at"}).
		AddRow("run-1", "term-1", types.JSONText(`["sec-1"]`), string(models.RunStatusCompleted), 12.5,
			types.JSONText(`{}`), types.JSONText(`[]`), types.JSONText(`{}`), nil, time.Now(), time.Now(), nil, nil)
	mock.ExpectQuery("SELECT (.+) FROM generation_runs WHERE term_id").
		WithArgs("term-1").
		WillReturnRows(rows)

	runs, err := repo.ListByTerm(context.Background(), "term-1")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, models.RunStatusCompleted, runs[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerationRunRepositorySetCompleted(t *testing.T) {
	db, mock, cleanup := newRunRepoMock(t)
	defer cleanup()
	repo := NewGenerationRunRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE generation_runs SET status = $1, fitness = $2, schedule = $3, stats = $4, updated_at = $5 WHERE id = $6 AND status = $7")).
		WithArgs(string(models.RunStatusCompleted), 7.0, types.JSONText(`{"sections":{}}`), types.JSONText(`{"generations":10}`),
			sqlmock.AnyArg(), "run-1", string(models.RunStatusRunning)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.SetCompleted(context.Background(), "run-1", 7.0, types.JSONText(`{"sections":{}}`), types.JSONText(`{"generations":10}`))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerationRunRepositorySetAppliedWrongState(t *testing.T) {
	db, mock, cleanup := newRunRepoMock(t)
	defer cleanup()
	repo := NewGenerationRunRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE generation_runs SET status = $1, snapshot = $2, applied_at = $3, updated_at = $4 WHERE id = $5 AND status = $6")).
		WithArgs(string(models.RunStatusApplied), types.JSONText(`[]`), sqlmock.AnyArg(), sqlmock.AnyArg(), "run-1", string(models.RunStatusCompleted)).
		WillReturnResult(sqlmock.NewResult(1, 0))

	err := repo.SetApplied(context.Background(), nil, "run-1", types.JSONText(`[]`))
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerationRunRepositorySetRolledBack(t *testing.T) {
	db, mock, cleanup := newRunRepoMock(t)
	defer cleanup()
	repo := NewGenerationRunRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE generation_runs SET status = $1, rolled_back_at = $2, updated_at = $3 WHERE id = $4 AND status = $5")).
		WithArgs(string(models.RunStatusRolledBack), sqlmock.AnyArg(), sqlmock.AnyArg(), "run-1", string(models.RunStatusApplied)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.SetRolledBack(context.Background(), nil, "run-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
