package store

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-asset-data/asset-pipeline/internal/model"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresWithPool(mock), mock
}

func TestPostgresStore_CreateRun(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs(pgxmock.AnyArg(), string(model.RunStatusRunning), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	run, err := s.CreateRun(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusRunning, run.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FinishRun(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE runs SET status`).
		WithArgs(string(model.RunStatusFailed), pgxmock.AnyArg(), pgxmock.AnyArg(), "run-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.FinishRun(context.Background(), "run-1", model.RunStatusFailed, "boom")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FinishRun_NotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE runs SET status`).
		WithArgs(string(model.RunStatusComplete), pgxmock.AnyArg(), pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.FinishRun(context.Background(), "missing", model.RunStatusComplete, "")
	assert.Error(t, err)
}

func TestPostgresStore_GetRun(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, status, error, created_at, updated_at FROM runs`).
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "status", "error", "created_at", "updated_at"}).
			AddRow("run-1", "complete", (*string)(nil), now, now))

	run, err := s.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, run.Status)
	assert.Empty(t, run.Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRuns_StatusFilter(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()
	msg := "stage apa: no plants"

	mock.ExpectQuery(`SELECT id, status, error, created_at, updated_at FROM runs WHERE true AND status`).
		WithArgs(string(model.RunStatusFailed), 100).
		WillReturnRows(pgxmock.NewRows([]string{"id", "status", "error", "created_at", "updated_at"}).
			AddRow("run-2", "failed", &msg, now, now))

	runs, err := s.ListRuns(context.Background(), RunFilter{Status: model.RunStatusFailed})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, msg, runs[0].Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_StageLifecycle(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO run_stages`).
		WithArgs(pgxmock.AnyArg(), "run-1", "integrate", string(model.RunStatusRunning), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`UPDATE run_stages SET status`).
		WithArgs(string(model.RunStatusComplete), 250, int64(1500), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	stage, err := s.StartStage(context.Background(), "run-1", "integrate")
	require.NoError(t, err)
	assert.Equal(t, "integrate", stage.Stage)

	err = s.FinishStage(context.Background(), stage.ID, model.RunStatusComplete, 250, 1500*time.Millisecond, "")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListStages(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, run_id, stage, status, rows_written, duration_ms, error, started_at`).
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "run_id", "stage", "status", "rows_written", "duration_ms", "error", "started_at"}).
			AddRow("st-1", "run-1", "ingest", "complete", 1042, int64(3000), (*string)(nil), now).
			AddRow("st-2", "run-1", "ownership", "complete", 388, int64(900), (*string)(nil), now))

	stages, err := s.ListStages(context.Background(), "run-1")
	require.NoError(t, err)
	require.Len(t, stages, 2)
	assert.Equal(t, "ingest", stages[0].Stage)
	assert.Equal(t, 1042, stages[0].RowsWritten)
	assert.NoError(t, mock.ExpectationsWereMet())
}
