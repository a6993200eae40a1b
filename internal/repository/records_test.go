package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmehdipour/emay-gateway/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2024, 3, 9, 8, 0, 0, 0, time.UTC)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })

	return sqlx.NewDb(raw, "mysql"), mock
}

func TestRecords_InsertBatch(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRecordsRepository(db)

	recs := []model.Record{
		{ID: "01A", Mobile: "13800000001", Content: "hi", Mode: model.ModeBatch, Status: model.StatusSent, Client: "crm"},
		{ID: "01B", Mobile: "13800000002", Content: "hi", Mode: model.ModeBatch, Status: model.StatusFailed, Client: "crm"},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sms_records")+".*"+regexp.QuoteMeta("ON DUPLICATE KEY UPDATE id = id")).
		WithArgs(
			"01A", "13800000001", "hi", "", "batch", "sent", nil, nil, "crm",
			"01B", "13800000002", "hi", "", "batch", "failed", nil, nil, "crm",
		).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, repo.InsertBatch(context.Background(), nil, recs))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecords_InsertBatchEmpty(t *testing.T) {
	db, mock := newMockDB(t)

	require.NoError(t, NewRecordsRepository(db).InsertBatch(context.Background(), nil, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecords_ApplyResults(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRecordsRepository(db)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta("UPDATE sms_records"))
	prep.ExpectExec().WithArgs("sent", "s-1", "SUCCESS", "01A").WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs("failed", "", "SYSTEM", "01B").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.ApplyResults(context.Background(), nil, []model.RecordResult{
		{ID: "01A", Status: model.StatusSent, SmsID: "s-1", Code: "SUCCESS"},
		{ID: "01B", Status: model.StatusFailed, Code: "SYSTEM"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecords_UpdateDelivery(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRecordsRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE sms_records SET status = ?")).
		WithArgs("delivered", "DELIVRD", "s-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE sms_records SET status = ?")).
		WithArgs("undelivered", "UNDELIV", "s-2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := repo.UpdateDelivery(context.Background(), "s-1", "DELIVRD")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.UpdateDelivery(context.Background(), "s-2", "UNDELIV")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecords_List(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRecordsRepository(db)

	cols := []string{"id", "mobile", "content", "custom_sms_id", "mode", "status", "sms_id", "code", "report_state", "client", "created_at", "updated_at"}
	mock.ExpectQuery(regexp.QuoteMeta("FROM sms_records")+".*"+regexp.QuoteMeta("AND mobile = ?")+".*"+regexp.QuoteMeta("AND status = ?")).
		WithArgs("13800000001", "sent", 50, 0).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("01A", "13800000001", "hi", "", "single", "sent", "s-1", "SUCCESS", nil, "crm", fixedTime, fixedTime))

	rows, err := repo.List(context.Background(), RecordFilter{Mobile: "13800000001", Status: model.StatusSent, Limit: 5000, Offset: -1})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "01A", rows[0].ID)
	require.NotNil(t, rows[0].SmsID)
	assert.Equal(t, "s-1", *rows[0].SmsID)
	assert.Nil(t, rows[0].ReportState)
	assert.NoError(t, mock.ExpectationsWereMet())
}
