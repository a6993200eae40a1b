package repository

import (
	"context"
	"strings"

	"github.com/jmehdipour/emay-gateway/internal/model"
	"github.com/jmoiron/sqlx"
)

// RecordsRepository persists sms_records in MySQL.
type RecordsRepository interface {
	InsertBatch(ctx context.Context, tx *sqlx.Tx, recs []model.Record) error
	ApplyResults(ctx context.Context, tx *sqlx.Tx, results []model.RecordResult) error
	UpdateDelivery(ctx context.Context, smsID, state string) (int64, error)
	List(ctx context.Context, f RecordFilter) ([]model.Record, error)
}

type RecordFilter struct {
	Mobile string
	Status model.RecordStatus
	Client string
	Limit  int
	Offset int
}

type RecordsRepositoryImpl struct {
	db *sqlx.DB
}

func NewRecordsRepository(db *sqlx.DB) *RecordsRepositoryImpl {
	return &RecordsRepositoryImpl{db: db}
}

func (r *RecordsRepositoryImpl) withTx(ctx context.Context, tx *sqlx.Tx, fn func(*sqlx.Tx) error) error {
	if tx != nil {
		return fn(tx)
	}
	t, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = t.Rollback() }()
	if err := fn(t); err != nil {
		return err
	}
	return t.Commit()
}

// InsertBatch inserts records in one statement. Existing ids are left untouched,
// so replaying a batch is harmless.
func (r *RecordsRepositoryImpl) InsertBatch(ctx context.Context, tx *sqlx.Tx, recs []model.Record) error {
	if len(recs) == 0 {
		return nil
	}

	var sb strings.Builder
	args := make([]any, 0, len(recs)*9)

	sb.WriteString(`INSERT INTO sms_records (id, mobile, content, custom_sms_id, mode, status, sms_id, code, client, created_at, updated_at) VALUES `)
	for i, rec := range recs {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?, ?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())")
		args = append(args, rec.ID, rec.Mobile, rec.Content, rec.CustomSmsID,
			rec.Mode.String(), rec.Status.String(), rec.SmsID, rec.Code, rec.Client)
	}
	sb.WriteString(` ON DUPLICATE KEY UPDATE id = id`)

	return r.withTx(ctx, tx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, sb.String(), args...)
		return err
	})
}

// ApplyResults stores the gateway outcome of each record. Delivered/undelivered rows are not downgraded.
func (r *RecordsRepositoryImpl) ApplyResults(ctx context.Context, tx *sqlx.Tx, results []model.RecordResult) error {
	if len(results) == 0 {
		return nil
	}

	const q = `
		UPDATE sms_records
		SET status = ?, sms_id = NULLIF(?, ''), code = NULLIF(?, ''), updated_at = NOW()
		WHERE id = ? AND status IN ('queued', 'sent', 'failed')
	`
	return r.withTx(ctx, tx, func(tx *sqlx.Tx) error {
		stmt, err := tx.PreparexContext(ctx, q)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, res := range results {
			if _, err := stmt.ExecContext(ctx, res.Status.String(), res.SmsID, res.Code, res.ID); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateDelivery marks the record carrying smsID as delivered or undelivered.
func (r *RecordsRepositoryImpl) UpdateDelivery(ctx context.Context, smsID, state string) (int64, error) {
	const q = `UPDATE sms_records SET status = ?, report_state = ?, updated_at = NOW() WHERE sms_id = ?`

	res, err := r.db.ExecContext(ctx, q, model.StatusFromReport(state).String(), state, smsID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *RecordsRepositoryImpl) List(ctx context.Context, f RecordFilter) ([]model.Record, error) {
	if f.Limit <= 0 || f.Limit > 1000 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	q := `
		SELECT id, mobile, content, custom_sms_id, mode, status, sms_id, code, report_state, client, created_at, updated_at
		FROM sms_records
		WHERE 1 = 1
	`
	args := []any{}

	if f.Mobile != "" {
		q += " AND mobile = ?"
		args = append(args, f.Mobile)
	}
	if f.Status != "" {
		q += " AND status = ?"
		args = append(args, f.Status.String())
	}
	if f.Client != "" {
		q += " AND client = ?"
		args = append(args, f.Client)
	}

	q += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, f.Limit, f.Offset)

	rows := []model.Record{}
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return rows, nil
}
