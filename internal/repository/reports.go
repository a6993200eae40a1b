package repository

import (
	"context"
	"fmt"

	"github.com/jmehdipour/emay-gateway/internal/model"
	"github.com/jmoiron/sqlx"
)

// ReportsRepository archives pulled status reports and MO messages in ClickHouse.
type ReportsRepository interface {
	InsertReports(ctx context.Context, rows []model.Report) error
	InsertMo(ctx context.Context, rows []model.Mo) error
	ListReports(ctx context.Context, mobile string, limit, offset int) ([]model.Report, error)
}

type chReportsRepository struct {
	ch *sqlx.DB // ClickHouse connection
}

func NewReportsRepository(ch *sqlx.DB) ReportsRepository {
	return &chReportsRepository{ch: ch}
}

// InsertReports sends rows as one ClickHouse block (prepare + exec per row + commit).
func (r *chReportsRepository) InsertReports(ctx context.Context, rows []model.Report) error {
	if len(rows) == 0 {
		return nil
	}

	const q = `INSERT INTO smsgw.sms_reports
		(sms_id, custom_sms_id, mobile, state, description, extended_code, submit_time, receive_time, pulled_at)`

	return r.block(ctx, q, len(rows), func(stmt *sqlx.Stmt, i int) error {
		rw := rows[i]
		_, err := stmt.ExecContext(ctx, rw.SmsID, rw.CustomSmsID, rw.Mobile, rw.State, rw.Desc,
			rw.ExtendedCode, rw.SubmitTime, rw.ReceiveTime, rw.PulledAt)
		return err
	})
}

func (r *chReportsRepository) InsertMo(ctx context.Context, rows []model.Mo) error {
	if len(rows) == 0 {
		return nil
	}

	const q = `INSERT INTO smsgw.sms_mo (mobile, extended_code, content, mo_time, pulled_at)`

	return r.block(ctx, q, len(rows), func(stmt *sqlx.Stmt, i int) error {
		rw := rows[i]
		_, err := stmt.ExecContext(ctx, rw.Mobile, rw.ExtendedCode, rw.Content, rw.MoTime, rw.PulledAt)
		return err
	})
}

func (r *chReportsRepository) block(ctx context.Context, q string, n int, exec func(*sqlx.Stmt, int) error) error {
	tx, err := r.ch.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PreparexContext(ctx, q)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if err := exec(stmt, i); err != nil {
			return fmt.Errorf("append row %d: %w", i, err)
		}
	}

	return tx.Commit()
}

func (r *chReportsRepository) ListReports(ctx context.Context, mobile string, limit, offset int) ([]model.Report, error) {
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	q := `
		SELECT sms_id, custom_sms_id, mobile, state, description, extended_code, submit_time, receive_time, pulled_at
		FROM smsgw.sms_reports
	`
	args := []any{}

	if mobile != "" {
		q += " WHERE mobile = ?"
		args = append(args, mobile)
	}

	q += " ORDER BY pulled_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows := []model.Report{}
	if err := r.ch.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return rows, nil
}
