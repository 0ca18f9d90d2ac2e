package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/csvlint/internal/csvcheck"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// PostgresStore stores reports in PostgreSQL.
// Messages go to a child table and are written with the COPY protocol.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store backed by pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the tables if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// messageColumns lists validation_messages columns in CopyFrom order.
var messageColumns = []string{
	"report_id", "seq", "code", "severity", "content", "kind",
	"row_num", "field_num", "field_name", "char_offset",
}

// SaveReport implements ReportStore.
func (s *PostgresStore) SaveReport(ctx context.Context, r *StoredReport) error {
	rep := r.Report
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO validation_reports (
				id, file_name, profile_name, separator, has_header, bytes_read,
				elapsed_us, data_row_count, field_count, header_names,
				error_count, warning_count, info_count, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			toPgUUID(r.ID),
			r.FileName,
			toPgText(r.ProfileName),
			r.Separator,
			r.HasHeader,
			r.BytesRead,
			rep.Elapsed.Microseconds(),
			rep.DataRowCount,
			rep.FieldCount,
			rep.HeaderNames,
			rep.CountBySeverity(csvcheck.SeverityError),
			rep.CountBySeverity(csvcheck.SeverityWarning),
			rep.CountBySeverity(csvcheck.SeverityInformation),
			r.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert report: %w", err)
		}

		if len(rep.Messages) == 0 {
			return nil
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"validation_messages"},
			messageColumns,
			pgx.CopyFromSlice(len(rep.Messages), func(i int) ([]any, error) {
				return messageRow(r.ID, i, rep.Messages[i]), nil
			}),
		)
		if err != nil {
			return fmt.Errorf("copy messages: %w", err)
		}
		return nil
	})
}

// messageRow converts a message to a row matching messageColumns.
func messageRow(reportID uuid.UUID, seq int, m csvcheck.Message) []any {
	return []any{
		toPgUUID(reportID),
		int32(seq),
		int32(m.Code),
		m.Severity.String(),
		m.Content,
		string(m.Kind),
		int32(m.Row),
		int32(m.Field),
		m.FieldName,
		int32(m.Offset),
	}
}

// GetReport implements ReportStore.
func (s *PostgresStore) GetReport(ctx context.Context, id uuid.UUID) (*StoredReport, error) {
	return getReport(ctx, s.pool, id)
}

func getReport(ctx context.Context, db DBTX, id uuid.UUID) (*StoredReport, error) {
	var (
		out       StoredReport
		rep       csvcheck.Report
		profile   pgtype.Text
		elapsedUS int64
	)
	err := db.QueryRow(ctx, `
		SELECT id, file_name, profile_name, separator, has_header, bytes_read,
		       elapsed_us, data_row_count, field_count, header_names, created_at
		FROM validation_reports WHERE id = $1`, toPgUUID(id),
	).Scan(
		&out.ID, &out.FileName, &profile, &out.Separator, &out.HasHeader, &out.BytesRead,
		&elapsedUS, &rep.DataRowCount, &rep.FieldCount, &rep.HeaderNames, &out.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	out.ProfileName = profile.String
	rep.Elapsed = time.Duration(elapsedUS) * time.Microsecond
	if rep.HeaderNames == nil {
		rep.HeaderNames = []string{}
	}

	rows, err := db.Query(ctx, `
		SELECT code, severity, content, kind, row_num, field_num, field_name, char_offset
		FROM validation_messages WHERE report_id = $1 ORDER BY seq`, toPgUUID(id))
	if err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}
	rep.Messages, err = pgx.CollectRows(rows, scanMessage)
	if err != nil {
		return nil, fmt.Errorf("scan messages: %w", err)
	}

	out.Report = &rep
	return &out, nil
}

func scanMessage(row pgx.CollectableRow) (csvcheck.Message, error) {
	var (
		m        csvcheck.Message
		severity string
		kind     string
	)
	if err := row.Scan(&m.Code, &severity, &m.Content, &kind, &m.Row, &m.Field, &m.FieldName, &m.Offset); err != nil {
		return m, err
	}
	sev, err := csvcheck.ParseSeverity(severity)
	if err != nil {
		return m, err
	}
	m.Severity = sev
	m.Kind = csvcheck.Kind(kind)
	return m, nil
}

// ListReports implements ReportStore.
func (s *PostgresStore) ListReports(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, file_name, profile_name, data_row_count, field_count,
		       error_count, warning_count, info_count, created_at
		FROM validation_reports ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Summary, error) {
		var (
			sum     Summary
			profile pgtype.Text
		)
		err := row.Scan(&sum.ID, &sum.FileName, &profile, &sum.DataRowCount, &sum.FieldCount,
			&sum.Errors, &sum.Warnings, &sum.Information, &sum.CreatedAt)
		sum.ProfileName = profile.String
		return sum, err
	})
}

// DeleteReportsBefore implements ReportStore.
func (s *PostgresStore) DeleteReportsBefore(ctx context.Context, t time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM validation_reports WHERE created_at < $1`, t)
	if err != nil {
		return 0, fmt.Errorf("delete reports: %w", err)
	}
	return tag.RowsAffected(), nil
}

func toPgText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

func toPgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}
