package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/reports"
)

// DBTX is the part of a pgx pool the repository uses.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresReportRepository implements ReportRepository using PostgreSQL
type PostgresReportRepository struct {
	db DBTX
}

// NewPostgresReportRepository creates a new PostgreSQL report repository
func NewPostgresReportRepository(db DBTX) *PostgresReportRepository {
	return &PostgresReportRepository{db: db}
}

const selectReports = `
		SELECT id, name, metrics, data, created_at, updated_at
		FROM campaign_reports`

// Create inserts a new report
func (r *PostgresReportRepository) Create(ctx context.Context, rec *reports.Record) error {
	query := `
		INSERT INTO campaign_reports (id, name, metrics, data)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	metrics, data, err := encodeGrid(rec)
	if err != nil {
		return err
	}

	err = r.db.QueryRow(ctx, query, rec.ID, rec.Name, metrics, data).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

// Update overwrites an existing report
func (r *PostgresReportRepository) Update(ctx context.Context, rec *reports.Record) error {
	query := `
		UPDATE campaign_reports
		SET name = $2, metrics = $3, data = $4, updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at`

	metrics, data, err := encodeGrid(rec)
	if err != nil {
		return err
	}

	err = r.db.QueryRow(ctx, query, rec.ID, rec.Name, metrics, data).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return reports.ErrRecordNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update report: %w", err)
	}
	return nil
}

// Get retrieves a report by ID
func (r *PostgresReportRepository) Get(ctx context.Context, id uuid.UUID) (*reports.Record, error) {
	rec, err := scanReport(r.db.QueryRow(ctx, selectReports+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, reports.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return rec, nil
}

func (r *PostgresReportRepository) List(ctx context.Context) ([]*reports.Record, error) {
	return r.query(ctx, selectReports+` ORDER BY created_at DESC`)
}

func (r *PostgresReportRepository) Search(ctx context.Context, q string) ([]*reports.Record, error) {
	return r.query(ctx, selectReports+` WHERE name ILIKE $1 ORDER BY created_at DESC`, likePattern(q))
}

// Delete removes a report
func (r *PostgresReportRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM campaign_reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	if result.RowsAffected() == 0 {
		return reports.ErrRecordNotFound
	}
	return nil
}

// Close is a no-op; the pool belongs to the caller.
func (r *PostgresReportRepository) Close() error { return nil }

func (r *PostgresReportRepository) query(ctx context.Context, query string, args ...any) ([]*reports.Record, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	out := []*reports.Record{}
	for rows.Next() {
		rec, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return out, nil
}

func scanReport(row pgx.Row) (*reports.Record, error) {
	rec := &reports.Record{}
	var metrics, data []byte
	if err := row.Scan(&rec.ID, &rec.Name, &metrics, &data, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	if err := decodeGrid(rec, metrics, data); err != nil {
		return nil, err
	}
	return rec, nil
}

func encodeGrid(rec *reports.Record) (metrics, data []byte, err error) {
	m := rec.Metrics
	if m == nil {
		m = []string{}
	}
	d := rec.Data
	if d == nil {
		d = [][]string{}
	}
	if metrics, err = json.Marshal(m); err != nil {
		return nil, nil, fmt.Errorf("failed to encode metrics: %w", err)
	}
	if data, err = json.Marshal(d); err != nil {
		return nil, nil, fmt.Errorf("failed to encode data: %w", err)
	}
	return metrics, data, nil
}

func decodeGrid(rec *reports.Record, metrics, data []byte) error {
	if err := json.Unmarshal(metrics, &rec.Metrics); err != nil {
		return fmt.Errorf("failed to decode metrics: %w", err)
	}
	if err := json.Unmarshal(data, &rec.Data); err != nil {
		return fmt.Errorf("failed to decode data: %w", err)
	}
	return nil
}
