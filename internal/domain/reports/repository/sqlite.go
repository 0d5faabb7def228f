package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/reports"
)

// timeLayout is fixed width so text order equals time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteReportRepository implements ReportRepository on an embedded SQLite
// database, for the CLI and local development.
type SQLiteReportRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteReportRepository wraps a database opened with db.OpenSQLite
func NewSQLiteReportRepository(db *sql.DB) *SQLiteReportRepository {
	return &SQLiteReportRepository{db: db, now: time.Now}
}

const selectSQLiteReports = `
		SELECT id, name, metrics, data, created_at, updated_at
		FROM campaign_reports`

func (r *SQLiteReportRepository) Create(ctx context.Context, rec *reports.Record) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	metrics, data, err := encodeGrid(rec)
	if err != nil {
		return err
	}
	now := r.now().UTC()

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO campaign_reports (id, name, metrics, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID.String(), rec.Name, string(metrics), string(data), now.Format(timeLayout), now.Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	rec.CreatedAt, rec.UpdatedAt = now, now
	return nil
}

func (r *SQLiteReportRepository) Update(ctx context.Context, rec *reports.Record) error {
	metrics, data, err := encodeGrid(rec)
	if err != nil {
		return err
	}
	now := r.now().UTC()

	var created string
	err = r.db.QueryRowContext(ctx, `
		UPDATE campaign_reports
		SET name = ?, metrics = ?, data = ?, updated_at = ?
		WHERE id = ?
		RETURNING created_at`,
		rec.Name, string(metrics), string(data), now.Format(timeLayout), rec.ID.String()).Scan(&created)
	if errors.Is(err, sql.ErrNoRows) {
		return reports.ErrRecordNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update report: %w", err)
	}
	if rec.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return fmt.Errorf("failed to parse created_at: %w", err)
	}
	rec.UpdatedAt = now
	return nil
}

func (r *SQLiteReportRepository) Get(ctx context.Context, id uuid.UUID) (*reports.Record, error) {
	rec, err := scanSQLiteReport(r.db.QueryRowContext(ctx, selectSQLiteReports+` WHERE id = ?`, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, reports.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return rec, nil
}

func (r *SQLiteReportRepository) List(ctx context.Context) ([]*reports.Record, error) {
	return r.query(ctx, selectSQLiteReports+` ORDER BY created_at DESC`)
}

func (r *SQLiteReportRepository) Search(ctx context.Context, q string) ([]*reports.Record, error) {
	return r.query(ctx, selectSQLiteReports+` WHERE lower(name) LIKE lower(?) ESCAPE '\' ORDER BY created_at DESC`, likePattern(q))
}

func (r *SQLiteReportRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM campaign_reports WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	if n == 0 {
		return reports.ErrRecordNotFound
	}
	return nil
}

func (r *SQLiteReportRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteReportRepository) query(ctx context.Context, query string, args ...any) ([]*reports.Record, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	out := []*reports.Record{}
	for rows.Next() {
		rec, err := scanSQLiteReport(rows)
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

type scanner interface {
	Scan(dest ...any) error
}

func scanSQLiteReport(row scanner) (*reports.Record, error) {
	var (
		id, metrics, data, created, updated string
		rec                                 reports.Record
	)
	if err := row.Scan(&id, &rec.Name, &metrics, &data, &created, &updated); err != nil {
		return nil, err
	}
	var err error
	if rec.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("failed to parse id: %w", err)
	}
	if err := decodeGrid(&rec, []byte(metrics), []byte(data)); err != nil {
		return nil, err
	}
	if rec.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if rec.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return &rec, nil
}
