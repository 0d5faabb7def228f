// Package repository provides the record store backends for saved campaign
// reports.
package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/reports"
)

// ReportRepository defines the interface for report persistence operations
type ReportRepository interface {
	// Create stores a new report and fills in its ID and timestamps
	Create(ctx context.Context, r *reports.Record) error
	// Update replaces name, metrics and data of an existing report
	Update(ctx context.Context, r *reports.Record) error
	Get(ctx context.Context, id uuid.UUID) (*reports.Record, error)
	// List returns every report, newest first
	List(ctx context.Context) ([]*reports.Record, error)
	// Search returns reports whose name contains q, ignoring case
	Search(ctx context.Context, q string) ([]*reports.Record, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Close() error
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern escapes q for a LIKE match with backslash as escape character.
func likePattern(q string) string {
	return "%" + likeEscaper.Replace(q) + "%"
}
