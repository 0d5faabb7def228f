// Package reports holds the saved campaign report: a named snapshot of a
// sheet kept in the record store.
package reports

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/sheet"
)

var (
	ErrRecordNotFound       = errors.New("campaign report not found")
	ErrConfigurationMissing = errors.New("record store is not configured: set STORE_URL and STORE_KEY")
	ErrEmptyName            = errors.New("report name is empty")
)

// Record is one saved report.
type Record struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Metrics   []string   `json:"metrics"`
	Data      [][]string `json:"data"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// NewRecord snapshots a sheet under a name.
func NewRecord(name string, s *sheet.Sheet) (*Record, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	c := s.Clone()
	return &Record{Name: name, Metrics: c.Metrics, Data: c.Data}, nil
}

// Sheet rebuilds the sheet of a record. A record saved without a metric
// list gets defaults.
func (r *Record) Sheet(defaults []string) *sheet.Sheet {
	s := (&sheet.Sheet{Metrics: r.Metrics, Data: r.Data}).Clone()
	if len(s.Metrics) == 0 {
		s.Metrics = append([]string(nil), defaults...)
	}
	if s.Data == nil {
		s.Data = [][]string{}
	}
	return s
}

// PersistenceError reports a failed store operation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s campaign report: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
