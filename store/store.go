package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-civicfix/types"
)

// ErrNotFound is returned by lookups for ids that do not exist.
var ErrNotFound = errors.New("report not found")

// PeriodUnit selects the calendar bucket for count aggregations.
type PeriodUnit string

const (
	PeriodDay   PeriodUnit = "day"
	PeriodWeek  PeriodUnit = "week"
	PeriodMonth PeriodUnit = "month"
)

// Store is the persistence surface the complaint engine needs. Implementations
// must make RegisterDuplicate and UpdateReportFields atomic per report id so
// concurrent sweeps and ingestions cannot interleave partial writes.
type Store interface {
	InsertReport(ctx context.Context, report *types.Report) error
	GetReportByID(ctx context.Context, id string) (*types.Report, error)

	// UpdateReportFields applies a partial update. Field names follow the
	// stored document keys (status, escalated, escalationNotified, priority,
	// slaDeadline).
	UpdateReportFields(ctx context.Context, id string, fields map[string]interface{}) error

	// RegisterDuplicate atomically increments the linked report's duplicate
	// count and appends duplicateID to its merged list.
	RegisterDuplicate(ctx context.Context, primaryID, duplicateID string) error

	// QueryWithinRadius returns reports within meters of the point, nearest
	// first.
	QueryWithinRadius(ctx context.Context, lat, lon, meters float64) ([]types.Report, error)

	QueryByStatusAndEscalation(ctx context.Context, statuses []types.Status, escalated bool) ([]types.Report, error)
	QueryCreatedAfter(ctx context.Context, t time.Time) ([]types.Report, error)

	// AggregateCountsByPeriod buckets report counts per calendar period and
	// category, sorted by period then category.
	AggregateCountsByPeriod(ctx context.Context, unit PeriodUnit) ([]types.PeriodCount, error)

	AllReports(ctx context.Context) ([]types.Report, error)
}

// PeriodKey formats a creation time into its calendar bucket key. Keys sort
// lexically in chronological order within one unit.
func PeriodKey(t time.Time, unit PeriodUnit) string {
	switch unit {
	case PeriodWeek:
		year, week := t.UTC().ISOWeek()
		// zero-pad so "2025-W02" sorts before "2025-W10"
		return fmt.Sprintf("%d-W%02d", year, week)
	case PeriodMonth:
		return t.UTC().Format("2006-01")
	default:
		return t.UTC().Format("2006-01-02")
	}
}
