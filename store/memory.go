package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go-civicfix/geo"
	"go-civicfix/types"
)

// MemoryStore keeps everything in process memory. Used by tests and for
// local runs without Firestore credentials.
type MemoryStore struct {
	mu      sync.RWMutex
	reports map[string]*types.Report
	order   []string
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{reports: make(map[string]*types.Report)}
}

func (s *MemoryStore) InsertReport(ctx context.Context, report *types.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := cloneReport(report)
	if _, exists := s.reports[cp.ID]; !exists {
		s.order = append(s.order, cp.ID)
	}
	s.reports[cp.ID] = cp
	return nil
}

func (s *MemoryStore) GetReportByID(ctx context.Context, id string) (*types.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneReport(r), nil
}

func (s *MemoryStore) UpdateReportFields(ctx context.Context, id string, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.reports[id]
	if !ok {
		return ErrNotFound
	}

	// Apply to a copy so a bad field leaves the stored report untouched.
	// Unknown names and mistyped values are rejected so a typo'd field fails
	// here instead of quietly doing nothing.
	r := cloneReport(stored)
	for name, value := range fields {
		switch name {
		case "status":
			switch v := value.(type) {
			case types.Status:
				r.Status = v
			case string:
				r.Status = types.Status(v)
			default:
				return fmt.Errorf("field %s: unexpected type %T", name, value)
			}
		case "escalated":
			v, ok := value.(bool)
			if !ok {
				return fmt.Errorf("field %s: unexpected type %T", name, value)
			}
			r.Escalated = v
		case "escalationNotified":
			v, ok := value.(bool)
			if !ok {
				return fmt.Errorf("field %s: unexpected type %T", name, value)
			}
			r.EscalationNotified = v
		case "priority":
			switch v := value.(type) {
			case types.Severity:
				r.Priority = v
			case string:
				r.Priority = types.Severity(v)
			default:
				return fmt.Errorf("field %s: unexpected type %T", name, value)
			}
		case "slaDeadline":
			v, ok := value.(time.Time)
			if !ok {
				return fmt.Errorf("field %s: unexpected type %T", name, value)
			}
			r.SLADeadline = v
		default:
			return fmt.Errorf("unknown report field %q", name)
		}
	}
	s.reports[id] = r
	return nil
}

func (s *MemoryStore) RegisterDuplicate(ctx context.Context, primaryID, duplicateID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reports[primaryID]
	if !ok {
		return ErrNotFound
	}
	r.DuplicateCount++
	r.MergedReports = append(r.MergedReports, duplicateID)
	return nil
}

func (s *MemoryStore) QueryWithinRadius(ctx context.Context, lat, lon, meters float64) ([]types.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type withDistance struct {
		report   types.Report
		distance float64
	}
	var nearby []withDistance
	for _, id := range s.order {
		r := s.reports[id]
		d := geo.DistanceMeters(lat, lon, r.Location.Lat, r.Location.Lon)
		if d <= meters {
			nearby = append(nearby, withDistance{report: *cloneReport(r), distance: d})
		}
	}

	sort.SliceStable(nearby, func(i, j int) bool { return nearby[i].distance < nearby[j].distance })

	reports := make([]types.Report, 0, len(nearby))
	for _, n := range nearby {
		reports = append(reports, n.report)
	}
	return reports, nil
}

func (s *MemoryStore) QueryByStatusAndEscalation(ctx context.Context, statuses []types.Status, escalated bool) ([]types.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[types.Status]bool, len(statuses))
	for _, st := range statuses {
		wanted[st] = true
	}

	var reports []types.Report
	for _, id := range s.order {
		r := s.reports[id]
		if wanted[r.Status] && r.Escalated == escalated {
			reports = append(reports, *cloneReport(r))
		}
	}
	return reports, nil
}

func (s *MemoryStore) QueryCreatedAfter(ctx context.Context, t time.Time) ([]types.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var reports []types.Report
	for _, id := range s.order {
		r := s.reports[id]
		if r.CreatedAt.After(t) {
			reports = append(reports, *cloneReport(r))
		}
	}
	sort.SliceStable(reports, func(i, j int) bool { return reports[i].CreatedAt.Before(reports[j].CreatedAt) })
	return reports, nil
}

func (s *MemoryStore) AggregateCountsByPeriod(ctx context.Context, unit PeriodUnit) ([]types.PeriodCount, error) {
	all, err := s.AllReports(ctx)
	if err != nil {
		return nil, err
	}
	return bucketCounts(all, unit), nil
}

func (s *MemoryStore) AllReports(ctx context.Context) ([]types.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reports := make([]types.Report, 0, len(s.order))
	for _, id := range s.order {
		reports = append(reports, *cloneReport(s.reports[id]))
	}
	sort.SliceStable(reports, func(i, j int) bool { return reports[i].CreatedAt.Before(reports[j].CreatedAt) })
	return reports, nil
}

func cloneReport(r *types.Report) *types.Report {
	cp := *r
	if r.MergedReports != nil {
		cp.MergedReports = append([]string(nil), r.MergedReports...)
	}
	return &cp
}
