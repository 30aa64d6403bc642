package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"go-civicfix/store"
	"go-civicfix/types"
)

// Service computes analytics over a snapshot of the store. Stateless; safe
// to run while ingestion is writing (stale reads are fine).
type Service struct {
	store store.Store
	log   *logrus.Entry

	// Now is the clock; overridable in tests.
	Now func() time.Time
}

// Payload is the operator-facing analytics bundle.
type Payload struct {
	WeeklyTrends     []types.PeriodCount    `json:"weeklyTrends"`
	SeasonalTrends   []types.PeriodCount    `json:"seasonalTrends"`
	EmergingHotspots []types.Cluster        `json:"emergingHotspots"`
	Predictions      []types.ForecastSeries `json:"predictions"`
	GeneratedAt      time.Time              `json:"generatedAt"`
}

func NewService(st store.Store, log *logrus.Entry) *Service {
	return &Service{store: st, log: log, Now: time.Now}
}

// Hotspots clusters the primary reports of the recent window.
func (s *Service) Hotspots(ctx context.Context) ([]types.Cluster, error) {
	now := s.Now()
	windowStart := now.AddDate(0, 0, -clusterWindowDays)

	recent, err := s.store.QueryCreatedAfter(ctx, windowStart)
	if err != nil {
		return nil, fmt.Errorf("hotspot window query failed: %w", err)
	}

	var primaries []types.Report
	for _, r := range recent {
		if r.IsPrimary {
			primaries = append(primaries, r)
		}
	}

	return clusterReports(primaries, clusterRadiusMeters, now), nil
}

// EmergingHotspots returns clusters of at least three reports, fastest
// growing first.
func (s *Service) EmergingHotspots(ctx context.Context) ([]types.Cluster, error) {
	clusters, err := s.Hotspots(ctx)
	if err != nil {
		return nil, err
	}
	return emergingHotspots(clusters), nil
}

// Forecast builds per-category linear forecasts over the given bucket unit.
func (s *Service) Forecast(ctx context.Context, unit store.PeriodUnit, periodsAhead int) ([]types.ForecastSeries, error) {
	rows, err := s.store.AggregateCountsByPeriod(ctx, unit)
	if err != nil {
		return nil, fmt.Errorf("aggregation query failed: %w", err)
	}
	return forecastSeries(rows, periodsAhead), nil
}

// Build assembles the full analytics payload.
func (s *Service) Build(ctx context.Context) (*Payload, error) {
	weekly, err := s.store.AggregateCountsByPeriod(ctx, store.PeriodWeek)
	if err != nil {
		return nil, fmt.Errorf("weekly aggregation failed: %w", err)
	}

	seasonal, err := s.store.AggregateCountsByPeriod(ctx, store.PeriodMonth)
	if err != nil {
		return nil, fmt.Errorf("seasonal aggregation failed: %w", err)
	}

	hotspots, err := s.EmergingHotspots(ctx)
	if err != nil {
		return nil, err
	}

	return &Payload{
		WeeklyTrends:     weekly,
		SeasonalTrends:   seasonal,
		EmergingHotspots: hotspots,
		Predictions:      forecastSeries(weekly, defaultPeriodsAhead),
		GeneratedAt:      s.Now(),
	}, nil
}
