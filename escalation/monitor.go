// Package escalation watches open reports against their SLA deadlines and
// raises overdue ones.
package escalation

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"go-civicfix/notify"
	"go-civicfix/sla"
	"go-civicfix/store"
	"go-civicfix/types"
)

// DefaultCronSpec sweeps every 30 minutes.
const DefaultCronSpec = "*/30 * * * *"

// Monitor is the background sweeper. Construct with NewMonitor; the zero
// value is not usable.
type Monitor struct {
	store    store.Store
	notifier notify.Notifier
	log      *logrus.Entry

	// Now is the clock; overridable in tests.
	Now func() time.Time

	cron     *cron.Cron
	sweeping atomic.Bool
	backfill sync.Once
}

// Stats summarizes escalation state across all reports.
type Stats struct {
	TotalEscalated    int `json:"totalEscalated"`
	PendingEscalated  int `json:"pendingEscalated"`
	ResolvedEscalated int `json:"resolvedEscalated"`
}

func NewMonitor(st store.Store, notifier notify.Notifier, log *logrus.Entry) *Monitor {
	return &Monitor{
		store:    st,
		notifier: notifier,
		log:      log,
		Now:      time.Now,
	}
}

// Start backfills missing deadlines, runs one immediate sweep and schedules
// recurring sweeps. cronSpec falls back to DefaultCronSpec when empty.
func (m *Monitor) Start(ctx context.Context, cronSpec string) error {
	if cronSpec == "" {
		cronSpec = DefaultCronSpec
	}

	if err := m.backfillDeadlines(ctx); err != nil {
		m.log.WithError(err).Error("deadline backfill failed")
	}

	if _, err := m.Sweep(ctx); err != nil {
		m.log.WithError(err).Error("initial sweep failed")
	}

	c := cron.New()
	_, err := c.AddFunc(cronSpec, func() {
		if _, err := m.Sweep(context.Background()); err != nil {
			m.log.WithError(err).Error("scheduled sweep failed")
		}
	})
	if err != nil {
		return fmt.Errorf("error scheduling escalation sweep: %w", err)
	}
	c.Start()
	m.cron = c

	m.log.WithField("cronSpec", cronSpec).Info("escalation monitor started")
	return nil
}

// Stop cancels the recurring sweep schedule.
func (m *Monitor) Stop() {
	if m.cron != nil {
		m.cron.Stop()
	}
}

// Sweep escalates every open, not-yet-escalated report past its deadline.
// Returns how many reports were escalated. Overlapping calls are no-ops:
// only one sweep runs at a time.
func (m *Monitor) Sweep(ctx context.Context) (int, error) {
	if !m.sweeping.CompareAndSwap(false, true) {
		m.log.Debug("sweep already in progress, skipping")
		return 0, nil
	}
	defer m.sweeping.Store(false)

	open, err := m.store.QueryByStatusAndEscalation(ctx,
		[]types.Status{types.StatusPending, types.StatusVerified}, false)
	if err != nil {
		return 0, fmt.Errorf("sweep query failed: %w", err)
	}

	now := m.Now()
	escalated := 0
	var lastErr error

	for i := range open {
		report := &open[i]
		if !now.After(report.SLADeadline) {
			continue
		}

		err := m.store.UpdateReportFields(ctx, report.ID, map[string]interface{}{
			"escalated": true,
			"priority":  types.SeverityHigh,
		})
		if err != nil {
			m.log.WithError(err).WithField("reportId", report.ID).Error("failed to mark report escalated")
			lastErr = err
			continue
		}
		escalated++

		event := notify.Escalation{
			ReportID:     report.ID,
			Category:     report.Category,
			Severity:     report.Severity,
			Description:  report.Description,
			SLADeadline:  report.SLADeadline,
			HoursOverdue: int(now.Sub(report.SLADeadline).Hours()),
		}
		if err := m.notifier.NotifyEscalation(ctx, event); err != nil {
			// The report stays escalated; only the page was lost.
			m.log.WithError(err).WithField("reportId", report.ID).Error("escalation notification failed")
			continue
		}
		if err := m.store.UpdateReportFields(ctx, report.ID, map[string]interface{}{
			"escalationNotified": true,
		}); err != nil {
			m.log.WithError(err).WithField("reportId", report.ID).Error("failed to record notification flag")
			lastErr = err
		}
	}

	if escalated > 0 {
		m.log.WithField("count", escalated).Info("sweep escalated overdue reports")
	}
	return escalated, lastErr
}

// backfillDeadlines assigns a deadline to any pre-existing report lacking
// one, derived from its creation time. Runs at most once per process.
func (m *Monitor) backfillDeadlines(ctx context.Context) error {
	var outerErr error
	m.backfill.Do(func() {
		all, err := m.store.AllReports(ctx)
		if err != nil {
			outerErr = fmt.Errorf("backfill query failed: %w", err)
			return
		}

		fixed := 0
		for _, report := range all {
			if !report.SLADeadline.IsZero() {
				continue
			}
			deadline := sla.Deadline(report.Category, report.Severity, report.CreatedAt)
			if err := m.store.UpdateReportFields(ctx, report.ID, map[string]interface{}{
				"slaDeadline": deadline,
			}); err != nil {
				m.log.WithError(err).WithField("reportId", report.ID).Error("failed to backfill deadline")
				outerErr = err
				continue
			}
			fixed++
		}
		if fixed > 0 {
			m.log.WithField("count", fixed).Info("backfilled missing SLA deadlines")
		}
	})
	return outerErr
}

// Stats counts escalation state over all reports.
func (m *Monitor) Stats(ctx context.Context) (Stats, error) {
	all, err := m.store.AllReports(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("stats query failed: %w", err)
	}

	var stats Stats
	for _, report := range all {
		if !report.Escalated {
			continue
		}
		stats.TotalEscalated++
		switch report.Status {
		case types.StatusResolved:
			stats.ResolvedEscalated++
		default:
			stats.PendingEscalated++
		}
	}
	return stats, nil
}
