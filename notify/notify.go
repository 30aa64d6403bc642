// Package notify delivers escalation events to operators.
package notify

import (
	"context"
	"time"

	"go-civicfix/types"
)

// Escalation is the event emitted when a report blows past its SLA deadline.
type Escalation struct {
	ReportID     string         `json:"reportId"`
	Category     string         `json:"category"`
	Severity     types.Severity `json:"severity"`
	Description  string         `json:"description"`
	SLADeadline  time.Time      `json:"slaDeadline"`
	HoursOverdue int            `json:"hoursOverdue"`
}

// Notifier pushes escalation events to a paging/alerting channel.
type Notifier interface {
	NotifyEscalation(ctx context.Context, event Escalation) error
}
