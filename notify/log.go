package notify

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogNotifier writes escalation events to the log. Default sink when no
// Telegram chat is configured.
type LogNotifier struct {
	log *logrus.Entry
}

var _ Notifier = (*LogNotifier)(nil)

func NewLogNotifier(log *logrus.Entry) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) NotifyEscalation(ctx context.Context, event Escalation) error {
	n.log.WithFields(logrus.Fields{
		"reportId":     event.ReportID,
		"category":     event.Category,
		"severity":     event.Severity,
		"hoursOverdue": event.HoursOverdue,
	}).Warn("report escalated past SLA deadline")
	return nil
}
