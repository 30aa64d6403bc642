// Package sla maps a report's category and severity to its response deadline.
package sla

import (
	"time"

	"go-civicfix/types"
)

// Response-time overrides per category, in hours. When a category appears
// here it always wins, even if the severity fallback would be stricter; the
// two tables are never compared.
var categoryHours = map[string]int{
	"GARBAGE_OVERFLOW":      6,
	"WATER_LEAK":            12,
	"POTHOLE":               24,
	"ROAD_DAMAGE":           24,
	"BROKEN_SIDEWALK":       48,
	"STREETLIGHT_OUT":       48,
	"VEGETATION_OVERGROWTH": 72,
	"GRAFFITI":              96,
}

var severityHours = map[types.Severity]int{
	types.SeverityHigh:   6,
	types.SeverityMedium: 24,
	types.SeverityLow:    72,
}

// DeadlineHours returns the allowed response window in hours.
func DeadlineHours(category string, severity types.Severity) int {
	if hours, ok := categoryHours[category]; ok {
		return hours
	}
	if hours, ok := severityHours[severity]; ok {
		return hours
	}
	return severityHours[types.SeverityMedium]
}

// Deadline computes the SLA deadline for a report created at createdAt.
// Assigned once at creation and never recomputed.
func Deadline(category string, severity types.Severity, createdAt time.Time) time.Time {
	return createdAt.Add(time.Duration(DeadlineHours(category, severity)) * time.Hour)
}
