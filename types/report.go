package types

import "time"

type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusResolved Status = "resolved"
)

// ValidStatus reports whether s is one of the three accepted report statuses.
func ValidStatus(s Status) bool {
	return s == StatusPending || s == StatusVerified || s == StatusResolved
}

type Urgency string

const (
	UrgencyImmediate Urgency = "IMMEDIATE"
	UrgencyUrgent    Urgency = "URGENT"
	UrgencyModerate  Urgency = "MODERATE"
	UrgencyLow       Urgency = "LOW"
)

type Location struct {
	Lat float64 `firestore:"lat" json:"lat"`
	Lon float64 `firestore:"lon" json:"lon"`
}

// Classification is the structured result returned by the vision classifier.
// SchemaVersion tracks the shape of this struct so stored documents written
// by older builds stay readable.
type Classification struct {
	SchemaVersion         int      `firestore:"schemaVersion" json:"schemaVersion"`
	Category              string   `firestore:"category" json:"category"`
	Severity              Severity `firestore:"severity" json:"severity"`
	Confidence            int      `firestore:"confidence" json:"confidence"`
	EstimatedUrgency      Urgency  `firestore:"estimatedUrgency" json:"estimatedUrgency"`
	DepartmentResponsible string   `firestore:"departmentResponsible,omitempty" json:"departmentResponsible,omitempty"`
	EstimatedRepairTime   string   `firestore:"estimatedRepairTime,omitempty" json:"estimatedRepairTime,omitempty"`
	EstimatedCost         string   `firestore:"estimatedCost,omitempty" json:"estimatedCost,omitempty"`
	Assessment            string   `firestore:"assessment,omitempty" json:"assessment,omitempty"`
}

// Report is a single citizen complaint. A primary report may absorb later
// submissions of the same physical issue as duplicates; a duplicate links
// one hop to the report it matched against and is never re-pointed.
type Report struct {
	ID          string   `firestore:"-" json:"id"`
	Location    Location `firestore:"location" json:"location"`
	Description string   `firestore:"description,omitempty" json:"description,omitempty"`
	PhotoRef    string   `firestore:"photoRef,omitempty" json:"photoRef,omitempty"`

	Category string   `firestore:"category" json:"category"`
	Severity Severity `firestore:"severity" json:"severity"`
	Priority Severity `firestore:"priority" json:"priority"`
	Urgent   bool     `firestore:"urgent" json:"urgent"`

	Status             Status    `firestore:"status" json:"status"`
	Escalated          bool      `firestore:"escalated" json:"escalated"`
	EscalationNotified bool      `firestore:"escalationNotified" json:"escalationNotified"`
	SLADeadline        time.Time `firestore:"slaDeadline" json:"slaDeadline"`
	CreatedAt          time.Time `firestore:"createdAt" json:"createdAt"`

	IsPrimary      bool     `firestore:"isPrimary" json:"isPrimary"`
	DuplicateOf    string   `firestore:"duplicateOf,omitempty" json:"duplicateOf,omitempty"`
	DuplicateCount int      `firestore:"duplicateCount" json:"duplicateCount"`
	MergedReports  []string `firestore:"mergedReports,omitempty" json:"mergedReports,omitempty"`

	Classification Classification `firestore:"classification" json:"classification"`
}
