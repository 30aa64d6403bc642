// Package ingest runs the report intake pipeline: classify the photo, merge
// with nearby duplicates, compute the SLA deadline and write the record.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"go-civicfix/geo"
	"go-civicfix/photos"
	"go-civicfix/sla"
	"go-civicfix/store"
	"go-civicfix/types"
	"go-civicfix/vision"
)

const (
	// Reports within this distance of each other are duplicate candidates.
	duplicateRadiusMeters = 50.0
	// Oracle score at or above this declares a duplicate.
	similarityThreshold = 80
	// Per-candidate bound on one oracle comparison.
	defaultOracleTimeout = 20 * time.Second
)

// Submission is a citizen-submitted complaint before processing.
type Submission struct {
	Lat         float64
	Lon         float64
	Photo       []byte
	Description string
	// CategoryHint lets the reporter pre-select a category; only used for
	// the fallback classification when the classifier is unreachable.
	CategoryHint string
}

// DuplicateMatch records why a new report was linked to an existing one.
type DuplicateMatch struct {
	PrimaryID string  `json:"primaryId"`
	Score     int     `json:"score"`
	Distance  float64 `json:"distance"`
	Reasoning string  `json:"reasoning"`
}

// Service coordinates intake and status updates for reports.
type Service struct {
	store      store.Store
	photos     photos.Store
	classifier vision.Classifier
	oracle     vision.SimilarityOracle
	log        *logrus.Entry

	// Now is the clock; overridable in tests.
	Now func() time.Time
	// OracleTimeout bounds each similarity comparison.
	OracleTimeout time.Duration
}

func NewService(st store.Store, ph photos.Store, classifier vision.Classifier, oracle vision.SimilarityOracle, log *logrus.Entry) *Service {
	return &Service{
		store:         st,
		photos:        ph,
		classifier:    classifier,
		oracle:        oracle,
		log:           log,
		Now:           time.Now,
		OracleTimeout: defaultOracleTimeout,
	}
}

// Submit processes one complaint end to end. Store failures abort the whole
// ingestion; classifier failures degrade to a low-confidence fallback.
func (s *Service) Submit(ctx context.Context, sub Submission) (*types.Report, error) {
	now := s.Now()
	id := uuid.NewString()

	photoRef, err := s.photos.Save(ctx, id, sub.Photo)
	if err != nil {
		return nil, fmt.Errorf("failed to store photo for report %s: %w", id, err)
	}

	cls, err := s.classify(ctx, sub)
	if err != nil {
		s.log.WithError(err).Warn("classifier unavailable, using fallback classification")
		cls = vision.FallbackClassification(sub.CategoryHint)
	}

	candidates, err := s.store.QueryWithinRadius(ctx, sub.Lat, sub.Lon, duplicateRadiusMeters)
	if err != nil {
		return nil, fmt.Errorf("candidate query failed: %w", err)
	}

	match := s.resolveDuplicate(ctx, sub, candidates)

	report := &types.Report{
		ID:             id,
		Location:       types.Location{Lat: sub.Lat, Lon: sub.Lon},
		Description:    sub.Description,
		PhotoRef:       photoRef,
		Category:       cls.Category,
		Severity:       cls.Severity,
		Priority:       cls.Severity,
		Urgent:         cls.EstimatedUrgency == types.UrgencyImmediate || cls.EstimatedUrgency == types.UrgencyUrgent,
		Status:         types.StatusPending,
		SLADeadline:    sla.Deadline(cls.Category, cls.Severity, now),
		CreatedAt:      now,
		IsPrimary:      match == nil,
		DuplicateCount: 1,
		Classification: cls,
	}
	if match != nil {
		report.DuplicateOf = match.PrimaryID
	}

	if err := s.store.InsertReport(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to insert report %s: %w", id, err)
	}

	if match != nil {
		// The duplicate row already exists; a failed counter bump leaves a
		// known inconsistency that a reconciliation pass can repair later.
		if err := s.store.RegisterDuplicate(ctx, match.PrimaryID, id); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"reportId":  id,
				"primaryId": match.PrimaryID,
			}).Error("duplicate saved but primary counter update failed")
		} else {
			s.log.WithFields(logrus.Fields{
				"reportId":  id,
				"primaryId": match.PrimaryID,
				"score":     match.Score,
			}).Info("report merged as duplicate")
		}
	}

	return report, nil
}

func (s *Service) classify(ctx context.Context, sub Submission) (types.Classification, error) {
	cctx, cancel := context.WithTimeout(ctx, s.OracleTimeout)
	defer cancel()
	return s.classifier.Classify(cctx, sub.Photo, sub.Description)
}

// resolveDuplicate scans candidates in query order (nearest first) and stops
// at the first one the oracle scores at or above the threshold. A failed
// photo read or oracle call skips that candidate only.
func (s *Service) resolveDuplicate(ctx context.Context, sub Submission, candidates []types.Report) *DuplicateMatch {
	for _, candidate := range candidates {
		candidatePhoto, err := s.photos.Load(ctx, candidate.PhotoRef)
		if err != nil {
			s.log.WithError(err).WithField("candidateId", candidate.ID).Warn("cannot read candidate photo, skipping")
			continue
		}

		cctx, cancel := context.WithTimeout(ctx, s.OracleTimeout)
		result, err := s.oracle.Compare(cctx, sub.Photo, candidatePhoto)
		cancel()
		if err != nil {
			s.log.WithError(err).WithField("candidateId", candidate.ID).Warn("similarity comparison failed, skipping candidate")
			continue
		}

		if result.Score >= similarityThreshold {
			return &DuplicateMatch{
				PrimaryID: candidate.ID,
				Score:     result.Score,
				Distance:  geo.DistanceMeters(sub.Lat, sub.Lon, candidate.Location.Lat, candidate.Location.Lon),
				Reasoning: result.Reasoning,
			}
		}
	}
	return nil
}

// UpdateStatus moves a report between pending, verified and resolved.
// Resolving always clears both escalation flags; a manual reset to pending
// leaves them untouched.
func (s *Service) UpdateStatus(ctx context.Context, id string, status types.Status) (*types.Report, error) {
	if !types.ValidStatus(status) {
		return nil, fmt.Errorf("invalid status %q", status)
	}

	if _, err := s.store.GetReportByID(ctx, id); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{"status": status}
	if status == types.StatusResolved {
		fields["escalated"] = false
		fields["escalationNotified"] = false
	}

	if err := s.store.UpdateReportFields(ctx, id, fields); err != nil {
		return nil, fmt.Errorf("failed to update status of report %s: %w", id, err)
	}
	return s.store.GetReportByID(ctx, id)
}

// Get returns one report by id.
func (s *Service) Get(ctx context.Context, id string) (*types.Report, error) {
	return s.store.GetReportByID(ctx, id)
}

// Duplicates returns the reports merged into a primary.
func (s *Service) Duplicates(ctx context.Context, id string) ([]types.Report, error) {
	primary, err := s.store.GetReportByID(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := make([]types.Report, 0, len(primary.MergedReports))
	for _, dupID := range primary.MergedReports {
		dup, err := s.store.GetReportByID(ctx, dupID)
		if err != nil {
			s.log.WithError(err).WithField("reportId", dupID).Warn("merged report missing, skipping")
			continue
		}
		merged = append(merged, *dup)
	}
	return merged, nil
}
