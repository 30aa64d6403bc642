package store

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"go-civicfix/geo"
	"go-civicfix/types"
)

const reportsCollection = "reports"

// FirestoreStore persists reports in a Firestore collection.
type FirestoreStore struct {
	client *firestore.Client
}

var _ Store = (*FirestoreStore)(nil)

// NewFirestoreStore initializes a Firestore-backed store. Credentials are
// read from the FIREBASE_CREDENTIALS env var as base64 service-account JSON.
func NewFirestoreStore(ctx context.Context) (*FirestoreStore, error) {
	encodedCreds := os.Getenv("FIREBASE_CREDENTIALS")
	creds, err := base64.StdEncoding.DecodeString(encodedCreds)
	if err != nil {
		return nil, fmt.Errorf("failed to decode Firestore credentials: %w", err)
	}

	opt := option.WithCredentialsJSON(creds)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting Firestore client: %w", err)
	}

	return &FirestoreStore{client: client}, nil
}

// Close releases the underlying Firestore client.
func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

func (s *FirestoreStore) InsertReport(ctx context.Context, report *types.Report) error {
	if report.ID == "" {
		return fmt.Errorf("cannot insert report without an id")
	}
	_, err := s.client.Collection(reportsCollection).Doc(report.ID).Set(ctx, report)
	if err != nil {
		return fmt.Errorf("failed to insert report %s: %w", report.ID, err)
	}
	return nil
}

func (s *FirestoreStore) GetReportByID(ctx context.Context, id string) (*types.Report, error) {
	docSnap, err := s.client.Collection(reportsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error getting report %s: %w", id, err)
	}

	var report types.Report
	if err := docSnap.DataTo(&report); err != nil {
		return nil, fmt.Errorf("error converting document %s to Report: %w", id, err)
	}
	report.ID = docSnap.Ref.ID
	return &report, nil
}

// UpdateReportFields updates specific top-level fields using a map.
func (s *FirestoreStore) UpdateReportFields(ctx context.Context, id string, fields map[string]interface{}) error {
	docRef := s.client.Collection(reportsCollection).Doc(id)

	// Get first so a bad id surfaces as ErrNotFound instead of an upsert.
	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return fmt.Errorf("error getting report %s: %w", id, err)
	}

	if _, err := docRef.Set(ctx, fields, firestore.MergeAll); err != nil {
		return fmt.Errorf("failed to update fields for report %s: %w", id, err)
	}
	return nil
}

// RegisterDuplicate runs a transaction so the counter bump and the merged
// list append land together.
func (s *FirestoreStore) RegisterDuplicate(ctx context.Context, primaryID, duplicateID string) error {
	primaryRef := s.client.Collection(reportsCollection).Doc(primaryID)

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(primaryRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrNotFound
			}
			return fmt.Errorf("error getting report %s: %w", primaryID, err)
		}

		var primary types.Report
		if err := doc.DataTo(&primary); err != nil {
			return fmt.Errorf("error converting document %s to Report: %w", primaryID, err)
		}

		return tx.Update(primaryRef, []firestore.Update{
			{Path: "duplicateCount", Value: primary.DuplicateCount + 1},
			{Path: "mergedReports", Value: firestore.ArrayUnion(duplicateID)},
		})
	})
	if err != nil {
		return fmt.Errorf("failed to register duplicate %s on %s: %w", duplicateID, primaryID, err)
	}
	return nil
}

// QueryWithinRadius scans the whole collection and filters by great-circle
// distance. Fine at this scale; no geo index.
func (s *FirestoreStore) QueryWithinRadius(ctx context.Context, lat, lon, meters float64) ([]types.Report, error) {
	all, err := s.AllReports(ctx)
	if err != nil {
		return nil, err
	}

	type withDistance struct {
		report   types.Report
		distance float64
	}
	var nearby []withDistance
	for _, r := range all {
		d := geo.DistanceMeters(lat, lon, r.Location.Lat, r.Location.Lon)
		if d <= meters {
			nearby = append(nearby, withDistance{report: r, distance: d})
		}
	}

	sort.Slice(nearby, func(i, j int) bool { return nearby[i].distance < nearby[j].distance })

	reports := make([]types.Report, 0, len(nearby))
	for _, n := range nearby {
		reports = append(reports, n.report)
	}
	return reports, nil
}

func (s *FirestoreStore) QueryByStatusAndEscalation(ctx context.Context, statuses []types.Status, escalated bool) ([]types.Report, error) {
	statusValues := make([]interface{}, 0, len(statuses))
	for _, st := range statuses {
		statusValues = append(statusValues, string(st))
	}

	iter := s.client.Collection(reportsCollection).
		Where("status", "in", statusValues).
		Where("escalated", "==", escalated).
		Documents(ctx)
	defer iter.Stop()

	return collectReports(iter)
}

func (s *FirestoreStore) QueryCreatedAfter(ctx context.Context, t time.Time) ([]types.Report, error) {
	iter := s.client.Collection(reportsCollection).
		Where("createdAt", ">", t).
		OrderBy("createdAt", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	return collectReports(iter)
}

// AggregateCountsByPeriod buckets creation timestamps client-side; Firestore
// has no group-by.
func (s *FirestoreStore) AggregateCountsByPeriod(ctx context.Context, unit PeriodUnit) ([]types.PeriodCount, error) {
	all, err := s.AllReports(ctx)
	if err != nil {
		return nil, err
	}
	return bucketCounts(all, unit), nil
}

func (s *FirestoreStore) AllReports(ctx context.Context) ([]types.Report, error) {
	iter := s.client.Collection(reportsCollection).
		OrderBy("createdAt", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	return collectReports(iter)
}

func collectReports(iter *firestore.DocumentIterator) ([]types.Report, error) {
	var reports []types.Report
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error iterating reports collection: %w", err)
		}

		var report types.Report
		if err := doc.DataTo(&report); err != nil {
			return nil, fmt.Errorf("error converting document %s to Report: %w", doc.Ref.ID, err)
		}
		report.ID = doc.Ref.ID
		reports = append(reports, report)
	}
	return reports, nil
}

// bucketCounts is shared by the Firestore and memory stores.
func bucketCounts(reports []types.Report, unit PeriodUnit) []types.PeriodCount {
	type key struct {
		period   string
		category string
	}
	counts := make(map[key]int)
	for _, r := range reports {
		counts[key{period: PeriodKey(r.CreatedAt, unit), category: r.Category}]++
	}

	rows := make([]types.PeriodCount, 0, len(counts))
	for k, c := range counts {
		rows = append(rows, types.PeriodCount{Period: k.period, Category: k.category, Count: c})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Period != rows[j].Period {
			return rows[i].Period < rows[j].Period
		}
		return rows[i].Category < rows[j].Category
	})
	return rows
}
