package analytics

import (
	"reflect"
	"testing"
	"time"

	"go-civicfix/types"
)

var testNow = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

func reportAt(id string, lat, lon float64, category string, severity types.Severity, age time.Duration) types.Report {
	return types.Report{
		ID:        id,
		Location:  types.Location{Lat: lat, Lon: lon},
		Category:  category,
		Severity:  severity,
		IsPrimary: true,
		CreatedAt: testNow.Add(-age),
	}
}

// At the equator 0.00072 degrees of longitude is ~80m.
const deg80m = 0.00072

func TestClusterMembershipUsesSeedNotCentroid(t *testing.T) {
	t.Parallel()

	// a--80m--b--80m--c: b joins a's cluster, but c is 160m from the seed
	// and must not chain in through b.
	reports := []types.Report{
		reportAt("a", 0, 0, "POTHOLE", types.SeverityLow, time.Hour),
		reportAt("b", 0, deg80m, "POTHOLE", types.SeverityLow, time.Hour),
		reportAt("c", 0, 2*deg80m, "POTHOLE", types.SeverityLow, time.Hour),
	}

	clusters := clusterReports(reports, clusterRadiusMeters, testNow)
	if len(clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(clusters))
	}
	if len(clusters[0].Members) != 2 {
		t.Fatalf("expected first cluster of 2, got %d", len(clusters[0].Members))
	}
	if clusters[1].Members[0].ID != "c" {
		t.Fatalf("expected c in its own cluster, got %s", clusters[1].Members[0].ID)
	}
}

func TestClusterCenterIsMemberMean(t *testing.T) {
	t.Parallel()

	reports := []types.Report{
		reportAt("a", 0, 0, "POTHOLE", types.SeverityLow, time.Hour),
		reportAt("b", 0, deg80m, "POTHOLE", types.SeverityLow, time.Hour),
	}

	clusters := clusterReports(reports, clusterRadiusMeters, testNow)
	if len(clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(clusters))
	}
	if got := clusters[0].Center.Lon; got != deg80m/2 {
		t.Fatalf("expected center lon %f, got %f", deg80m/2, got)
	}
}

func TestClusterHistogramsAndTieBreak(t *testing.T) {
	t.Parallel()

	reports := []types.Report{
		reportAt("a", 0, 0, "POTHOLE", types.SeverityHigh, time.Hour),
		reportAt("b", 0, 0, "GRAFFITI", types.SeverityLow, time.Hour),
	}

	clusters := clusterReports(reports, clusterRadiusMeters, testNow)
	c := clusters[0]

	if c.CategoryHistogram["POTHOLE"] != 1 || c.CategoryHistogram["GRAFFITI"] != 1 {
		t.Fatalf("unexpected category histogram: %v", c.CategoryHistogram)
	}
	// Equal counts: lexically smallest key wins.
	if c.TopCategory != "GRAFFITI" {
		t.Fatalf("expected GRAFFITI on tie, got %s", c.TopCategory)
	}
	if c.TopSeverity != types.SeverityHigh {
		t.Fatalf("expected HIGH on tie, got %s", c.TopSeverity)
	}
}

func TestGrowthRate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		recent, older int
		want          float64
	}{
		{recent: 2, older: 0, want: 100},
		{recent: 0, older: 2, want: 0},
		{recent: 3, older: 1, want: 200},
		{recent: 1, older: 2, want: -50},
	}
	for _, tc := range cases {
		if got := growthRate(tc.recent, tc.older); got != tc.want {
			t.Fatalf("growthRate(%d, %d) = %f, want %f", tc.recent, tc.older, got, tc.want)
		}
	}
}

func TestGrowthRateFromMembers(t *testing.T) {
	t.Parallel()

	// 1 older than the 7-day split, 3 recent: growth 200.
	reports := []types.Report{
		reportAt("a", 0, 0, "POTHOLE", types.SeverityLow, 10*24*time.Hour),
		reportAt("b", 0, 0, "POTHOLE", types.SeverityLow, 24*time.Hour),
		reportAt("c", 0, 0, "POTHOLE", types.SeverityLow, 24*time.Hour),
		reportAt("d", 0, 0, "POTHOLE", types.SeverityLow, 24*time.Hour),
	}

	clusters := clusterReports(reports, clusterRadiusMeters, testNow)
	if got := clusters[0].GrowthRate; got != 200 {
		t.Fatalf("expected growth rate 200, got %f", got)
	}
}

func TestClusteringIdempotent(t *testing.T) {
	t.Parallel()

	reports := []types.Report{
		reportAt("a", 0, 0, "POTHOLE", types.SeverityLow, time.Hour),
		reportAt("b", 0, deg80m, "GRAFFITI", types.SeverityHigh, 48*time.Hour),
		reportAt("c", 0, 2*deg80m, "POTHOLE", types.SeverityMedium, 200*time.Hour),
		reportAt("d", 1, 1, "WATER_LEAK", types.SeverityHigh, time.Hour),
	}

	first := clusterReports(reports, clusterRadiusMeters, testNow)
	second := clusterReports(reports, clusterRadiusMeters, testNow)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("clustering not deterministic:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestEmergingHotspotsFilterAndOrder(t *testing.T) {
	t.Parallel()

	small := types.Cluster{Members: make([]types.Report, 2), GrowthRate: 500}
	slow := types.Cluster{Members: make([]types.Report, 3), GrowthRate: 0}
	fast := types.Cluster{Members: make([]types.Report, 4), GrowthRate: 100}

	emerging := emergingHotspots([]types.Cluster{small, slow, fast})
	if len(emerging) != 2 {
		t.Fatalf("expected 2 emerging clusters, got %d", len(emerging))
	}
	if emerging[0].GrowthRate != 100 || emerging[1].GrowthRate != 0 {
		t.Fatalf("expected descending growth order, got %f then %f",
			emerging[0].GrowthRate, emerging[1].GrowthRate)
	}
}
