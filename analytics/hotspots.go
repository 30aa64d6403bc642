// Package analytics computes spatial and temporal views over the report
// history: proximity clusters with growth scoring, and per-category trend
// forecasts.
package analytics

import (
	"sort"
	"time"

	"go-civicfix/geo"
	"go-civicfix/types"
)

const (
	// Max distance (m) from a cluster's seed report for membership.
	clusterRadiusMeters = 100.0
	// How far back the clustering window reaches.
	clusterWindowDays = 14
	// Members newer than this count as "recent" for growth scoring.
	growthRecentDays = 7
	// Minimum cluster size to qualify as an emerging hotspot.
	minEmergingSize = 3
)

// clusterReports partitions reports with a single pass: each unvisited
// report seeds a cluster, and every later report within the radius of that
// seed joins it. Membership is decided against the seed's coordinates only;
// the displayed center is the member mean computed afterwards and never fed
// back into membership. Deterministic for a fixed input order.
func clusterReports(reports []types.Report, radiusMeters float64, now time.Time) []types.Cluster {
	visited := make([]bool, len(reports))
	var clusters []types.Cluster

	for i := range reports {
		if visited[i] {
			continue
		}
		visited[i] = true
		seed := reports[i]
		members := []types.Report{seed}

		for j := i + 1; j < len(reports); j++ {
			if visited[j] {
				continue
			}
			dist := geo.DistanceMeters(seed.Location.Lat, seed.Location.Lon,
				reports[j].Location.Lat, reports[j].Location.Lon)
			if dist <= radiusMeters {
				visited[j] = true
				members = append(members, reports[j])
			}
		}

		clusters = append(clusters, buildCluster(members, now))
	}

	return clusters
}

func buildCluster(members []types.Report, now time.Time) types.Cluster {
	cluster := types.Cluster{
		Members:           members,
		CategoryHistogram: make(map[string]int),
		SeverityHistogram: make(map[types.Severity]int),
	}

	var sumLat, sumLon float64
	recent, older := 0, 0
	recentCutoff := now.AddDate(0, 0, -growthRecentDays)

	for _, m := range members {
		sumLat += m.Location.Lat
		sumLon += m.Location.Lon
		cluster.CategoryHistogram[m.Category]++
		cluster.SeverityHistogram[m.Severity]++
		if m.CreatedAt.After(recentCutoff) {
			recent++
		} else {
			older++
		}
	}

	count := float64(len(members))
	cluster.Center = types.Location{Lat: sumLat / count, Lon: sumLon / count}
	cluster.TopCategory = topCategoryKey(cluster.CategoryHistogram)
	cluster.TopSeverity = topSeverityKey(cluster.SeverityHistogram)
	cluster.GrowthRate = growthRate(recent, older)

	return cluster
}

// growthRate compares recent vs older members. A cluster with no older
// members is all new growth.
func growthRate(recent, older int) float64 {
	if older == 0 {
		return 100
	}
	if recent == 0 {
		return 0
	}
	return float64(recent-older) / float64(older) * 100
}

// topCategoryKey returns the highest-count key; ties break to the lexically
// smallest so the result does not depend on map iteration order.
func topCategoryKey(hist map[string]int) string {
	best, bestCount := "", -1
	for k, c := range hist {
		if c > bestCount || (c == bestCount && k < best) {
			best, bestCount = k, c
		}
	}
	return best
}

func topSeverityKey(hist map[types.Severity]int) types.Severity {
	best, bestCount := types.Severity(""), -1
	for k, c := range hist {
		if c > bestCount || (c == bestCount && k < best) {
			best, bestCount = k, c
		}
	}
	return best
}

// emergingHotspots filters to clusters big enough to matter, fastest-growing
// first.
func emergingHotspots(clusters []types.Cluster) []types.Cluster {
	var emerging []types.Cluster
	for _, c := range clusters {
		if len(c.Members) >= minEmergingSize {
			emerging = append(emerging, c)
		}
	}
	sort.SliceStable(emerging, func(i, j int) bool {
		return emerging[i].GrowthRate > emerging[j].GrowthRate
	})
	return emerging
}
