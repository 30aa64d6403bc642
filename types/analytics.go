package types

// Cluster groups nearby primary reports. Computed on demand, never stored.
type Cluster struct {
	Center            Location         `json:"center"`
	Members           []Report         `json:"members"`
	CategoryHistogram map[string]int   `json:"categoryHistogram"`
	SeverityHistogram map[Severity]int `json:"severityHistogram"`
	TopCategory       string           `json:"topCategory"`
	TopSeverity       Severity         `json:"topSeverity"`
	GrowthRate        float64          `json:"growthRate"`
}

type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// PeriodCount is one aggregation row: how many reports of a category were
// created in a calendar bucket (day, week or month).
type PeriodCount struct {
	Period   string `json:"period"`
	Category string `json:"category"`
	Count    int    `json:"count"`
}

type PredictedPoint struct {
	PeriodIndex int `json:"periodIndex"`
	Count       int `json:"count"`
}

// ForecastSeries is the per-category linear forecast over bucketed counts.
type ForecastSeries struct {
	Category   string           `json:"category"`
	Historical []PeriodCount    `json:"historical"`
	Predicted  []PredictedPoint `json:"predicted"`
	Slope      float64          `json:"slope"`
	Trend      Trend            `json:"trend"`
}
