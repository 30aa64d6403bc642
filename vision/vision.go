// Package vision wraps the OpenAI vision model behind the two calls the
// complaint engine needs: classifying a submitted photo and scoring the
// similarity of two photos.
package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"go-civicfix/types"
)

// Classifier turns a photo plus optional description into a structured
// classification.
type Classifier interface {
	Classify(ctx context.Context, photo []byte, description string) (types.Classification, error)
}

// SimilarityResult is the oracle's verdict on two photos.
type SimilarityResult struct {
	Score     int    `json:"similarityScore"`
	Reasoning string `json:"reasoning"`
}

// SimilarityOracle scores how likely two photos show the same physical issue.
type SimilarityOracle interface {
	Compare(ctx context.Context, a, b []byte) (SimilarityResult, error)
}

// ClassificationSchemaVersion is stamped on every classification this build
// produces.
const ClassificationSchemaVersion = 1

// FallbackClassification is substituted when the classifier is unreachable,
// so ingestion still succeeds with a low-confidence record.
func FallbackClassification(categoryHint string) types.Classification {
	category := "UNCLASSIFIED"
	if categoryHint != "" {
		category = categoryHint
	}
	return types.Classification{
		SchemaVersion:    ClassificationSchemaVersion,
		Category:         category,
		Severity:         types.SeverityMedium,
		Confidence:       10,
		EstimatedUrgency: types.UrgencyModerate,
		Assessment:       "automatic fallback, classifier unavailable",
	}
}

func photoDataURL(photo []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(photo)
}

// extractJSON pulls the first JSON object out of a model reply, tolerating
// markdown fences and surrounding prose.
func extractJSON(reply string, out interface{}) error {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return fmt.Errorf("no JSON object in model reply: %q", truncate(reply, 120))
	}
	if err := json.Unmarshal([]byte(reply[start:end+1]), out); err != nil {
		return fmt.Errorf("failed to parse model reply: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
