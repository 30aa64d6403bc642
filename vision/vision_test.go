package vision

import (
	"testing"

	"go-civicfix/types"
)

func TestExtractJSONToleratesProse(t *testing.T) {
	t.Parallel()

	reply := "Sure! Here is the result:\n```json\n{\"similarityScore\": 85, \"reasoning\": \"same crack pattern\"}\n```"
	var result SimilarityResult
	if err := extractJSON(reply, &result); err != nil {
		t.Fatalf("extractJSON error: %v", err)
	}
	if result.Score != 85 || result.Reasoning != "same crack pattern" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestExtractJSONRejectsGarbage(t *testing.T) {
	t.Parallel()

	var result SimilarityResult
	if err := extractJSON("I cannot help with that.", &result); err == nil {
		t.Fatalf("expected error for reply without JSON")
	}
}

func TestFallbackClassification(t *testing.T) {
	t.Parallel()

	cls := FallbackClassification("")
	if cls.Category != "UNCLASSIFIED" {
		t.Fatalf("expected UNCLASSIFIED, got %s", cls.Category)
	}
	if cls.Severity != types.SeverityMedium || cls.Confidence != 10 {
		t.Fatalf("fallback must be medium severity, low confidence: %+v", cls)
	}

	hinted := FallbackClassification("POTHOLE")
	if hinted.Category != "POTHOLE" {
		t.Fatalf("expected hinted category, got %s", hinted.Category)
	}
}
