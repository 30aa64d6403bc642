package routes

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"go-civicfix/analytics"
	"go-civicfix/escalation"
	"go-civicfix/ingest"
	"go-civicfix/notify"
	"go-civicfix/store"
	"go-civicfix/types"
	"go-civicfix/vision"
)

type staticClassifier struct{}

func (staticClassifier) Classify(ctx context.Context, photo []byte, description string) (types.Classification, error) {
	return types.Classification{
		SchemaVersion:    vision.ClassificationSchemaVersion,
		Category:         "POTHOLE",
		Severity:         types.SeverityMedium,
		Confidence:       90,
		EstimatedUrgency: types.UrgencyModerate,
	}, nil
}

type staticOracle struct{}

func (staticOracle) Compare(ctx context.Context, a, b []byte) (vision.SimilarityResult, error) {
	return vision.SimilarityResult{Score: 0}, nil
}

type memPhotos struct {
	blobs map[string][]byte
}

func (p *memPhotos) Save(ctx context.Context, id string, data []byte) (string, error) {
	p.blobs[id] = data
	return id, nil
}

func (p *memPhotos) Load(ctx context.Context, ref string) ([]byte, error) {
	data, ok := p.blobs[ref]
	if !ok {
		return nil, fmt.Errorf("photo %s not found", ref)
	}
	return data, nil
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	l := logrus.New()
	l.SetOutput(io.Discard)
	log := logrus.NewEntry(l)

	st := store.NewMemoryStore()
	ing := ingest.NewService(st, &memPhotos{blobs: map[string][]byte{}}, staticClassifier{}, staticOracle{}, log)
	mon := escalation.NewMonitor(st, notify.NewLogNotifier(log), log)
	an := analytics.NewService(st, log)

	return SetupRouter(ing, mon, an)
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthRoute(t *testing.T) {
	r := newTestRouter()
	w := doJSON(t, r, http.MethodGet, "/", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestSubmitAndFetchReport(t *testing.T) {
	r := newTestRouter()

	w := doJSON(t, r, http.MethodPost, "/api/civicfix/reports", gin.H{
		"lat":         40.7128,
		"lon":         -74.0060,
		"photo":       base64.StdEncoding.EncodeToString([]byte("jpeg-bytes")),
		"description": "deep pothole on 5th",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var created types.Report
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.ID == "" || created.Category != "POTHOLE" || !created.IsPrimary {
		t.Fatalf("unexpected report: %+v", created)
	}

	w = doJSON(t, r, http.MethodGet, "/api/civicfix/reports/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPatch, "/api/civicfix/reports/"+created.ID+"/status", gin.H{
		"status": "resolved",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var updated types.Report
	if err := json.Unmarshal(w.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if updated.Status != types.StatusResolved {
		t.Fatalf("expected resolved, got %s", updated.Status)
	}
}

func TestSubmitAcceptsZeroCoordinates(t *testing.T) {
	r := newTestRouter()

	// Lat 0 is a valid coordinate (equator) and must not fail validation.
	w := doJSON(t, r, http.MethodPost, "/api/civicfix/reports", gin.H{
		"lat":   0,
		"lon":   12.5,
		"photo": base64.StdEncoding.EncodeToString([]byte("jpeg-bytes")),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var created types.Report
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.Location.Lat != 0 || created.Location.Lon != 12.5 {
		t.Fatalf("unexpected location: %+v", created.Location)
	}

	// A missing coordinate is still a validation error.
	w = doJSON(t, r, http.MethodPost, "/api/civicfix/reports", gin.H{
		"lat":   0,
		"photo": base64.StdEncoding.EncodeToString([]byte("jpeg-bytes")),
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing lon, got %d", w.Code)
	}
}

func TestSubmitRejectsBadPhoto(t *testing.T) {
	r := newTestRouter()
	w := doJSON(t, r, http.MethodPost, "/api/civicfix/reports", gin.H{
		"lat":   40.7128,
		"lon":   -74.0060,
		"photo": "not base64!!!",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestUnknownReportReturns404(t *testing.T) {
	r := newTestRouter()
	w := doJSON(t, r, http.MethodGet, "/api/civicfix/reports/nope", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPatch, "/api/civicfix/reports/nope/status", gin.H{"status": "verified"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestSweepAndStatsRoutes(t *testing.T) {
	r := newTestRouter()

	w := doJSON(t, r, http.MethodPost, "/api/civicfix/escalations/sweep", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/civicfix/escalations/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/civicfix/analytics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
