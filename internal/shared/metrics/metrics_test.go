package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveAdvisoryCountsOutcome(t *testing.T) {
	before := testutil.ToFloat64(advisoryRequests.WithLabelValues(OutcomeTimeout))
	ObserveAdvisory(OutcomeTimeout, 1.5)
	after := testutil.ToFloat64(advisoryRequests.WithLabelValues(OutcomeTimeout))
	if after != before+1 {
		t.Fatalf("expected counter to increase by 1, got %v -> %v", before, after)
	}
}

func TestHandlerServesRegistry(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ObserveScored("api", 91)

	r := gin.New()
	r.GET("/metrics", Handler())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "mission_analyses_scored_total") {
		t.Fatalf("expected scored counter in output")
	}
}

func TestIncQueueMessage(t *testing.T) {
	before := testutil.ToFloat64(queueMessages.WithLabelValues(MessageDropped))
	IncQueueMessage(MessageDropped)
	if got := testutil.ToFloat64(queueMessages.WithLabelValues(MessageDropped)); got != before+1 {
		t.Fatalf("expected dropped counter to increase, got %v -> %v", before, got)
	}
}
