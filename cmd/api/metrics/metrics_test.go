package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	apppkg "github.com/mark3748/helpdesk-sla/cmd/api/app"
	metrics "github.com/mark3748/helpdesk-sla/cmd/api/metrics"
)

func TestMetricsHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := apppkg.Config{Env: "test"}
	a := apppkg.NewApp(cfg, nil, nil, nil, nil)
	a.R.GET("/metrics", metrics.Handler(a))

	metrics.ObserveEvaluation(true)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	a.R.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "sla_evaluations_total") {
		t.Fatalf("missing evaluation counter in scrape:\n%s", body)
	}
	if !strings.Contains(body, "sla_breaches_total") {
		t.Fatalf("missing breach counter in scrape:\n%s", body)
	}
}
