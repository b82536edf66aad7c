package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"fluxpipe/internal/lp"
	"fluxpipe/internal/pipeline"
)

func scrape(t *testing.T) string {
	t.Helper()
	return get(t, NewMux(&fakeService{}), "/metrics").Body.String()
}

func TestMetricsPublisherAndObserveSolve(t *testing.T) {
	var p pipeline.EventPublisher = MetricsPublisher{}
	p.Publish(pipeline.Event{Name: pipeline.EventSamplePersisted, SampleID: "S1"})
	p.Publish(pipeline.Event{Name: pipeline.EventStageSolved, SampleID: "S1", Fields: map[string]any{"stage": "rich"}})
	p.Publish(pipeline.Event{Name: pipeline.EventStageInfeasible, SampleID: "S2", Fields: map[string]any{"stage": "standard", "status": "infeasible"}})
	p.Publish(pipeline.Event{Name: pipeline.EventRunComplete})
	ObserveSolve(lp.StatusOptimal, 3*time.Millisecond)

	body := scrape(t)
	for _, want := range []string{
		"fluxpipe_pipeline_samples_processed_total",
		`fluxpipe_pipeline_stage_outcomes_total{stage="rich",status="optimal"}`,
		`fluxpipe_pipeline_stage_outcomes_total{stage="standard",status="infeasible"}`,
		`fluxpipe_lp_solve_duration_seconds_count{status="optimal"}`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %s", want)
		}
	}
}

func TestMetricsMiddlewareUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(MetricsMiddleware)
	r.Get("/samples/{id}", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/samples/S42", nil))
	if rr.Code != http.StatusTeapot {
		t.Fatalf("code %d", rr.Code)
	}
	body := scrape(t)
	if !strings.Contains(body, `fluxpipe_http_requests_total{method="GET",path="/samples/{id}",status="418"}`) {
		t.Fatalf("route pattern label not recorded")
	}
	if strings.Contains(body, "/samples/S42") {
		t.Fatalf("raw path leaked into labels")
	}
}

func TestItoa(t *testing.T) {
	for n, want := range map[int]string{0: "0", 7: "7", 200: "200", 503: "503"} {
		if got := itoa(n); got != want {
			t.Errorf("itoa(%d) = %q, want %q", n, got, want)
		}
	}
}
