package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fluxpipe/pkg/types"
)

type fakeService struct {
	ready  bool
	status types.StatusResponse
}

func (f *fakeService) Status() types.StatusResponse { return f.status }
func (f *fakeService) Ready() bool { return f.ready }

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestHealthAndReady(t *testing.T) {
	svc := &fakeService{ready: true}
	h := NewMux(svc)

	if rr := get(t, h, "/healthz"); rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Fatalf("healthz: %d %q", rr.Code, rr.Body.String())
	}
	if rr := get(t, h, "/readyz"); rr.Code != http.StatusOK {
		t.Fatalf("readyz ready: %d", rr.Code)
	}
	svc.ready = false
	rr := get(t, h, "/readyz")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz failed: %d", rr.Code)
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing nosniff header")
	}
}

func TestStatusJSON(t *testing.T) {
	svc := &fakeService{ready: true, status: types.StatusResponse{
		State: "running", Total: 3, Done: 1, Current: "S2",
		Recent: []types.SampleStatus{{ID: "S1", State: "persisted", Growth: map[string]float64{"rich": 0.9}}},
	}}
	rr := get(t, NewMux(svc), "/status")
	if rr.Code != http.StatusOK {
		t.Fatalf("status code %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type %q", ct)
	}
	var got types.StatusResponse
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Done != 1 || got.Current != "S2" || len(got.Recent) != 1 || got.Recent[0].Growth["rich"] != 0.9 {
		t.Fatalf("unexpected status %+v", got)
	}
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	h := NewMux(&fakeService{})
	rr := get(t, h, "/nope")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("code %d", rr.Code)
	}
	var er types.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&er); err != nil || er.Code != http.StatusNotFound || er.Error != "not found" {
		t.Fatalf("error body %+v err=%v", er, err)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/status", strings.NewReader("{}")))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /status code %d", rr.Code)
	}
}

func TestCORSOptIn(t *testing.T) {
	t.Cleanup(func() { SetCORSOptions(false, nil, nil, nil) })

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://dash.example")

	rr := httptest.NewRecorder()
	NewMux(&fakeService{}).ServeHTTP(rr, req)
	if v := rr.Header().Get("Access-Control-Allow-Origin"); v != "" {
		t.Fatalf("CORS header set while disabled: %q", v)
	}

	SetCORSOptions(true, []string{"https://dash.example"}, nil, nil)
	rr = httptest.NewRecorder()
	NewMux(&fakeService{}).ServeHTTP(rr, req)
	if v := rr.Header().Get("Access-Control-Allow-Origin"); v != "https://dash.example" {
		t.Fatalf("allow origin = %q", v)
	}
}

func TestCORSOptionsDefaults(t *testing.T) {
	t.Cleanup(func() { SetCORSOptions(false, nil, nil, nil) })
	SetCORSOptions(true, nil, nil, nil)
	o := corsOptions()
	if len(o.AllowedOrigins) != 1 || o.AllowedOrigins[0] != "*" {
		t.Fatalf("origins %v", o.AllowedOrigins)
	}
	if len(o.AllowedMethods) == 0 || len(o.AllowedHeaders) == 0 {
		t.Fatalf("methods %v headers %v", o.AllowedMethods, o.AllowedHeaders)
	}
}
