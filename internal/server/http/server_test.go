package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	cfgpkg "github.com/rzbill/pushsub/internal/config"
	"github.com/rzbill/pushsub/internal/dispatch"
	"github.com/rzbill/pushsub/internal/metrics"
	"github.com/rzbill/pushsub/internal/runtime"
	pushsvc "github.com/rzbill/pushsub/internal/services/push"
	pebblestore "github.com/rzbill/pushsub/internal/storage/pebble"
	logpkg "github.com/rzbill/pushsub/pkg/log"
)

func newTestServer(t *testing.T) (*Server, *pushsvc.Service) {
	t.Helper()
	dir := t.TempDir()
	rt, err := runtime.Open(runtime.Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways, Config: cfgpkg.Default()})
	if err != nil {
		t.Fatalf("rt open: %v", err)
	}
	logger, _ := logpkg.ApplyConfig(&logpkg.Config{Level: "error", Format: "text"})
	reg := prometheus.NewRegistry()
	svc := pushsvc.NewWithOptions(rt, pushsvc.Options{
		Logger:    logger,
		Transport: dispatch.NoopTransport{},
		Metrics:   metrics.NewPrometheus(reg, ""),
	})
	t.Cleanup(func() {
		_ = svc.Close()
		_ = rt.Close()
	})
	return New(rt, svc, logger, WithGatherer(reg)), svc
}

func do(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthHandler(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(s, http.MethodGet, "/v1/healthz", "")
	if w.Code != 200 {
		t.Fatalf("status: %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Fatalf("body: %s", w.Body.String())
	}
}

func TestSubscriptionLifecycle(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(s, http.MethodPost, "/v1/subscriptions", `{"provider":"firefox","feature":"news","id":"abc"}`)
	if w.Code != http.StatusNoContent {
		t.Fatalf("subscribe status: %d %s", w.Code, w.Body.String())
	}

	w = do(s, http.MethodGet, "/v1/subscribers?feature=news&provider=firefox", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list status: %d", w.Code)
	}
	var list struct {
		IDs []string `json:"ids"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.IDs) != 1 || list.IDs[0] != "abc" {
		t.Fatalf("ids: %v", list.IDs)
	}

	w = do(s, http.MethodDelete, "/v1/subscriptions", `{"provider":"firefox","feature":"news","id":"abc"}`)
	if w.Code != http.StatusNoContent {
		t.Fatalf("unsubscribe status: %d", w.Code)
	}
	w = do(s, http.MethodGet, "/v1/subscribers?feature=news&provider=firefox", "")
	if strings.TrimSpace(w.Body.String()) != `{"ids":[]}` {
		t.Fatalf("body after unsubscribe: %s", w.Body.String())
	}
}

func TestSubscriptionErrors(t *testing.T) {
	s, _ := newTestServer(t)
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		code   int
	}{
		{"unknown provider", http.MethodPost, "/v1/subscriptions", `{"provider":"apns","feature":"f","id":"a"}`, http.StatusBadRequest},
		{"invalid id", http.MethodPost, "/v1/subscriptions", `{"provider":"google","feature":"f","id":""}`, http.StatusBadRequest},
		{"bad json", http.MethodPost, "/v1/subscriptions", `{`, http.StatusBadRequest},
		{"wrong method", http.MethodGet, "/v1/subscriptions", "", http.StatusMethodNotAllowed},
		{"missing feature", http.MethodGet, "/v1/subscribers", "", http.StatusBadRequest},
		{"ping unknown provider", http.MethodPost, "/v1/ping", `{"provider":"unknown-provider","ids":[],"feature":"f"}`, http.StatusBadRequest},
		{"broadcast bad filter", http.MethodPost, "/v1/broadcast", `{"feature":"f","filter":"id =="}`, http.StatusBadRequest},
		{"broadcast missing feature", http.MethodPost, "/v1/broadcast", `{}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(s, tt.method, tt.path, tt.body)
			if w.Code != tt.code {
				t.Fatalf("status: got %d want %d (%s)", w.Code, tt.code, w.Body.String())
			}
		})
	}
}

func TestPingHandler(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(s, http.MethodPost, "/v1/ping", `{"provider":"test-firefox","ids":["t1","t2"],"feature":"f"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
	var res dispatch.Result
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Requests != 2 || res.Pinged != 2 {
		t.Fatalf("result: %+v", res)
	}
}

func TestBroadcastAndMetrics(t *testing.T) {
	s, svc := newTestServer(t)
	_ = do(s, http.MethodPost, "/v1/subscriptions", `{"provider":"google","feature":"news","id":"g1"}`)

	w := do(s, http.MethodPost, "/v1/broadcast", `{"feature":"news"}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status: %d %s", w.Code, w.Body.String())
	}
	var rep struct {
		RunID     string `json:"runId"`
		Endpoints []struct {
			Provider string `json:"provider"`
			Requests int    `json:"requests"`
		} `json:"endpoints"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &rep); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rep.RunID == "" || len(rep.Endpoints) != 3 || rep.Endpoints[1].Requests != 1 {
		t.Fatalf("report: %+v", rep)
	}
	svc.Wait()

	w = do(s, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `pushsub_dispatch_requests_total{mode="live",provider="google"} 1`) {
		t.Fatalf("metrics body missing request counter:\n%s", w.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(s, http.MethodOptions, "/v1/subscriptions", "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("status: %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing cors header")
	}
}

func TestListenThenServe(t *testing.T) {
	s, _ := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Serve(ctx); err == nil {
		t.Fatal("Serve before Listen should fail")
	}
	addr, err := s.Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	resp, err := http.Get("http://" + addr.String() + "/v1/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status: %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
