package client

import (
	"bytes"
	"encoding/json"
	"net"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	cfgpkg "github.com/rzbill/pushsub/internal/config"
	"github.com/rzbill/pushsub/internal/dispatch"
	"github.com/rzbill/pushsub/internal/runtime"
	httpserver "github.com/rzbill/pushsub/internal/server/http"
	pushsvc "github.com/rzbill/pushsub/internal/services/push"
	logpkg "github.com/rzbill/pushsub/pkg/log"
)

func startAPI(t *testing.T) string {
	t.Helper()
	rt, err := runtime.Open(runtime.Options{InMemory: true, Config: cfgpkg.Default()})
	if err != nil {
		t.Fatalf("rt open: %v", err)
	}
	logger := logpkg.NewNopLogger()
	svc := pushsvc.NewWithOptions(rt, pushsvc.Options{Logger: logger, Transport: dispatch.NoopTransport{}})
	ts := httptest.NewServer(httpserver.New(rt, svc, logger).Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = svc.Close()
		_ = rt.Close()
	})
	return ts.URL
}

func run(t *testing.T, base string, args ...string) (string, error) {
	t.Helper()
	root := NewRoot(func() string { return base })
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestSubscribeListUnsubscribe(t *testing.T) {
	base := startAPI(t)

	out, err := run(t, base, "subscribe", "--provider", "firefox", "--feature", "news", "--id", "abc")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if !strings.Contains(out, "status:") {
		t.Fatalf("expected status in output, got: %s", out)
	}
	_, _ = run(t, base, "subscribe", "--provider", "firefox", "--feature", "news", "--id", "def")

	out, err = run(t, base, "subscribers", "--feature", "news", "--provider", "firefox")
	if err != nil {
		t.Fatalf("subscribers: %v", err)
	}
	if out != "abc\ndef\n" {
		t.Fatalf("subscribers output: %q", out)
	}

	if _, err := run(t, base, "unsubscribe", "--provider", "firefox", "--feature", "news", "--id", "abc"); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	out, _ = run(t, base, "subscribers", "--feature", "news", "--provider", "firefox")
	if out != "def\n" {
		t.Fatalf("subscribers after unsubscribe: %q", out)
	}
}

func TestSubscribeUnknownProvider(t *testing.T) {
	base := startAPI(t)
	_, err := run(t, base, "subscribe", "--provider", "apns", "--feature", "news", "--id", "abc")
	if err == nil || !strings.Contains(err.Error(), "400") {
		t.Fatalf("expected 400 error, got %v", err)
	}
	if _, err := run(t, base, "subscribe", "--provider", "google"); err == nil {
		t.Fatal("expected missing flag error")
	}
}

func TestPingDryRun(t *testing.T) {
	base := startAPI(t)
	out, err := run(t, base, "ping", "--provider", "test-firefox", "--feature", "f", "--id", "t1", "--id", "t2")
	if err != nil {
		t.Fatalf("ping: %v", err)
	}
	if strings.TrimSpace(out) != "requests: 2 pinged: 2" {
		t.Fatalf("ping output: %q", out)
	}
}

func TestBroadcastPrintsReport(t *testing.T) {
	base := startAPI(t)
	_, _ = run(t, base, "subscribe", "--provider", "google", "--feature", "news", "--id", "g1")

	out, err := run(t, base, "broadcast", "--feature", "news", "--filter", `provider == "google"`)
	if err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	var rep struct {
		RunID     string `json:"runId"`
		Endpoints []struct {
			Provider string `json:"provider"`
			Pinged   int    `json:"pinged"`
		} `json:"endpoints"`
	}
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if rep.RunID == "" || len(rep.Endpoints) != 3 || rep.Endpoints[1].Pinged != 1 {
		t.Fatalf("report: %+v", rep)
	}

	if _, err := run(t, base, "broadcast", "--feature", "news", "--filter", "id =="); err == nil {
		t.Fatal("expected filter error")
	}
}

func TestHealthCommand(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := grpc.NewServer()
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
	go func() { _ = srv.Serve(lis) }()
	defer srv.Stop()
	t.Setenv("PUSHSUB_GRPC", lis.Addr().String())

	out, err := run(t, "http://unused", "health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if !strings.Contains(out, "SERVING") {
		t.Fatalf("health output: %q", out)
	}

	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	if _, err := run(t, "http://unused", "health"); err == nil {
		t.Fatal("expected not serving error")
	}
}
