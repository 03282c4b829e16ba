package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rzbill/pushsub/internal/runtime"
	"github.com/rzbill/pushsub/internal/server/http/controllers"
	pushsvc "github.com/rzbill/pushsub/internal/services/push"
	logpkg "github.com/rzbill/pushsub/pkg/log"
)

var errNotListening = errors.New("httpserver: Serve called before Listen")

type Server struct {
	rt     *runtime.Runtime
	svc    *pushsvc.Service
	srv    *http.Server
	lis    net.Listener
	logger logpkg.Logger
}

// Option customizes the Server.
type Option func(*options)

type options struct {
	gatherer prometheus.Gatherer
}

// WithGatherer serves /metrics from g instead of the default registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(o *options) { o.gatherer = g }
}

// New builds the REST gateway over svc.
func New(rt *runtime.Runtime, svc *pushsvc.Service, logger logpkg.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = logpkg.NewLogger()
	}
	logger = logger.With(logpkg.Component("http"))
	o := options{gatherer: prometheus.DefaultGatherer}
	for _, opt := range opts {
		opt(&o)
	}

	mux := http.NewServeMux()
	controllers.NewControllerRegistry(rt, svc, logger).RegisterAllRoutes(mux)
	mux.Handle("/metrics", promhttp.HandlerFor(o.gatherer, promhttp.HandlerOpts{}))

	return &Server{
		rt:     rt,
		svc:    svc,
		srv:    &http.Server{Handler: cors(mux), ReadHeaderTimeout: 10 * time.Second},
		logger: logger,
	}
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if _, err := s.Listen(addr); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Listen binds addr without serving. Connections queue until Serve.
func (s *Server) Listen(addr string) (net.Addr, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	s.lis = l
	s.logger.Info("http listening", logpkg.Str("addr", l.Addr().String()))
	return l.Addr(), nil
}

// Serve accepts on the listener bound by Listen until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	if s.lis == nil {
		return errNotListening
	}
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(s.lis) }()
	select {
	case <-ctx.Done():
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(cctx)
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) Close() {
	if s.lis != nil {
		_ = s.lis.Close()
	}
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
