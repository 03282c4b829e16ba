package grpcserver

import (
	"context"
	"errors"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/rzbill/pushsub/internal/runtime"
	logpkg "github.com/rzbill/pushsub/pkg/log"
)

// ServiceName is the health service name reported for pushsub itself.
const ServiceName = "pushsub"

// DefaultHealthInterval is how often the runtime health check is polled.
const DefaultHealthInterval = 5 * time.Second

var errNotListening = errors.New("grpcserver: Serve called before Listen")

// Server owns the gRPC server instance and runtime.
type Server struct {
	rt     *runtime.Runtime
	grpc   *grpc.Server
	health *health.Server
	lis    net.Listener
	logger logpkg.Logger
}

// New constructs a gRPC server with the standard health service and
// server reflection registered.
func New(rt *runtime.Runtime, logger logpkg.Logger, opts ...grpc.ServerOption) *Server {
	if logger == nil {
		logger = logpkg.NewNopLogger()
	}
	s := &Server{
		rt:     rt,
		grpc:   grpc.NewServer(opts...),
		health: health.NewServer(),
		logger: logger.With(logpkg.Component("grpc")),
	}
	healthpb.RegisterHealthServer(s.grpc, s.health)
	reflection.Register(s.grpc)
	s.updateHealth(context.Background())
	return s
}

// ListenAndServe binds to addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if _, err := s.Listen(addr); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Listen binds addr without serving.
func (s *Server) Listen(addr string) (net.Addr, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	s.lis = l
	s.logger.Info("grpc listening", logpkg.Str("addr", l.Addr().String()))
	return l.Addr(), nil
}

// Serve accepts on the listener bound by Listen and polls runtime health
// until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	if s.lis == nil {
		return errNotListening
	}
	go s.watchHealth(ctx, DefaultHealthInterval)
	errCh := make(chan error, 1)
	go func() { errCh <- s.grpc.Serve(s.lis) }()
	select {
	case <-ctx.Done():
		s.health.Shutdown()
		s.grpc.GracefulStop()
		return nil
	case err := <-errCh:
		return err
	}
}

// Close stops the server and closes the listener.
func (s *Server) Close() {
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.grpc != nil {
		s.grpc.GracefulStop()
	}
	if s.lis != nil {
		_ = s.lis.Close()
	}
}
