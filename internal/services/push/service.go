package pushsvc

import (
	"context"
	"errors"
	"strings"

	"github.com/rzbill/pushsub/internal/broadcast"
	"github.com/rzbill/pushsub/internal/dispatch"
	"github.com/rzbill/pushsub/internal/metrics"
	"github.com/rzbill/pushsub/internal/provider"
	"github.com/rzbill/pushsub/internal/runtime"
	logpkg "github.com/rzbill/pushsub/pkg/log"
)

// ErrInvalidSubscription is returned for an empty feature or id, or one
// containing the key separator.
var ErrInvalidSubscription = errors.New("invalid subscription")

// Options customizes the Service.
type Options struct {
	Logger    logpkg.Logger
	Transport dispatch.Transport
	Metrics   metrics.Collector
}

// Service is the subscription and notification API shared by the HTTP
// server, the scheduler and the CLI.
type Service struct {
	rt          *runtime.Runtime
	logger      logpkg.Logger
	engine      *dispatch.Engine
	coordinator *broadcast.Coordinator
}

// New returns a Service using a default logger and the HTTP transport.
func New(rt *runtime.Runtime) *Service {
	return NewWithOptions(rt, Options{})
}

// NewWithLogger returns a Service using the provided logger.
func NewWithLogger(rt *runtime.Runtime, logger logpkg.Logger) *Service {
	return NewWithOptions(rt, Options{Logger: logger})
}

// NewWithOptions returns a Service built from rt and opts.
func NewWithOptions(rt *runtime.Runtime, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewLogger().With(logpkg.Component("push"))
	}
	s := &Service{rt: rt, logger: logger}
	d := rt.Config().Dispatch
	s.engine = dispatch.New(dispatch.Options{
		Catalog:        rt.Catalog(),
		Transport:      opts.Transport,
		Unsubscriber:   s,
		MaxInFlight:    d.MaxInFlight,
		RatePerSec:     float64(d.RatePerSec),
		RequestTimeout: d.RequestTimeout(),
		Logger:         logger.With(logpkg.Component("dispatch")),
		Metrics:        opts.Metrics,
	})
	s.coordinator = broadcast.New(rt.Subscriptions(), s.engine, logger.With(logpkg.Component("broadcast")))
	return s
}

func validate(prov, feature, id string) error {
	if !provider.IsKnown(prov) {
		return &provider.UnknownProviderError{Name: prov}
	}
	if feature == "" || id == "" || strings.Contains(feature, "!") || strings.Contains(id, "!") {
		return ErrInvalidSubscription
	}
	return nil
}

// Subscribe records that id wants notifications for feature via prov.
// Subscribing again refreshes the registration time.
func (s *Service) Subscribe(ctx context.Context, prov, feature, id string) error {
	if err := validate(prov, feature, id); err != nil {
		return err
	}
	if err := s.rt.Subscriptions().Put(ctx, prov, feature, id); err != nil {
		return err
	}
	s.logger.Debug("subscribed", logpkg.Str("provider", prov), logpkg.Str("feature", feature), logpkg.Str("id", id))
	return nil
}

// Unsubscribe removes the subscription. Removing an absent one succeeds.
func (s *Service) Unsubscribe(ctx context.Context, prov, feature, id string) error {
	if err := validate(prov, feature, id); err != nil {
		return err
	}
	if err := s.rt.Subscriptions().Delete(ctx, prov, feature, id); err != nil {
		return err
	}
	s.logger.Debug("unsubscribed", logpkg.Str("provider", prov), logpkg.Str("feature", feature), logpkg.Str("id", id))
	return nil
}

// GetSubscribers lists the ids subscribed to feature via prov ("" for the
// legacy layout).
func (s *Service) GetSubscribers(ctx context.Context, feature, prov string) ([]string, error) {
	return s.rt.Subscriptions().Subscribers(ctx, feature, prov)
}

// Ping notifies ids via prov. See dispatch.Engine.Ping.
func (s *Service) Ping(ctx context.Context, prov string, ids []string, feature string) (dispatch.Result, error) {
	return s.engine.Ping(ctx, prov, ids, feature)
}

// Broadcast notifies every subscriber of feature.
func (s *Service) Broadcast(ctx context.Context, feature string) broadcast.Report {
	return s.coordinator.Broadcast(ctx, feature)
}

// BroadcastFiltered notifies the subscribers of feature matching expr.
func (s *Service) BroadcastFiltered(ctx context.Context, feature, expr string) (broadcast.Report, error) {
	return s.coordinator.BroadcastFiltered(ctx, feature, expr)
}

// Coordinator exposes the broadcast coordinator for the scheduler.
func (s *Service) Coordinator() *broadcast.Coordinator { return s.coordinator }

// Wait blocks until background sends and stale cleanups finish.
func (s *Service) Wait() { s.engine.Wait() }

// Close stops background sends. The runtime is left open.
func (s *Service) Close() error { return s.engine.Close() }
