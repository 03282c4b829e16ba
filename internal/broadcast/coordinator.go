package broadcast

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/rzbill/pushsub/internal/dispatch"
	"github.com/rzbill/pushsub/internal/provider"
	"github.com/rzbill/pushsub/internal/subscription"
	logpkg "github.com/rzbill/pushsub/pkg/log"
)

// Endpoints are broadcast in order: the legacy layout (no provider), then
// each known provider.
var Endpoints = append([]string{""}, provider.Names...)

// Scanner lists the subscriptions of (feature, provider).
type Scanner interface {
	Scan(ctx context.Context, feature, provider string) ([]subscription.Subscription, error)
}

// Pinger sends a notification to ids.
type Pinger interface {
	Ping(ctx context.Context, provider string, ids []string, feature string) (dispatch.Result, error)
}

// Outcome is the result of broadcasting to one endpoint.
type Outcome struct {
	Provider    string `json:"provider"`
	Subscribers int    `json:"subscribers"`
	Requests    int    `json:"requests"`
	Pinged      int    `json:"pinged"`
	Error       string `json:"error,omitempty"`
}

// Report summarizes one broadcast run.
type Report struct {
	RunID     string    `json:"runId"`
	Feature   string    `json:"feature"`
	Filter    string    `json:"filter,omitempty"`
	StartedAt time.Time `json:"startedAt"`
	Endpoints []Outcome `json:"endpoints"`
}

// Requests sums the requests issued across endpoints.
func (r Report) Requests() int {
	n := 0
	for _, o := range r.Endpoints {
		n += o.Requests
	}
	return n
}

// Coordinator fans a feature notification out to every endpoint.
type Coordinator struct {
	subs   Scanner
	pinger Pinger
	logger logpkg.Logger
	now    func() time.Time
}

// New creates a Coordinator.
func New(subs Scanner, pinger Pinger, logger logpkg.Logger) *Coordinator {
	if logger == nil {
		logger = logpkg.NewNopLogger()
	}
	return &Coordinator{subs: subs, pinger: pinger, logger: logger, now: time.Now}
}

// BroadcastForEndpoint notifies every subscriber of feature stored under
// provider ("" for the legacy layout).
func (c *Coordinator) BroadcastForEndpoint(ctx context.Context, feature, prov string) (Outcome, error) {
	return c.broadcastEndpoint(ctx, feature, prov, nil)
}

// Broadcast notifies feature subscribers under every endpoint. Endpoint
// failures are recorded in the report and logged, never returned.
func (c *Coordinator) Broadcast(ctx context.Context, feature string) Report {
	return c.run(ctx, feature, nil)
}

// BroadcastFiltered is Broadcast restricted to subscriptions matching expr.
// Compile errors are returned before anything is scanned.
func (c *Coordinator) BroadcastFiltered(ctx context.Context, feature, expr string) (Report, error) {
	f, err := NewFilter(expr)
	if err != nil {
		return Report{}, err
	}
	return c.run(ctx, feature, f), nil
}

func (c *Coordinator) run(ctx context.Context, feature string, f *Filter) Report {
	rep := Report{
		RunID:     uuid.NewString(),
		Feature:   feature,
		Filter:    f.String(),
		StartedAt: c.now(),
	}
	for _, prov := range Endpoints {
		out, err := c.broadcastEndpoint(ctx, feature, prov, f)
		if err != nil {
			out.Error = err.Error()
			c.logger.Warn("broadcast endpoint failed",
				logpkg.Str("run_id", rep.RunID),
				logpkg.Str("feature", feature),
				logpkg.Str("provider", prov),
				logpkg.Err(err))
		}
		rep.Endpoints = append(rep.Endpoints, out)
	}
	return rep
}

func (c *Coordinator) broadcastEndpoint(ctx context.Context, feature, prov string, f *Filter) (Outcome, error) {
	out := Outcome{Provider: prov}
	subs, err := c.subs.Scan(ctx, feature, prov)
	if err != nil {
		return out, err
	}
	now := c.now()
	ids := make([]string, 0, len(subs))
	for _, s := range subs {
		ok, err := f.Match(s, now)
		if err != nil {
			c.logger.Debug("filter evaluation failed", logpkg.Str("id", s.ID), logpkg.Err(err))
			continue
		}
		if ok {
			ids = append(ids, s.ID)
		}
	}
	out.Subscribers = len(ids)

	res, err := c.pinger.Ping(ctx, prov, ids, feature)
	if err != nil {
		return out, err
	}
	out.Requests, out.Pinged = res.Requests, res.Pinged
	c.logger.Info("broadcast sent",
		logpkg.Str("feature", feature),
		logpkg.Str("provider", prov),
		logpkg.Int("subscribers", len(ids)))
	return out, nil
}
