package dispatch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/rzbill/pushsub/internal/metrics"
	"github.com/rzbill/pushsub/internal/provider"
	logpkg "github.com/rzbill/pushsub/pkg/log"
)

// DryRunPrefix on a provider name counts requests without sending them.
const DryRunPrefix = "test-"

// Defaults applied by New for zero Options.
const (
	DefaultMaxInFlight    = 64
	DefaultRequestTimeout = 10 * time.Second
)

// ErrClosed is returned by Ping after Close.
var ErrClosed = errors.New("dispatch: engine closed")

// Unsubscriber removes a subscription reported stale by a provider.
type Unsubscriber interface {
	Unsubscribe(ctx context.Context, provider, feature, id string) error
}

// Result describes the requests a Ping issued.
type Result struct {
	Requests int `json:"requests"`
	Pinged   int `json:"pinged"`
}

// Options configures an Engine.
type Options struct {
	Catalog      *provider.Catalog
	Transport    Transport
	Unsubscriber Unsubscriber
	// MaxInFlight bounds concurrent outbound requests.
	MaxInFlight int
	// RatePerSec paces outbound requests; zero means unlimited.
	RatePerSec float64
	// RequestTimeout bounds each outbound request.
	RequestTimeout time.Duration
	Logger         logpkg.Logger
	Metrics        metrics.Collector
}

// Engine sends push requests in the background and prunes stale
// subscriptions from the responses.
type Engine struct {
	catalog *provider.Catalog
	tr      Transport
	unsub   Unsubscriber
	sem     *semaphore.Weighted
	limiter *rate.Limiter
	timeout time.Duration
	logger  logpkg.Logger
	metrics metrics.Collector

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// New creates an Engine. A nil Transport sends over http.DefaultClient.
func New(opts Options) *Engine {
	if opts.Catalog == nil {
		opts.Catalog = provider.NewCatalog(provider.Options{})
	}
	if opts.Transport == nil {
		opts.Transport = NewHTTPTransport(nil)
	}
	if opts.MaxInFlight <= 0 {
		opts.MaxInFlight = DefaultMaxInFlight
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logpkg.NewNopLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop{}
	}
	limit := rate.Inf
	burst := 0
	if opts.RatePerSec > 0 {
		limit = rate.Limit(opts.RatePerSec)
		burst = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		catalog: opts.Catalog,
		tr:      opts.Transport,
		unsub:   opts.Unsubscriber,
		sem:     semaphore.NewWeighted(int64(opts.MaxInFlight)),
		limiter: rate.NewLimiter(limit, burst),
		timeout: opts.RequestTimeout,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Normalize maps an empty provider to google and strips the dry-run prefix.
func Normalize(name string) (prov string, dryRun bool) {
	if strings.HasPrefix(name, DryRunPrefix) {
		name = strings.TrimPrefix(name, DryRunPrefix)
		dryRun = true
	}
	if name == "" {
		name = provider.Google
	}
	return name, dryRun
}

// Ping issues one request per provider batch of ids and returns the counts
// of requests issued and ids covered. Requests are sent in the background;
// when feature is set, ids the provider reports stale are unsubscribed.
// An unknown provider fails before any request is issued.
func (e *Engine) Ping(ctx context.Context, name string, ids []string, feature string) (Result, error) {
	prov, dryRun := Normalize(name)
	spec, err := e.catalog.Lookup(prov)
	if err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	batches := spec.Batches(ids)
	reqs := make([]*provider.Request, 0, len(batches))
	for _, b := range batches {
		req, err := spec.NewRequest(b)
		if err != nil {
			return Result{}, err
		}
		reqs = append(reqs, req)
	}

	mode := "live"
	if dryRun {
		mode = "dry_run"
	}
	var res Result
	for _, req := range reqs {
		res.Requests++
		res.Pinged += len(req.IDs)
		e.metrics.RequestIssued(prov, mode, len(req.IDs))
	}
	if dryRun || len(reqs) == 0 {
		return res, nil
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return Result{}, ErrClosed
	}
	e.wg.Add(1)
	e.mu.Unlock()
	go e.dispatch(reqs, feature)
	return res, nil
}

// dispatch sends reqs in order, each in its own goroutine once a slot and a
// rate token are available.
func (e *Engine) dispatch(reqs []*provider.Request, feature string) {
	defer e.wg.Done()
	for _, req := range reqs {
		if err := e.sem.Acquire(e.ctx, 1); err != nil {
			return
		}
		if err := e.limiter.Wait(e.ctx); err != nil {
			e.sem.Release(1)
			return
		}
		e.wg.Add(1)
		go func(req *provider.Request) {
			defer e.wg.Done()
			defer e.sem.Release(1)
			e.send(req, feature)
		}(req)
	}
}

func (e *Engine) send(req *provider.Request, feature string) {
	ctx, cancel := context.WithTimeout(e.ctx, e.timeout)
	resp, err := e.tr.Send(ctx, req)
	cancel()
	if err != nil {
		e.metrics.TransportFailed(req.Provider)
		if e.ctx.Err() == nil {
			e.logger.Warn("push request failed",
				logpkg.Str("provider", req.Provider),
				logpkg.Int("ids", len(req.IDs)),
				logpkg.Err(err))
		}
		return
	}
	e.metrics.ResponseReceived(req.Provider, resp.StatusCode)

	stale := StaleIDs(resp.StatusCode, resp.Body, req.IDs)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		e.logger.Warn("push request rejected",
			logpkg.Str("provider", req.Provider),
			logpkg.Int("status", resp.StatusCode),
			logpkg.Int("ids", len(req.IDs)),
			logpkg.Int("stale", len(stale)))
	}
	if len(stale) == 0 {
		return
	}
	e.metrics.StaleDetected(req.Provider, len(stale))
	if feature == "" || e.unsub == nil {
		return
	}
	for _, id := range stale {
		if err := e.unsub.Unsubscribe(e.ctx, req.Provider, feature, id); err != nil {
			e.logger.Warn("unsubscribe stale id failed",
				logpkg.Str("provider", req.Provider),
				logpkg.Str("feature", feature),
				logpkg.Str("id", id),
				logpkg.Err(err))
			continue
		}
		e.logger.Debug("unsubscribed stale id",
			logpkg.Str("provider", req.Provider),
			logpkg.Str("feature", feature),
			logpkg.Str("id", id))
	}
}

// Wait blocks until every background send and cleanup has finished.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Close stops pending sends and waits for running ones to return.
func (e *Engine) Close() error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.cancel()
	e.wg.Wait()
	return nil
}
