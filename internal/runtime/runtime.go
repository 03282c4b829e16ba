package runtime

import (
	"context"
	"errors"
	"time"

	cfgpkg "github.com/rzbill/pushsub/internal/config"
	"github.com/rzbill/pushsub/internal/provider"
	pebblestore "github.com/rzbill/pushsub/internal/storage/pebble"
	"github.com/rzbill/pushsub/internal/subscription"
	logpkg "github.com/rzbill/pushsub/pkg/log"
)

// Options for building the Runtime.
type Options struct {
	DataDir       string
	InMemory      bool
	Fsync         pebblestore.FsyncMode
	FsyncInterval time.Duration
	Config        cfgpkg.Config
	Metrics       pebblestore.MetricsHook
	Logger        logpkg.Logger
}

// Runtime wires storage, config, and the subscription store for a
// single-node instance.
type Runtime struct {
	db      *pebblestore.DB
	config  cfgpkg.Config
	subs    *subscription.Store
	catalog *provider.Catalog
}

// Open initializes the underlying storage and returns a Runtime.
func Open(opts Options) (*Runtime, error) {
	db, err := pebblestore.Open(pebblestore.Options{
		DataDir:       opts.DataDir,
		InMemory:      opts.InMemory,
		Fsync:         opts.Fsync,
		FsyncInterval: opts.FsyncInterval,
		Metrics:       opts.Metrics,
	})
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewNopLogger()
	}
	cfg := opts.Config
	rt := &Runtime{
		db:     db,
		config: cfg,
		subs:   subscription.New(db, subscription.WithLogger(logger.With(logpkg.Component("subscription")))),
		catalog: provider.NewCatalog(provider.Options{
			GoogleEndpoint: cfg.Google.Endpoint,
			GoogleAPIKey:   cfg.Google.APIKey,
			FirefoxBaseURL: cfg.Firefox.BaseURL,
			TTLSeconds:     cfg.Dispatch.TTLSeconds,
		}),
	}
	return rt, nil
}

// Close closes underlying resources.
func (r *Runtime) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// CheckHealth performs a simple health check.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.db == nil {
		return errors.New("db not open")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	it, err := r.db.NewIter(nil)
	if err != nil {
		return err
	}
	return it.Close()
}

// Subscriptions returns the subscription store.
func (r *Runtime) Subscriptions() *subscription.Store { return r.subs }

// Catalog returns the provider catalog built from the configuration.
func (r *Runtime) Catalog() *provider.Catalog { return r.catalog }

// DB exposes the underlying DB for advanced operations (internal use only).
func (r *Runtime) DB() *pebblestore.DB { return r.db }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }
