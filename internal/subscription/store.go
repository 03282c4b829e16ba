package subscription

import (
	"context"
	"strconv"
	"time"

	logpkg "github.com/rzbill/pushsub/pkg/log"
)

// KV is the ordered key-value capability the store needs.
// pebblestore.DB satisfies it.
type KV interface {
	Set(key, value []byte) error
	Delete(key []byte) error
	DeleteKeys(keys [][]byte) error
	Scan(lower, upper []byte, fn func(key, value []byte) error) error
}

// Subscription is one stored (provider, feature, id) registration.
// Provider is empty for subscriptions recorded under LayoutLegacy.
type Subscription struct {
	Provider     string
	Feature      string
	ID           string
	RegisteredAt time.Time
}

// Store owns the subscription keyspace on top of a KV.
type Store struct {
	kv     KV
	logger logpkg.Logger
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for purge diagnostics.
func WithLogger(l logpkg.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the registration clock.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Store over kv.
func New(kv KV, opts ...Option) *Store {
	s := &Store{kv: kv, logger: logpkg.NewNopLogger(), now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Put writes or refreshes the subscription with the current time.
func (s *Store) Put(ctx context.Context, provider, feature, id string) error {
	key := LayoutFor(provider).Key(provider, feature, id)
	if err := ctx.Err(); err != nil {
		return &StorageError{Op: "put", Key: key, Err: err}
	}
	val := strconv.AppendInt(nil, s.now().UnixMilli(), 10)
	if err := s.kv.Set(key, val); err != nil {
		return &StorageError{Op: "put", Key: key, Err: err}
	}
	return nil
}

// Delete removes the subscription. Removing an absent one is not an error.
func (s *Store) Delete(ctx context.Context, provider, feature, id string) error {
	key := LayoutFor(provider).Key(provider, feature, id)
	if err := ctx.Err(); err != nil {
		return &StorageError{Op: "delete", Key: key, Err: err}
	}
	if err := s.kv.Delete(key); err != nil {
		return &StorageError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

// Scan returns every subscription of (provider, feature) in key order.
// Keys with an empty id are deleted in one batch and left out of the
// result. Keys with extra segments belong to another layout and are skipped.
func (s *Store) Scan(ctx context.Context, feature, provider string) ([]Subscription, error) {
	layout := LayoutFor(provider)
	lower, upper := layout.Bounds(provider, feature)
	if err := ctx.Err(); err != nil {
		return nil, &StorageError{Op: "scan", Key: lower, Err: err}
	}

	var (
		out     []Subscription
		invalid [][]byte
	)
	err := s.kv.Scan(lower, upper, func(key, value []byte) error {
		id, state := layout.ParseID(provider, feature, key)
		switch state {
		case KeyInvalid:
			invalid = append(invalid, append([]byte(nil), key...))
			return nil
		case KeyForeign:
			return nil
		}
		out = append(out, Subscription{
			Provider:     provider,
			Feature:      feature,
			ID:           id,
			RegisteredAt: parseRegisteredAt(value),
		})
		return ctx.Err()
	})
	if err != nil {
		return nil, &StorageError{Op: "scan", Key: lower, Err: err}
	}

	if len(invalid) > 0 {
		if err := s.kv.DeleteKeys(invalid); err != nil {
			s.logger.Warn("purge invalid subscription keys failed",
				logpkg.Int("keys", len(invalid)), logpkg.Err(err))
		} else {
			s.logger.Debug("purged invalid subscription keys", logpkg.Int("keys", len(invalid)))
		}
	}
	return out, nil
}

// Subscribers returns the ids of Scan.
func (s *Store) Subscribers(ctx context.Context, feature, provider string) ([]string, error) {
	subs, err := s.Scan(ctx, feature, provider)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(subs))
	for _, sub := range subs {
		ids = append(ids, sub.ID)
	}
	return ids, nil
}

func parseRegisteredAt(v []byte) time.Time {
	ms, err := strconv.ParseInt(string(v), 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
