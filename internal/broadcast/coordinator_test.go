package broadcast

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/rzbill/pushsub/internal/config"
	"github.com/rzbill/pushsub/internal/dispatch"
	"github.com/rzbill/pushsub/internal/provider"
	pebblestore "github.com/rzbill/pushsub/internal/storage/pebble"
	"github.com/rzbill/pushsub/internal/subscription"
)

type pingCall struct {
	provider string
	ids      []string
	feature  string
}

type fakePinger struct {
	mu    sync.Mutex
	calls []pingCall
	err   map[string]error
}

func (p *fakePinger) Ping(_ context.Context, prov string, ids []string, feature string) (dispatch.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, pingCall{prov, ids, feature})
	if err := p.err[prov]; err != nil {
		return dispatch.Result{}, err
	}
	return dispatch.Result{Requests: len(ids), Pinged: len(ids)}, nil
}

func newStore(t *testing.T) *subscription.Store {
	t.Helper()
	db, err := pebblestore.Open(pebblestore.Options{InMemory: true, Fsync: pebblestore.FsyncModeNever})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return subscription.New(db)
}

func seed(t *testing.T, st *subscription.Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, st.Put(ctx, "", "news", "legacy-1"))
	require.NoError(t, st.Put(ctx, "google", "news", "g1"))
	require.NoError(t, st.Put(ctx, "google", "news", "g2"))
	require.NoError(t, st.Put(ctx, "firefox", "news", "f1"))
	require.NoError(t, st.Put(ctx, "firefox", "sports", "f2"))
}

func TestBroadcastAllEndpoints(t *testing.T) {
	st := newStore(t)
	seed(t, st)
	p := &fakePinger{}
	c := New(st, p, nil)

	rep := c.Broadcast(context.Background(), "news")
	_, err := uuid.Parse(rep.RunID)
	require.NoError(t, err)
	require.Equal(t, "news", rep.Feature)
	require.Equal(t, []pingCall{
		{"", []string{"legacy-1"}, "news"},
		{"google", []string{"g1", "g2"}, "news"},
		{"firefox", []string{"f1"}, "news"},
	}, p.calls)
	require.Len(t, rep.Endpoints, 3)
	require.Equal(t, 2, rep.Endpoints[1].Subscribers)
	require.Equal(t, 4, rep.Requests())
}

func TestBroadcastErrorsRecorded(t *testing.T) {
	st := newStore(t)
	seed(t, st)
	p := &fakePinger{err: map[string]error{"google": errors.New("boom")}}
	c := New(st, p, nil)

	rep := c.Broadcast(context.Background(), "news")
	require.Len(t, rep.Endpoints, 3)
	require.Equal(t, "boom", rep.Endpoints[1].Error)
	require.Empty(t, rep.Endpoints[2].Error)
	require.Equal(t, 1, rep.Endpoints[2].Pinged)
}

func TestBroadcastForEndpoint(t *testing.T) {
	st := newStore(t)
	seed(t, st)
	p := &fakePinger{}
	c := New(st, p, nil)

	out, err := c.BroadcastForEndpoint(context.Background(), "sports", "firefox")
	require.NoError(t, err)
	require.Equal(t, Outcome{Provider: "firefox", Subscribers: 1, Requests: 1, Pinged: 1}, out)
}

func TestBroadcastFiltered(t *testing.T) {
	st := newStore(t)
	seed(t, st)
	p := &fakePinger{}
	c := New(st, p, nil)

	rep, err := c.BroadcastFiltered(context.Background(), "news", `provider == "google" && id.startsWith("g2")`)
	require.NoError(t, err)
	require.Equal(t, `provider == "google" && id.startsWith("g2")`, rep.Filter)
	require.Equal(t, []string{"g2"}, p.calls[1].ids)
	require.Empty(t, p.calls[0].ids)
	require.Empty(t, p.calls[2].ids)

	_, err = c.BroadcastFiltered(context.Background(), "news", `id ==`)
	require.Error(t, err)
	_, err = c.BroadcastFiltered(context.Background(), "news", `id`)
	require.Error(t, err, "non-bool filter must be rejected")
	require.Len(t, p.calls, 3, "compile errors must not scan or ping")
}

func TestFilterRegisteredAt(t *testing.T) {
	f, err := NewFilter(`now_ms - registered_ms < 1000`)
	require.NoError(t, err)
	now := time.UnixMilli(10_000)

	ok, err := f.Match(subscription.Subscription{RegisteredAt: time.UnixMilli(9_500)}, now)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = f.Match(subscription.Subscription{RegisteredAt: time.UnixMilli(1_000)}, now)
	require.NoError(t, err)
	require.False(t, ok)

	var none *Filter
	ok, err = none.Match(subscription.Subscription{}, now)
	require.NoError(t, err)
	require.True(t, ok)
}

type storeUnsub struct{ st *subscription.Store }

func (u storeUnsub) Unsubscribe(ctx context.Context, p, f, id string) error {
	return u.st.Delete(ctx, p, f, id)
}

func TestBroadcastPrunesStale(t *testing.T) {
	st := newStore(t)
	seed(t, st)
	tr := dispatch.TransportFunc(func(_ context.Context, req *provider.Request) (*dispatch.Response, error) {
		if req.Provider == provider.Firefox {
			return &dispatch.Response{StatusCode: 410}, nil
		}
		return &dispatch.Response{StatusCode: 200, Body: []byte(`{"results":[{},{"error":"NotRegistered"}]}`)}, nil
	})
	eng := dispatch.New(dispatch.Options{Transport: tr, Unsubscriber: storeUnsub{st}})
	defer eng.Close()

	c := New(st, eng, nil)
	rep := c.Broadcast(context.Background(), "news")
	eng.Wait()
	for _, o := range rep.Endpoints {
		require.Empty(t, o.Error)
	}

	ctx := context.Background()
	ids, err := st.Subscribers(ctx, "news", "google")
	require.NoError(t, err)
	require.Equal(t, []string{"g1"}, ids)
	ids, err = st.Subscribers(ctx, "news", "firefox")
	require.NoError(t, err)
	require.Empty(t, ids)
	ids, err = st.Subscribers(ctx, "sports", "firefox")
	require.NoError(t, err)
	require.Equal(t, []string{"f2"}, ids)
}

func TestScheduler(t *testing.T) {
	st := newStore(t)
	c := New(st, &fakePinger{}, nil)

	s, err := NewScheduler(c, []config.Schedule{
		{Feature: "news", Cron: "*/5 * * * *"},
		{Feature: "sports", Cron: "@hourly", Filter: `provider == "firefox"`},
	}, nil)
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())
	s.Start()
	s.Stop()

	_, err = NewScheduler(c, []config.Schedule{{Feature: "news", Cron: "bogus"}}, nil)
	require.Error(t, err)
	_, err = NewScheduler(c, []config.Schedule{{Feature: "news", Cron: "@daily", Filter: "id =="}}, nil)
	require.Error(t, err)
}
