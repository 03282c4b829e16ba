// Package httpserver provides the REST gateway for pushsub: subscription
// management, ping, broadcast, health and Prometheus metrics.
//
// Example:
//
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Fsync: pebblestore.FsyncModeAlways, Config: config.Default()})
//	svc := pushsvc.New(rt)
//	s := httpserver.New(rt, svc, logger)
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = s.ListenAndServe(ctx, ":8080")
package httpserver
