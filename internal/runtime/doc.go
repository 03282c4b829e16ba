// Package runtime wires storage, config, and the subscription store into a
// single-node pushsub instance. It exposes Open/Close, a basic health check,
// and accessors for the components higher-level services build on.
//
// Example:
//
//	cfg := config.Default()
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Fsync: pebblestore.FsyncModeAlways, Config: cfg})
//	defer rt.Close()
//	_ = rt.CheckHealth(context.Background())
//	_ = rt.Subscriptions().Put(ctx, "google", "news", "token-1")
package runtime
