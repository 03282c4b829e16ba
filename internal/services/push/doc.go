// Package pushsvc is the subscription and notification facade consumed by
// the HTTP server, the broadcast scheduler and tests.
//
// Example:
//
//	svc := pushsvc.New(rt)
//	defer svc.Close()
//	_ = svc.Subscribe(ctx, "firefox", "news", "endpoint-id")
//	ids, _ := svc.GetSubscribers(ctx, "news", "firefox")
//	res, _ := svc.Ping(ctx, "firefox", ids, "news")
//	rep := svc.Broadcast(ctx, "news")
package pushsvc
