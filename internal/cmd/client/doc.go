// Package client provides the `pushsub` command-line client.
//
// The CLI talks to the pushsub HTTP API for subscription management and
// notifications, and to the gRPC health service for liveness checks.
//
// # Address configuration
//
// The HTTP base URL is discovered by the application that embeds the
// commands via a BaseURLFunc. When using the standalone binary, it is read
// from PUSHSUB_HTTP (default http://127.0.0.1:8080). The gRPC address is read
// from PUSHSUB_GRPC (default 127.0.0.1:50051).
//
// Usage
//
//	pushsub subscribe --provider firefox --feature news --id abc123
//	pushsub subscribers --feature news --provider firefox
//	pushsub unsubscribe --provider firefox --feature news --id abc123
//
//	# Dry run: counts requests without sending
//	pushsub ping --provider test-google --feature news --id t1 --id t2
//
//	pushsub broadcast --feature news
//	pushsub broadcast --feature news --filter 'provider == "firefox"'
//
//	pushsub health
package client
