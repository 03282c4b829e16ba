package client

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// grpcAddrFromEnv returns the gRPC server address from PUSHSUB_GRPC or a default.
func grpcAddrFromEnv() string {
	if addr := os.Getenv("PUSHSUB_GRPC"); addr != "" {
		return addr
	}
	return "127.0.0.1:50051"
}

// dialGRPC creates a client for the pushsub gRPC endpoint with insecure
// transport for local/dev.
func dialGRPC() (*grpc.ClientConn, error) {
	return grpc.NewClient(grpcAddrFromEnv(), grpc.WithTransportCredentials(insecure.NewCredentials()))
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// cmdContext returns ctx, or a background context when cobra did not set one.
func cmdContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
