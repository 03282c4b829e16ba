package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	transports "github.com/rzbill/pushsub/internal/cmd/client/transports"
)

// newPingCommand constructs the `ping` command.
func newPingCommand(t transports.PushTransport) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Notify specific subscriber ids",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, _ := cmd.Flags().GetString("provider")
			f, _ := cmd.Flags().GetString("feature")
			ids, _ := cmd.Flags().GetStringArray("id")
			res, err := t.Ping(cmdContext(cmd.Context()), p, ids, f)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "requests: %d pinged: %d\n", res.Requests, res.Pinged)
			return nil
		},
	}
	cmd.Flags().String("provider", "google", "Push provider; prefix with test- for a dry run")
	cmd.Flags().String("feature", "", "Feature used to prune stale ids (optional)")
	cmd.Flags().StringArray("id", nil, "Subscriber id (repeatable)")
	return cmd
}

// newBroadcastCommand constructs the `broadcast` command.
func newBroadcastCommand(t transports.PushTransport) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "broadcast",
		Short: "Notify every subscriber of a feature",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, _ := cmd.Flags().GetString("feature")
			filter, _ := cmd.Flags().GetString("filter")
			if f == "" {
				return errors.New("--feature is required")
			}
			rep, err := t.Broadcast(cmdContext(cmd.Context()), f, filter)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rep)
		},
	}
	cmd.Flags().String("feature", "", "Feature (topic) name")
	cmd.Flags().String("filter", "", "CEL filter over provider, feature, id, registered_ms, now_ms")
	return cmd
}

// newHealthCommand constructs the `health` command, which queries the gRPC
// health service.
func newHealthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check server health over gRPC",
		RunE: func(cmd *cobra.Command, _ []string) error {
			service, _ := cmd.Flags().GetString("service")
			timeout, _ := cmd.Flags().GetDuration("timeout")
			ctx, cancel := context.WithTimeout(cmdContext(cmd.Context()), timeout)
			defer cancel()
			conn, err := dialGRPC()
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()
			res, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: service})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "status:", res.GetStatus().String())
			if res.GetStatus() != healthpb.HealthCheckResponse_SERVING {
				return fmt.Errorf("server is %s", res.GetStatus())
			}
			return nil
		},
	}
	cmd.Flags().String("service", "", "Health service name (empty for overall status)")
	cmd.Flags().Duration("timeout", 3*time.Second, "Request timeout")
	return cmd
}
