package client

import (
	"github.com/spf13/cobra"

	transports "github.com/rzbill/pushsub/internal/cmd/client/transports"
)

// BaseURLFunc provides the base HTTP API URL (e.g., from env or flag).
type BaseURLFunc func() string

// NewRoot constructs a root Cobra command holding every client command.
func NewRoot(baseURL BaseURLFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "pushsub",
		Short: "pushsub client commands",
	}
	AddCommands(root, baseURL)
	return root
}

// AddCommands registers the client commands on parent.
func AddCommands(parent *cobra.Command, baseURL BaseURLFunc) {
	t := transports.NewHTTPTransport(baseURL, nil)
	parent.AddCommand(
		newSubscribeCommand(t),
		newUnsubscribeCommand(t),
		newSubscribersCommand(t),
		newPingCommand(t),
		newBroadcastCommand(t),
		newHealthCommand(),
	)
}
