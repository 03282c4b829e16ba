package client

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	transports "github.com/rzbill/pushsub/internal/cmd/client/transports"
)

func subscriptionFlags(cmd *cobra.Command) {
	cmd.Flags().String("provider", "", "Push provider: google|firefox")
	cmd.Flags().String("feature", "", "Feature (topic) name")
	cmd.Flags().String("id", "", "Subscriber id")
}

func readSubscription(cmd *cobra.Command) (transports.Subscription, error) {
	p, _ := cmd.Flags().GetString("provider")
	f, _ := cmd.Flags().GetString("feature")
	id, _ := cmd.Flags().GetString("id")
	if p == "" || f == "" || id == "" {
		return transports.Subscription{}, errors.New("--provider, --feature and --id are required")
	}
	return transports.Subscription{Provider: p, Feature: f, ID: id}, nil
}

// newSubscribeCommand constructs the `subscribe` command.
func newSubscribeCommand(t transports.PushTransport) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscribe",
		Short: "Subscribe an id to a feature",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sub, err := readSubscription(cmd)
			if err != nil {
				return err
			}
			if err := t.Subscribe(cmdContext(cmd.Context()), sub); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "status:", "OK")
			return nil
		},
	}
	subscriptionFlags(cmd)
	return cmd
}

// newUnsubscribeCommand constructs the `unsubscribe` command.
func newUnsubscribeCommand(t transports.PushTransport) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unsubscribe",
		Short: "Remove a subscription",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sub, err := readSubscription(cmd)
			if err != nil {
				return err
			}
			if err := t.Unsubscribe(cmdContext(cmd.Context()), sub); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "status:", "OK")
			return nil
		},
	}
	subscriptionFlags(cmd)
	return cmd
}

// newSubscribersCommand constructs the `subscribers` command.
func newSubscribersCommand(t transports.PushTransport) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscribers",
		Short: "List subscriber ids of a feature",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, _ := cmd.Flags().GetString("feature")
			p, _ := cmd.Flags().GetString("provider")
			if f == "" {
				return errors.New("--feature is required")
			}
			ids, err := t.Subscribers(cmdContext(cmd.Context()), f, p)
			if err != nil {
				return err
			}
			for _, id := range ids {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
	cmd.Flags().String("feature", "", "Feature (topic) name")
	cmd.Flags().String("provider", "", "Push provider; empty lists legacy subscriptions")
	return cmd
}
