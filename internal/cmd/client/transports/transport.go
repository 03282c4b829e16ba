// Package transports provides pluggable transport implementations for the CLI.
package transports

import "context"

// Subscription identifies one (provider, feature, id) registration.
type Subscription struct {
	Provider string `json:"provider"`
	Feature  string `json:"feature"`
	ID       string `json:"id"`
}

// PingResult reports the requests a ping issued.
type PingResult struct {
	Requests int `json:"requests"`
	Pinged   int `json:"pinged"`
}

// EndpointOutcome is one endpoint's share of a broadcast.
type EndpointOutcome struct {
	Provider    string `json:"provider"`
	Subscribers int    `json:"subscribers"`
	Requests    int    `json:"requests"`
	Pinged      int    `json:"pinged"`
	Error       string `json:"error,omitempty"`
}

// BroadcastReport summarizes a broadcast run.
type BroadcastReport struct {
	RunID     string            `json:"runId"`
	Feature   string            `json:"feature"`
	Filter    string            `json:"filter,omitempty"`
	StartedAt string            `json:"startedAt"`
	Endpoints []EndpointOutcome `json:"endpoints"`
}

// PushTransport abstracts the transport used by the CLI.
type PushTransport interface {
	Subscribe(ctx context.Context, sub Subscription) error
	Unsubscribe(ctx context.Context, sub Subscription) error
	Subscribers(ctx context.Context, feature, provider string) ([]string, error)
	Ping(ctx context.Context, provider string, ids []string, feature string) (PingResult, error)
	Broadcast(ctx context.Context, feature, filter string) (BroadcastReport, error)
}
