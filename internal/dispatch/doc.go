// Package dispatch delivers push notifications to provider endpoints.
//
// Engine.Ping splits subscriber ids into provider batches, returns the
// number of requests issued and ids covered, and sends the requests in the
// background. Sends are bounded by a weighted semaphore, paced by a token
// bucket and cut off by a per-request timeout. Each response is run through
// StaleIDs and stale ids are handed to the configured Unsubscriber.
//
// A provider name prefixed with "test-" is a dry run: counts are computed and
// nothing is sent. Tests that want the full send path inject NoopTransport
// or a TransportFunc instead.
package dispatch
