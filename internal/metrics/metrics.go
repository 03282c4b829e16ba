// Package metrics defines the observations pushsub records about storage and
// push dispatch, with a no-op implementation and a Prometheus-backed one.
package metrics

import "time"

// Collector receives dispatch and storage observations.
type Collector interface {
	// RequestIssued records one outbound request covering ids subscribers.
	// mode is "live" or "dry_run".
	RequestIssued(provider, mode string, ids int)
	// ResponseReceived records the HTTP status class of a provider response.
	ResponseReceived(provider string, status int)
	// TransportFailed records a request that never produced a response.
	TransportFailed(provider string)
	// StaleDetected records subscriber ids a provider reported as invalid.
	StaleDetected(provider string, n int)

	ObserveWrite(elapsed time.Duration, bytes int)
	ObserveRead(elapsed time.Duration, bytes int)
	ObserveBatchCommit(elapsed time.Duration, numOps int, bytes int)
}

// Nop discards all observations.
type Nop struct{}

// Compile-time assertion that Nop implements Collector.
var _ Collector = Nop{}

func (Nop) RequestIssued(string, string, int)          {}
func (Nop) ResponseReceived(string, int)               {}
func (Nop) TransportFailed(string)                     {}
func (Nop) StaleDetected(string, int)                  {}
func (Nop) ObserveWrite(time.Duration, int)            {}
func (Nop) ObserveRead(time.Duration, int)             {}
func (Nop) ObserveBatchCommit(time.Duration, int, int) {}

// StatusClass buckets an HTTP status into 2xx/3xx/4xx/5xx/other.
func StatusClass(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500 && status < 600:
		return "5xx"
	default:
		return "other"
	}
}
