// Package broadcast notifies every subscriber of a feature. A broadcast
// covers the legacy key layout and each known provider, so subscriptions
// recorded under any historical scheme are reached. Runs can be narrowed
// with a CEL filter and triggered on cron schedules.
package broadcast
