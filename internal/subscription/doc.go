// Package subscription stores push subscriptions in an ordered key-value
// store and answers "who is subscribed to feature F via provider P" with a
// bounded range scan.
//
// Two key layouts are supported. LayoutProvider keys are
// "{provider}!{feature}!{id}"; LayoutLegacy keys, written before providers
// were recorded, are "{feature}!{id}" and are selected by an empty provider.
// Keys with an empty id are purged whenever a scan encounters them. The two
// layouts share one keyspace, so a legacy scan of a feature named "google"
// overlaps the google provider's keys; those carry an extra segment and are
// skipped.
//
// Example:
//
//	st := subscription.New(db)
//	_ = st.Put(ctx, "google", "news", "token-1")
//	ids, _ := st.Subscribers(ctx, "news", "google")
package subscription
