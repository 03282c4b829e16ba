// Package provider holds the static knowledge about push providers: which
// names are supported, how many subscriber ids fit in one request, and how
// each request is addressed, authenticated and encoded.
//
//	cat := provider.NewCatalog(provider.Options{GoogleAPIKey: key})
//	spec, err := cat.Lookup("google")
//	for _, batch := range spec.Batches(ids) {
//		req, _ := spec.NewRequest(batch)
//		...
//	}
package provider
