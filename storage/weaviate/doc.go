// Package weaviate implements storage.Store on a Weaviate cluster using the
// official Go client.
//
// Collections map to classes. Record properties are sent as generic maps
// with absent dates and years omitted, and object identifiers are assigned
// client side so that per-object batch errors can be matched back to the
// records that caused them. Dates read back from the cluster are rewritten
// into the canonical "+00:00" form.
//
// HTTP failures are classified for the loader's retry policy:
//
//   - 404 is storage.ErrCollectionNotFound
//   - 408, 429, 5xx and transport errors are storage.ErrUnavailable
//   - any other 4xx is storage.ErrRejected
package weaviate
