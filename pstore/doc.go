// Package pstore is a persistent cache store that keeps timestamped entries
// in a go-datastore, grouped in namespaces that each have a time-to-live.
//
// Every value is stored in an envelope holding the encoded data and the time
// it was written. A read that finds an envelope older than the namespace TTL
// treats it as a miss and deletes it. Envelopes that cannot be decoded are
// also deleted.
//
// The store never reports storage failures to readers or writers. A failed
// read is a miss and a failed write is dropped, so callers that use the store
// as a cache fall back to fetching fresh data. Failures are logged.
//
// Two namespaces are used by the locator: PlacesNamespace for search results
// and HoursNamespace for per-place opening hours. Each can be cleared without
// touching the other.
package pstore
