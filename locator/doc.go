// Package locator finds food resource places near a point, fronting
// rate-limited place sources with two cache tiers.
//
// ## Search
//
// A search is identified by a cache key built from the center, rounded to
// the configured precision, and the radius. See CacheKey. A search is served
// from the first of these that has the key:
//
//  1. The in-memory tier, holding results for a short time (10 minutes by
//     default).
//  2. The persistent store, holding results for a long time (24 hours by
//     default). A persistent hit is copied into the in-memory tier.
//  3. A fetch from every configured source.
//
// A fetch merges the results of all sources by place ID, drops places without
// a valid coordinate, computes the distance of each place from the center,
// sorts by distance, keeps the nearest places, and looks up opening hours for
// the places that do not have them. The result is then written to both cache
// tiers.
//
// ## Single Flight
//
// At most one fetch per key is in progress. Searches for a key that is being
// fetched wait for that fetch and receive its result. A fetch is not tied to
// the context of the search that started it: a caller that gives up does not
// stop the fetch, and the result is still cached for later searches.
//
// ## Forced Search
//
// A forced search skips both cache tiers and starts a new fetch, even if one
// is already in progress for the key. The persistent entry is replaced only
// when the new fetch produces a result, so a failed forced search does not
// lose the previously stored result.
//
// ## Failures
//
// Source failures are logged and treated as empty results. When every source
// fails, the empty result is returned but not cached, so the next search
// tries again. An empty result from a source that did not fail is cached like
// any other result. Search returns an error only for invalid arguments and
// when the caller's context is done.
//
// ## Clearing
//
// ClearAll empties both tiers, including cached opening hours. Fetches in
// progress at the time of the clear complete for their callers, but their
// results are not cached. Listeners registered with OnCleared are called
// after each clear.
//
// ## Revalidation
//
// When configured with WithRevalidateAfter, a persistent hit older than the
// configured age is returned and a background fetch refreshes it.
package locator
