// Package specstory is a Go client for the SpecStory Cloud API
// (https://cloud.specstory.com): projects, sessions and GraphQL search.
//
// # Usage
//
//	client, err := specstory.New("") // reads SPECSTORY_API_KEY
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	projects, err := client.Projects.List(ctx)
//
// One Client is safe for concurrent use from many goroutines; there is no
// separate asynchronous variant. Every call takes a context for
// cancellation and deadlines.
//
// # Retries
//
// Requests that fail with 408, 429 or a 5xx are retried with exponential
// backoff and jitter (3 attempts beyond the first by default, see
// WithMaxRetries). Transport-level failures are only retried for idempotent
// methods. Session writes carry an Idempotency-Key, generated when the
// caller does not provide one, so their retries never duplicate data.
//
// # Caching
//
// GET responses are cached in memory per client, keyed by method, path and
// parameters, with a bounded entry count and a freshness TTL (WithCache,
// WithoutCache). Mutations invalidate the cached reads they stale. The
// cache dies with the client; nothing is persisted.
//
// # Errors
//
// API failures are returned as *Error carrying the HTTP status, an error
// code and the server's request ID. Helpers like IsNotFound and
// IsRateLimited match common cases; conditional reads answer
// ErrNotModified when the caller's copy is current.
package specstory
