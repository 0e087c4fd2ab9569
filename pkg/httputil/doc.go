// Package httputil provides the HTTP plumbing used to call remote services
// such as the AI provider.
//
// # Overview
//
//   - [Client]: JSON requests with default headers, status mapping and retries
//   - [Backoff]: retry policy with a doubling delay
//
// # Status mapping
//
// [Client] converts HTTP failures into structured errors from pkg/errors:
//
//   - 401 and 403: UNAUTHORIZED
//   - 404: NOT_FOUND
//   - 429: RATE_LIMITED, carrying the Retry-After delay
//   - 5xx and transport failures: NETWORK_ERROR, retried
//   - context deadline: TIMEOUT
//
// # Retry
//
// [Backoff.Do] retries errors marked with [Transient] and rate-limit errors
// whose Retry-After hint fits under the delay cap:
//
//	b := httputil.Backoff{Attempts: 5, Delay: 200 * time.Millisecond}
//	err := b.Do(ctx, func() error { return send(ctx) })
//
// [DefaultBackoff] makes 3 attempts starting at 1 second.
package httputil
