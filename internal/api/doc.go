// Package api implements the HTTP engine behind a BigCommerce connection:
// request building, response capture, manual redirect following and
// rate-limit replay.
//
// # Requests
//
// A [Request] is a snapshot of one logical call. The connection builds it
// from its current settings when the call starts and [Client.Do] never
// modifies it, so a replayed request carries exactly the same headers,
// credentials and payload as the first attempt.
//
// PUT payloads are spooled to a temporary file for the duration of the
// exchange. The file is removed when the exchange finishes, whether it
// succeeded or not.
//
// # Rate Limiting
//
// A response carrying an X-Retry-After header is never returned to the
// caller directly. The client waits for the advertised number of seconds
// plus one and sends the same request again. Replays are bounded by
// [RateLimitPolicy]: by default at most 5 replays and at most 5 minutes per
// wait. When the budget is spent, [Client.Do] returns a [*RateLimitError].
//
// # Redirects
//
// Automatic redirect handling of net/http is disabled. When following is
// enabled, 301 and 302 responses are followed with a GET to the resolved
// Location. A chain that reaches [RedirectPolicy.MaxRedirects] fails with a
// [*NetworkError] wrapping [ErrTooManyRedirects]. Rate-limit replays do not
// count against the redirect limit.
//
// # Observability
//
// Every call is tagged with a request ID in the log output. Exchanges,
// replays and redirects are counted through [Metrics] when one is supplied.
package api
