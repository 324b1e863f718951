// Package pipeline sends authenticated requests to the backend and recovers from an
// expired access token with a single-flight refresh.
//
// # Request phase
//
// Every [Request] is dispatched with the stored credential as a bearer Authorization
// header, a fresh X-Request-ID and the configured User-Agent.
//
// # Refresh state machine
//
// A 401 on a first attempt that is not itself a refresh or logout call moves the
// pipeline from [StateIdle] to [StateRefreshInFlight] and issues exactly one refresh
// call. Other requests that fail with 401 meanwhile join the same flight instead of
// refreshing again. When the refresh settles the pipeline enters [StateDraining]:
// queued requests are released one by one in arrival order, each retried once, and
// the request that triggered the refresh retries last. The pipeline then returns to
// [StateIdle].
//
// The drain is sequential: a waiter is released only after the previous waiter's
// retry has returned or its context was cancelled, so retries reach the backend in
// arrival order. A slow retry therefore delays every request behind it, bounded by
// the client timeout. Callers that need a tighter bound pass a context deadline.
//
// A failed refresh tears the session down: the credential store is cleared, the
// expiry hook runs, the [Navigator] is sent to the login path once, and every queued
// request fails with an error wrapping [shared.ErrRefreshFailed]. A request sent with
// the expired credential whose 401 arrives after the teardown fails with
// [shared.ErrSessionExpired] and does not start another refresh.
//
// A retried request that fails with 401 again is returned to its caller as is.
package pipeline
