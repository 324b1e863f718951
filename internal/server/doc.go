// Package server provides the local HTTP servers the CLI runs: the OAuth callback
// receiver and the /api/v1 reverse proxy.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses method-qualified [http.ServeMux] patterns.
//
// # OAuth Callback Handler
//
// [OAuthHandler] receives the redirect at the end of the backend's Google sign-in flow.
// The backend appends accessToken and refreshToken (or error) to the redirect URL; the
// handler reads the profile claims from the access token and delivers one [OAuthResult]
// through a channel. Later hits are rejected.
//
// # Reverse Proxy
//
// [ProxyHandler] forwards /api/v1/ to the configured backend origin. [LoggingMiddleware]
// and [RateLimitMiddleware] are meant to wrap it.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
