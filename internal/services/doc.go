// Package services maps each backend operation to one typed function.
//
// Every call goes through a [Doer], normally the authenticated [pipeline.Pipeline],
// so credentials and refresh are handled in one place. Responses arrive wrapped in
// [models.Envelope]; functions return the decoded data payload.
//
// # Modules
//
//   - [UserService] : login, registration, logout, refresh, current user, profile and password
//   - [VideoService] : catalog listing, search, upload, editing, comments and admin approval
//   - [SubscriptionService] : the viewer's subscriptions and per-channel status
//   - [HistoryService] : watch history
//   - [APIService] : raw GET/POST passthrough for "vtx api"
//
// # Error Handling
//
// Non-2xx responses become [*APIError] carrying the status and the backend's message:
//   - errors.Is(err, [shared.ErrUnauthorized]) : status 401
//   - errors.Is(err, [shared.ErrVideoNotFound]) : status 404 from a video endpoint
//   - errors.Is(err, [shared.ErrAPIRequest]) : any other status
//
// Transport failures wrap [shared.ErrNetwork]; undecodable bodies wrap [shared.ErrMalformedResponse].
package services
