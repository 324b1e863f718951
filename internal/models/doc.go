// Package models defines the entities exchanged with the video-sharing backend and the
// few records vtx persists locally.
//
// The package contains two categories of types:
//
// 1. Wire types: decoded from the backend's JSON responses
//   - [User] : account snapshot, also cached by the credential store
//   - [Video], [Comment] : catalog entries and their comments
//   - [Channel], [Subscription] : channel profiles and the viewer's subscriptions
//   - [Page], [SearchResult] : paginated collections
//   - [Envelope] : the {statusCode, data, message, success} wrapper around every response
//
// 2. Persistent Entities: rows owned by vtx
//   - [ExportRun] : one "vtx videos export" invocation and its outcome
//
// Persistent entities implement [Model]; [Repository] defines the CRUD surface their
// SQLite repositories provide.
package models
