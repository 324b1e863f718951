// Package store persists the session credential and the cached user profile.
//
// A [Store] writes through up to two [Backend] adapters:
//   - a durable keyed store ([DurableBackend] on SQLite, or [MemoryBackend] in tests), authoritative for every key
//   - a cookie backend ([CookieBackend]) that mirrors only the access token into an [http.CookieJar]
//
// A Store built without backends has no persistent context: writes are dropped and reads report absence.
package store
