// Package repositories implements SQLite persistence for the records vtx keeps locally.
//
// Key Implementations:
//   - [CredentialRepository] : keyed string values backing the durable credential store
//   - [ExportRunRepository] : history of "vtx videos export" runs
//
// Both expect the schema applied by [shared.RunMigrations].
package repositories
