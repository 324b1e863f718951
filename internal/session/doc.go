// package session holds the application's view of who is signed in.
//
// A [Manager] is created once by the application root and passed to whatever needs
// the current user. It is the only writer of session state: startup reconciliation,
// login completion, logout, the OAuth set-user step, and expiry reported by the
// request pipeline all go through it.
package session
