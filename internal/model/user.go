package model

import "time"

// User represents an application user record as stored in the `users`
// table.  Authenticated mirrors the login state for bookkeeping; the session
// store decides whether a request is actually logged in.
//
// Fields:
//
//	ID            – primary key identifier of the user.
//	Username      – unique login name.
//	Email         – unique email address.
//	PasswordHash  – SHA‑256 hex digest or bcrypt hash of the password.
//	Authenticated – set at login, cleared at logout.
//	CreatedAt     – timestamp of creation.
type User struct {
	ID            uint64    // users.id
	Username      string    // users.username
	Email         string    // users.email
	PasswordHash  string    // users.password
	Authenticated bool      // users.authenticated
	CreatedAt     time.Time // users.created_at
}
