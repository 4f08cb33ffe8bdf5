// Package model contains domain models passed between layers.
package model

// RedactedPassword replaces the password in listings when redaction is enabled.
const RedactedPassword = "********"

// User is a row of the users table.
// Password is stored and returned verbatim; see Redacted.
type User struct {
	ID       string `json:"id"       db:"id"`
	Username string `json:"username" db:"username"`
	Password string `json:"password" db:"password"`
	Warnings int    `json:"warnings" db:"warnings"`
}

// Redacted returns a copy of u with the password masked.
func (u User) Redacted() User {
	if u.Password != "" {
		u.Password = RedactedPassword
	}
	return u
}
