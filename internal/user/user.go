// Package user defines the user model used throughout the application,
// particularly for authentication and note ownership.
package user

import "time"

// User represents a registered account.
// Username and email are globally unique; the password is stored only as
// a bcrypt hash and never in plaintext.
type User struct {
	// ID is the unique identifier of the user, meaning a UUID.
	ID string

	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
