package auth

import "time"

// User is an editor account. Admins may additionally register new users
// and switch the storage backend; regular users only edit and save scenes.
type User struct {
	ID           uint64    // immutable, assigned by the repository
	Username     string    // unique, compared case-insensitively
	PasswordHash string    // bcrypt hash, never the plaintext
	CreatedAt    time.Time
	LastLogin    time.Time // updated on each successful login
	IsAdmin      bool
}

// Touch records a successful login.
func (u *User) Touch(at time.Time) {
	u.LastLogin = at
}
