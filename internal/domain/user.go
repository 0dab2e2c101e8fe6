package domain

import "time"

// User is a registered account. PasswordHash is a bcrypt hash; the clear
// password never leaves the auth service.
type User struct {
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}
