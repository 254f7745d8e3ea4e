package types

import "time"

// User is an account known to the system. The id doubles as the username
// and as the value stored in user-typed note fields.
type User struct {
	ID           string `json:"id"`
	PasswordHash string `json:"-"`
}

// Session is an authenticated login session identified by an opaque token.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
