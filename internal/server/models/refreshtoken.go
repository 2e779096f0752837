package models

import "time"

// RefreshToken is a server-stored, single-use token that mints a new
// access token. It is rotated on every use.
type RefreshToken struct {
	UserID  string
	Token   string
	Expires time.Time
}
