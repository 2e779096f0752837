// Package models holds the server-only rows of the accounts database.
// Public records (profiles, quests, notifications, messages) live in the
// record store and are described by internal/models.
package models

import "time"

// Account is a login identity. The public profile is stored separately at
// users/{ID} in the record store.
type Account struct {
	ID           string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}
