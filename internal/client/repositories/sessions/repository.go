// Package sessions keeps the signed-in user between CLI runs in the local
// SQLite metadata table.
package sessions

import (
	"context"
)

// Saved is what survives a restart. The access token is never stored.
type Saved struct {
	UserID       string
	DisplayName  string
	RefreshToken string
}

type Repository interface {
	// Load returns ok=false when nothing is saved.
	Load(ctx context.Context) (s Saved, ok bool, err error)
	Save(ctx context.Context, s Saved) error
	SaveRefreshToken(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}
