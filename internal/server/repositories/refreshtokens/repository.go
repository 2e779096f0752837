// Package refreshtokens stores the single-use refresh tokens of the
// login flow.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/questboard/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, token *models.RefreshToken) error

	// Take removes token and returns it. A token that is not there is
	// common.ErrorNotFound.
	Take(ctx context.Context, token string) (*models.RefreshToken, error)

	// DeleteExpired drops userID's tokens that expired before now and
	// reports how many went.
	DeleteExpired(ctx context.Context, userID string, now time.Time) (int64, error)

	// Delete removes one token; a missing token is not an error.
	Delete(ctx context.Context, token string) error
}
