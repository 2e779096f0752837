// Package users stores login accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/questboard/internal/server/models"
)

type Repository interface {
	// Create inserts the account and fills in its ID and CreatedAt. An
	// email that is already taken yields common.ErrEmailRegistered.
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
}
