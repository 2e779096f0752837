// Package repomanager hands out the server's PostgreSQL-backed
// repositories bound to a DB handle or a transaction, and runs the schema
// migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/questboard/internal/dbx"
	"github.com/dmitrijs2005/questboard/internal/logging"
	"github.com/dmitrijs2005/questboard/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/questboard/internal/server/repositories/users"
	"github.com/dmitrijs2005/questboard/internal/store"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	// Records opens the record store over db. instance tags change
	// notifications sent by this process.
	Records(db *sql.DB, instance string, logger logging.Logger) *store.PostgresStore
}
