package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/questboard/internal/dbx"
)

const (
	keyUserID       = "session.user_id"
	keyDisplayName  = "session.display_name"
	keyRefreshToken = "session.refresh_token"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func get(ctx context.Context, q dbx.DBTX, key string) (string, bool, error) {
	var value []byte
	err := q.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get metadata[%s]: %w", key, err)
	}
	return string(value), true, nil
}

func set(ctx context.Context, q dbx.DBTX, key, value string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, []byte(value))
	if err != nil {
		return fmt.Errorf("failed to set metadata[%s]: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) Load(ctx context.Context) (Saved, bool, error) {
	var s Saved
	var ok bool
	for _, f := range []struct {
		key string
		dst *string
	}{
		{keyUserID, &s.UserID},
		{keyDisplayName, &s.DisplayName},
		{keyRefreshToken, &s.RefreshToken},
	} {
		v, found, err := get(ctx, r.db, f.key)
		if err != nil {
			return Saved{}, false, err
		}
		if f.key == keyRefreshToken {
			ok = found && v != ""
		}
		*f.dst = v
	}
	if !ok || s.UserID == "" {
		return Saved{}, false, nil
	}
	return s, true, nil
}

func (r *SQLiteRepository) Save(ctx context.Context, s Saved) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := set(ctx, tx, keyUserID, s.UserID); err != nil {
			return err
		}
		if err := set(ctx, tx, keyDisplayName, s.DisplayName); err != nil {
			return err
		}
		return set(ctx, tx, keyRefreshToken, s.RefreshToken)
	})
}

func (r *SQLiteRepository) SaveRefreshToken(ctx context.Context, token string) error {
	return set(ctx, r.db, keyRefreshToken, token)
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM metadata WHERE key IN (?, ?, ?)`, keyUserID, keyDisplayName, keyRefreshToken)
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
