package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/dmitrijs2005/questboard/internal/common"
	"github.com/dmitrijs2005/questboard/internal/dbx"
	"github.com/dmitrijs2005/questboard/internal/logging"
	"github.com/google/uuid"
)

// NotifyChannel is the PostgreSQL channel changes are announced on. The
// payload is "<instance> <path>".
const NotifyChannel = "records"

// PostgresStore keeps one row per leaf in the records table. Every write
// runs in a transaction that also announces the changed path on
// NotifyChannel, so stores in other processes can wake their subscribers.
type PostgresStore struct {
	db       *sql.DB
	hub      *Hub
	instance string
	logger   logging.Logger
}

// NewPostgresStore returns a store over db. instance tags the
// notifications this process sends so its Listener can skip them.
func NewPostgresStore(db *sql.DB, instance string, logger logging.Logger) *PostgresStore {
	return &PostgresStore{
		db:       db,
		hub:      NewHub(logger),
		instance: instance,
		logger:   logger.With("module", "store.postgres"),
	}
}

// Hub exposes the local fan-out so a Listener can feed it.
func (p *PostgresStore) Hub() *Hub {
	return p.hub
}

// Instance is the tag this store puts on its notifications.
func (p *PostgresStore) Instance() string {
	return p.instance
}

func (p *PostgresStore) Subscribe(ctx context.Context, path string, onData func(Snapshot), onError func(error)) (Subscription, error) {
	segs, err := SplitPath(path)
	if err != nil {
		return nil, err
	}
	read := func(ctx context.Context) (Snapshot, error) {
		return p.ReadOnce(ctx, path)
	}
	return p.hub.Subscribe(ctx, segs, read, onData, onError), nil
}

func (p *PostgresStore) ReadOnce(ctx context.Context, path string) (Snapshot, error) {
	segs, err := SplitPath(path)
	if err != nil {
		return Snapshot{}, err
	}
	path = JoinPath(segs...)

	var rows *sql.Rows
	if path == "" {
		rows, err = p.db.QueryContext(ctx, `SELECT path, value FROM records ORDER BY path`)
	} else {
		rows, err = p.db.QueryContext(ctx, `
			SELECT path, value
			FROM records
			WHERE path = $1 OR starts_with(path, $1 || '/')
			ORDER BY path
		`, path)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	leaves := map[string]any{}
	for rows.Next() {
		var (
			leafPath string
			raw      []byte
		)
		if err := rows.Scan(&leafPath, &raw); err != nil {
			return Snapshot{}, fmt.Errorf("db error: %w", err)
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return Snapshot{}, fmt.Errorf("%w: record %s: %v", common.ErrorInternal, leafPath, err)
		}
		leaves[leafPath] = v
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("db error: %w", err)
	}

	return Snapshot{Key: lastSegment(segs), Value: assemble(segs, leaves)}, nil
}

func (p *PostgresStore) Write(ctx context.Context, path string, value any) error {
	return p.apply(ctx, map[string]any{path: value})
}

func (p *PostgresStore) Update(ctx context.Context, path string, partial map[string]any) error {
	base, err := SplitPath(path)
	if err != nil {
		return err
	}
	changes := make(map[string]any, len(partial))
	for k, v := range partial {
		segs, err := SplitPath(JoinPath(path, k))
		if err != nil {
			return err
		}
		if len(segs) == len(base) {
			return fmt.Errorf("%w: update key must not be empty", common.ErrValidation)
		}
		changes[JoinPath(segs...)] = v
	}
	return p.apply(ctx, changes)
}

func (p *PostgresStore) Append(ctx context.Context, prefix string, value any) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	if err := p.Write(ctx, JoinPath(prefix, id.String()), value); err != nil {
		return "", err
	}
	return id.String(), nil
}

func (p *PostgresStore) Delete(ctx context.Context, path string) error {
	return p.Write(ctx, path, nil)
}

// apply replaces the subtree of every path in changes inside one
// transaction and publishes the paths locally after commit.
func (p *PostgresStore) apply(ctx context.Context, changes map[string]any) error {
	paths := make([]string, 0, len(changes))
	values := make(map[string]any, len(changes))
	for raw, v := range changes {
		segs, err := SplitPath(raw)
		if err != nil {
			return err
		}
		if len(segs) == 0 {
			return fmt.Errorf("%w: cannot write the root", common.ErrValidation)
		}
		nv, err := normalize(v)
		if err != nil {
			return err
		}
		path := JoinPath(segs...)
		paths = append(paths, path)
		values[path] = nv
	}
	sort.Strings(paths)

	err := dbx.WithTx(ctx, p.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, path := range paths {
			if err := p.replace(ctx, tx, path, values[path]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	p.logger.Debug(ctx, "records written", "paths", paths)
	for _, path := range paths {
		p.hub.Publish(path)
	}
	return nil
}

func (p *PostgresStore) replace(ctx context.Context, tx dbx.DBTX, path string, value any) error {
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM records
		WHERE path = $1 OR starts_with(path, $1 || '/') OR starts_with($1, path || '/')
	`, path); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	leaves := map[string]any{}
	flatten(path, value, leaves)
	keys := make([]string, 0, len(leaves))
	for k := range leaves {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		b, err := json.Marshal(leaves[k])
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO records (path, value)
			VALUES ($1, $2)
		`, k, string(b)); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `SELECT pg_notify($1, $2)`, NotifyChannel, p.instance+" "+path); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
