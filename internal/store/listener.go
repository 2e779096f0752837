package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/questboard/internal/logging"
	"github.com/jackc/pgx/v5"
)

// Listener relays changes made by other processes to a local Hub. It holds
// one dedicated connection on LISTEN NotifyChannel and does not reconnect.
type Listener struct {
	dsn      string
	instance string
	hub      *Hub
	logger   logging.Logger
}

func NewListener(dsn string, store *PostgresStore, logger logging.Logger) *Listener {
	return &Listener{
		dsn:      dsn,
		instance: store.Instance(),
		hub:      store.Hub(),
		logger:   logger.With("module", "store.listener"),
	}
}

// Run blocks until ctx ends or the connection fails.
func (l *Listener) Run(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return fmt.Errorf("listener connect: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{NotifyChannel}.Sanitize()); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	l.logger.Info(ctx, "listening for record changes", "channel", NotifyChannel)

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("wait for notification: %w", err)
		}
		l.handle(ctx, n.Payload)
	}
}

func (l *Listener) handle(ctx context.Context, payload string) {
	instance, path, ok := parsePayload(payload)
	if !ok {
		l.logger.Warn(ctx, "malformed change notification", "payload", payload)
		return
	}
	if instance == l.instance {
		return
	}
	l.hub.Publish(path)
}

func parsePayload(payload string) (instance, path string, ok bool) {
	instance, path, ok = strings.Cut(payload, " ")
	if !ok || instance == "" || path == "" {
		return "", "", false
	}
	return instance, path, true
}
