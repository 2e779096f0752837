// Package server wires the Quest Board backend together: PostgreSQL, the
// record store and its change listener, the services, and the gRPC and
// HTTP front ends. It runs until SIGINT/SIGTERM.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/questboard/internal/logging"
	"github.com/dmitrijs2005/questboard/internal/server/config"
	"github.com/dmitrijs2005/questboard/internal/server/httpapi"
	"github.com/dmitrijs2005/questboard/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/questboard/internal/server/services"
	"github.com/dmitrijs2005/questboard/internal/store"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	gs "github.com/dmitrijs2005/questboard/internal/server/grpc"
)

// openDB is a seam over sql.Open for tests.
var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	records  *store.PostgresStore
	listener *store.Listener
	grpc     *gs.GRPCServer
	http     *httpapi.Server
}

// ParseLevel maps a config level name onto slog; unknown names mean info.
func ParseLevel(name string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// NewApp opens the database, applies migrations and builds every service.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, ParseLevel(c.LogLevel))

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	instance := uuid.NewString()
	records := rm.Records(db, instance, logger)

	profiles := services.NewProfileService(records, logger)
	quests := services.NewQuestService(records, nil, logger)
	conversations := services.NewConversationService(records, profiles, nil, logger)
	watch := services.NewWatchService(records, conversations, logger)
	svc := gs.Services{
		Users:         services.NewUserService(db, rm, profiles, c, nil, logger),
		Profiles:      profiles,
		Media:         services.NewMediaService(c, nil, logger),
		Quests:        quests,
		Notifications: services.NewNotificationService(records, quests, nil, logger),
		Conversations: conversations,
		Watch:         watch,
	}

	return &App{
		config:   c,
		logger:   logger,
		db:       db,
		records:  records,
		listener: store.NewListener(c.DatabaseDSN, records, logger),
		grpc:     gs.NewGRPCServer(c.EndpointAddrGRPC, logger, svc, c.SecretKey),
		http:     httpapi.NewServer(c.EndpointAddrHTTP, profiles, quests, watch, c.SecretKey, logger),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run blocks until a signal arrives or a front end fails.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "instance", app.records.Instance())

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		if err := app.listener.Run(ctx); err != nil {
			app.logger.Error(ctx, "change listener stopped, other instances' writes will not be seen", "error", err)
		}
	}()
	go func() {
		defer wg.Done()
		if err := app.grpc.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()
	go func() {
		defer wg.Done()
		if err := app.http.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
