// Command ndvistore serves NDVI raster map records over REST and GraphQL,
// backed by MongoDB.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fieldsense/ndvistore/internal/config"
	"github.com/fieldsense/ndvistore/internal/db"
	"github.com/fieldsense/ndvistore/internal/graphql"
	"github.com/fieldsense/ndvistore/internal/logging"
	"github.com/fieldsense/ndvistore/internal/store"
	"github.com/fieldsense/ndvistore/internal/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "ndvistore:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, closeLog, err := logging.Setup(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := database.Close(closeCtx); err != nil {
			logger.Error("close database failed", "error", err)
		}
	}()
	logger.Info("connected to mongodb", "database", cfg.MongoDatabase)

	st := store.NewMongoStore(database.Database)

	schema, err := graphql.NewSchema(st, cfg.OwnerMode(), logger)
	if err != nil {
		return fmt.Errorf("build graphql schema: %w", err)
	}

	srv := web.NewServer(web.Options{
		Store:          st,
		Pinger:         database,
		Mode:           cfg.OwnerMode(),
		MaxUploadBytes: cfg.MaxUploadBytes,
		AllowedOrigins: cfg.AllowedOrigins,
		GraphQL:        graphql.NewHandler(schema),
		Logger:         logger,
	})

	logger.Info("starting server", "addr", cfg.ListenAddr, "owner_scope_mode", cfg.OwnerScopeMode)
	if err := srv.ListenAndServe(ctx, cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("server stopped")
	return nil
}
