// Package app boots the mess backend: config, database, bootstrap data and
// the HTTP server.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/messmate/messmate/internal/bootstrap"
	"github.com/messmate/messmate/internal/config"
	"github.com/messmate/messmate/internal/db"
	"github.com/messmate/messmate/internal/http/api"
)

// shutdownTimeout bounds how long in-flight requests may run after a stop
// signal.
const shutdownTimeout = 10 * time.Second

// Migrate opens the database and runs migrations, then exits.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	return db.Migrate(conn)
}

// RunServer boots the backend and serves until ctx is cancelled.
func RunServer(ctx context.Context, cfg config.AppConfig) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	fullCfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	conn, err := db.Open(fullCfg.Database.DSN)
	if err != nil {
		return err
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}
	if errBootstrap := bootstrap.Run(ctx, conn, fullCfg.Bootstrap); errBootstrap != nil {
		return errBootstrap
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	api.RegisterRoutes(engine, conn, fullCfg.JWT)

	server := &http.Server{
		Addr:    fullCfg.Server.Listen,
		Handler: engine,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("listen", fullCfg.Server.Listen).Info("http server started")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
			return errShutdown
		}
		return nil
	case errServe := <-errCh:
		if errors.Is(errServe, http.ErrServerClosed) {
			return nil
		}
		return errServe
	}
}
