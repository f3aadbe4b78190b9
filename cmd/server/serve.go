package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/securebank/backend/internal/database"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

func serveCommand(a *app) *cobra.Command {
	var autoMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context(), autoMigrate)
		},
	}
	cmd.Flags().BoolVar(&autoMigrate, "migrate", true, "apply pending migrations before serving")

	return cmd
}

func (a *app) serve(ctx context.Context, autoMigrate bool) error {
	db, err := database.Open(a.cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if autoMigrate {
		applied, err := database.Migrate(db, database.Up)
		if err != nil {
			return err
		}
		logrus.WithField("applied", applied).Info("Migrations up to date")
	}

	redisClient := database.InitRedis(ctx, a.cfg.Redis)
	if redisClient != nil {
		defer redisClient.Close()
	}

	server := &http.Server{
		Addr:         ":" + a.cfg.Server.Port,
		Handler:      newRouter(a.cfg, db, redisClient),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: a.cfg.Server.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logrus.WithField("addr", server.Addr).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logrus.Info("Server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logrus.Info("Server stopped")
	return nil
}
