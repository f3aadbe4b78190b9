package database

import (
	"database/sql"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/lib/pq"
	"github.com/securebank/backend/internal/config"
	"github.com/sirupsen/logrus"
)

// DSN builds a lib/pq connection string from cfg.
func DSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode,
	)
}

// Open connects to PostgreSQL, retrying the initial ping with exponential backoff.
func Open(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ping := func() error {
		if err := db.Ping(); err != nil {
			logrus.WithError(err).WithField("host", cfg.Host).Warn("Database not reachable yet")
			return err
		}
		return nil
	}

	if err := backoff.Retry(ping, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), cfg.ConnectRetries)); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"host": cfg.Host,
		"name": cfg.Name,
	}).Info("Database connection established")
	return db, nil
}
