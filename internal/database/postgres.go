package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/saeid-a/CounselPracticeBack/internal/logger"
	"github.com/sirupsen/logrus"
)

const connectTimeout = 10 * time.Second

// DB is the shared pool used by the HTTP layer and the background jobs.
var DB *pgxpool.Pool

// PoolConfig parses dbUrl and pins the session timezone to UTC. Local practice time
// is applied in Go, never by the database.
func PoolConfig(dbUrl string) (*pgxpool.Config, error) {
	config, err := pgxpool.ParseConfig(dbUrl)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	config.ConnConfig.RuntimeParams["timezone"] = "UTC"
	return config, nil
}

func ConnectDB(dbUrl string) error {
	config, err := PoolConfig(dbUrl)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	DB, err = pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := DB.Ping(ctx); err != nil {
		return fmt.Errorf("unable to ping database: %w", err)
	}

	logger.Logger.WithFields(logrus.Fields{
		"max_conns": config.MaxConns,
		"min_conns": config.MinConns,
	}).Info("Connected to PostgreSQL successfully")
	return nil
}

func CloseDB() {
	if DB != nil {
		DB.Close()
	}
}
