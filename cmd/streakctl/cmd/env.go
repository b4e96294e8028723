package cmd

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/alari/backend/internal/app"
	"github.com/alari/backend/internal/config"
	"github.com/alari/backend/internal/db"
	"github.com/alari/backend/internal/logger"
)

// open loads config, sets up logging and connects to the database without
// running migrations.
func open() (*config.Config, *sqlx.DB, func(), error) {
	cfg := config.Load()

	logger.Init(logger.Options{
		Env:       cfg.AppEnv,
		SentryDSN: cfg.SentryDSN,
	})

	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	closeFn := func() {
		database.Close()
		logger.Flush(2 * time.Second)
	}
	return cfg, database, closeFn, nil
}

// openApp is open plus migrations and the wired services.
func openApp() (*app.App, func(), error) {
	cfg, database, closeFn, err := open()
	if err != nil {
		return nil, nil, err
	}

	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return app.Wire(cfg, database), closeFn, nil
}
