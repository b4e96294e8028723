package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/alari/backend/internal/config"
	"github.com/alari/backend/internal/db"
	"github.com/alari/backend/internal/repository"
	"github.com/alari/backend/internal/service"
	"github.com/alari/backend/internal/streak"
)

type App struct {
	Cfg                 *config.Config
	DB                  *sqlx.DB
	Engine              *streak.Engine
	Repairer            *streak.Repairer
	UserService         *service.UserService
	ConversationService *service.ConversationService
	GoalService         *service.GoalService
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	return Wire(cfg, database), nil
}

// Wire builds repositories, the streak engine and services on an already
// migrated database.
func Wire(cfg *config.Config, database *sqlx.DB) *App {
	// Repositories
	userRepository := repository.NewUserRepository(database)
	goalRepository := repository.NewGoalRepository(database)
	checkInRepository := repository.NewCheckInRepository(database)

	// Streak engine
	engine := streak.NewEngine(streak.NewSQLTransactor(database), EngineConfig(cfg))
	repairer := streak.NewRepairer(engine, goalRepository, cfg.StreakRepairConcurrency)

	// Services
	userService := service.NewUserService(userRepository)
	conversationService := service.NewConversationService(database, "")
	goalService := service.NewGoalService(goalRepository, checkInRepository, userRepository, engine)

	return &App{
		Cfg:                 cfg,
		DB:                  database,
		Engine:              engine,
		Repairer:            repairer,
		UserService:         userService,
		ConversationService: conversationService,
		GoalService:         goalService,
	}
}

// EngineConfig maps the streak settings. An unknown time zone falls back
// to UTC with a warning.
func EngineConfig(cfg *config.Config) streak.Config {
	engineCfg := streak.DefaultConfig()

	calendar, err := streak.LoadCalendar(cfg.StreakTimezone)
	if err != nil {
		slog.Warn("invalid streak timezone, using UTC", "timezone", cfg.StreakTimezone, "error", err)
	} else {
		engineCfg.Calendar = calendar
	}

	if cfg.StreakStoreTimeout > 0 {
		engineCfg.StoreTimeout = cfg.StreakStoreTimeout
	}
	if cfg.StreakMaxAttempts > 0 {
		engineCfg.MaxAttempts = cfg.StreakMaxAttempts
	}

	return engineCfg
}

// StartRepair schedules the repair sweep when it is enabled.
func (a *App) StartRepair(ctx context.Context) (context.CancelFunc, error) {
	if !a.Cfg.StreakRepairEnabled {
		return func() {}, nil
	}

	cancel, err := a.Repairer.Start(ctx, a.Cfg.StreakRepairCron)
	if err != nil {
		return nil, fmt.Errorf("failed to start repair sweep: %w", err)
	}
	return cancel, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
