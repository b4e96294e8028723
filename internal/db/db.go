package db

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Tables lists every table owned by the schema, parents before children.
var Tables = []string{"users", "conversations", "messages", "goals", "goal_check_ins"}

func Init(driver, connection string) (*sqlx.DB, error) {
	// SQLite: create data directory if needed
	if driver == "sqlite" && !strings.HasPrefix(connection, ":memory:") {
		dir := filepath.Dir(strings.SplitN(connection, "?", 2)[0])
		err := os.MkdirAll(dir, 0755)
		if err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sqlx.Connect(driver, connection)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	slog.Info("database connected", "driver", driver)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = db.PingContext(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

func Close(db *sqlx.DB) error {
	if db != nil {
		return db.Close()
	}
	return nil
}

type HealthReport struct {
	Status           string         `json:"status"`
	ConnectionTimeMS float64        `json:"connection_time_ms"`
	RowCounts        map[string]int `json:"row_counts,omitempty"`
	Error            string         `json:"error,omitempty"`
}

// Health pings the database and counts rows of every schema table.
func Health(ctx context.Context, db *sqlx.DB) *HealthReport {
	report := &HealthReport{Status: "healthy"}

	start := time.Now()
	err := db.PingContext(ctx)
	report.ConnectionTimeMS = float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		report.Status = "unhealthy"
		report.Error = err.Error()
		return report
	}

	report.RowCounts = make(map[string]int, len(Tables))
	for _, table := range Tables {
		var count int
		// table names come from the fixed Tables list
		err := db.GetContext(ctx, &count, "SELECT COUNT(*) FROM "+table)
		if err != nil {
			report.Status = "unhealthy"
			report.Error = fmt.Sprintf("count %s: %v", table, err)
			return report
		}
		report.RowCounts[table] = count
	}

	return report
}
