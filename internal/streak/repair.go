package streak

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/adhocore/gronx"
	"golang.org/x/sync/errgroup"

	"github.com/alari/backend/internal/metrics"
)

const DefaultRepairCron = "0 3 * * *"

// GoalLister enumerates the goals a repair sweep visits.
type GoalLister interface {
	IDs(ctx context.Context) ([]string, error)
}

type RepairReport struct {
	Checked   int `json:"checked"`
	Corrected int `json:"corrected"`
	Failed    int `json:"failed"`
}

// Repairer recomputes every goal's streak from its history and fixes rows
// that drifted, e.g. after a backfill or a manual edit in the database.
type Repairer struct {
	engine      *Engine
	goals       GoalLister
	concurrency int
}

func NewRepairer(engine *Engine, goals GoalLister, concurrency int) *Repairer {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Repairer{
		engine:      engine,
		goals:       goals,
		concurrency: concurrency,
	}
}

// Run visits every goal once. A failing goal is counted and logged but does
// not stop the sweep.
func (r *Repairer) Run(ctx context.Context) (*RepairReport, error) {
	ids, err := r.goals.IDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}

	var corrected, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for _, id := range ids {
		g.Go(func() error {
			res, err := r.engine.RecomputeStreak(gctx, id)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				failed.Add(1)
				metrics.RepairRuns.WithLabelValues("failed").Inc()
				slog.Error("streak repair failed", "goal_id", id, "error", err)
				return nil
			}
			if res.Changed {
				corrected.Add(1)
				metrics.RepairRuns.WithLabelValues("corrected").Inc()
			} else {
				metrics.RepairRuns.WithLabelValues("ok").Inc()
			}
			return nil
		})
	}

	err = g.Wait()
	report := &RepairReport{
		Checked:   len(ids),
		Corrected: int(corrected.Load()),
		Failed:    int(failed.Load()),
	}
	if err != nil {
		return report, err
	}

	slog.Info("streak repair finished",
		"checked", report.Checked,
		"corrected", report.Corrected,
		"failed", report.Failed,
	)
	return report, nil
}

// Start runs the sweep on cronExpr until ctx is cancelled or the returned
// cancel func is called.
func (r *Repairer) Start(ctx context.Context, cronExpr string) (context.CancelFunc, error) {
	if cronExpr == "" {
		cronExpr = DefaultRepairCron
	}
	if !gronx.IsValid(cronExpr) {
		return nil, fmt.Errorf("invalid repair cron expression: %q", cronExpr)
	}

	ctx, cancel := context.WithCancel(ctx)
	go r.schedule(ctx, cronExpr)

	slog.Info("streak repair scheduled", "cron", cronExpr)
	return cancel, nil
}

func (r *Repairer) schedule(ctx context.Context, cronExpr string) {
	for {
		next, err := gronx.NextTickAfter(cronExpr, time.Now().UTC(), false)
		if err != nil {
			slog.Error("streak repair next tick failed", "cron", cronExpr, "error", err)
			next = time.Now().Add(time.Minute)
		}

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			slog.Info("streak repair scheduler stopping")
			return
		case <-timer.C:
		}

		_, err = r.Run(ctx)
		if err != nil && ctx.Err() == nil {
			slog.Error("streak repair run failed", "error", err)
		}
	}
}
