// Package streak keeps goals.streak_count consistent with the goal's
// check-in history.
package streak

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/alari/backend/internal/metrics"
	"github.com/alari/backend/internal/model"
	"github.com/alari/backend/internal/repository"
)

type Config struct {
	Calendar     Calendar
	StoreTimeout time.Duration // per attempt
	MaxAttempts  int
	RetryBackoff time.Duration // base of the exponential backoff
}

func DefaultConfig() Config {
	return Config{
		Calendar:     NewCalendar(time.UTC),
		StoreTimeout: 5 * time.Second,
		MaxAttempts:  3,
		RetryBackoff: 20 * time.Millisecond,
	}
}

type CheckInRequest struct {
	GoalID      string
	CheckInDate time.Time // zero means now
	Completed   bool
	Note        *string
	// Guard, when set, sees the goal as read inside the transaction and
	// can refuse the check-in. Its error is returned unchanged.
	Guard func(goal *model.Goal) error
}

type Result struct {
	GoalID      string            `json:"goal_id"`
	StreakCount model.StreakCount `json:"streak_count"`
	// StatusRecommendation is always the goal's current status. Status
	// changes are user decisions made by the goal service.
	StatusRecommendation model.GoalStatus   `json:"status_recommendation"`
	CheckIn              *model.GoalCheckIn `json:"check_in,omitempty"`
	Changed              bool               `json:"changed"`
}

type Engine struct {
	tx    Transactor
	cfg   Config
	locks *keyedMutex
	now   func() time.Time
}

type Option func(*Engine)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func NewEngine(tx Transactor, cfg Config, opts ...Option) *Engine {
	def := DefaultConfig()
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = def.StoreTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = def.RetryBackoff
	}

	e := &Engine{
		tx:    tx,
		cfg:   cfg,
		locks: newKeyedMutex(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Calendar() Calendar {
	return e.cfg.Calendar
}

// RecordCheckIn stores a check-in and recomputes the goal's streak in the
// same transaction.
func (e *Engine) RecordCheckIn(ctx context.Context, req CheckInRequest) (*Result, error) {
	now := e.now()
	at := req.CheckInDate
	if at.IsZero() {
		at = now
	}
	if at.After(now) {
		metrics.CheckInsRejected.WithLabelValues("future_date").Inc()
		return nil, fmt.Errorf("%w: %s", ErrInvalidCheckInDate, at.Format(time.RFC3339))
	}

	var result *Result
	err := e.serialized(ctx, req.GoalID, func(ctx context.Context) error {
		checkIn := &model.GoalCheckIn{
			ID:           uuid.New().String(),
			GoalID:       req.GoalID,
			CheckInDate:  model.Timestamp(at),
			ProgressNote: req.Note,
			Completed:    req.Completed,
		}

		return e.tx.InTx(ctx, func(s Stores) error {
			goal, err := loadGoal(ctx, s, req.GoalID)
			if err != nil {
				return err
			}

			if req.Guard != nil {
				err = req.Guard(goal)
				if err != nil {
					return err
				}
			}

			err = s.CheckIns.Insert(ctx, checkIn)
			if err != nil {
				return fmt.Errorf("insert check-in: %w", err)
			}

			res, err := e.apply(ctx, s, goal, true)
			if err != nil {
				return err
			}
			res.CheckIn = checkIn
			result = res
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.CheckIns.WithLabelValues(strconv.FormatBool(req.Completed)).Inc()
	slog.Debug("check-in recorded",
		"goal_id", req.GoalID,
		"check_in_id", result.CheckIn.ID,
		"day", e.cfg.Calendar.Day(at).String(),
		"completed", req.Completed,
		"streak", result.StreakCount,
	)
	return result, nil
}

// RecomputeStreak rebuilds streak_count from the full check-in history.
// It only writes when the stored value is wrong, so calling it twice in a
// row is a no-op the second time.
func (e *Engine) RecomputeStreak(ctx context.Context, goalID string) (*Result, error) {
	var result *Result
	err := e.serialized(ctx, goalID, func(ctx context.Context) error {
		return e.tx.InTx(ctx, func(s Stores) error {
			goal, err := loadGoal(ctx, s, goalID)
			if err != nil {
				return err
			}

			res, err := e.apply(ctx, s, goal, false)
			if err != nil {
				return err
			}
			result = res
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	outcome := "unchanged"
	if result.Changed {
		outcome = "corrected"
		slog.Info("streak corrected", "goal_id", goalID, "streak", result.StreakCount)
	}
	metrics.Recomputes.WithLabelValues(outcome).Inc()
	return result, nil
}

// EditCheckIn applies edit to an existing check-in and recomputes the
// streak atomically. The check-in date cannot be moved.
func (e *Engine) EditCheckIn(ctx context.Context, goalID, checkInID string, edit func(c *model.GoalCheckIn)) (*Result, error) {
	var result *Result
	err := e.serialized(ctx, goalID, func(ctx context.Context) error {
		return e.tx.InTx(ctx, func(s Stores) error {
			goal, err := loadGoal(ctx, s, goalID)
			if err != nil {
				return err
			}

			checkIn, err := s.CheckIns.ByID(ctx, goalID, checkInID)
			if err != nil {
				return err
			}
			date := checkIn.CheckInDate
			edit(checkIn)
			checkIn.CheckInDate = date

			err = s.CheckIns.Update(ctx, checkIn)
			if err != nil {
				return fmt.Errorf("update check-in: %w", err)
			}

			res, err := e.apply(ctx, s, goal, true)
			if err != nil {
				return err
			}
			res.CheckIn = checkIn
			result = res
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteCheckIn removes a check-in and recomputes the streak atomically.
func (e *Engine) DeleteCheckIn(ctx context.Context, goalID, checkInID string) (*Result, error) {
	var result *Result
	err := e.serialized(ctx, goalID, func(ctx context.Context) error {
		return e.tx.InTx(ctx, func(s Stores) error {
			goal, err := loadGoal(ctx, s, goalID)
			if err != nil {
				return err
			}

			err = s.CheckIns.Delete(ctx, goalID, checkInID)
			if err != nil {
				return err
			}

			res, err := e.apply(ctx, s, goal, true)
			if err != nil {
				return err
			}
			result = res
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// apply recomputes the streak for goal from the check-ins visible in s and
// writes it with a compare-and-swap on the updated_at read earlier.
// Writes that changed history always touch the goal so that concurrent
// writers working from the same snapshot conflict.
func (e *Engine) apply(ctx context.Context, s Stores, goal *model.Goal, historyChanged bool) (*Result, error) {
	checkIns, err := s.CheckIns.List(ctx, goal.ID, false)
	if err != nil {
		return nil, fmt.Errorf("list check-ins: %w", err)
	}

	count := Calculate(checkIns, e.cfg.Calendar)
	res := &Result{
		GoalID:               goal.ID,
		StreakCount:          count,
		StatusRecommendation: goal.Status,
		Changed:              count != goal.StreakCount,
	}

	if !historyChanged && !res.Changed {
		return res, nil
	}

	// updated_at is the CAS token, so it must move forward even when the
	// clock has not.
	touched := model.Timestamp(e.now())
	if !touched.After(goal.UpdatedAt) {
		touched = model.Timestamp(goal.UpdatedAt.Add(time.Microsecond))
	}

	updated, err := s.Goals.UpdateStreak(ctx, goal.ID, count, goal.UpdatedAt, touched)
	if err != nil {
		return nil, err
	}
	res.StatusRecommendation = updated.Status
	return res, nil
}

func loadGoal(ctx context.Context, s Stores, goalID string) (*model.Goal, error) {
	goal, err := s.Goals.ByIDAny(ctx, goalID)
	if errors.Is(err, repository.ErrGoalNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGoal, goalID)
	}
	if err != nil {
		return nil, fmt.Errorf("load goal: %w", err)
	}
	return goal, nil
}

// serialized holds the goal's lock and runs fn with bounded retries.
// Conflicts and transient storage errors are retried with exponential
// backoff; everything else fails immediately.
func (e *Engine) serialized(ctx context.Context, goalID string, fn func(ctx context.Context) error) error {
	unlock, err := e.locks.Lock(ctx, goalID)
	if err != nil {
		return fmt.Errorf("%w: waiting for goal %s: %w", ErrConcurrentModification, goalID, err)
	}
	defer unlock()

	backoff := retry.WithMaxRetries(uint64(e.cfg.MaxAttempts-1), retry.NewExponential(e.cfg.RetryBackoff))

	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		actx, cancel := context.WithTimeout(ctx, e.cfg.StoreTimeout)
		defer cancel()

		err := fn(actx)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, repository.ErrStreakConflict):
			metrics.Conflicts.Inc()
			slog.Warn("streak update conflict", "goal_id", goalID, "attempt", attempt)
			return retry.RetryableError(fmt.Errorf("%w: goal %s", ErrConcurrentModification, goalID))
		case isTransientStorageError(err):
			metrics.StorageRetries.Inc()
			slog.Warn("transient storage error", "goal_id", goalID, "attempt", attempt, "error", err)
			return retry.RetryableError(fmt.Errorf("%w: %w", ErrStorageUnavailable, err))
		default:
			return err
		}
	})
	if err == nil {
		return nil
	}

	if IsTransient(err) || errors.Is(err, ErrUnknownGoal) || errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return err
}
