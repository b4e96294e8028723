package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/alari/backend/internal/model"
	"github.com/alari/backend/internal/repository"
	"github.com/alari/backend/internal/streak"
	"github.com/alari/backend/internal/validation"
)

var (
	ErrGoalNotActive = errors.New("goal is no longer active")
)

const DefaultCheckInLimit = 30

const (
	updateAttempts = 3
	updateBackoff  = 10 * time.Millisecond
)

type GoalService struct {
	repo        repository.GoalRepository
	checkInRepo repository.CheckInRepository
	userRepo    repository.UserRepository
	engine      *streak.Engine
}

func NewGoalService(
	repo repository.GoalRepository,
	checkInRepo repository.CheckInRepository,
	userRepo repository.UserRepository,
	engine *streak.Engine,
) *GoalService {
	return &GoalService{
		repo:        repo,
		checkInRepo: checkInRepo,
		userRepo:    userRepo,
		engine:      engine,
	}
}

func (s *GoalService) Create(ctx context.Context, userID, title string, description *string, targetDate *time.Time) (*model.Goal, error) {
	err := validation.ValidateGoalTitle(title)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	_, err = s.userRepo.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := model.Now()
	goal := &model.Goal{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       title,
		Description: description,
		TargetDate:  targetDate,
		Status:      model.GoalStatusActive,
		StreakCount: 0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.repo.Create(ctx, goal)
	if err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}

	return goal, nil
}

func (s *GoalService) ByID(ctx context.Context, userID, goalID string) (*model.Goal, error) {
	return s.repo.ByID(ctx, userID, goalID)
}

func (s *GoalService) Goals(ctx context.Context, userID string, status *model.GoalStatus, sortBy string) ([]*model.Goal, error) {
	return s.repo.Goals(ctx, userID, status, sortBy)
}

// GoalUpdate carries the fields a user may change. Nil means unchanged.
// The streak is not among them: it is derived from check-ins.
type GoalUpdate struct {
	Title       *string
	Description *string
	TargetDate  *time.Time
	Status      *model.GoalStatus
}

// Update applies update to the goal the caller owns. The write is a
// compare-and-swap on updated_at: when another request changed the goal in
// between, the update is validated again against the fresh row, so a
// terminal status set concurrently is never overwritten.
func (s *GoalService) Update(ctx context.Context, userID, goalID string, update GoalUpdate) (*model.Goal, error) {
	if update.Title != nil {
		err := validation.ValidateGoalTitle(*update.Title)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}

	var goal *model.Goal
	backoff := retry.WithMaxRetries(updateAttempts-1, retry.NewExponential(updateBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		goal, err = s.repo.ByID(ctx, userID, goalID)
		if err != nil {
			return err
		}

		if update.Title != nil {
			goal.Title = *update.Title
		}
		if update.Description != nil {
			goal.Description = update.Description
		}
		if update.TargetDate != nil {
			goal.TargetDate = update.TargetDate
		}
		if update.Status != nil {
			if !goal.Status.CanTransitionTo(*update.Status) {
				return fmt.Errorf("%w: %s -> %s", model.ErrInvalidStatusTransition, goal.Status, *update.Status)
			}
			goal.Status = *update.Status
		}

		expected := goal.UpdatedAt
		goal.Touch(time.Now())
		err = s.repo.Update(ctx, goal, expected)
		if errors.Is(err, repository.ErrGoalConflict) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	return goal, nil
}

func (s *GoalService) Delete(ctx context.Context, userID, goalID string) error {
	return s.repo.Delete(ctx, userID, goalID)
}

func (s *GoalService) RecordCheckIn(ctx context.Context, userID, goalID string, date time.Time, completed bool, note *string) (*streak.Result, error) {
	_, err := s.repo.ByID(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	return s.engine.RecordCheckIn(ctx, streak.CheckInRequest{
		GoalID:      goalID,
		CheckInDate: date,
		Completed:   completed,
		Note:        note,
		Guard:       requireActive,
	})
}

// requireActive runs inside the check-in transaction, so a status change
// that lands after the ownership check is still seen.
func requireActive(goal *model.Goal) error {
	if goal.Status.IsTerminal() {
		return ErrGoalNotActive
	}
	return nil
}

// CheckIns returns the newest check-ins first.
func (s *GoalService) CheckIns(ctx context.Context, userID, goalID string, limit int) ([]*model.GoalCheckIn, error) {
	_, err := s.repo.ByID(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = DefaultCheckInLimit
	}

	return s.checkInRepo.Recent(ctx, goalID, limit)
}

func (s *GoalService) UpdateCheckIn(ctx context.Context, userID, goalID, checkInID string, note *string, completed *bool) (*streak.Result, error) {
	_, err := s.repo.ByID(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	return s.engine.EditCheckIn(ctx, goalID, checkInID, func(c *model.GoalCheckIn) {
		if note != nil {
			c.ProgressNote = note
		}
		if completed != nil {
			c.Completed = *completed
		}
	})
}

func (s *GoalService) DeleteCheckIn(ctx context.Context, userID, goalID, checkInID string) (*streak.Result, error) {
	_, err := s.repo.ByID(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	return s.engine.DeleteCheckIn(ctx, goalID, checkInID)
}

func (s *GoalService) RecomputeStreak(ctx context.Context, userID, goalID string) (*streak.Result, error) {
	_, err := s.repo.ByID(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	return s.engine.RecomputeStreak(ctx, goalID)
}

// Calendar is the calendar streak days are counted in.
func (s *GoalService) Calendar() streak.Calendar {
	return s.engine.Calendar()
}
