package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/alari/backend/internal/model"
	"github.com/jmoiron/sqlx"
)

const (
	GoalSortRecent = "recent"
	GoalSortStreak = "streak"
	GoalSortTitle  = "title"
)

var (
	ErrGoalNotFound   = errors.New("goal not found")
	ErrStreakConflict = errors.New("goal was modified concurrently")
	ErrGoalConflict   = errors.New("goal was changed by another request")
)

type GoalRepository interface {
	Create(ctx context.Context, goal *model.Goal) error
	ByID(ctx context.Context, userID, goalID string) (*model.Goal, error)
	ByIDAny(ctx context.Context, goalID string) (*model.Goal, error)
	Goals(ctx context.Context, userID string, status *model.GoalStatus, sortBy string) ([]*model.Goal, error)
	IDs(ctx context.Context) ([]string, error)
	Update(ctx context.Context, goal *model.Goal, expectedUpdatedAt time.Time) error
	UpdateStreak(ctx context.Context, goalID string, count model.StreakCount, expectedUpdatedAt, now time.Time) (*model.Goal, error)
	Delete(ctx context.Context, userID, goalID string) error
}

type goalRepository struct {
	db sqlx.ExtContext
}

func NewGoalRepository(db sqlx.ExtContext) GoalRepository {
	return &goalRepository{db: db}
}

func (r *goalRepository) Create(ctx context.Context, goal *model.Goal) error {
	query := `INSERT INTO goals (id, user_id, title, description, target_date, status, streak_count, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		goal.ID,
		goal.UserID,
		goal.Title,
		goal.Description,
		goal.TargetDate,
		goal.Status,
		goal.StreakCount,
		goal.CreatedAt,
		goal.UpdatedAt,
	)

	return err
}

func (r *goalRepository) ByID(ctx context.Context, userID, goalID string) (*model.Goal, error) {
	goal := &model.Goal{}
	query := `SELECT * FROM goals WHERE id = $1 AND user_id = $2`

	err := sqlx.GetContext(ctx, r.db, goal, query, goalID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGoalNotFound
	}
	if err != nil {
		return nil, err
	}

	return goal, nil
}

// ByIDAny loads a goal without an ownership check.
func (r *goalRepository) ByIDAny(ctx context.Context, goalID string) (*model.Goal, error) {
	goal := &model.Goal{}
	query := `SELECT * FROM goals WHERE id = $1`

	err := sqlx.GetContext(ctx, r.db, goal, query, goalID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGoalNotFound
	}
	if err != nil {
		return nil, err
	}

	return goal, nil
}

func (r *goalRepository) Goals(ctx context.Context, userID string, status *model.GoalStatus, sortBy string) ([]*model.Goal, error) {
	var goals []*model.Goal

	var orderBy string
	switch sortBy {
	case GoalSortStreak:
		orderBy = "ORDER BY streak_count DESC, updated_at DESC"
	case GoalSortTitle:
		orderBy = "ORDER BY LOWER(title) ASC"
	default: // GoalSortRecent or empty
		orderBy = "ORDER BY created_at DESC"
	}

	var err error
	if status != nil {
		query := `SELECT * FROM goals WHERE user_id = $1 AND status = $2 ` + orderBy
		err = sqlx.SelectContext(ctx, r.db, &goals, query, userID, *status)
	} else {
		query := `SELECT * FROM goals WHERE user_id = $1 ` + orderBy
		err = sqlx.SelectContext(ctx, r.db, &goals, query, userID)
	}
	if err != nil {
		return nil, err
	}

	return goals, nil
}

func (r *goalRepository) IDs(ctx context.Context) ([]string, error) {
	var ids []string
	query := `SELECT id FROM goals ORDER BY id`

	err := sqlx.SelectContext(ctx, r.db, &ids, query)
	if err != nil {
		return nil, err
	}

	return ids, nil
}

// Update writes the user-editable fields if the row still carries
// expectedUpdatedAt, and returns ErrGoalConflict otherwise. streak_count is
// owned by the streak engine and only changes through UpdateStreak.
func (r *goalRepository) Update(ctx context.Context, goal *model.Goal, expectedUpdatedAt time.Time) error {
	query := `UPDATE goals
	          SET title = $1, description = $2, target_date = $3, status = $4, updated_at = $5
	          WHERE id = $6 AND user_id = $7 AND updated_at = $8`

	result, err := r.db.ExecContext(ctx, query,
		goal.Title,
		goal.Description,
		goal.TargetDate,
		goal.Status,
		goal.UpdatedAt,
		goal.ID,
		goal.UserID,
		expectedUpdatedAt,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		_, err := r.ByID(ctx, goal.UserID, goal.ID)
		if err != nil {
			return err
		}
		return ErrGoalConflict
	}

	return nil
}

// UpdateStreak is a compare-and-swap on updated_at. It returns
// ErrStreakConflict when the row changed since expectedUpdatedAt was read.
func (r *goalRepository) UpdateStreak(ctx context.Context, goalID string, count model.StreakCount, expectedUpdatedAt, now time.Time) (*model.Goal, error) {
	now = model.Timestamp(now)
	query := `UPDATE goals
	          SET streak_count = $1, updated_at = $2
	          WHERE id = $3 AND updated_at = $4`

	result, err := r.db.ExecContext(ctx, query, count, now, goalID, expectedUpdatedAt)
	if err != nil {
		return nil, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	if rows == 0 {
		_, err := r.ByIDAny(ctx, goalID)
		if err != nil {
			return nil, err
		}
		return nil, ErrStreakConflict
	}

	return r.ByIDAny(ctx, goalID)
}

func (r *goalRepository) Delete(ctx context.Context, userID, goalID string) error {
	query := `DELETE FROM goals WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, goalID, userID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrGoalNotFound
	}

	return nil
}
