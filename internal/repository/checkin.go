package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/alari/backend/internal/model"
	"github.com/jmoiron/sqlx"
)

var (
	ErrCheckInNotFound = errors.New("check-in not found")
)

type CheckInRepository interface {
	Insert(ctx context.Context, checkIn *model.GoalCheckIn) error
	List(ctx context.Context, goalID string, completedOnly bool) ([]*model.GoalCheckIn, error)
	Recent(ctx context.Context, goalID string, limit int) ([]*model.GoalCheckIn, error)
	ByID(ctx context.Context, goalID, checkInID string) (*model.GoalCheckIn, error)
	Update(ctx context.Context, checkIn *model.GoalCheckIn) error
	Delete(ctx context.Context, goalID, checkInID string) error
}

type checkInRepository struct {
	db sqlx.ExtContext
}

func NewCheckInRepository(db sqlx.ExtContext) CheckInRepository {
	return &checkInRepository{db: db}
}

func (r *checkInRepository) Insert(ctx context.Context, checkIn *model.GoalCheckIn) error {
	query := `INSERT INTO goal_check_ins (id, goal_id, check_in_date, progress_note, completed)
	          VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(ctx, query,
		checkIn.ID,
		checkIn.GoalID,
		checkIn.CheckInDate,
		checkIn.ProgressNote,
		checkIn.Completed,
	)

	return err
}

// List returns check-ins in chronological order.
func (r *checkInRepository) List(ctx context.Context, goalID string, completedOnly bool) ([]*model.GoalCheckIn, error) {
	var checkIns []*model.GoalCheckIn

	query := `SELECT * FROM goal_check_ins WHERE goal_id = $1 ORDER BY check_in_date ASC, id ASC`
	args := []any{goalID}
	if completedOnly {
		query = `SELECT * FROM goal_check_ins WHERE goal_id = $1 AND completed = $2 ORDER BY check_in_date ASC, id ASC`
		args = append(args, true)
	}

	err := sqlx.SelectContext(ctx, r.db, &checkIns, query, args...)
	if err != nil {
		return nil, err
	}

	return checkIns, nil
}

// Recent returns the newest check-ins first.
func (r *checkInRepository) Recent(ctx context.Context, goalID string, limit int) ([]*model.GoalCheckIn, error) {
	var checkIns []*model.GoalCheckIn
	query := `SELECT * FROM goal_check_ins WHERE goal_id = $1 ORDER BY check_in_date DESC, id DESC LIMIT $2`

	err := sqlx.SelectContext(ctx, r.db, &checkIns, query, goalID, limit)
	if err != nil {
		return nil, err
	}

	return checkIns, nil
}

func (r *checkInRepository) ByID(ctx context.Context, goalID, checkInID string) (*model.GoalCheckIn, error) {
	checkIn := &model.GoalCheckIn{}
	query := `SELECT * FROM goal_check_ins WHERE id = $1 AND goal_id = $2`

	err := sqlx.GetContext(ctx, r.db, checkIn, query, checkInID, goalID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCheckInNotFound
	}
	if err != nil {
		return nil, err
	}

	return checkIn, nil
}

func (r *checkInRepository) Update(ctx context.Context, checkIn *model.GoalCheckIn) error {
	query := `UPDATE goal_check_ins
	          SET progress_note = $1, completed = $2
	          WHERE id = $3 AND goal_id = $4`

	result, err := r.db.ExecContext(ctx, query, checkIn.ProgressNote, checkIn.Completed, checkIn.ID, checkIn.GoalID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrCheckInNotFound
	}

	return nil
}

func (r *checkInRepository) Delete(ctx context.Context, goalID, checkInID string) error {
	query := `DELETE FROM goal_check_ins WHERE id = $1 AND goal_id = $2`

	result, err := r.db.ExecContext(ctx, query, checkInID, goalID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrCheckInNotFound
	}

	return nil
}
