package streak

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/alari/backend/internal/model"
	"github.com/alari/backend/internal/repository"
)

// GoalStore is the part of the goal repository the engine depends on.
// ByIDAny returns repository.ErrGoalNotFound for unknown ids and
// UpdateStreak returns repository.ErrStreakConflict when the compare on
// expectedUpdatedAt fails.
type GoalStore interface {
	ByIDAny(ctx context.Context, goalID string) (*model.Goal, error)
	UpdateStreak(ctx context.Context, goalID string, count model.StreakCount, expectedUpdatedAt, now time.Time) (*model.Goal, error)
}

type CheckInStore interface {
	List(ctx context.Context, goalID string, completedOnly bool) ([]*model.GoalCheckIn, error)
	Insert(ctx context.Context, checkIn *model.GoalCheckIn) error
	ByID(ctx context.Context, goalID, checkInID string) (*model.GoalCheckIn, error)
	Update(ctx context.Context, checkIn *model.GoalCheckIn) error
	Delete(ctx context.Context, goalID, checkInID string) error
}

// Stores are bound to one transaction.
type Stores struct {
	Goals    GoalStore
	CheckIns CheckInStore
}

// Transactor runs fn as a single atomic unit: either every write made
// through the given Stores commits or none does.
type Transactor interface {
	InTx(ctx context.Context, fn func(s Stores) error) error
}

type sqlTransactor struct {
	db *sqlx.DB
}

func NewSQLTransactor(db *sqlx.DB) Transactor {
	return &sqlTransactor{db: db}
}

func (t *sqlTransactor) InTx(ctx context.Context, fn func(s Stores) error) error {
	return repository.WithTx(ctx, t.db, func(tx *sqlx.Tx) error {
		return fn(Stores{
			Goals:    repository.NewGoalRepository(tx),
			CheckIns: repository.NewCheckInRepository(tx),
		})
	})
}
