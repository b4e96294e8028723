package model

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"
)

type GoalStatus string

const (
	GoalStatusActive    GoalStatus = "active"
	GoalStatusCompleted GoalStatus = "completed"
	GoalStatusAbandoned GoalStatus = "abandoned"
)

var (
	ErrInvalidStatus           = errors.New("invalid goal status")
	ErrNegativeStreak          = errors.New("streak count must not be negative")
	ErrInvalidStatusTransition = errors.New("invalid goal status transition")
)

func ParseGoalStatus(s string) (GoalStatus, error) {
	switch GoalStatus(s) {
	case GoalStatusActive, GoalStatusCompleted, GoalStatusAbandoned:
		return GoalStatus(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// IsTerminal reports whether no further transition is allowed out of s.
func (s GoalStatus) IsTerminal() bool {
	return s == GoalStatusCompleted || s == GoalStatusAbandoned
}

// CanTransitionTo allows active -> completed and active -> abandoned.
// Staying in the same status is always allowed.
func (s GoalStatus) CanTransitionTo(next GoalStatus) bool {
	if s == next {
		return true
	}
	return s == GoalStatusActive && (next == GoalStatusCompleted || next == GoalStatusAbandoned)
}

// StreakCount is the number of consecutive completed calendar days of a goal.
type StreakCount int

func NewStreakCount(n int) (StreakCount, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: %d", ErrNegativeStreak, n)
	}
	return StreakCount(n), nil
}

func (c StreakCount) Int() int {
	return int(c)
}

func (c *StreakCount) Scan(src any) error {
	var n int64
	switch v := src.(type) {
	case int64:
		n = v
	case int32:
		n = int64(v)
	case nil:
		n = 0
	default:
		return fmt.Errorf("cannot scan %T into StreakCount", src)
	}
	sc, err := NewStreakCount(int(n))
	if err != nil {
		return err
	}
	*c = sc
	return nil
}

func (c StreakCount) Value() (driver.Value, error) {
	if c < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeStreak, c)
	}
	return int64(c), nil
}

type Goal struct {
	ID          string      `db:"id" json:"id"`
	UserID      string      `db:"user_id" json:"user_id"`
	Title       string      `db:"title" json:"title"`
	Description *string     `db:"description" json:"description,omitempty"`
	TargetDate  *time.Time  `db:"target_date" json:"target_date,omitempty"`
	Status      GoalStatus  `db:"status" json:"status"`
	StreakCount StreakCount `db:"streak_count" json:"streak_count"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// Touch bumps UpdatedAt. Write paths call it right before persisting.
// UpdatedAt is the compare-and-swap token for goal writes, so it always
// moves forward even when the clock has not.
func (g *Goal) Touch(now time.Time) {
	next := Timestamp(now)
	if !next.After(g.UpdatedAt) {
		next = Timestamp(g.UpdatedAt.Add(time.Microsecond))
	}
	g.UpdatedAt = next
}

// Timestamp normalizes t to UTC at microsecond precision so that values
// round-trip identically through SQLite and PostgreSQL.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func Now() time.Time {
	return Timestamp(time.Now())
}
