package model

import (
	"time"
)

type GoalCheckIn struct {
	ID           string    `db:"id" json:"id"`
	GoalID       string    `db:"goal_id" json:"goal_id"`
	CheckInDate  time.Time `db:"check_in_date" json:"check_in_date"`
	ProgressNote *string   `db:"progress_note" json:"progress_note,omitempty"`
	Completed    bool      `db:"completed" json:"completed"`
}
