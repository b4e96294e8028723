package model

import (
	"time"
)

type Conversation struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	SessionID string    `db:"session_id" json:"session_id"`
	Title     *string   `db:"title" json:"title,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	// Computed by the list and lookup queries (not a column)
	MessageCount int `db:"message_count" json:"message_count"`
}

func (c *Conversation) Touch(now time.Time) {
	c.UpdatedAt = Timestamp(now)
}
