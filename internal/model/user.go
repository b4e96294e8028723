package model

import (
	"time"
)

type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"hashed_password" json:"-"`
	UserName     *string   `db:"user_name" json:"user_name,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
