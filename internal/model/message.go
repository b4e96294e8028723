package model

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

var ErrInvalidRole = errors.New("invalid message role")

func ParseMessageRole(s string) (MessageRole, error) {
	switch MessageRole(s) {
	case RoleSystem, RoleUser, RoleAssistant:
		return MessageRole(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

// Message is immutable once stored.
type Message struct {
	ID             string      `db:"id" json:"id"`
	ConversationID string      `db:"conversation_id" json:"conversation_id"`
	Role           MessageRole `db:"role" json:"role"`
	Content        string      `db:"content" json:"content"`
	Keywords       Keywords    `db:"keywords" json:"keywords,omitempty"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
}

// Keywords is an optional JSON document (array or object) attached to a
// message. Empty means NULL.
type Keywords json.RawMessage

var ErrInvalidKeywords = errors.New("keywords must be a JSON array or object")

// NewKeywords validates raw. A missing or null document yields nil.
func NewKeywords(raw []byte) (Keywords, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if !json.Valid(trimmed) || (trimmed[0] != '[' && trimmed[0] != '{') {
		return nil, ErrInvalidKeywords
	}
	return Keywords(append([]byte(nil), trimmed...)), nil
}

func (k Keywords) MarshalJSON() ([]byte, error) {
	if len(k) == 0 {
		return []byte("null"), nil
	}
	return k, nil
}

func (k *Keywords) UnmarshalJSON(data []byte) error {
	parsed, err := NewKeywords(data)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func (k Keywords) Value() (driver.Value, error) {
	if len(k) == 0 {
		return nil, nil
	}
	return string(k), nil
}

func (k *Keywords) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*k = nil
	case string:
		*k = Keywords(v)
	case []byte:
		*k = Keywords(append([]byte(nil), v...))
	default:
		return fmt.Errorf("cannot scan %T into Keywords", src)
	}
	return nil
}
