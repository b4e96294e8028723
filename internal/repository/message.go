package repository

import (
	"context"

	"github.com/alari/backend/internal/model"
	"github.com/jmoiron/sqlx"
)

// MessageRepository has no update path: messages are immutable.
type MessageRepository interface {
	Create(ctx context.Context, message *model.Message) error
	Messages(ctx context.Context, conversationID string) ([]*model.Message, error)
}

type messageRepository struct {
	db sqlx.ExtContext
}

func NewMessageRepository(db sqlx.ExtContext) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, message *model.Message) error {
	query := `INSERT INTO messages (id, conversation_id, role, content, keywords, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		message.ID,
		message.ConversationID,
		message.Role,
		message.Content,
		message.Keywords,
		message.CreatedAt,
	)

	return err
}

func (r *messageRepository) Messages(ctx context.Context, conversationID string) ([]*model.Message, error) {
	var messages []*model.Message
	query := `SELECT * FROM messages WHERE conversation_id = $1 ORDER BY created_at ASC, id ASC`

	err := sqlx.SelectContext(ctx, r.db, &messages, query, conversationID)
	if err != nil {
		return nil, err
	}

	return messages, nil
}
