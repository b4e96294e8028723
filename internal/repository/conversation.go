package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/alari/backend/internal/model"
	"github.com/jmoiron/sqlx"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
)

const conversationColumns = `c.id, c.user_id, c.session_id, c.title, c.created_at, c.updated_at,
	(SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id) AS message_count`

type ConversationRepository interface {
	Create(ctx context.Context, conversation *model.Conversation) error
	BySessionID(ctx context.Context, userID, sessionID string) (*model.Conversation, error)
	Conversations(ctx context.Context, userID string, limit int) ([]*model.Conversation, error)
	Touch(ctx context.Context, conversationID string, now time.Time) error
	Delete(ctx context.Context, userID, sessionID string) error
}

type conversationRepository struct {
	db sqlx.ExtContext
}

func NewConversationRepository(db sqlx.ExtContext) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) Create(ctx context.Context, conversation *model.Conversation) error {
	query := `INSERT INTO conversations (id, user_id, session_id, title, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		conversation.ID,
		conversation.UserID,
		conversation.SessionID,
		conversation.Title,
		conversation.CreatedAt,
		conversation.UpdatedAt,
	)

	return err
}

func (r *conversationRepository) BySessionID(ctx context.Context, userID, sessionID string) (*model.Conversation, error) {
	conversation := &model.Conversation{}
	query := `SELECT ` + conversationColumns + ` FROM conversations c WHERE c.session_id = $1 AND c.user_id = $2`

	err := sqlx.GetContext(ctx, r.db, conversation, query, sessionID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}

	return conversation, nil
}

// Conversations returns the most recently updated conversations first.
func (r *conversationRepository) Conversations(ctx context.Context, userID string, limit int) ([]*model.Conversation, error) {
	var conversations []*model.Conversation
	query := `SELECT ` + conversationColumns + ` FROM conversations c
	          WHERE c.user_id = $1 ORDER BY c.updated_at DESC LIMIT $2`

	err := sqlx.SelectContext(ctx, r.db, &conversations, query, userID, limit)
	if err != nil {
		return nil, err
	}

	return conversations, nil
}

func (r *conversationRepository) Touch(ctx context.Context, conversationID string, now time.Time) error {
	query := `UPDATE conversations SET updated_at = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, model.Timestamp(now), conversationID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrConversationNotFound
	}

	return nil
}

func (r *conversationRepository) Delete(ctx context.Context, userID, sessionID string) error {
	query := `DELETE FROM conversations WHERE session_id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, sessionID, userID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrConversationNotFound
	}

	return nil
}
