package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/alari/backend/internal/model"
	"github.com/alari/backend/internal/repository"
	"github.com/alari/backend/internal/validation"
)

const (
	DefaultConversationLimit = 50

	DefaultSystemPrompt = "You are Alari, a warm and encouraging companion that helps people reach their goals."
)

type ConversationService struct {
	db           *sqlx.DB
	repo         repository.ConversationRepository
	messages     repository.MessageRepository
	users        repository.UserRepository
	systemPrompt string
}

func NewConversationService(db *sqlx.DB, systemPrompt string) *ConversationService {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	return &ConversationService{
		db:           db,
		repo:         repository.NewConversationRepository(db),
		messages:     repository.NewMessageRepository(db),
		users:        repository.NewUserRepository(db),
		systemPrompt: systemPrompt,
	}
}

func newSessionID() string {
	id := uuid.New()
	return fmt.Sprintf("conv-%x", id[:])
}

// Create opens a conversation seeded with the system message.
func (s *ConversationService) Create(ctx context.Context, userID string, title *string) (*model.Conversation, error) {
	_, err := s.users.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := model.Now()
	conversation := &model.Conversation{
		ID:        uuid.New().String(),
		UserID:    userID,
		SessionID: newSessionID(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = repository.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		err := repository.NewConversationRepository(tx).Create(ctx, conversation)
		if err != nil {
			return fmt.Errorf("failed to create conversation: %w", err)
		}

		return repository.NewMessageRepository(tx).Create(ctx, &model.Message{
			ID:             uuid.New().String(),
			ConversationID: conversation.ID,
			Role:           model.RoleSystem,
			Content:        s.systemPrompt,
			CreatedAt:      now,
		})
	})
	if err != nil {
		return nil, err
	}

	conversation.MessageCount = 1
	return conversation, nil
}

func (s *ConversationService) Conversations(ctx context.Context, userID string, limit int) ([]*model.Conversation, error) {
	if limit <= 0 {
		limit = DefaultConversationLimit
	}
	return s.repo.Conversations(ctx, userID, limit)
}

func (s *ConversationService) BySessionID(ctx context.Context, userID, sessionID string) (*model.Conversation, error) {
	return s.repo.BySessionID(ctx, userID, sessionID)
}

func (s *ConversationService) Messages(ctx context.Context, userID, sessionID string) ([]*model.Message, error) {
	conversation, err := s.repo.BySessionID(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	return s.messages.Messages(ctx, conversation.ID)
}

// AppendMessage stores a message and touches the conversation in one
// transaction.
func (s *ConversationService) AppendMessage(ctx context.Context, userID, sessionID, role, content string, keywords model.Keywords) (*model.Message, error) {
	messageRole, err := model.ParseMessageRole(role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	err = validation.ValidateMessageContent(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	conversation, err := s.repo.BySessionID(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	message := &model.Message{
		ID:             uuid.New().String(),
		ConversationID: conversation.ID,
		Role:           messageRole,
		Content:        content,
		Keywords:       keywords,
		CreatedAt:      model.Now(),
	}

	err = repository.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		err := repository.NewMessageRepository(tx).Create(ctx, message)
		if err != nil {
			return fmt.Errorf("failed to create message: %w", err)
		}

		return repository.NewConversationRepository(tx).Touch(ctx, conversation.ID, time.Now())
	})
	if err != nil {
		return nil, err
	}

	return message, nil
}

func (s *ConversationService) Delete(ctx context.Context, userID, sessionID string) error {
	return s.repo.Delete(ctx, userID, sessionID)
}
