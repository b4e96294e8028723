package service

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/alari/backend/internal/model"
	"github.com/alari/backend/internal/repository"
	"github.com/alari/backend/internal/streak"
	"github.com/alari/backend/internal/testutil"
)

var testNow = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

type services struct {
	db            *sqlx.DB
	users         *UserService
	conversations *ConversationService
	goals         *GoalService
}

func newServices(t *testing.T) *services {
	t.Helper()
	database := testutil.NewDB(t)

	cfg := streak.DefaultConfig()
	cfg.RetryBackoff = time.Millisecond
	engine := streak.NewEngine(streak.NewSQLTransactor(database), cfg, streak.WithClock(func() time.Time {
		return testNow
	}))

	userRepo := repository.NewUserRepository(database)
	return &services{
		db:            database,
		users:         NewUserService(userRepo),
		conversations: NewConversationService(database, ""),
		goals: NewGoalService(
			repository.NewGoalRepository(database),
			repository.NewCheckInRepository(database),
			userRepo,
			engine,
		),
	}
}

func (s *services) user(t *testing.T, email string) *model.User {
	t.Helper()
	user, err := s.users.Create(context.Background(), email, "correct horse", nil)
	require.NoError(t, err)
	return user
}

func (s *services) goal(t *testing.T, userID string) *model.Goal {
	t.Helper()
	goal, err := s.goals.Create(context.Background(), userID, "Walk 10k steps", nil, nil)
	require.NoError(t, err)
	return goal
}
