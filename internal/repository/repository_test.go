package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alari/backend/internal/model"
	"github.com/alari/backend/internal/testutil"
)

func createUser(t *testing.T, db *sqlx.DB, email string) *model.User {
	t.Helper()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: "hash",
		CreatedAt:    model.Now(),
	}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), user))
	return user
}

func createGoal(t *testing.T, db *sqlx.DB, userID, title string) *model.Goal {
	t.Helper()
	now := model.Now()
	goal := &model.Goal{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		Status:    model.GoalStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, NewGoalRepository(db).Create(context.Background(), goal))
	return goal
}

func TestUserRepository(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := createUser(t, db, "ada@example.com")

	got, err := repo.ByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)

	got, err = repo.ByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	dup := &model.User{ID: uuid.New().String(), Email: "ada@example.com", PasswordHash: "x", CreatedAt: model.Now()}
	assert.ErrorIs(t, repo.Create(ctx, dup), ErrDuplicateEmail)

	_, err = repo.ByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGoalRepositoryCRUD(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewGoalRepository(db)
	ctx := context.Background()

	owner := createUser(t, db, "owner@example.com")
	other := createUser(t, db, "other@example.com")
	goal := createGoal(t, db, owner.ID, "Read")

	got, err := repo.ByID(ctx, owner.ID, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, "Read", got.Title)
	assert.Equal(t, model.GoalStatusActive, got.Status)
	assert.True(t, got.UpdatedAt.Equal(goal.UpdatedAt))

	_, err = repo.ByID(ctx, other.ID, goal.ID)
	assert.ErrorIs(t, err, ErrGoalNotFound)

	desc := "20 pages"
	got.Description = &desc
	got.Status = model.GoalStatusCompleted
	got.StreakCount = 99
	expected := got.UpdatedAt
	got.Touch(time.Now())
	require.NoError(t, repo.Update(ctx, got, expected))

	reloaded, err := repo.ByIDAny(ctx, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, &desc, reloaded.Description)
	assert.Equal(t, model.GoalStatusCompleted, reloaded.Status)
	// streak_count is not writable through Update
	assert.Equal(t, model.StreakCount(0), reloaded.StreakCount)

	assert.ErrorIs(t, repo.Delete(ctx, other.ID, goal.ID), ErrGoalNotFound)
	require.NoError(t, repo.Delete(ctx, owner.ID, goal.ID))
	_, err = repo.ByIDAny(ctx, goal.ID)
	assert.ErrorIs(t, err, ErrGoalNotFound)
}

func TestGoalRepositoryGoals(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewGoalRepository(db)
	ctx := context.Background()

	user := createUser(t, db, "a@example.com")
	a := createGoal(t, db, user.ID, "b-goal")
	b := createGoal(t, db, user.ID, "A-goal")

	b, err := repo.ByID(ctx, user.ID, b.ID)
	require.NoError(t, err)
	expected := b.UpdatedAt
	b.Status = model.GoalStatusAbandoned
	b.Touch(time.Now())
	require.NoError(t, repo.Update(ctx, b, expected))

	all, err := repo.Goals(ctx, user.ID, nil, GoalSortTitle)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, b.ID, all[0].ID)

	active := model.GoalStatusActive
	filtered, err := repo.Goals(ctx, user.ID, &active, GoalSortRecent)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, a.ID, filtered[0].ID)

	ids, err := repo.IDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a.ID, b.ID}, ids)
}

func TestGoalRepositoryUpdateConflict(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewGoalRepository(db)
	ctx := context.Background()

	user := createUser(t, db, "a@example.com")
	goal := createGoal(t, db, user.ID, "Swim")

	first, err := repo.ByID(ctx, user.ID, goal.ID)
	require.NoError(t, err)
	second, err := repo.ByID(ctx, user.ID, goal.ID)
	require.NoError(t, err)

	expected := first.UpdatedAt
	first.Status = model.GoalStatusCompleted
	first.Touch(time.Now())
	require.NoError(t, repo.Update(ctx, first, expected))

	// the second writer read the same row before the first one wrote
	expected = second.UpdatedAt
	second.Status = model.GoalStatusAbandoned
	second.Touch(time.Now())
	assert.ErrorIs(t, repo.Update(ctx, second, expected), ErrGoalConflict)

	stored, err := repo.ByIDAny(ctx, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, model.GoalStatusCompleted, stored.Status)

	second.UserID = "someone-else"
	assert.ErrorIs(t, repo.Update(ctx, second, stored.UpdatedAt), ErrGoalNotFound)
}

func TestGoalRepositoryUpdateStreak(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewGoalRepository(db)
	ctx := context.Background()

	user := createUser(t, db, "a@example.com")
	goal := createGoal(t, db, user.ID, "Meditate")

	read, err := repo.ByIDAny(ctx, goal.ID)
	require.NoError(t, err)

	next := read.UpdatedAt.Add(time.Second)
	updated, err := repo.UpdateStreak(ctx, goal.ID, 4, read.UpdatedAt, next)
	require.NoError(t, err)
	assert.Equal(t, model.StreakCount(4), updated.StreakCount)
	assert.True(t, updated.UpdatedAt.Equal(model.Timestamp(next)))

	// a second writer holding the old snapshot loses
	_, err = repo.UpdateStreak(ctx, goal.ID, 1, read.UpdatedAt, next.Add(time.Second))
	assert.ErrorIs(t, err, ErrStreakConflict)

	current, err := repo.ByIDAny(ctx, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StreakCount(4), current.StreakCount)

	_, err = repo.UpdateStreak(ctx, "missing", 1, read.UpdatedAt, next)
	assert.ErrorIs(t, err, ErrGoalNotFound)
}

func TestCheckInRepository(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewCheckInRepository(db)
	ctx := context.Background()

	user := createUser(t, db, "a@example.com")
	goal := createGoal(t, db, user.ID, "Swim")

	base := model.Timestamp(time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC))
	for i, completed := range []bool{true, false, true} {
		err := repo.Insert(ctx, &model.GoalCheckIn{
			ID:          uuid.New().String(),
			GoalID:      goal.ID,
			CheckInDate: base.AddDate(0, 0, i),
			Completed:   completed,
		})
		require.NoError(t, err)
	}

	all, err := repo.List(ctx, goal.ID, false)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].CheckInDate.Equal(base))
	assert.False(t, all[1].Completed)

	done, err := repo.List(ctx, goal.ID, true)
	require.NoError(t, err)
	assert.Len(t, done, 2)

	recent, err := repo.Recent(ctx, goal.ID, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.True(t, recent[0].CheckInDate.Equal(base.AddDate(0, 0, 2)))

	note := "tired"
	missed := all[1]
	missed.Completed = true
	missed.ProgressNote = &note
	require.NoError(t, repo.Update(ctx, missed))

	got, err := repo.ByID(ctx, goal.ID, missed.ID)
	require.NoError(t, err)
	assert.True(t, got.Completed)
	assert.Equal(t, &note, got.ProgressNote)

	require.NoError(t, repo.Delete(ctx, goal.ID, missed.ID))
	assert.ErrorIs(t, repo.Delete(ctx, goal.ID, missed.ID), ErrCheckInNotFound)
	_, err = repo.ByID(ctx, goal.ID, missed.ID)
	assert.ErrorIs(t, err, ErrCheckInNotFound)
}

func TestUserDeleteCascades(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	user := createUser(t, db, "gone@example.com")
	goal := createGoal(t, db, user.ID, "Stretch")
	require.NoError(t, NewCheckInRepository(db).Insert(ctx, &model.GoalCheckIn{
		ID:          uuid.New().String(),
		GoalID:      goal.ID,
		CheckInDate: model.Now(),
		Completed:   true,
	}))

	now := model.Now()
	conversation := &model.Conversation{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		SessionID: "conv-1",
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, NewConversationRepository(db).Create(ctx, conversation))
	require.NoError(t, NewMessageRepository(db).Create(ctx, &model.Message{
		ID:             uuid.New().String(),
		ConversationID: conversation.ID,
		Role:           model.RoleUser,
		Content:        "hi",
		CreatedAt:      now,
	}))

	require.NoError(t, NewUserRepository(db).Delete(ctx, user.ID))

	for _, table := range []string{"goals", "goal_check_ins", "conversations", "messages"} {
		var count int
		require.NoError(t, db.GetContext(ctx, &count, "SELECT COUNT(*) FROM "+table))
		assert.Zero(t, count, table)
	}

	assert.ErrorIs(t, NewUserRepository(db).Delete(ctx, user.ID), ErrUserNotFound)
}

func TestConversationRepository(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewConversationRepository(db)
	messages := NewMessageRepository(db)
	ctx := context.Background()

	user := createUser(t, db, "a@example.com")
	start := model.Timestamp(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	var convs []*model.Conversation
	for i := 0; i < 2; i++ {
		c := &model.Conversation{
			ID:        uuid.New().String(),
			UserID:    user.ID,
			SessionID: "conv-" + uuid.New().String(),
			CreatedAt: start.Add(time.Duration(i) * time.Hour),
			UpdatedAt: start.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, repo.Create(ctx, c))
		convs = append(convs, c)
	}

	require.NoError(t, messages.Create(ctx, &model.Message{
		ID:             uuid.New().String(),
		ConversationID: convs[0].ID,
		Role:           model.RoleUser,
		Content:        "first",
		CreatedAt:      start,
	}))
	require.NoError(t, repo.Touch(ctx, convs[0].ID, start.Add(2*time.Hour)))

	list, err := repo.Conversations(ctx, user.ID, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, convs[0].ID, list[0].ID)
	assert.Equal(t, 1, list[0].MessageCount)
	assert.Equal(t, 0, list[1].MessageCount)

	got, err := repo.BySessionID(ctx, user.ID, convs[1].SessionID)
	require.NoError(t, err)
	assert.Equal(t, convs[1].ID, got.ID)

	_, err = repo.BySessionID(ctx, "someone-else", convs[1].SessionID)
	assert.ErrorIs(t, err, ErrConversationNotFound)

	assert.ErrorIs(t, repo.Touch(ctx, "missing", start), ErrConversationNotFound)

	require.NoError(t, repo.Delete(ctx, user.ID, convs[0].SessionID))
	msgs, err := messages.Messages(ctx, convs[0].ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestWithTxRollsBack(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	err := WithTx(ctx, db, func(tx *sqlx.Tx) error {
		createErr := NewUserRepository(tx).Create(ctx, &model.User{
			ID:           uuid.New().String(),
			Email:        "tx@example.com",
			PasswordHash: "x",
			CreatedAt:    model.Now(),
		})
		require.NoError(t, createErr)
		return ErrGoalNotFound
	})
	assert.ErrorIs(t, err, ErrGoalNotFound)

	_, err = NewUserRepository(db).ByEmail(ctx, "tx@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
