package streak

import (
	"context"
	"sync"
	"time"

	"github.com/alari/backend/internal/model"
	"github.com/alari/backend/internal/repository"
)

// fakeStore is an in-memory Transactor. Each InTx works on a copy that is
// only kept when fn succeeds.
type fakeStore struct {
	mu       sync.Mutex
	goals    map[string]model.Goal
	checkIns []model.GoalCheckIn

	// updateErr, when set, is returned by UpdateStreak for the first
	// failUpdates calls (every call when failUpdates < 0).
	updateErr     error
	failUpdates   int
	updateCalls   int
	insertedTotal int
}

func newFakeStore(goals ...model.Goal) *fakeStore {
	f := &fakeStore{goals: make(map[string]model.Goal)}
	for _, g := range goals {
		f.goals[g.ID] = g
	}
	return f
}

func (f *fakeStore) InTx(ctx context.Context, fn func(s Stores) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	tx := &fakeTx{
		parent:   f,
		goals:    make(map[string]model.Goal, len(f.goals)),
		checkIns: append([]model.GoalCheckIn(nil), f.checkIns...),
	}
	for id, g := range f.goals {
		tx.goals[id] = g
	}

	err := fn(Stores{Goals: tx, CheckIns: tx})
	if err != nil {
		return err
	}

	f.goals = tx.goals
	f.checkIns = tx.checkIns
	return nil
}

func (f *fakeStore) goal(id string) model.Goal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.goals[id]
}

func (f *fakeStore) checkInCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.checkIns)
}

type fakeTx struct {
	parent   *fakeStore
	goals    map[string]model.Goal
	checkIns []model.GoalCheckIn
}

func (t *fakeTx) ByIDAny(ctx context.Context, goalID string) (*model.Goal, error) {
	g, ok := t.goals[goalID]
	if !ok {
		return nil, repository.ErrGoalNotFound
	}
	return &g, nil
}

func (t *fakeTx) UpdateStreak(ctx context.Context, goalID string, count model.StreakCount, expectedUpdatedAt, now time.Time) (*model.Goal, error) {
	p := t.parent
	p.updateCalls++
	if p.updateErr != nil && (p.failUpdates < 0 || p.updateCalls <= p.failUpdates) {
		return nil, p.updateErr
	}

	g, ok := t.goals[goalID]
	if !ok {
		return nil, repository.ErrGoalNotFound
	}
	if !g.UpdatedAt.Equal(expectedUpdatedAt) {
		return nil, repository.ErrStreakConflict
	}
	g.StreakCount = count
	g.UpdatedAt = model.Timestamp(now)
	t.goals[goalID] = g
	return &g, nil
}

func (t *fakeTx) List(ctx context.Context, goalID string, completedOnly bool) ([]*model.GoalCheckIn, error) {
	var out []*model.GoalCheckIn
	for i := range t.checkIns {
		c := t.checkIns[i]
		if c.GoalID != goalID || (completedOnly && !c.Completed) {
			continue
		}
		out = append(out, &c)
	}
	return out, nil
}

func (t *fakeTx) Insert(ctx context.Context, checkIn *model.GoalCheckIn) error {
	t.parent.insertedTotal++
	t.checkIns = append(t.checkIns, *checkIn)
	return nil
}

func (t *fakeTx) ByID(ctx context.Context, goalID, checkInID string) (*model.GoalCheckIn, error) {
	for i := range t.checkIns {
		if t.checkIns[i].ID == checkInID && t.checkIns[i].GoalID == goalID {
			c := t.checkIns[i]
			return &c, nil
		}
	}
	return nil, repository.ErrCheckInNotFound
}

func (t *fakeTx) Update(ctx context.Context, checkIn *model.GoalCheckIn) error {
	for i := range t.checkIns {
		if t.checkIns[i].ID == checkIn.ID && t.checkIns[i].GoalID == checkIn.GoalID {
			t.checkIns[i] = *checkIn
			return nil
		}
	}
	return repository.ErrCheckInNotFound
}

func (t *fakeTx) Delete(ctx context.Context, goalID, checkInID string) error {
	for i := range t.checkIns {
		if t.checkIns[i].ID == checkInID && t.checkIns[i].GoalID == goalID {
			t.checkIns = append(t.checkIns[:i], t.checkIns[i+1:]...)
			return nil
		}
	}
	return repository.ErrCheckInNotFound
}
