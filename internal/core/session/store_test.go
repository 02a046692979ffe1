package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"drawboard/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type mockObserver struct {
	mock.Mock
}

func (m *mockObserver) ObserveDispatch(t ActionType, d time.Duration, err error) {
	m.Called(t, err)
}

func TestStore_DispatchNotifiesInOrder(t *testing.T) {
	store := NewStore(WithLogger(zaptest.NewLogger(t).Sugar()))
	ctx := context.Background()

	var events []Event
	unsubscribe, err := store.Subscribe(func(ev Event) { events = append(events, ev) })
	require.NoError(t, err)

	require.NoError(t, store.Dispatch(ctx, AddStroke{Stroke: stroke("a")}))
	require.NoError(t, store.Dispatch(ctx, ToggleLayerLock{}))

	require.Len(t, events, 2)
	assert.Equal(t, uint64(1), events[0].Seq)
	assert.Equal(t, TypeAddStroke, events[0].Action.Type())
	assert.Equal(t, 1, events[0].Status.Strokes)
	assert.Equal(t, uint64(2), events[1].Seq)
	assert.True(t, events[1].Status.IsLayerLocked)

	unsubscribe()
	unsubscribe()
	require.NoError(t, store.Dispatch(ctx, ClearCanvas{}))
	assert.Len(t, events, 2)
	assert.Equal(t, uint64(3), store.Seq())
}

func TestStore_RejectedActionLeavesStateAndSeq(t *testing.T) {
	obs := &mockObserver{}
	obs.On("ObserveDispatch", TypeRemoveCollaborator, domain.ErrOwnerNotRemovable).Once()
	store := NewStore(WithObserver(obs))

	notified := false
	_, err := store.Subscribe(func(Event) { notified = true })
	require.NoError(t, err)

	err = store.Dispatch(context.Background(), RemoveCollaborator{ID: domain.OwnerID})
	assert.ErrorIs(t, err, domain.ErrOwnerNotRemovable)
	assert.False(t, notified)
	assert.Zero(t, store.Seq())

	state, err := store.State()
	require.NoError(t, err)
	assert.Len(t, state.Collaborators, 1)
	obs.AssertExpectations(t)
}

func TestStore_NilAndClosed(t *testing.T) {
	var nilStore *Store
	ctx := context.Background()

	assert.ErrorIs(t, nilStore.Dispatch(ctx, ClearCanvas{}), domain.ErrNoStore)
	_, err := nilStore.State()
	assert.ErrorIs(t, err, domain.ErrNoStore)
	_, err = nilStore.Subscribe(func(Event) {})
	assert.ErrorIs(t, err, domain.ErrNoStore)
	assert.ErrorIs(t, nilStore.View(func(domain.SessionState) {}), domain.ErrNoStore)
	_, err = nilStore.Status()
	assert.ErrorIs(t, err, domain.ErrNoStore)
	nilStore.Close()

	store := NewStore()
	store.Close()
	assert.ErrorIs(t, store.Dispatch(ctx, ClearCanvas{}), domain.ErrStoreClosed)
	_, err = store.Subscribe(func(Event) {})
	assert.ErrorIs(t, err, domain.ErrStoreClosed)
}

func TestStore_StateIsACopy(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	require.NoError(t, store.Dispatch(ctx, AddStroke{Stroke: stroke("a", domain.Point{X: 1, Y: 1})}))

	state, err := store.State()
	require.NoError(t, err)
	state.Strokes[0].Points[0].X = 99
	state.Users[0].Name = "Mallory"

	fresh, err := store.State()
	require.NoError(t, err)
	assert.Equal(t, 1.0, fresh.Strokes[0].Points[0].X)
	assert.Equal(t, "You", fresh.Users[0].Name)
}

func TestStore_WithInitialState(t *testing.T) {
	initial := domain.NewSessionState()
	initial.CollaborationEnabled = true

	store := NewStore(WithInitialState(initial))
	status, err := store.Status()
	require.NoError(t, err)
	assert.True(t, status.CollaborationEnabled)
}

func TestStore_DispatchAllRollsBackOnError(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	require.NoError(t, store.Dispatch(ctx, AddStroke{Stroke: stroke("keep")}))

	notified := 0
	_, err := store.Subscribe(func(Event) { notified++ })
	require.NoError(t, err)

	err = store.DispatchAll(ctx,
		ToggleCollaboration{},
		ClearCanvas{},
		AddStroke{Stroke: stroke("new")},
		SetCollaborationMode{Mode: "bogus"},
		ToggleLayerLock{},
	)
	assert.ErrorIs(t, err, domain.ErrInvalidMode)
	assert.Zero(t, notified)
	assert.Equal(t, uint64(1), store.Seq())

	state, err := store.State()
	require.NoError(t, err)
	assert.False(t, state.CollaborationEnabled)
	assert.False(t, state.IsLayerLocked)
	require.Len(t, state.Strokes, 1)
	assert.Equal(t, domain.StrokeID("keep"), state.Strokes[0].ID)
}

func TestStore_DispatchAllNotifiesAfterCommit(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	var events []Event
	_, err := store.Subscribe(func(ev Event) { events = append(events, ev) })
	require.NoError(t, err)

	require.NoError(t, store.DispatchAll(ctx,
		ClearCanvas{},
		AddStroke{Stroke: stroke("a")},
		AddStroke{Stroke: stroke("b")},
	))

	require.Len(t, events, 3)
	for i, ev := range events {
		assert.Equal(t, uint64(i+1), ev.Seq)
		assert.Equal(t, 2, ev.Status.Strokes)
	}
	assert.Equal(t, TypeClearCanvas, events[0].Action.Type())
}

func TestStore_ReadersNeverSeeHalfABatch(t *testing.T) {
	const batch = 200
	store := NewStore()
	ctx := context.Background()

	refill := make([]Action, 0, batch+1)
	refill = append(refill, ClearCanvas{})
	for i := 0; i < batch; i++ {
		refill = append(refill, AddStroke{Stroke: stroke(fmt.Sprintf("s%d", i))})
	}
	require.NoError(t, store.DispatchAll(ctx, refill...))

	done := make(chan struct{})
	var torn atomic.Int64
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			status, err := store.Status()
			if err == nil && status.Strokes != batch {
				torn.Add(1)
			}
		}
	}()

	for i := 0; i < 50; i++ {
		require.NoError(t, store.DispatchAll(ctx, refill...))
	}
	close(done)
	wg.Wait()
	assert.Zero(t, torn.Load())
}

func TestStore_DispatchFuncChecksUnderTheLock(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	require.NoError(t, store.Dispatch(ctx, ToggleLayerLock{}))

	unlocked := func(state domain.SessionState) ([]Action, error) {
		if state.IsLayerLocked {
			return nil, domain.ErrLayerLocked
		}
		return []Action{AddStroke{Stroke: stroke("a")}}, nil
	}

	assert.ErrorIs(t, store.DispatchFunc(ctx, unlocked), domain.ErrLayerLocked)
	assert.Equal(t, uint64(1), store.Seq())

	require.NoError(t, store.Dispatch(ctx, ToggleLayerLock{}))
	require.NoError(t, store.DispatchFunc(ctx, unlocked))

	status, err := store.Status()
	require.NoError(t, err)
	assert.Equal(t, 1, status.Strokes)
}

func TestStore_DispatchFuncEmptyBatchIsNoOp(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.DispatchFunc(context.Background(), func(domain.SessionState) ([]Action, error) {
		return nil, nil
	}))
	assert.Zero(t, store.Seq())
}

func TestStore_ConcurrentDispatch(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = store.Dispatch(ctx, AddStroke{Stroke: stroke("s")})
				_ = store.Dispatch(ctx, UpdateUserCursor{UserID: "user2", Position: domain.Point{X: float64(j)}})
			}
		}()
	}
	wg.Wait()

	status, err := store.Status()
	require.NoError(t, err)
	assert.Equal(t, 400, status.Strokes)
	assert.Equal(t, uint64(800), store.Seq())
}

func TestStore_SnapshotCarriesSeq(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	state, seq, err := store.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), seq)
	assert.Empty(t, state.Strokes)

	require.NoError(t, store.Dispatch(ctx, AddStroke{Stroke: stroke("a")}))
	state, seq, err = store.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), seq)
	assert.Len(t, state.Strokes, 1)

	var nilStore *Store
	_, _, err = nilStore.Snapshot()
	assert.ErrorIs(t, err, domain.ErrNoStore)
}

func TestStore_StatusCarriesToolSelection(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.DispatchAll(context.Background(),
		SetTool{Tool: domain.ToolErase},
		SetColor{Color: "#00ff00"},
		SetSize{Size: 12},
	))

	status, err := store.Status()
	require.NoError(t, err)
	assert.Equal(t, domain.ToolErase, status.CurrentTool)
	assert.Equal(t, "#00ff00", status.CurrentColor)
	assert.Equal(t, 12.0, status.CurrentSize)
}
