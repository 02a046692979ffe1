package presence

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"drawboard/internal/core/domain"
	"drawboard/internal/core/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingObserver struct {
	mu    sync.Mutex
	users []domain.UserID
}

func (o *countingObserver) ObserveSimulatedStroke(id domain.UserID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.users = append(o.users, id)
}

func newSim(store *session.Store, p float64, opts ...Option) *Simulator {
	opts = append([]Option{WithRand(rand.New(rand.NewPCG(1, 2)))}, opts...)
	return NewSimulator(store, Config{Interval: time.Millisecond, StrokeProbability: p}, zap.NewNop().Sugar(), opts...)
}

func enableCollaboration(t *testing.T, store *session.Store) {
	t.Helper()
	require.NoError(t, store.Dispatch(context.Background(), session.ToggleCollaboration{}))
}

func TestTick_AddsStrokeForActiveOther(t *testing.T) {
	store := session.NewStore()
	enableCollaboration(t, store)
	obs := &countingObserver{}
	sim := newSim(store, 1, WithObserver(obs))

	require.NoError(t, sim.Tick(context.Background()))

	state, err := store.State()
	require.NoError(t, err)
	require.Len(t, state.Strokes, 1)

	s := state.Strokes[0]
	assert.Equal(t, domain.ToolDraw, s.Tool)
	assert.NotEqual(t, domain.OwnerID, s.UserID)
	assert.Contains(t, []domain.UserID{"user2", "user4"}, s.UserID, "only active users draw")
	u, _ := state.FindUser(s.UserID)
	assert.Equal(t, u.Color, s.Color)
	assert.GreaterOrEqual(t, s.Size, 2.0)
	assert.LessOrEqual(t, s.Size, 9.0)

	require.Len(t, s.Points, 10)
	start := s.Points[0]
	assert.True(t, start.X >= 0 && start.X < 800)
	assert.True(t, start.Y >= 0 && start.Y < 500)
	for _, p := range s.Points[1:] {
		assert.InDelta(t, start.X, p.X, 50)
		assert.InDelta(t, start.Y, p.Y, 50)
	}
	assert.Equal(t, []domain.UserID{s.UserID}, obs.users)
}

func TestTick_NoStrokeWhenBlocked(t *testing.T) {
	cases := []struct {
		name  string
		setup []session.Action
	}{
		{"collaboration disabled", nil},
		{"layer locked", []session.Action{session.ToggleCollaboration{}, session.ToggleLayerLock{}}},
		{"view only", []session.Action{session.ToggleCollaboration{}, session.SetCollaborationMode{Mode: domain.ModeViewOnly}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := session.NewStore()
			require.NoError(t, store.DispatchAll(context.Background(), tc.setup...))
			sim := newSim(store, 1)

			for i := 0; i < 20; i++ {
				require.NoError(t, sim.Tick(context.Background()))
			}
			status, err := store.Status()
			require.NoError(t, err)
			assert.Zero(t, status.Strokes)
		})
	}
}

func TestTick_MovesOnlyActiveOthersWithinBounds(t *testing.T) {
	store := session.NewStore()
	sim := newSim(store, 0)

	before, err := store.State()
	require.NoError(t, err)

	for i := 0; i < 200; i++ {
		require.NoError(t, sim.Tick(context.Background()))
	}

	after, err := store.State()
	require.NoError(t, err)
	assert.Empty(t, after.Strokes)

	owner, _ := after.FindUser(domain.OwnerID)
	assert.Equal(t, before.Users[0].Cursor, owner.Cursor)
	bob, _ := after.FindUser("user3")
	assert.Equal(t, domain.Point{X: 200, Y: 200}, bob.Cursor)

	for _, id := range []domain.UserID{"user2", "user4"} {
		u, _ := after.FindUser(id)
		assert.True(t, u.Cursor.X >= 0 && u.Cursor.X <= 850, "x out of bounds: %v", u.Cursor.X)
		assert.True(t, u.Cursor.Y >= 0 && u.Cursor.Y <= 550, "y out of bounds: %v", u.Cursor.Y)
	}
}

func TestTick_NoActiveOthers(t *testing.T) {
	store := session.NewStore()
	enableCollaboration(t, store)
	require.NoError(t, store.DispatchAll(context.Background(),
		session.SetUserActive{UserID: "user2", Active: false},
		session.SetUserActive{UserID: "user4", Active: false},
	))
	seq := store.Seq()

	require.NoError(t, newSim(store, 1).Tick(context.Background()))
	assert.Equal(t, seq, store.Seq())
}

func TestTick_SeededSourceIsReproducible(t *testing.T) {
	run := func() domain.SessionState {
		store := session.NewStore()
		enableCollaboration(t, store)
		sim := newSim(store, 0.5)
		n := 0
		sim.newID = func() domain.StrokeID {
			n++
			return domain.StrokeID(fmt.Sprintf("sim-%d", n))
		}
		for i := 0; i < 10; i++ {
			require.NoError(t, sim.Tick(context.Background()))
		}
		state, err := store.State()
		require.NoError(t, err)
		return state
	}
	assert.Equal(t, run(), run())
}

func TestStartStop(t *testing.T) {
	store := session.NewStore()
	sim := newSim(store, 0)

	done := make(chan struct{})
	go func() {
		sim.Start(context.Background())
		close(done)
	}()

	require.Eventually(t, func() bool { return store.Seq() > 0 }, time.Second, time.Millisecond)
	sim.Stop()
	sim.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("simulator did not stop")
	}
}

func TestStartStopsOnContextCancel(t *testing.T) {
	sim := newSim(session.NewStore(), 0)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		sim.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("simulator did not stop")
	}
}

func TestTick_ClosedStore(t *testing.T) {
	store := session.NewStore()
	store.Close()
	assert.ErrorIs(t, newSim(store, 0).Tick(context.Background()), domain.ErrStoreClosed)
}
