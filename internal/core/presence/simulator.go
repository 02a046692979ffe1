package presence

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"drawboard/internal/core/domain"
	"drawboard/internal/core/session"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultInterval          = 3 * time.Second
	DefaultStrokeProbability = 0.15

	strokePoints = 10
	strokeSpread = 100 // points land within ±spread/2 of the start
	cursorStep   = 60  // cursor moves within ±step/2 per axis

	maxStrokeStartX = 800
	maxStrokeStartY = 500
	maxCursorX      = 850
	maxCursorY      = 550
)

// StrokeObserver is told about every stroke the simulator adds.
type StrokeObserver interface {
	ObserveSimulatedStroke(userID domain.UserID)
}

type Config struct {
	Interval          time.Duration
	StrokeProbability float64
}

// Simulator fakes other participants: on every tick it may add a random
// stroke for one of them and it jitters every active non-owner cursor.
type Simulator struct {
	store       *session.Store
	interval    time.Duration
	probability float64
	logger      *zap.SugaredLogger
	observer    StrokeObserver

	mu    sync.Mutex // guards rng
	rng   *rand.Rand
	newID func() domain.StrokeID

	stopOnce sync.Once
	stopChan chan struct{}
}

type Option func(*Simulator)

// WithRand replaces the random source, mainly for tests.
func WithRand(r *rand.Rand) Option {
	return func(s *Simulator) { s.rng = r }
}

func WithObserver(o StrokeObserver) Option {
	return func(s *Simulator) { s.observer = o }
}

func NewSimulator(store *session.Store, cfg Config, logger *zap.SugaredLogger, opts ...Option) *Simulator {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	s := &Simulator{
		store:       store,
		interval:    cfg.Interval,
		probability: cfg.StrokeProbability,
		logger:      logger,
		rng:         rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
		newID:       func() domain.StrokeID { return domain.StrokeID(uuid.NewString()) },
		stopChan:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start runs the simulation until ctx is cancelled or Stop is called.
func (s *Simulator) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Infow("presence simulation started", "interval", s.interval)
	for {
		select {
		case <-ticker.C:
			if err := s.Tick(ctx); err != nil {
				s.logger.Warnw("presence tick failed", "error", err)
			}
		case <-s.stopChan:
			s.logger.Info("presence simulation stopped")
			return
		case <-ctx.Done():
			s.logger.Info("presence simulation stopped")
			return
		}
	}
}

// Stop ends Start. It is safe to call more than once.
func (s *Simulator) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

type snapshot struct {
	canDraw bool
	others  []domain.User
}

// Tick performs one simulation step. The step is planned against the live
// state and applied as one batch, so a lock or mode change cannot slip in
// between the check and the stroke.
func (s *Simulator) Tick(ctx context.Context) error {
	var actions []session.Action
	err := s.store.DispatchFunc(ctx, func(state domain.SessionState) ([]session.Action, error) {
		snap := snapshot{
			canDraw: state.CollaborationEnabled &&
				!state.IsLayerLocked &&
				state.CollaborationMode != domain.ModeViewOnly,
		}
		for _, u := range state.Users {
			if u.IsActive && u.ID != domain.OwnerID {
				snap.others = append(snap.others, u)
			}
		}

		s.mu.Lock()
		actions = s.plan(snap)
		s.mu.Unlock()
		return actions, nil
	})
	if err != nil {
		return err
	}

	for _, a := range actions {
		if add, ok := a.(session.AddStroke); ok {
			s.logger.Debugw("simulated stroke", "user_id", add.Stroke.UserID, "points", len(add.Stroke.Points))
			if s.observer != nil {
				s.observer.ObserveSimulatedStroke(add.Stroke.UserID)
			}
		}
	}
	return nil
}

// plan draws all random numbers for one tick. The stroke roll happens
// first and unconditionally so a seeded source replays identically
// whatever the flags are.
func (s *Simulator) plan(snap snapshot) []session.Action {
	var actions []session.Action

	if s.rng.Float64() < s.probability && snap.canDraw && len(snap.others) > 0 {
		u := snap.others[s.rng.IntN(len(snap.others))]
		actions = append(actions, session.AddStroke{Stroke: domain.Stroke{
			ID:     s.newID(),
			Tool:   domain.ToolDraw,
			Color:  u.Color,
			Size:   float64(s.rng.IntN(8) + 2),
			Points: s.randomPoints(),
			UserID: u.ID,
		}})
	}

	for _, u := range snap.others {
		actions = append(actions, session.UpdateUserCursor{
			UserID: u.ID,
			Position: domain.Point{
				X: clamp(u.Cursor.X+s.jitter(cursorStep), 0, maxCursorX),
				Y: clamp(u.Cursor.Y+s.jitter(cursorStep), 0, maxCursorY),
			},
		})
	}
	return actions
}

func (s *Simulator) randomPoints() []domain.Point {
	start := domain.Point{X: s.rng.Float64() * maxStrokeStartX, Y: s.rng.Float64() * maxStrokeStartY}
	points := make([]domain.Point, 0, strokePoints)
	points = append(points, start)
	for i := 1; i < strokePoints; i++ {
		points = append(points, domain.Point{
			X: start.X + s.jitter(strokeSpread),
			Y: start.Y + s.jitter(strokeSpread),
		})
	}
	return points
}

// jitter returns a value in [-span/2, span/2).
func (s *Simulator) jitter(span float64) float64 {
	return (s.rng.Float64() - 0.5) * span
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
