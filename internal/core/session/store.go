package session

import (
	"context"
	"sync"
	"time"

	"drawboard/internal/core/domain"
	"drawboard/pkg/tracing"

	"go.uber.org/zap"
)

// Event describes one applied action. Seq increases by one per applied
// action and lets subscribers detect gaps. Status is the view after the
// batch the action belonged to was committed.
type Event struct {
	Seq    uint64        `json:"seq"`
	Action Action        `json:"-"`
	Status domain.Status `json:"status"`
}

// Listener is called synchronously, in dispatch order, while the store
// holds its lock. It must not call back into the store.
type Listener func(Event)

// Observer receives the outcome of every dispatch, including rejected ones.
type Observer interface {
	ObserveDispatch(t ActionType, duration time.Duration, err error)
}

// Store is the single writer of a session's state. It is constructed
// explicitly and handed to every consumer; there is no package level
// instance.
type Store struct {
	mu        sync.Mutex
	state     domain.SessionState
	seq       uint64
	closed    bool
	listeners map[uint64]Listener
	nextID    uint64

	observer Observer
	logger   *zap.SugaredLogger
}

type Option func(*Store)

func WithInitialState(state domain.SessionState) Option {
	return func(s *Store) { s.state = state.Clone() }
}

func WithObserver(o Observer) Option {
	return func(s *Store) { s.observer = o }
}

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(s *Store) { s.logger = logger }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		state:     domain.NewSessionState(),
		listeners: make(map[uint64]Listener),
		logger:    zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dispatch applies a to the current state. Listeners have been notified by
// the time it returns. Use State for a copy of the result.
func (s *Store) Dispatch(ctx context.Context, a Action) error {
	return s.DispatchAll(ctx, a)
}

// DispatchAll applies actions as one batch under a single hold of the store
// lock. Either every action applies or, on the first error, none does.
// Readers never observe a partly applied batch and listeners are notified
// only after the whole batch is committed, one event per action.
func (s *Store) DispatchAll(ctx context.Context, actions ...Action) error {
	return s.DispatchFunc(ctx, func(domain.SessionState) ([]Action, error) {
		return actions, nil
	})
}

// DispatchFunc builds a batch from the current state and applies it within
// the same critical section, so a check made by build still holds when the
// batch lands. build sees the live state and must not retain or modify it.
// An error from build is returned as is and nothing is applied.
func (s *Store) DispatchFunc(ctx context.Context, build func(state domain.SessionState) ([]Action, error)) error {
	if s == nil {
		return domain.ErrNoStore
	}

	ctx, span := tracing.StartSpan(ctx, "session.dispatch")
	defer span.End()

	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrStoreClosed
	}

	actions, err := build(s.state)
	if err != nil {
		tracing.RecordError(ctx, err)
		return err
	}
	if len(actions) == 0 {
		return nil
	}
	span.SetAttributes(tracing.ActionKey.StringSlice(actionTypes(actions)))

	// A single action is all-or-nothing on its own and can work on the live
	// arrays. A batch works on private copies so a failure leaves no trace.
	next := s.state
	if len(actions) > 1 {
		next = detach(s.state)
	}
	for _, a := range actions {
		err := apply(&next, a)
		s.observe(a, time.Since(start), err)
		if err != nil {
			tracing.RecordError(ctx, err)
			s.logger.Debugw("action rejected", "error", err, "batch", len(actions))
			return err
		}
	}

	s.state = next
	status := next.Status()
	for _, a := range actions {
		s.seq++
		ev := Event{Seq: s.seq, Action: a, Status: status}
		for _, l := range s.listeners {
			l(ev)
		}
	}
	return nil
}

func actionTypes(actions []Action) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		if a == nil {
			out[i] = "UNKNOWN"
			continue
		}
		out[i] = string(a.Type())
	}
	return out
}

// State returns a deep copy of the current state.
func (s *Store) State() (domain.SessionState, error) {
	if s == nil {
		return domain.SessionState{}, domain.ErrNoStore
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone(), nil
}

// Snapshot returns a deep copy of the state together with the sequence
// number it corresponds to.
func (s *Store) Snapshot() (domain.SessionState, uint64, error) {
	if s == nil {
		return domain.SessionState{}, 0, domain.ErrNoStore
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone(), s.seq, nil
}

// View calls fn with the current state while holding the store lock. fn
// must neither retain nor modify the state, nor call into the store.
func (s *Store) View(fn func(state domain.SessionState)) error {
	if s == nil {
		return domain.ErrNoStore
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.state)
	return nil
}

// Status returns the status bar view without copying the stroke list.
func (s *Store) Status() (domain.Status, error) {
	if s == nil {
		return domain.Status{}, domain.ErrNoStore
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Status(), nil
}

// Seq returns the sequence number of the last applied action.
func (s *Store) Seq() uint64 {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Subscribe registers l for every subsequently applied action. The returned
// function removes it and is safe to call more than once.
func (s *Store) Subscribe(l Listener) (func(), error) {
	if s == nil {
		return nil, domain.ErrNoStore
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, domain.ErrStoreClosed
	}
	s.nextID++
	id := s.nextID
	s.listeners[id] = l
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}, nil
}

// Close drops all listeners; later dispatches fail with ErrStoreClosed.
func (s *Store) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.listeners = make(map[uint64]Listener)
}

func (s *Store) observe(a Action, d time.Duration, err error) {
	if s.observer == nil {
		return
	}
	t := ActionType("UNKNOWN")
	if a != nil {
		t = a.Type()
	}
	s.observer.ObserveDispatch(t, d, err)
}
