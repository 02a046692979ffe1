package session

import (
	"context"
	"errors"
	"sync"

	"drawboard/internal/core/domain"

	"github.com/google/uuid"
)

type CaptureState int

const (
	Idle CaptureState = iota
	Drawing
)

func (c CaptureState) String() string {
	if c == Drawing {
		return "drawing"
	}
	return "idle"
}

// Capture turns pointer gestures of the local owner into strokes. A gesture
// commits its stroke on pointer-down and extends that same stroke on every
// move by replacing the last element of the sequence.
type Capture struct {
	store  *Store
	userID domain.UserID
	newID  func() domain.StrokeID

	mu      sync.Mutex
	state   CaptureState
	current *domain.Stroke
}

func NewCapture(store *Store) *Capture {
	return &Capture{
		store:  store,
		userID: domain.OwnerID,
		newID:  func() domain.StrokeID { return domain.StrokeID(uuid.NewString()) },
	}
}

func (c *Capture) State() CaptureState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// PointerDown starts a stroke at p using the current tool selection. It is
// rejected with ErrLayerLocked while the layer is locked. A gesture still
// open from a missed pointer-up is simply superseded.
func (c *Capture) PointerDown(ctx context.Context, p domain.Point) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var stroke domain.Stroke
	err := c.store.DispatchFunc(ctx, func(state domain.SessionState) ([]Action, error) {
		if state.IsLayerLocked {
			return nil, domain.ErrLayerLocked
		}
		stroke = domain.Stroke{
			ID:     c.newID(),
			Points: []domain.Point{p},
			Tool:   state.CurrentTool,
			Color:  state.CurrentColor,
			Size:   state.CurrentSize,
			UserID: c.userID,
		}
		return []Action{AddStroke{Stroke: stroke}, SetIsDrawing{Drawing: true}}, nil
	})
	if err != nil {
		return err
	}
	c.state = Drawing
	c.current = &stroke
	return nil
}

// PointerMove extends the in-progress stroke. Outside a gesture it does
// nothing. If the layer got locked mid-gesture the gesture is ended instead.
func (c *Capture) PointerMove(ctx context.Context, p domain.Point) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Drawing || c.current == nil {
		return nil
	}

	// Only the capture appends to the in-progress points, and it only writes
	// past the length the store holds, so the committed copy never changes.
	next := *c.current
	next.Points = append(next.Points, p)
	err := c.store.DispatchFunc(ctx, func(state domain.SessionState) ([]Action, error) {
		if state.IsLayerLocked {
			return nil, domain.ErrLayerLocked
		}
		return []Action{ReplaceStroke{Stroke: next}}, nil
	})
	if errors.Is(err, domain.ErrLayerLocked) {
		return c.stopLocked(ctx)
	}
	if err != nil {
		return err
	}
	c.current = &next
	return nil
}

// PointerUp ends the gesture; the stroke stays committed.
func (c *Capture) PointerUp(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Drawing {
		return nil
	}
	return c.stopLocked(ctx)
}

// PointerLeave behaves like PointerUp.
func (c *Capture) PointerLeave(ctx context.Context) error {
	return c.PointerUp(ctx)
}

func (c *Capture) stopLocked(ctx context.Context) error {
	c.state = Idle
	c.current = nil
	return c.store.Dispatch(ctx, SetIsDrawing{Drawing: false})
}
