package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"drawboard/internal/core/domain"
	"drawboard/internal/core/ports"
	"drawboard/internal/core/render"
	"drawboard/internal/core/session"
	"drawboard/pkg/cache"
)

const renderCacheSize = 8

// RenderObserver is told how long each replay took.
type RenderObserver interface {
	ObserveRender(format string, duration time.Duration)
}

// renderKey identifies one encoded image of the board at one point in its
// history.
type renderKey struct {
	format string
	seq    uint64
}

type boardService struct {
	store    *session.Store
	capture  *session.Capture
	replayer *render.Replayer
	observer RenderObserver
	renders  *cache.Cache[renderKey, []byte]
}

// NewBoardService wires the store, the local capture machine and the
// replayer. observer may be nil.
func NewBoardService(store *session.Store, replayer *render.Replayer, observer RenderObserver) ports.BoardService {
	return &boardService{
		store:    store,
		capture:  session.NewCapture(store),
		replayer: replayer,
		observer: observer,
		renders:  cache.New[renderKey, []byte](time.Minute, renderCacheSize),
	}
}

func (s *boardService) State(ctx context.Context) (domain.SessionState, error) {
	return s.store.State()
}

func (s *boardService) Status(ctx context.Context) (domain.Status, error) {
	return s.store.Status()
}

// Dispatch applies an action sent by a client. Strokes are immutable once
// drawn, so REPLACE_STROKE is reserved for the capture machine's own
// in-progress stroke and refused here. New strokes are refused while the
// layer is locked, checked in the same critical section that appends them.
func (s *boardService) Dispatch(ctx context.Context, action session.Action) error {
	switch act := action.(type) {
	case session.ReplaceStroke:
		return fmt.Errorf("%w: %s", domain.ErrActionNotAllowed, act.Type())
	case session.AddStroke:
		return s.store.DispatchFunc(ctx, func(state domain.SessionState) ([]session.Action, error) {
			if state.IsLayerLocked {
				return nil, domain.ErrLayerLocked
			}
			if state.HasStroke(act.Stroke.ID) {
				return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateStroke, act.Stroke.ID)
			}
			return []session.Action{act}, nil
		})
	}
	return s.store.Dispatch(ctx, action)
}

func (s *boardService) PointerDown(ctx context.Context, p domain.Point) error {
	return s.capture.PointerDown(ctx, p)
}

func (s *boardService) PointerMove(ctx context.Context, p domain.Point) error {
	return s.capture.PointerMove(ctx, p)
}

func (s *boardService) PointerUp(ctx context.Context) error {
	return s.capture.PointerUp(ctx)
}

func (s *boardService) RenderPNG(ctx context.Context, w io.Writer) error {
	return s.render(ctx, "png", w, s.replayer.EncodePNG)
}

func (s *boardService) ExportPDF(ctx context.Context, w io.Writer) error {
	return s.render(ctx, "pdf", w, s.replayer.ExportPDF)
}

// render encodes the board in format, reusing the previous output while no
// action has been applied since.
func (s *boardService) render(ctx context.Context, format string, w io.Writer,
	fn func(context.Context, io.Writer, []domain.Stroke) error) error {
	// copy out so replay runs without holding the store lock
	state, seq, err := s.store.Snapshot()
	if err != nil {
		return err
	}

	out, err := s.renders.GetOrSet(ctx, renderKey{format: format, seq: seq}, func(ctx context.Context) ([]byte, error) {
		var buf bytes.Buffer
		start := time.Now()
		err := fn(ctx, &buf, state.Strokes)
		if s.observer != nil {
			s.observer.ObserveRender(format, time.Since(start))
		}
		return buf.Bytes(), err
	})
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}
