package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"drawboard/internal/core/domain"
	"drawboard/internal/core/ports"
	"drawboard/internal/core/session"
	"drawboard/pkg/backup"
	"drawboard/pkg/tracing"

	"go.uber.org/zap"
)

const snapshotPrefix = "snapshot"

type snapshotPayload struct {
	Strokes []domain.Stroke `json:"strokes"`
}

type snapshotService struct {
	store   *session.Store
	backups *backup.BackupService
	logger  *zap.SugaredLogger
}

func NewSnapshotService(store *session.Store, storage backup.Storage, version string, logger *zap.SugaredLogger) ports.SnapshotService {
	return &snapshotService{
		store:   store,
		backups: backup.NewBackupService(storage, version, snapshotPrefix),
		logger:  logger,
	}
}

// Save writes the current stroke list and returns the snapshot name.
func (s *snapshotService) Save(ctx context.Context) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "snapshot.save")
	defer span.End()

	state, err := s.store.State()
	if err != nil {
		return "", err
	}
	name, err := s.backups.CreateBackup(ctx, snapshotPayload{Strokes: state.Strokes}, map[string]string{
		"strokes": strconv.Itoa(len(state.Strokes)),
	})
	if err != nil {
		tracing.RecordError(ctx, err)
		return "", err
	}
	tracing.AddSpanAttributes(ctx, tracing.SnapshotIDKey.String(name))
	s.logger.Infow("snapshot saved", "name", name, "strokes", len(state.Strokes))
	return name, nil
}

func (s *snapshotService) List(ctx context.Context) ([]string, error) {
	return s.backups.ListBackups(ctx)
}

// Restore replaces the canvas with the snapshot's strokes, replayed as a
// clear followed by one add per stroke so subscribers see ordinary actions.
func (s *snapshotService) Restore(ctx context.Context, name string) error {
	ctx, span := tracing.StartSpan(ctx, "snapshot.restore")
	defer span.End()
	tracing.AddSpanAttributes(ctx, tracing.SnapshotIDKey.String(name))

	var payload snapshotPayload
	if _, err := s.backups.RestoreBackup(ctx, name, &payload); err != nil {
		tracing.RecordError(ctx, err)
		if errors.Is(err, backup.ErrNotFound) {
			return fmt.Errorf("%w: %s", domain.ErrSnapshotNotFound, name)
		}
		return err
	}

	actions := make([]session.Action, 0, len(payload.Strokes)+1)
	actions = append(actions, session.ClearCanvas{})
	for _, st := range payload.Strokes {
		if !st.Tool.Valid() {
			s.logger.Warnw("skipping stroke with unknown tool", "snapshot", name, "stroke_id", st.ID)
			continue
		}
		actions = append(actions, session.AddStroke{Stroke: st})
	}
	if err := s.store.DispatchAll(ctx, actions...); err != nil {
		return err
	}
	s.logger.Infow("snapshot restored", "name", name, "strokes", len(actions)-1)
	return nil
}

func (s *snapshotService) Prune(ctx context.Context, keep int) (int, error) {
	return s.backups.Prune(ctx, keep)
}
