package backup

import (
	"context"
	"sync"
	"time"

	"drawboard/internal/core/ports"

	"go.uber.org/zap"
)

// SeqSource reports how many actions the board has applied. The scheduler
// skips a run when it has not moved since the last snapshot.
type SeqSource interface {
	Seq() uint64
}

// Scheduler takes periodic board snapshots for signed-in users with
// auto-save on.
type Scheduler struct {
	snapshots ports.SnapshotService
	profiles  ports.ProfileService
	board     SeqSource
	interval  time.Duration
	retention int
	logger    *zap.SugaredLogger

	stopOnce sync.Once
	stopChan chan struct{}

	runMu   sync.Mutex // guards lastSeq and saved
	lastSeq uint64
	saved   bool
}

type Config struct {
	Interval  time.Duration
	Retention int
}

func NewScheduler(
	snapshots ports.SnapshotService,
	profiles ports.ProfileService,
	board SeqSource,
	cfg Config,
	logger *zap.SugaredLogger,
) *Scheduler {
	return &Scheduler{
		snapshots: snapshots,
		profiles:  profiles,
		board:     board,
		interval:  cfg.Interval,
		retention: cfg.Retention,
		logger:    logger,
		stopChan:  make(chan struct{}),
	}
}

// Start runs until ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.logger.Errorw("scheduled snapshot failed", "error", err)
			}
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

// RunOnce takes one snapshot if it is due and returns its name, or "" when
// the run was skipped.
func (s *Scheduler) RunOnce(ctx context.Context) (string, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	profile, err := s.profiles.Load(ctx)
	if err != nil {
		return "", err
	}
	if !profile.AutoSaveEnabled() {
		s.logger.Debug("auto-save off, skipping snapshot")
		return "", nil
	}

	seq := s.board.Seq()
	if s.saved && seq == s.lastSeq {
		return "", nil
	}

	name, err := s.snapshots.Save(ctx)
	if err != nil {
		return "", err
	}
	s.lastSeq = seq
	s.saved = true

	removed, err := s.snapshots.Prune(ctx, s.retention)
	if err != nil {
		s.logger.Warnw("failed to prune old snapshots", "error", err)
	} else if removed > 0 {
		s.logger.Infow("pruned old snapshots", "removed", removed)
	}
	return name, nil
}
