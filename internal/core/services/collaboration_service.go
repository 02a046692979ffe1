package services

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/url"
	"strings"
	"sync"
	"time"

	"drawboard/internal/core/domain"
	"drawboard/internal/core/ports"
	"drawboard/internal/core/session"
	"drawboard/pkg/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CollaborationConfig struct {
	InviteDelay time.Duration
}

type collaborationService struct {
	store       *session.Store
	inviteDelay time.Duration
	logger      *zap.SugaredLogger
	now         func() time.Time
	newID       func() domain.UserID

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

func NewCollaborationService(store *session.Store, cfg CollaborationConfig, logger *zap.SugaredLogger) ports.CollaborationService {
	return &collaborationService{
		store:       store,
		inviteDelay: cfg.InviteDelay,
		logger:      logger,
		now:         time.Now,
		newID:       func() domain.UserID { return domain.UserID(uuid.NewString()) },
		rng:         rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 1)),
	}
}

// Invite records a pending invite, waits out the simulated delivery and
// then adds the invitee as an inactive collaborator. If ctx ends during the
// wait the invite stays pending.
func (s *collaborationService) Invite(ctx context.Context, email string) (domain.Collaborator, error) {
	email = strings.TrimSpace(email)
	if err := validation.ValidateEmail(email); err != nil {
		return domain.Collaborator{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	id := s.newID()
	invite := domain.PendingInvite{ID: id, Email: email, InvitedAt: s.now().UTC()}
	if err := s.store.Dispatch(ctx, session.AddPendingInvite{Invite: invite}); err != nil {
		return domain.Collaborator{}, err
	}

	if err := sleep(ctx, s.inviteDelay); err != nil {
		return domain.Collaborator{}, err
	}

	c := domain.Collaborator{
		ID:    id,
		Name:  email[:strings.IndexByte(email, '@')],
		Email: email,
		Color: s.randomColor(),
	}
	if err := s.store.Dispatch(ctx, session.AddCollaborator{Collaborator: c}); err != nil {
		return domain.Collaborator{}, err
	}

	s.logger.Infow("collaborator invited", "collaborator_id", id)
	return c, nil
}

func (s *collaborationService) Remove(ctx context.Context, id domain.UserID) error {
	return s.store.Dispatch(ctx, session.RemoveCollaborator{ID: id})
}

// ShareLink adds collab=true and the current mode to base, keeping any
// query it already has.
func (s *collaborationService) ShareLink(ctx context.Context, base string) (string, error) {
	if err := validation.ValidateURL(base); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	status, err := s.store.Status()
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("collab", "true")
	q.Set("mode", string(status.CollaborationMode))
	u.RawQuery = q.Encode()
	u.Fragment = ""
	return u.String(), nil
}

func (s *collaborationService) Toggle(ctx context.Context) error {
	return s.store.Dispatch(ctx, session.ToggleCollaboration{})
}

func (s *collaborationService) SetMode(ctx context.Context, mode domain.CollaborationMode) error {
	return s.store.Dispatch(ctx, session.SetCollaborationMode{Mode: mode})
}

func (s *collaborationService) ToggleLock(ctx context.Context) error {
	return s.store.Dispatch(ctx, session.ToggleLayerLock{})
}

func (s *collaborationService) randomColor() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("#%06x", s.rng.IntN(0x1000000))
}
