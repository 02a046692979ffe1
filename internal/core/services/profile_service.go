package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"drawboard/internal/core/domain"
	"drawboard/internal/core/ports"
	"drawboard/pkg/validation"

	"go.uber.org/zap"
)

const DefaultProfileKey = "collabUser"

type ProfileConfig struct {
	Key        string
	LoginDelay time.Duration
}

type profileService struct {
	kv         ports.KeyValueStore
	auth       AuthService
	key        string
	loginDelay time.Duration
	now        func() time.Time
	logger     *zap.SugaredLogger
}

func NewProfileService(kv ports.KeyValueStore, auth AuthService, cfg ProfileConfig, logger *zap.SugaredLogger) ports.ProfileService {
	if cfg.Key == "" {
		cfg.Key = DefaultProfileKey
	}
	return &profileService{
		kv:         kv,
		auth:       auth,
		key:        cfg.Key,
		loginDelay: cfg.LoginDelay,
		now:        time.Now,
		logger:     logger,
	}
}

// Load returns the stored profile. A record that does not decode into a
// usable profile is deleted and treated as signed out.
func (s *profileService) Load(ctx context.Context) (*domain.Profile, error) {
	raw, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, domain.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	var p domain.Profile
	if err := json.Unmarshal(raw, &p); err != nil || p.ID == "" || p.Name == "" {
		s.logger.Warnw("discarding malformed profile record", "key", s.key, "error", err)
		if delErr := s.kv.Delete(ctx, s.key); delErr != nil {
			return nil, fmt.Errorf("failed to delete malformed profile: %w", delErr)
		}
		return nil, nil
	}
	return &p, nil
}

func (s *profileService) Login(ctx context.Context, req ports.LoginRequest) (*domain.Profile, string, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Color == "" {
		req.Color = domain.DefaultColor
	}
	if err := validateProfileFields(req.Name, req.Email, req.Color); err != nil {
		return nil, "", err
	}

	if err := sleep(ctx, s.loginDelay); err != nil {
		return nil, "", err
	}

	now := s.now().UTC()
	p := &domain.Profile{
		ID:        strconv.FormatInt(now.UnixMilli(), 10),
		Name:      req.Name,
		Email:     req.Email,
		Color:     req.Color,
		LoginTime: now,
	}
	if err := s.save(ctx, p); err != nil {
		return nil, "", err
	}

	token, err := s.auth.GenerateToken(domain.UserID(p.ID), p.Name)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.Infow("user signed in", "profile_id", p.ID)
	return p, token, nil
}

func (s *profileService) Logout(ctx context.Context) error {
	if err := s.kv.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return nil
}

// Update merges the non-nil fields into the stored profile. Nothing is
// written when nobody is signed in.
func (s *profileService) Update(ctx context.Context, update domain.ProfileUpdate) (*domain.Profile, error) {
	p, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotAuthenticated
	}

	if update.Name != nil {
		p.Name = strings.TrimSpace(*update.Name)
	}
	if update.Email != nil {
		p.Email = strings.TrimSpace(*update.Email)
	}
	if update.Color != nil {
		p.Color = *update.Color
	}
	if err := validateProfileFields(p.Name, p.Email, p.Color); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	p.LastUpdated = &now
	if err := s.save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateSettings replaces the settings block and the drawing color. The
// profile keeps its id and login time.
func (s *profileService) UpdateSettings(ctx context.Context, settings domain.ProfileSettings, color string) (*domain.Profile, error) {
	if err := validation.ValidateTheme(string(settings.Theme)); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	p, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotAuthenticated
	}

	if color != "" {
		if err := validation.ValidateColor(color); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		p.Color = color
	}
	p.Settings = &settings
	now := s.now().UTC()
	p.LastUpdated = &now

	if err := s.save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *profileService) save(ctx context.Context, p *domain.Profile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, raw); err != nil {
		return fmt.Errorf("failed to store profile: %w", err)
	}
	return nil
}

func validateProfileFields(name, email, color string) error {
	if err := validation.ValidateDisplayName(name); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if err := validation.ValidateEmail(email); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if err := validation.ValidateColor(color); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
