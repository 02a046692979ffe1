package ports

import (
	"context"
	"io"

	"drawboard/internal/core/domain"
	"drawboard/internal/core/session"
)

type LoginRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Color string `json:"color"`
}

type ProfileService interface {
	// Load returns the stored profile, or nil when nobody is signed in.
	Load(ctx context.Context) (*domain.Profile, error)
	Login(ctx context.Context, req LoginRequest) (*domain.Profile, string, error)
	Logout(ctx context.Context) error
	Update(ctx context.Context, update domain.ProfileUpdate) (*domain.Profile, error)
	UpdateSettings(ctx context.Context, settings domain.ProfileSettings, color string) (*domain.Profile, error)
}

type BoardService interface {
	State(ctx context.Context) (domain.SessionState, error)
	Status(ctx context.Context) (domain.Status, error)
	Dispatch(ctx context.Context, action session.Action) error
	PointerDown(ctx context.Context, p domain.Point) error
	PointerMove(ctx context.Context, p domain.Point) error
	PointerUp(ctx context.Context) error
	RenderPNG(ctx context.Context, w io.Writer) error
	ExportPDF(ctx context.Context, w io.Writer) error
}

type CollaborationService interface {
	Invite(ctx context.Context, email string) (domain.Collaborator, error)
	Remove(ctx context.Context, id domain.UserID) error
	ShareLink(ctx context.Context, base string) (string, error)
	Toggle(ctx context.Context) error
	SetMode(ctx context.Context, mode domain.CollaborationMode) error
	ToggleLock(ctx context.Context) error
}

type SnapshotService interface {
	Save(ctx context.Context) (string, error)
	List(ctx context.Context) ([]string, error)
	Restore(ctx context.Context, name string) error
	// Prune keeps the newest keep snapshots and deletes the rest.
	Prune(ctx context.Context, keep int) (int, error)
}
