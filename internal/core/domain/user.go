package domain

import "time"

type UserID string

// OwnerID is the local participant. It owns the board and is the only
// collaborator that can never be removed.
const OwnerID UserID = "user1"

// User is a live presence record: who is on the board and where their
// cursor is. Users are deactivated, never deleted.
type User struct {
	ID       UserID `json:"id"`
	Name     string `json:"name"`
	Color    string `json:"color"`
	IsActive bool   `json:"isActive"`
	Cursor   Point  `json:"cursor"`
}

// Collaborator tracks an invited or owning party, independent of presence.
type Collaborator struct {
	ID       UserID `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Color    string `json:"color"`
	IsActive bool   `json:"isActive"`
	IsOwner  bool   `json:"isOwner"`
}

type PendingInvite struct {
	ID        UserID    `json:"id"`
	Email     string    `json:"email"`
	InvitedAt time.Time `json:"invitedAt"`
}
