package session

import (
	"fmt"
	"slices"

	"drawboard/internal/core/domain"
)

// Reduce computes the state that follows applying a to state. It performs
// no I/O and never writes to state or the arrays behind its slices, so two
// reductions from the same state are independent. On error the input state
// is returned.
func Reduce(state domain.SessionState, a Action) (domain.SessionState, error) {
	next := detach(state)
	if err := apply(&next, a); err != nil {
		return state, err
	}
	return next, nil
}

// detach gives state its own copies of the slices apply appends to or
// writes by index. Strokes themselves are shared; apply only ever swaps
// whole elements.
func detach(state domain.SessionState) domain.SessionState {
	state.Strokes = slices.Clone(state.Strokes)
	state.Collaborators = slices.Clone(state.Collaborators)
	state.PendingInvites = slices.Clone(state.PendingInvites)
	return state
}

// apply mutates state in place, reusing its backing arrays. The caller must
// own those arrays. On error state is left untouched.
func apply(state *domain.SessionState, a Action) error {
	switch act := a.(type) {
	case SetTool:
		state.CurrentTool = act.Tool
	case SetColor:
		state.CurrentColor = act.Color
	case SetSize:
		state.CurrentSize = act.Size
	case AddStroke:
		state.Strokes = append(state.Strokes, act.Stroke)
	case ReplaceStroke:
		for i := len(state.Strokes) - 1; i >= 0; i-- {
			if state.Strokes[i].ID == act.Stroke.ID {
				state.Strokes[i] = act.Stroke
				break
			}
		}
	case ClearCanvas:
		state.Strokes = []domain.Stroke{}
	case UpdateUserCursor:
		state.Users = updateUser(state.Users, act.UserID, func(u *domain.User) {
			u.Cursor = act.Position
		})
	case SetUserActive:
		state.Users = updateUser(state.Users, act.UserID, func(u *domain.User) {
			u.IsActive = act.Active
		})
	case SetIsDrawing:
		state.IsDrawing = act.Drawing
	case ToggleCollaboration:
		state.CollaborationEnabled = !state.CollaborationEnabled
	case SetCollaborationMode:
		if !act.Mode.Valid() {
			return fmt.Errorf("%w: %q", domain.ErrInvalidMode, act.Mode)
		}
		state.CollaborationMode = act.Mode
	case AddCollaborator:
		if act.Collaborator.IsOwner {
			return domain.ErrOwnerNotAddable
		}
		state.Collaborators = append(state.Collaborators, act.Collaborator)
		state.PendingInvites = removeInvite(state.PendingInvites, act.Collaborator.ID)
	case RemoveCollaborator:
		out, err := removeCollaborator(state.Collaborators, act.ID)
		if err != nil {
			return err
		}
		state.Collaborators = out
	case AddPendingInvite:
		state.PendingInvites = append(state.PendingInvites, act.Invite)
	case ToggleLayerLock:
		state.IsLayerLocked = !state.IsLayerLocked
	default:
		return fmt.Errorf("%w: %T", domain.ErrUnknownAction, a)
	}
	return nil
}

// updateUser applies fn to the user with the given id on a fresh copy of
// the roster. An unknown id returns the roster untouched.
func updateUser(users []domain.User, id domain.UserID, fn func(*domain.User)) []domain.User {
	for i := range users {
		if users[i].ID != id {
			continue
		}
		out := append([]domain.User(nil), users...)
		fn(&out[i])
		return out
	}
	return users
}

func removeInvite(invites []domain.PendingInvite, id domain.UserID) []domain.PendingInvite {
	out := make([]domain.PendingInvite, 0, len(invites))
	for _, inv := range invites {
		if inv.ID != id {
			out = append(out, inv)
		}
	}
	return out
}

func removeCollaborator(collaborators []domain.Collaborator, id domain.UserID) ([]domain.Collaborator, error) {
	out := make([]domain.Collaborator, 0, len(collaborators))
	for _, c := range collaborators {
		if c.ID != id {
			out = append(out, c)
			continue
		}
		if c.IsOwner {
			return nil, domain.ErrOwnerNotRemovable
		}
	}
	return out, nil
}
