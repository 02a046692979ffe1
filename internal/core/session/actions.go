package session

import "drawboard/internal/core/domain"

// ActionType is the wire name of an action.
type ActionType string

const (
	TypeSetTool              ActionType = "SET_TOOL"
	TypeSetColor             ActionType = "SET_COLOR"
	TypeSetSize              ActionType = "SET_SIZE"
	TypeAddStroke            ActionType = "ADD_STROKE"
	TypeReplaceStroke        ActionType = "REPLACE_STROKE"
	TypeClearCanvas          ActionType = "CLEAR_CANVAS"
	TypeUpdateUserCursor     ActionType = "UPDATE_USER_CURSOR"
	TypeSetUserActive        ActionType = "SET_USER_ACTIVE"
	TypeSetIsDrawing         ActionType = "SET_IS_DRAWING"
	TypeToggleCollaboration  ActionType = "TOGGLE_COLLABORATION"
	TypeSetCollaborationMode ActionType = "SET_COLLABORATION_MODE"
	TypeAddCollaborator      ActionType = "ADD_COLLABORATOR"
	TypeRemoveCollaborator   ActionType = "REMOVE_COLLABORATOR"
	TypeAddPendingInvite     ActionType = "ADD_PENDING_INVITE"
	TypeToggleLayerLock      ActionType = "TOGGLE_LAYER_LOCK"
)

// Action is a closed set: only the variants declared in this file
// implement it.
type Action interface {
	Type() ActionType
	action()
}

type SetTool struct{ Tool domain.Tool }

type SetColor struct{ Color string }

type SetSize struct{ Size float64 }

type AddStroke struct{ Stroke domain.Stroke }

// ReplaceStroke swaps the stroke with the same id for an extended copy of
// it while a gesture is in progress. The search runs from the end of the
// sequence, so the in-progress stroke is normally found in one step.
type ReplaceStroke struct{ Stroke domain.Stroke }

type ClearCanvas struct{}

type UpdateUserCursor struct {
	UserID   domain.UserID
	Position domain.Point
}

type SetUserActive struct {
	UserID domain.UserID
	Active bool
}

type SetIsDrawing struct{ Drawing bool }

type ToggleCollaboration struct{}

type SetCollaborationMode struct{ Mode domain.CollaborationMode }

type AddCollaborator struct{ Collaborator domain.Collaborator }

type RemoveCollaborator struct{ ID domain.UserID }

type AddPendingInvite struct{ Invite domain.PendingInvite }

type ToggleLayerLock struct{}

func (SetTool) Type() ActionType              { return TypeSetTool }
func (SetColor) Type() ActionType             { return TypeSetColor }
func (SetSize) Type() ActionType              { return TypeSetSize }
func (AddStroke) Type() ActionType            { return TypeAddStroke }
func (ReplaceStroke) Type() ActionType        { return TypeReplaceStroke }
func (ClearCanvas) Type() ActionType          { return TypeClearCanvas }
func (UpdateUserCursor) Type() ActionType     { return TypeUpdateUserCursor }
func (SetUserActive) Type() ActionType        { return TypeSetUserActive }
func (SetIsDrawing) Type() ActionType         { return TypeSetIsDrawing }
func (ToggleCollaboration) Type() ActionType  { return TypeToggleCollaboration }
func (SetCollaborationMode) Type() ActionType { return TypeSetCollaborationMode }
func (AddCollaborator) Type() ActionType      { return TypeAddCollaborator }
func (RemoveCollaborator) Type() ActionType   { return TypeRemoveCollaborator }
func (AddPendingInvite) Type() ActionType     { return TypeAddPendingInvite }
func (ToggleLayerLock) Type() ActionType      { return TypeToggleLayerLock }

func (SetTool) action()              {}
func (SetColor) action()             {}
func (SetSize) action()              {}
func (AddStroke) action()            {}
func (ReplaceStroke) action()        {}
func (ClearCanvas) action()          {}
func (UpdateUserCursor) action()     {}
func (SetUserActive) action()        {}
func (SetIsDrawing) action()         {}
func (ToggleCollaboration) action()  {}
func (SetCollaborationMode) action() {}
func (AddCollaborator) action()      {}
func (RemoveCollaborator) action()   {}
func (AddPendingInvite) action()     {}
func (ToggleLayerLock) action()      {}
