package session

import (
	"encoding/json"
	"fmt"

	"drawboard/internal/core/domain"
	"drawboard/pkg/validation"
)

// Envelope is the JSON form of an action.
type Envelope struct {
	Type    ActionType      `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type cursorPayload struct {
	UserID   domain.UserID `json:"userId"`
	Position domain.Point  `json:"position"`
}

type activePayload struct {
	UserID domain.UserID `json:"userId"`
	Active bool          `json:"active"`
}

// Encode converts a into its wire envelope.
func Encode(a Action) (Envelope, error) {
	var payload any
	switch act := a.(type) {
	case SetTool:
		payload = act.Tool
	case SetColor:
		payload = act.Color
	case SetSize:
		payload = act.Size
	case AddStroke:
		payload = act.Stroke
	case ReplaceStroke:
		payload = act.Stroke
	case UpdateUserCursor:
		payload = cursorPayload{UserID: act.UserID, Position: act.Position}
	case SetUserActive:
		payload = activePayload{UserID: act.UserID, Active: act.Active}
	case SetIsDrawing:
		payload = act.Drawing
	case SetCollaborationMode:
		payload = act.Mode
	case AddCollaborator:
		payload = act.Collaborator
	case RemoveCollaborator:
		payload = act.ID
	case AddPendingInvite:
		payload = act.Invite
	case ClearCanvas, ToggleCollaboration, ToggleLayerLock:
		return Envelope{Type: act.Type()}, nil
	default:
		return Envelope{}, fmt.Errorf("%w: %T", domain.ErrUnknownAction, a)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to marshal %s payload: %w", a.Type(), err)
	}
	return Envelope{Type: a.Type(), Payload: raw}, nil
}

// Decode validates an envelope and converts it into an action. Unknown
// types fail with ErrUnknownAction, malformed payloads with
// ErrInvalidPayload.
func Decode(env Envelope) (Action, error) {
	switch env.Type {
	case TypeSetTool:
		var tool domain.Tool
		if err := unmarshal(env, &tool); err != nil {
			return nil, err
		}
		if err := validation.ValidateTool(string(tool)); err != nil {
			return nil, invalid(env.Type, err)
		}
		return SetTool{Tool: tool}, nil

	case TypeSetColor:
		var color string
		if err := unmarshal(env, &color); err != nil {
			return nil, err
		}
		if err := validation.ValidateColor(color); err != nil {
			return nil, invalid(env.Type, err)
		}
		return SetColor{Color: color}, nil

	case TypeSetSize:
		var size float64
		if err := unmarshal(env, &size); err != nil {
			return nil, err
		}
		if err := validation.ValidateBrushSize(size); err != nil {
			return nil, invalid(env.Type, err)
		}
		return SetSize{Size: size}, nil

	case TypeAddStroke, TypeReplaceStroke:
		var stroke domain.Stroke
		if err := unmarshal(env, &stroke); err != nil {
			return nil, err
		}
		if err := validateStroke(stroke); err != nil {
			return nil, invalid(env.Type, err)
		}
		if env.Type == TypeAddStroke {
			return AddStroke{Stroke: stroke}, nil
		}
		return ReplaceStroke{Stroke: stroke}, nil

	case TypeClearCanvas:
		return ClearCanvas{}, nil

	case TypeUpdateUserCursor:
		var p cursorPayload
		if err := unmarshal(env, &p); err != nil {
			return nil, err
		}
		return UpdateUserCursor{UserID: p.UserID, Position: p.Position}, nil

	case TypeSetUserActive:
		var p activePayload
		if err := unmarshal(env, &p); err != nil {
			return nil, err
		}
		return SetUserActive{UserID: p.UserID, Active: p.Active}, nil

	case TypeSetIsDrawing:
		var drawing bool
		if err := unmarshal(env, &drawing); err != nil {
			return nil, err
		}
		return SetIsDrawing{Drawing: drawing}, nil

	case TypeToggleCollaboration:
		return ToggleCollaboration{}, nil

	case TypeSetCollaborationMode:
		var mode domain.CollaborationMode
		if err := unmarshal(env, &mode); err != nil {
			return nil, err
		}
		if !mode.Valid() {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidMode, mode)
		}
		return SetCollaborationMode{Mode: mode}, nil

	case TypeAddCollaborator:
		var c domain.Collaborator
		if err := unmarshal(env, &c); err != nil {
			return nil, err
		}
		if c.ID == "" {
			return nil, invalid(env.Type, fmt.Errorf("collaborator id is required"))
		}
		return AddCollaborator{Collaborator: c}, nil

	case TypeRemoveCollaborator:
		var id domain.UserID
		if err := unmarshal(env, &id); err != nil {
			return nil, err
		}
		return RemoveCollaborator{ID: id}, nil

	case TypeAddPendingInvite:
		var inv domain.PendingInvite
		if err := unmarshal(env, &inv); err != nil {
			return nil, err
		}
		return AddPendingInvite{Invite: inv}, nil

	case TypeToggleLayerLock:
		return ToggleLayerLock{}, nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownAction, env.Type)
}

// DecodeJSON decodes a raw `{"type":..,"payload":..}` document.
func DecodeJSON(data []byte) (Action, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}
	return Decode(env)
}

func unmarshal(env Envelope, v any) error {
	if len(env.Payload) == 0 {
		return invalid(env.Type, fmt.Errorf("payload is required"))
	}
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return invalid(env.Type, err)
	}
	return nil
}

func invalid(t ActionType, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrInvalidPayload, t, err)
}

func validateStroke(s domain.Stroke) error {
	if s.ID == "" {
		return fmt.Errorf("stroke id is required")
	}
	if err := validation.ValidateTool(string(s.Tool)); err != nil {
		return err
	}
	if err := validation.ValidateColor(s.Color); err != nil {
		return err
	}
	return validation.ValidateBrushSize(s.Size)
}
