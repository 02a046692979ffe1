package domain

import "errors"

var (
	ErrUnknownAction     = errors.New("unknown action")
	ErrInvalidPayload    = errors.New("invalid action payload")
	ErrInvalidMode       = errors.New("invalid collaboration mode")
	ErrOwnerNotRemovable = errors.New("board owner cannot be removed")
	ErrOwnerNotAddable   = errors.New("board already has an owner")
	ErrLayerLocked       = errors.New("layer is locked")
	ErrNoStore           = errors.New("session store not configured")
	ErrStoreClosed       = errors.New("session store closed")
	ErrProfileNotFound   = errors.New("profile not found")
	ErrNotAuthenticated  = errors.New("not authenticated")
	ErrSnapshotNotFound  = errors.New("snapshot not found")
	ErrKeyNotFound       = errors.New("key not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrActionNotAllowed  = errors.New("action not allowed from clients")
	ErrDuplicateStroke   = errors.New("stroke id already on the board")
)
