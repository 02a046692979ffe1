package domain

type CollaborationMode string

const (
	ModeInviteOnly CollaborationMode = "invite-only"
	ModeOpen       CollaborationMode = "open"
	ModeViewOnly   CollaborationMode = "view-only"
)

// CollaborationModes lists the modes in display order.
var CollaborationModes = []CollaborationMode{ModeInviteOnly, ModeOpen, ModeViewOnly}

func (m CollaborationMode) Valid() bool {
	switch m {
	case ModeInviteOnly, ModeOpen, ModeViewOnly:
		return true
	}
	return false
}

// Description is the human readable access rule for the mode.
func (m CollaborationMode) Description() string {
	switch m {
	case ModeInviteOnly:
		return "Only invited users can join"
	case ModeOpen:
		return "Anyone with the link can join"
	case ModeViewOnly:
		return "Others can view but not draw"
	}
	return ""
}

// SessionState is the aggregate root of a drawing session. It is only ever
// changed by the session reducer.
type SessionState struct {
	CurrentTool          Tool              `json:"currentTool"`
	CurrentColor         string            `json:"currentColor"`
	CurrentSize          float64           `json:"currentSize"`
	Strokes              []Stroke          `json:"strokes"`
	Users                []User            `json:"users"`
	Collaborators        []Collaborator    `json:"collaborators"`
	PendingInvites       []PendingInvite   `json:"pendingInvites"`
	IsDrawing            bool              `json:"isDrawing"`
	IsLayerLocked        bool              `json:"isLayerLocked"`
	CollaborationEnabled bool              `json:"collaborationEnabled"`
	CollaborationMode    CollaborationMode `json:"collaborationMode"`
}

const (
	DefaultTool  = ToolDraw
	DefaultColor = "#3b82f6"
	DefaultSize  = 3
)

// NewSessionState returns the seeded initial state: default tool
// selection, an empty canvas, the four-user roster and the owner as sole
// collaborator.
func NewSessionState() SessionState {
	return SessionState{
		CurrentTool:  DefaultTool,
		CurrentColor: DefaultColor,
		CurrentSize:  DefaultSize,
		Strokes:      []Stroke{},
		Users: []User{
			{ID: OwnerID, Name: "You", Color: "#3b82f6", IsActive: true, Cursor: Point{X: 0, Y: 0}},
			{ID: "user2", Name: "Alice", Color: "#10b981", IsActive: true, Cursor: Point{X: 100, Y: 100}},
			{ID: "user3", Name: "Bob", Color: "#f59e0b", IsActive: false, Cursor: Point{X: 200, Y: 200}},
			{ID: "user4", Name: "Carol", Color: "#8b5cf6", IsActive: true, Cursor: Point{X: 300, Y: 300}},
		},
		Collaborators: []Collaborator{
			{ID: OwnerID, Name: "You", Color: "#3b82f6", IsActive: true, IsOwner: true},
		},
		PendingInvites:    []PendingInvite{},
		CollaborationMode: ModeInviteOnly,
	}
}

// Clone returns a deep copy that shares no slices with s.
func (s SessionState) Clone() SessionState {
	out := s
	out.Strokes = make([]Stroke, len(s.Strokes))
	for i, st := range s.Strokes {
		out.Strokes[i] = st.Clone()
	}
	out.Users = append([]User{}, s.Users...)
	out.Collaborators = append([]Collaborator{}, s.Collaborators...)
	out.PendingInvites = append([]PendingInvite{}, s.PendingInvites...)
	return out
}

// HasStroke reports whether a stroke with id is on the board.
func (s SessionState) HasStroke(id StrokeID) bool {
	for i := len(s.Strokes) - 1; i >= 0; i-- {
		if s.Strokes[i].ID == id {
			return true
		}
	}
	return false
}

// FindUser returns the user with the given id.
func (s SessionState) FindUser(id UserID) (User, bool) {
	for _, u := range s.Users {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

// ActiveUsers counts users currently online.
func (s SessionState) ActiveUsers() int {
	n := 0
	for _, u := range s.Users {
		if u.IsActive {
			n++
		}
	}
	return n
}

// Status is the derived status bar view of a session.
type Status struct {
	CurrentTool          Tool              `json:"currentTool"`
	CurrentColor         string            `json:"currentColor"`
	CurrentSize          float64           `json:"currentSize"`
	Strokes              int               `json:"strokes"`
	ActiveUsers          int               `json:"activeUsers"`
	CollaborationEnabled bool              `json:"collaborationEnabled"`
	CollaborationMode    CollaborationMode `json:"collaborationMode"`
	IsLayerLocked        bool              `json:"isLayerLocked"`
	IsDrawing            bool              `json:"isDrawing"`
}

func (s SessionState) Status() Status {
	return Status{
		CurrentTool:          s.CurrentTool,
		CurrentColor:         s.CurrentColor,
		CurrentSize:          s.CurrentSize,
		Strokes:              len(s.Strokes),
		ActiveUsers:          s.ActiveUsers(),
		CollaborationEnabled: s.CollaborationEnabled,
		CollaborationMode:    s.CollaborationMode,
		IsLayerLocked:        s.IsLayerLocked,
		IsDrawing:            s.IsDrawing,
	}
}
