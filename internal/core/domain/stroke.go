package domain

type StrokeID string

type Tool string

const (
	ToolDraw  Tool = "draw"
	ToolErase Tool = "erase"
)

// Valid reports whether t is one of the known tools.
func (t Tool) Valid() bool {
	return t == ToolDraw || t == ToolErase
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke is one continuous drawn or erased line. Strokes render in
// insertion order; a stroke with fewer than two points draws nothing.
type Stroke struct {
	ID     StrokeID `json:"id"`
	Tool   Tool     `json:"tool"`
	Color  string   `json:"color"`
	Size   float64  `json:"size"`
	Points []Point  `json:"points"`
	UserID UserID   `json:"userId"`
}

// Renderable reports whether the stroke contributes pixels.
func (s Stroke) Renderable() bool {
	return len(s.Points) >= 2
}

// Clone returns a deep copy of the stroke.
func (s Stroke) Clone() Stroke {
	if s.Points != nil {
		s.Points = append([]Point(nil), s.Points...)
	}
	return s
}
