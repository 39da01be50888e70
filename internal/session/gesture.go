package session

import "fmt"

// Phase is the gesture state of the front item.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseDragging
	PhaseCommitting
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDragging:
		return "dragging"
	case PhaseCommitting:
		return "committing"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Direction is the advisory swipe direction shown while dragging.
type Direction int

const (
	DirectionNone Direction = iota
	DirectionLeft
	DirectionRight
)

func (d Direction) String() string {
	switch d {
	case DirectionLeft:
		return "left"
	case DirectionRight:
		return "right"
	}
	return "none"
}

// Role distinguishes the interactive front card from cards stacked behind it.
type Role int

const (
	RoleFront Role = iota
	RoleStacked
)

// Point is a pointer position or a displacement in gesture units.
type Point struct {
	X, Y float64
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// GestureState is a read-only view of a Tracker.
type GestureState struct {
	Displacement Point
	Phase        Phase
	Direction    Direction
}

// Classify maps a horizontal displacement to a direction. Values exactly on
// the threshold are not a swipe.
func Classify(dx, threshold float64) Direction {
	switch {
	case dx > threshold:
		return DirectionRight
	case dx < -threshold:
		return DirectionLeft
	}
	return DirectionNone
}

// Tracker turns pointer movement on the front card into a displacement and
// an advisory direction. It never commits anything on its own.
type Tracker struct {
	threshold    float64
	origin       Point
	displacement Point
	phase        Phase
	direction    Direction
}

// NewTracker creates an idle tracker.
func NewTracker(threshold float64) *Tracker {
	return &Tracker{threshold: threshold}
}

// Threshold returns the swipe threshold in gesture units.
func (t *Tracker) Threshold() float64 { return t.threshold }

// Begin starts a drag at pointer, or takes over a keyboard drag in
// progress so the displacement carries on from pointer. Stacked cards and
// cards already committing ignore it.
func (t *Tracker) Begin(role Role, pointer Point) bool {
	if role != RoleFront || t.phase == PhaseCommitting {
		return false
	}
	t.origin = pointer.Sub(t.displacement)
	t.phase = PhaseDragging
	return true
}

// Move updates the displacement for an active drag and returns the
// current direction.
func (t *Tracker) Move(pointer Point) Direction {
	if t.phase != PhaseDragging {
		return t.direction
	}
	t.displacement = pointer.Sub(t.origin)
	t.direction = Classify(t.displacement.X, t.threshold)
	return t.direction
}

// Nudge shifts the displacement by dx as if the pointer moved, starting a
// drag when idle. Used for keyboard dragging.
func (t *Tracker) Nudge(dx float64) Direction {
	if t.phase == PhaseIdle {
		t.origin = Point{}
		t.phase = PhaseDragging
	}
	if t.phase != PhaseDragging {
		return t.direction
	}
	return t.Move(Point{X: t.origin.X + t.displacement.X + dx, Y: t.origin.Y + t.displacement.Y})
}

// State returns a copy of the current gesture state.
func (t *Tracker) State() GestureState {
	return GestureState{
		Displacement: t.displacement,
		Phase:        t.phase,
		Direction:    t.direction,
	}
}

// Reset returns the tracker to idle at the origin.
func (t *Tracker) Reset() {
	t.origin = Point{}
	t.displacement = Point{}
	t.phase = PhaseIdle
	t.direction = DirectionNone
}

func (t *Tracker) commit(d Direction, displacement Point) {
	t.phase = PhaseCommitting
	t.direction = d
	t.displacement = displacement
}
