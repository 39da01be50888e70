package session

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		dx   float64
		want Direction
	}{
		{0, DirectionNone},
		{100, DirectionNone},
		{-100, DirectionNone},
		{100.5, DirectionRight},
		{-100.5, DirectionLeft},
		{250, DirectionRight},
		{-250, DirectionLeft},
	}
	for _, tt := range tests {
		if got := Classify(tt.dx, 100); got != tt.want {
			t.Errorf("Classify(%v) = %v, want %v", tt.dx, got, tt.want)
		}
	}
}

func TestTracker_StackedCardIsInert(t *testing.T) {
	tr := NewTracker(100)
	if tr.Begin(RoleStacked, Point{X: 10, Y: 10}) {
		t.Fatal("stacked card accepted a drag")
	}
	if got := tr.Move(Point{X: 500}); got != DirectionNone {
		t.Errorf("Move on idle tracker = %v, want none", got)
	}
	if st := tr.State(); st.Displacement != (Point{}) || st.Phase != PhaseIdle {
		t.Errorf("state changed on inert card: %+v", st)
	}
}

func TestTracker_DisplacementFromOrigin(t *testing.T) {
	tr := NewTracker(100)
	if !tr.Begin(RoleFront, Point{X: 200, Y: 50}) {
		t.Fatal("front card rejected drag")
	}

	if got := tr.Move(Point{X: 260, Y: 40}); got != DirectionNone {
		t.Errorf("direction at dx=60 = %v, want none", got)
	}
	if got := tr.State().Displacement; got != (Point{X: 60, Y: -10}) {
		t.Errorf("displacement = %+v, want {60 -10}", got)
	}

	if got := tr.Move(Point{X: 320, Y: 50}); got != DirectionRight {
		t.Errorf("direction at dx=120 = %v, want right", got)
	}
	if got := tr.Move(Point{X: 50, Y: 50}); got != DirectionLeft {
		t.Errorf("direction at dx=-150 = %v, want left", got)
	}
	if tr.State().Phase != PhaseDragging {
		t.Errorf("phase = %v, want dragging", tr.State().Phase)
	}
}

func TestTracker_Nudge(t *testing.T) {
	tr := NewTracker(100)
	tr.Nudge(-60)
	if got := tr.Nudge(-60); got != DirectionLeft {
		t.Errorf("direction after two nudges = %v, want left", got)
	}
	if got := tr.State().Displacement.X; got != -120 {
		t.Errorf("displacement.x = %v, want -120", got)
	}
}

func TestTracker_BeginTakesOverKeyboardDrag(t *testing.T) {
	tr := NewTracker(100)
	tr.Nudge(40)

	if !tr.Begin(RoleFront, Point{X: 600, Y: 300}) {
		t.Fatal("front card rejected a drag during a keyboard nudge")
	}
	if got := tr.State().Displacement; got != (Point{X: 40}) {
		t.Fatalf("displacement after Begin = %+v, want {40 0}", got)
	}
	if got := tr.Move(Point{X: 600, Y: 300}); got != DirectionNone {
		t.Errorf("direction without movement = %v, want none", got)
	}
	if got := tr.Move(Point{X: 670, Y: 300}); got != DirectionRight {
		t.Errorf("direction at dx=110 = %v, want right", got)
	}
}

func TestTracker_BeginIgnoredWhileCommitting(t *testing.T) {
	tr := NewTracker(100)
	tr.commit(DirectionLeft, Point{X: -300})
	if tr.Begin(RoleFront, Point{X: 10}) {
		t.Fatal("Begin accepted while committing")
	}
	if got := tr.State().Displacement.X; got != -300 {
		t.Errorf("displacement = %v, want -300", got)
	}
}
