package session

import (
	"testing"
	"time"

	"github.com/tinytelemetry/swiper/internal/model"
)

type fakeQueue struct {
	items    []model.Item
	advances []Outcome
}

func (q *fakeQueue) Current() (model.Item, bool) {
	if len(q.items) == 0 {
		return model.Item{}, false
	}
	return q.items[0], true
}

func (q *fakeQueue) Advance(o Outcome) error {
	if len(q.items) == 0 {
		return ErrEmptyQueue
	}
	q.items = q.items[1:]
	q.advances = append(q.advances, o)
	return nil
}

func newFakeQueue(ids ...string) *fakeQueue {
	q := &fakeQueue{}
	for _, id := range ids {
		q.items = append(q.items, model.Item{ID: id})
	}
	return q
}

func drag(r *Resolver, dx float64) (Outcome, *Commit) {
	r.Tracker().Begin(RoleFront, Point{X: 500, Y: 300})
	r.Tracker().Move(Point{X: 500 + dx, Y: 300})
	return r.Release()
}

func TestRelease_WithinThresholdCancels(t *testing.T) {
	for _, dx := range []float64{-100, -99, 0, 42, 100} {
		r := NewResolver(100, 300*time.Millisecond)
		r.Bind("a")

		outcome, commit := drag(r, dx)
		if outcome != OutcomeCancel || commit != nil {
			t.Errorf("dx=%v: got (%v, %v), want cancel with no commit", dx, outcome, commit)
		}
		st := r.Tracker().State()
		if st.Displacement != (Point{}) {
			t.Errorf("dx=%v: displacement = %+v, want origin", dx, st.Displacement)
		}
		if st.Phase != PhaseIdle {
			t.Errorf("dx=%v: phase = %v, want idle", dx, st.Phase)
		}
	}
}

func TestRelease_PastThresholdCommits(t *testing.T) {
	tests := []struct {
		dx   float64
		want Outcome
	}{
		{-101, OutcomeDelete},
		{-400, OutcomeDelete},
		{101, OutcomeKeep},
		{400, OutcomeKeep},
	}
	for _, tt := range tests {
		r := NewResolver(100, 300*time.Millisecond)
		r.Bind("a")
		q := newFakeQueue("a", "b")

		outcome, commit := drag(r, tt.dx)
		if outcome != tt.want {
			t.Fatalf("dx=%v: outcome = %v, want %v", tt.dx, outcome, tt.want)
		}
		if commit == nil || commit.ItemID != "a" {
			t.Fatalf("dx=%v: commit = %+v, want pending commit for a", tt.dx, commit)
		}
		if r.Tracker().State().Phase != PhaseCommitting {
			t.Fatalf("dx=%v: phase = %v, want committing", tt.dx, r.Tracker().State().Phase)
		}
		if len(q.advances) != 0 {
			t.Fatalf("dx=%v: queue mutated before exit transition", tt.dx)
		}

		ok, err := r.Complete(commit, q)
		if err != nil || !ok {
			t.Fatalf("dx=%v: Complete = (%v, %v), want (true, nil)", tt.dx, ok, err)
		}
		if len(q.advances) != 1 || q.advances[0] != tt.want {
			t.Errorf("dx=%v: advances = %v, want [%v]", tt.dx, q.advances, tt.want)
		}
	}
}

func TestCommitting_IsIdempotent(t *testing.T) {
	r := NewResolver(100, 300*time.Millisecond)
	r.Bind("a")
	q := newFakeQueue("a", "b", "c")

	_, commit := drag(r, -150)

	// Everything during the exit transition is ignored.
	if again := r.Trigger(OutcomeDelete); again != nil {
		t.Error("Trigger while committing returned a commit")
	}
	if again := r.Trigger(OutcomeKeep); again != nil {
		t.Error("Trigger(keep) while committing returned a commit")
	}
	if outcome, again := r.Release(); outcome != OutcomeCancel || again != nil {
		t.Error("Release while committing produced a commit")
	}
	if r.Tracker().Begin(RoleFront, Point{}) {
		t.Error("Begin accepted a drag while committing")
	}

	if ok, _ := r.Complete(commit, q); !ok {
		t.Fatal("first Complete was ignored")
	}
	if ok, _ := r.Complete(commit, q); ok {
		t.Fatal("second Complete applied the commit again")
	}
	if len(q.advances) != 1 {
		t.Fatalf("advances = %d, want 1", len(q.advances))
	}
	if front, _ := q.Current(); front.ID != "b" {
		t.Errorf("front = %q, want b", front.ID)
	}
}

func TestTrigger_MatchesSwipePath(t *testing.T) {
	r := NewResolver(100, 300*time.Millisecond)
	r.Bind("a")
	q := newFakeQueue("a")

	commit := r.Trigger(OutcomeKeep)
	if commit == nil {
		t.Fatal("Trigger returned nil")
	}
	st := r.Tracker().State()
	if st.Phase != PhaseCommitting || st.Direction != DirectionRight || st.Displacement.X != 300 {
		t.Errorf("state after trigger = %+v", st)
	}
	if len(q.advances) != 0 {
		t.Fatal("Trigger mutated the queue before the exit transition")
	}
	if ok, _ := r.Complete(commit, q); !ok {
		t.Fatal("Complete ignored a triggered commit")
	}
	if len(q.advances) != 1 || q.advances[0] != OutcomeKeep {
		t.Errorf("advances = %v, want [keep]", q.advances)
	}
}

func TestTrigger_CancelIsNotACommit(t *testing.T) {
	r := NewResolver(100, 300*time.Millisecond)
	r.Bind("a")
	if c := r.Trigger(OutcomeCancel); c != nil {
		t.Fatal("Trigger(cancel) returned a commit")
	}
}

func TestTrigger_NoFrontItem(t *testing.T) {
	r := NewResolver(100, 300*time.Millisecond)
	if c := r.Trigger(OutcomeDelete); c != nil {
		t.Fatal("Trigger with no bound item returned a commit")
	}
}

func TestComplete_StaleAfterRebind(t *testing.T) {
	r := NewResolver(100, 300*time.Millisecond)
	r.Bind("a")
	q := newFakeQueue("a", "b")

	commit := r.Trigger(OutcomeDelete)
	r.Bind("b")

	if ok, _ := r.Complete(commit, q); ok {
		t.Fatal("stale commit was applied after the front item changed")
	}
	if len(q.advances) != 0 {
		t.Fatalf("advances = %v, want none", q.advances)
	}
	if r.Tracker().State().Phase != PhaseIdle {
		t.Errorf("phase after rebind = %v, want idle", r.Tracker().State().Phase)
	}
}

func TestComplete_FrontMismatch(t *testing.T) {
	r := NewResolver(100, 300*time.Millisecond)
	r.Bind("a")
	q := newFakeQueue("z")

	commit := r.Trigger(OutcomeKeep)
	if ok, _ := r.Complete(commit, q); ok {
		t.Fatal("commit applied to a different front item")
	}
	if len(q.advances) != 0 {
		t.Fatalf("advances = %v, want none", q.advances)
	}
}
