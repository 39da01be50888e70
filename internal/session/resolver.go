package session

import (
	"fmt"
	"time"

	"github.com/tinytelemetry/swiper/internal/model"
)

// Outcome is the resolved decision for the front item.
type Outcome int

const (
	OutcomeCancel Outcome = iota
	OutcomeDelete
	OutcomeKeep
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCancel:
		return "cancel"
	case OutcomeDelete:
		return "delete"
	case OutcomeKeep:
		return "keep"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// exitOffset is the displacement a programmatic trigger jumps the card to.
const exitOffset = 300.0

// Queue is the part of the Controller the resolver commits into.
type Queue interface {
	Current() (model.Item, bool)
	Advance(outcome Outcome) error
}

// Commit is a pending decision waiting for its exit transition to finish.
type Commit struct {
	ItemID  string
	Outcome Outcome
	seq     uint64
}

// Resolver maps a released gesture to an outcome and guarantees that each
// Keep/Delete reaches the queue exactly once, after the exit transition.
// It is owned by the UI loop and is not safe for concurrent use.
type Resolver struct {
	tracker *Tracker
	exit    time.Duration
	itemID  string
	pending *Commit
	seq     uint64
}

// NewResolver creates a resolver with its own tracker.
func NewResolver(threshold float64, exit time.Duration) *Resolver {
	return &Resolver{
		tracker: NewTracker(threshold),
		exit:    exit,
	}
}

// Tracker returns the gesture tracker of the bound item.
func (r *Resolver) Tracker() *Tracker { return r.tracker }

// ExitDuration is how long the caller must wait before calling Complete.
func (r *Resolver) ExitDuration() time.Duration { return r.exit }

// ItemID returns the id of the bound front item.
func (r *Resolver) ItemID() string { return r.itemID }

// Bind attaches the resolver to a front item. Changing the item resets
// the gesture and drops any pending commit for the old item.
func (r *Resolver) Bind(itemID string) {
	if itemID == r.itemID {
		return
	}
	r.itemID = itemID
	r.pending = nil
	r.tracker.Reset()
}

// Release resolves an active drag. Cancel snaps the card back; Keep and
// Delete enter the committing phase and return the pending commit.
func (r *Resolver) Release() (Outcome, *Commit) {
	st := r.tracker.State()
	if st.Phase != PhaseDragging {
		return OutcomeCancel, nil
	}

	var outcome Outcome
	switch Classify(st.Displacement.X, r.tracker.Threshold()) {
	case DirectionRight:
		outcome = OutcomeKeep
	case DirectionLeft:
		outcome = OutcomeDelete
	default:
		r.tracker.Reset()
		return OutcomeCancel, nil
	}
	return outcome, r.begin(outcome, st.Displacement)
}

// Trigger commits outcome without a drag, taking the same exit path as a
// swipe. It returns nil while a commit is already pending.
func (r *Resolver) Trigger(outcome Outcome) *Commit {
	if r.itemID == "" || r.tracker.State().Phase == PhaseCommitting {
		return nil
	}
	switch outcome {
	case OutcomeKeep:
		return r.begin(outcome, Point{X: exitOffset})
	case OutcomeDelete:
		return r.begin(outcome, Point{X: -exitOffset})
	}
	return nil
}

func (r *Resolver) begin(outcome Outcome, displacement Point) *Commit {
	if r.itemID == "" || r.pending != nil {
		return nil
	}
	dir := DirectionRight
	if outcome == OutcomeDelete {
		dir = DirectionLeft
	}
	r.tracker.commit(dir, displacement)
	r.seq++
	r.pending = &Commit{ItemID: r.itemID, Outcome: outcome, seq: r.seq}
	return r.pending
}

// Pending reports whether a commit is waiting on its exit transition.
func (r *Resolver) Pending() bool { return r.pending != nil }

// Complete applies c to q once the exit transition has elapsed. Stale or
// repeated commits are ignored and report false.
func (r *Resolver) Complete(c *Commit, q Queue) (bool, error) {
	if c == nil || r.pending == nil || c.seq != r.pending.seq || c.ItemID != r.itemID {
		return false, nil
	}
	r.pending = nil

	front, ok := q.Current()
	if !ok || front.ID != c.ItemID {
		r.tracker.Reset()
		return false, nil
	}
	if err := q.Advance(c.Outcome); err != nil {
		r.tracker.Reset()
		return false, err
	}
	return true, nil
}
