package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tinytelemetry/swiper/internal/model"
	"github.com/tinytelemetry/swiper/internal/session"
)

const (
	defaultCellWidth = 8.0
	minCardWidth     = 30
	maxCardWidth     = 72
	minBodyHeight    = 3
	maxBodyHeight    = 12
	stackHeight      = 3
	headerHeight     = 2
)

// Options configures a SwipeModel.
type Options struct {
	Threshold    float64
	ExitDuration time.Duration
	// CellWidth is the number of gesture units one terminal column represents.
	CellWidth float64
	// NudgeStep is how far one keyboard drag moves the card, in gesture units.
	NudgeStep float64
}

// SwipeModel drives one swipe session: it feeds pointer and key input into
// the resolver and renders the controller's queue.
type SwipeModel struct {
	ctrl     *session.Controller
	resolver *session.Resolver
	profiles model.ProfileSource

	keys    KeyMap
	help    help.Model
	spinner spinner.Model
	body    viewport.Model

	cellWidth float64
	nudgeStep float64

	width  int
	height int

	snap       session.Snapshot
	bodyItemID string

	profile    *model.Profile
	profileErr error

	// mouseDrag is set while the held mouse button owns the gesture.
	mouseDrag bool
	// exiting is the commit whose exit transition is running.
	exiting        *session.Commit
	retryScheduled bool
	now            func() time.Time
}

// changedMsg is sent whenever the controller signals a state change.
type changedMsg struct{}

// exitDoneMsg fires when a committed card has finished leaving the screen.
type exitDoneMsg struct {
	commit *session.Commit
}

// retryMsg fires when a rate-limit window is expected to have ended.
type retryMsg struct{}

type profileLoadedMsg struct {
	profile model.Profile
	err     error
}

// NewSwipeModel creates the swipe session model. profiles may be nil.
func NewSwipeModel(ctrl *session.Controller, profiles model.ProfileSource, opts Options) *SwipeModel {
	if opts.Threshold <= 0 {
		opts.Threshold = model.DefaultSwipeThreshold
	}
	if opts.ExitDuration <= 0 {
		opts.ExitDuration = model.DefaultExitDuration
	}
	if opts.CellWidth <= 0 {
		opts.CellWidth = defaultCellWidth
	}
	if opts.NudgeStep <= 0 {
		opts.NudgeStep = opts.Threshold / 4
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = dimStyle

	return &SwipeModel{
		ctrl:      ctrl,
		resolver:  session.NewResolver(opts.Threshold, opts.ExitDuration),
		profiles:  profiles,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		spinner:   sp,
		body:      viewport.New(minCardWidth, minBodyHeight),
		cellWidth: opts.CellWidth,
		nudgeStep: opts.NudgeStep,
		now:       time.Now,
	}
}

// Init starts the session and the background listeners.
func (m *SwipeModel) Init() tea.Cmd {
	m.ctrl.Start()
	m.sync()
	return tea.Batch(
		waitForChange(m.ctrl.Changes()),
		m.loadProfileCmd(),
		m.spinner.Tick,
	)
}

// Snapshot returns the last observed queue state.
func (m *SwipeModel) Snapshot() session.Snapshot {
	return m.snap
}

// Gesture returns the front card's gesture state.
func (m *SwipeModel) Gesture() session.GestureState {
	return m.resolver.Tracker().State()
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return changedMsg{}
	}
}

func (m *SwipeModel) loadProfileCmd() tea.Cmd {
	if m.profiles == nil {
		return nil
	}
	profiles := m.profiles
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		p, err := profiles.Profile(ctx)
		return profileLoadedMsg{profile: p, err: err}
	}
}

func exitCmd(c *session.Commit, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return exitDoneMsg{commit: c}
	})
}

// sync refreshes the snapshot and rebinds the resolver to the front item.
func (m *SwipeModel) sync() {
	m.snap = m.ctrl.Snapshot()
	if m.snap.Front.ID != m.resolver.ItemID() {
		m.mouseDrag = false
	}
	if m.snap.HasFront {
		m.resolver.Bind(m.snap.Front.ID)
	} else {
		m.resolver.Bind("")
	}
	if m.snap.Front.ID != m.bodyItemID {
		m.bodyItemID = m.snap.Front.ID
		m.refreshBody()
	}
}

// scheduleRetry arms a single retry for the end of an active rate-limit window.
func (m *SwipeModel) scheduleRetry() tea.Cmd {
	if m.retryScheduled || m.snap.RateLimitedUntil.IsZero() {
		return nil
	}
	m.retryScheduled = true
	wait := m.snap.RateLimitedUntil.Sub(m.now()) + 500*time.Millisecond
	if wait < time.Second {
		wait = time.Second
	}
	return tea.Tick(wait, func(time.Time) tea.Msg { return retryMsg{} })
}
