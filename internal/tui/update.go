package tui

import (
	"errors"
	"log"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tinytelemetry/swiper/internal/session"
)

// Update handles messages
func (m *SwipeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.refreshBody()
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKeyPress(msg)

	case tea.MouseMsg:
		return m, m.handleMouseEvent(msg)

	case changedMsg:
		m.sync()
		return m, tea.Batch(waitForChange(m.ctrl.Changes()), m.scheduleRetry())

	case exitDoneMsg:
		m.completeExit(msg.commit)
		return m, nil

	case retryMsg:
		m.retryScheduled = false
		m.ctrl.Retry()
		m.sync()
		return m, m.scheduleRetry()

	case profileLoadedMsg:
		if msg.err != nil {
			m.profileErr = msg.err
			log.Printf("tui: profile lookup failed: %v", msg.err)
			return m, nil
		}
		p := msg.profile
		m.profile = &p
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *SwipeModel) handleKeyPress(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.ForceQuit), key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.refreshBody()
	case key.Matches(msg, m.keys.Delete):
		return m.trigger(session.OutcomeDelete)
	case key.Matches(msg, m.keys.Keep):
		return m.trigger(session.OutcomeKeep)
	case key.Matches(msg, m.keys.NudgeLeft):
		m.nudge(-m.nudgeStep)
	case key.Matches(msg, m.keys.NudgeRight):
		m.nudge(m.nudgeStep)
	case key.Matches(msg, m.keys.Release):
		return m.release()
	case key.Matches(msg, m.keys.Retry):
		m.ctrl.Retry()
		m.sync()
	case key.Matches(msg, m.keys.ScrollUp):
		m.body.LineUp(1)
	case key.Matches(msg, m.keys.ScrollDown):
		m.body.LineDown(1)
	}
	return nil
}

func (m *SwipeModel) handleMouseEvent(msg tea.MouseMsg) tea.Cmd {
	tracker := m.resolver.Tracker()
	pointer := m.pointer(msg.X, msg.Y)

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.body.LineUp(1)
		case tea.MouseButtonWheelDown:
			m.body.LineDown(1)
		case tea.MouseButtonLeft:
			if role, ok := m.hitTest(msg.X, msg.Y); ok && m.snap.HasFront {
				m.mouseDrag = tracker.Begin(role, pointer)
			}
		}
	case tea.MouseActionMotion:
		if m.mouseDrag {
			tracker.Move(pointer)
		}
	case tea.MouseActionRelease:
		if !m.mouseDrag {
			return nil
		}
		m.mouseDrag = false
		tracker.Move(pointer)
		return m.release()
	}
	return nil
}

// pointer converts a terminal cell into gesture units.
func (m *SwipeModel) pointer(x, y int) session.Point {
	return session.Point{X: float64(x) * m.cellWidth, Y: float64(y) * m.cellWidth * 2}
}

func (m *SwipeModel) trigger(outcome session.Outcome) tea.Cmd {
	c := m.resolver.Trigger(outcome)
	if c == nil {
		return nil
	}
	m.exiting = c
	return exitCmd(c, m.resolver.ExitDuration())
}

func (m *SwipeModel) nudge(dx float64) {
	if !m.snap.HasFront || m.resolver.Pending() {
		return
	}
	m.resolver.Tracker().Nudge(dx)
}

func (m *SwipeModel) release() tea.Cmd {
	_, c := m.resolver.Release()
	if c == nil {
		return nil
	}
	m.exiting = c
	return exitCmd(c, m.resolver.ExitDuration())
}

// completeExit applies a commit once its exit transition has elapsed.
// Stale or repeated commits are dropped by the resolver.
func (m *SwipeModel) completeExit(c *session.Commit) {
	_, err := m.resolver.Complete(c, m.ctrl)
	if err != nil && !errors.Is(err, session.ErrEmptyQueue) {
		log.Printf("tui: commit %s for %s failed: %v", c.Outcome, c.ItemID, err)
	}
	if m.exiting == c {
		m.exiting = nil
	}
	m.mouseDrag = false
	m.sync()
}
