package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// SwipePage hosts the swipe session.
type SwipePage struct {
	model   *SwipeModel
	started bool
}

// NewSwipePage wraps a swipe model as a page.
func NewSwipePage(m *SwipeModel) *SwipePage {
	return &SwipePage{model: m}
}

func (p *SwipePage) ID() string { return PageSwipe }

// Init starts the session on first entry. Returning from another page
// only refreshes the snapshot.
func (p *SwipePage) Init() tea.Cmd {
	if p.started {
		p.model.sync()
		return nil
	}
	p.started = true
	return p.model.Init()
}

func (p *SwipePage) Update(msg tea.Msg) (tea.Cmd, *PageNav) {
	if km, ok := msg.(tea.KeyMsg); ok && key.Matches(km, p.model.keys.History) {
		return nil, &PageNav{PageID: PageHistory}
	}
	_, cmd := p.model.Update(msg)
	return cmd, nil
}

func (p *SwipePage) View(_, _ int) string {
	return p.model.View()
}
