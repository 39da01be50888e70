package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/swiper/internal/model"
)

const historyLimit = 100

// DeletionLister reads the service's delete audit.
type DeletionLister interface {
	RecentDeletions(ctx context.Context, limit int) ([]model.Deletion, error)
}

// HistoryPage lists recent delete attempts recorded by the service.
type HistoryPage struct {
	source  DeletionLister
	keys    KeyMap
	vp      viewport.Model
	entries []model.Deletion
	err     error
	loading bool
	width   int
	height  int
}

type deletionsLoadedMsg struct {
	entries []model.Deletion
	err     error
}

// NewHistoryPage creates the history page. source may be nil when the
// service is not reachable.
func NewHistoryPage(source DeletionLister) *HistoryPage {
	return &HistoryPage{
		source: source,
		keys:   DefaultKeyMap(),
		vp:     viewport.New(0, 0),
	}
}

func (p *HistoryPage) ID() string { return PageHistory }

// Init reloads the audit every time the page is shown.
func (p *HistoryPage) Init() tea.Cmd {
	if p.source == nil {
		return nil
	}
	p.loading = true
	source := p.source
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		entries, err := source.RecentDeletions(ctx, historyLimit)
		return deletionsLoadedMsg{entries: entries, err: err}
	}
}

func (p *HistoryPage) Update(msg tea.Msg) (tea.Cmd, *PageNav) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.width = msg.Width
		p.height = msg.Height
		p.vp.Width = msg.Width - 4
		p.vp.Height = max(msg.Height-6, 1)
		p.vp.SetContent(p.renderEntries())

	case deletionsLoadedMsg:
		p.loading = false
		p.entries = msg.entries
		p.err = msg.err
		p.vp.SetContent(p.renderEntries())
		p.vp.GotoTop()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, p.keys.ForceQuit), key.Matches(msg, p.keys.Quit):
			return tea.Quit, nil
		case key.Matches(msg, p.keys.Back), key.Matches(msg, p.keys.History):
			return nil, &PageNav{PageID: PageSwipe}
		case key.Matches(msg, p.keys.Retry):
			return p.Init(), nil
		}
		var cmd tea.Cmd
		p.vp, cmd = p.vp.Update(msg)
		return cmd, nil

	case tea.MouseMsg:
		var cmd tea.Cmd
		p.vp, cmd = p.vp.Update(msg)
		return cmd, nil
	}
	return nil, nil
}

func (p *HistoryPage) View(width, height int) string {
	if width <= 0 || height <= 0 {
		return "Initializing..."
	}

	header := titleStyle.Render("Delete history")
	status := dimStyle.Render("↑/↓: scroll · r: reload · esc: back · q: quit")

	var body string
	switch {
	case p.source == nil:
		body = dimStyle.Render("History is kept by the swiper service, which is not connected.")
	case p.loading && len(p.entries) == 0:
		body = dimStyle.Render("Loading...")
	default:
		body = p.vp.View()
	}

	frame := lipgloss.NewStyle().
		Width(width-2).
		Height(max(height-4, 1)).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBlue).
		Render(body)

	return lipgloss.JoinVertical(lipgloss.Left, header, frame, status)
}

func (p *HistoryPage) renderEntries() string {
	if p.err != nil {
		return deleteStyle.Render("Couldn't load history: ") + p.err.Error()
	}
	if len(p.entries) == 0 {
		return dimStyle.Render("No deletions recorded yet.")
	}

	var b strings.Builder
	for _, d := range p.entries {
		mark := keepStyle.Render("✓")
		detail := ""
		if !d.Deleted {
			mark = deleteStyle.Render("✗")
			detail = "  " + dimStyle.Render(truncate(d.Error, max(p.vp.Width-40, 10)))
		}
		fmt.Fprintf(&b, "%s  %s  %s%s\n",
			mark,
			dimStyle.Render(d.CreatedAt.Local().Format("Jan 02 15:04:05")),
			d.ItemID,
			detail,
		)
	}
	return strings.TrimRight(b.String(), "\n")
}
