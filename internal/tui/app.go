package tui

import tea "github.com/charmbracelet/bubbletea"

// App is the top-level Bubble Tea model that routes between pages.
type App struct {
	pages      map[string]Page
	activePage string
	width      int
	height     int
}

// NewApp creates a new App with the given pages. The first page is the default.
func NewApp(pages ...Page) *App {
	pageMap := make(map[string]Page, len(pages))
	var firstID string
	for i, p := range pages {
		pageMap[p.ID()] = p
		if i == 0 {
			firstID = p.ID()
		}
	}
	return &App{
		pages:      pageMap,
		activePage: firstID,
	}
}

// ActivePage returns the id of the page currently shown.
func (a *App) ActivePage() string {
	return a.activePage
}

func (a *App) Init() tea.Cmd {
	if p, ok := a.pages[a.activePage]; ok {
		return p.Init()
	}
	return nil
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Pass WindowSizeMsg to all pages so they can track dimensions.
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		a.width = wsm.Width
		a.height = wsm.Height
		var cmds []tea.Cmd
		for _, p := range a.pages {
			cmd, _ := p.Update(wsm)
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)
	}

	// Keys and mouse go to the active page; everything else is background
	// traffic (session changes, timers) that must reach its owner even
	// while another page is showing.
	switch msg.(type) {
	case tea.KeyMsg, tea.MouseMsg:
	default:
		var cmds []tea.Cmd
		for id, p := range a.pages {
			if id == a.activePage {
				continue
			}
			if cmd, _ := p.Update(msg); cmd != nil {
				cmds = append(cmds, cmd)
			}
		}
		if p, ok := a.pages[a.activePage]; ok {
			cmd, nav := p.Update(msg)
			cmds = append(cmds, cmd)
			return a, tea.Batch(append(cmds, a.navigate(nav))...)
		}
		return a, tea.Batch(cmds...)
	}

	p, ok := a.pages[a.activePage]
	if !ok {
		return a, nil
	}

	cmd, nav := p.Update(msg)
	return a, tea.Batch(cmd, a.navigate(nav))
}

// navigate switches pages and calls the new page's Init on every visit.
func (a *App) navigate(nav *PageNav) tea.Cmd {
	if nav == nil {
		return nil
	}
	if _, exists := a.pages[nav.PageID]; !exists {
		return nil
	}
	a.activePage = nav.PageID
	return a.pages[a.activePage].Init()
}

func (a *App) View() string {
	if p, ok := a.pages[a.activePage]; ok {
		return p.View(a.width, a.height)
	}
	return "No active page"
}
