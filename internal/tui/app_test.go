package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tinytelemetry/swiper/internal/model"
)

type stubLister struct {
	entries []model.Deletion
	calls   int
}

func (s *stubLister) RecentDeletions(_ context.Context, limit int) ([]model.Deletion, error) {
	s.calls++
	if limit < len(s.entries) {
		return s.entries[:limit], nil
	}
	return s.entries, nil
}

func TestAppNavigatesToHistoryAndBack(t *testing.T) {
	m, _ := newTestModel(t, twoPageSource(), nil)
	lister := &stubLister{entries: []model.Deletion{
		{ID: "d1", ItemID: "1234", Deleted: true, CreatedAt: time.Now()},
		{ID: "d2", ItemID: "5678", Deleted: false, Error: "forbidden", CreatedAt: time.Now()},
	}}
	history := NewHistoryPage(lister)
	app := NewApp(NewSwipePage(m), history)
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	app.Update(runes("a"))
	if app.ActivePage() != PageHistory {
		t.Fatalf("active page = %q, want %q", app.ActivePage(), PageHistory)
	}

	msg := history.Init()()
	app.Update(msg)
	view := app.View()
	if !strings.Contains(view, "1234") || !strings.Contains(view, "forbidden") {
		t.Errorf("expected audit entries in history view:\n%s", view)
	}

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if app.ActivePage() != PageSwipe {
		t.Fatalf("active page = %q, want %q", app.ActivePage(), PageSwipe)
	}
	if !strings.Contains(app.View(), "first post") {
		t.Error("expected swipe view after returning")
	}
}

func TestHistoryPageWithoutService(t *testing.T) {
	p := NewHistoryPage(nil)
	if cmd := p.Init(); cmd != nil {
		t.Error("expected no fetch without a service")
	}
	if view := p.View(80, 24); !strings.Contains(view, "not connected") {
		t.Errorf("expected disconnected notice:\n%s", view)
	}
}

func TestBackgroundMessagesReachInactivePage(t *testing.T) {
	m, ctrl := newTestModel(t, twoPageSource(), nil)
	app := NewApp(NewSwipePage(m), NewHistoryPage(&stubLister{}))
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	app.Update(tea.KeyMsg{Type: tea.KeyLeft})
	commit := m.exiting
	app.Update(runes("a"))

	// The exit timer fires while the history page is showing.
	app.Update(exitDoneMsg{commit: commit})
	if got := ctrl.Counters().Deleted; got != 1 {
		t.Errorf("deleted = %d, want 1", got)
	}
}
