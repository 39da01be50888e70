package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// View renders the swipe session
func (m *SwipeModel) View() string {
	if m.width <= 0 || m.height <= 0 {
		return "Initializing..."
	}
	if m.height < minHeight || m.width < minWidth {
		return fmt.Sprintf("Terminal too small. Resize to at least %dx%d.", minWidth, minHeight)
	}

	var content string
	switch {
	case m.snap.HasFront:
		content = m.renderDeck()
	case m.snap.Failed():
		content = m.renderScreen(m.renderErrorScreen())
	case m.snap.Terminal():
		content = m.renderScreen(m.renderDoneScreen())
	default:
		content = m.renderScreen(m.spinner.View() + " Loading posts...")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		"",
		content,
		m.renderFooter(),
		m.help.View(m.keys),
	)
}

// renderHeader is a single line: account on the left, mode and counters on the right.
func (m *SwipeModel) renderHeader() string {
	var who string
	switch {
	case m.profile != nil:
		who = boldStyle.Render(m.profile.Name) + " " + dimStyle.Render("@"+m.profile.Username)
	case m.profileErr != nil:
		who = dimStyle.Render("profile unavailable")
	case m.profiles != nil:
		who = dimStyle.Render("loading profile...")
	}

	mode := keepStyle.Render("● live")
	if m.snap.Fallback {
		mode = lipgloss.NewStyle().Foreground(ColorYellow).Render("● sample")
	}
	c := m.snap.Counters
	counts := deleteStyle.Render(fmt.Sprintf("%d deleted", c.Deleted)) +
		dimStyle.Render(" · ") +
		keepStyle.Render(fmt.Sprintf("%d kept", c.Kept))

	right := mode + dimStyle.Render("  ") + counts
	left := titleStyle.Render("swiper") + "  " + who
	if lipgloss.Width(left)+lipgloss.Width(right)+1 > m.width {
		left = titleStyle.Render("swiper")
	}
	return spaceBetween(left, right, m.width)
}

// renderDeck stacks the front card, the next card and the session chart.
func (m *SwipeModel) renderDeck() string {
	stats := renderSessionStats(m.snap.Counters, statsHeight)
	stats = lipgloss.NewStyle().
		MarginLeft(m.cardX()).
		Height(statsHeight).
		MaxHeight(statsHeight).
		Render(stats)

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderFrontCard(),
		m.renderStackedCard(),
		stats,
	)
}

// renderScreen centers a message in the area normally used by the deck.
func (m *SwipeModel) renderScreen(body string) string {
	h := m.cardHeight() + stackHeight + statsHeight
	return lipgloss.Place(m.width, h, lipgloss.Center, lipgloss.Center, body)
}

func (m *SwipeModel) renderDoneScreen() string {
	c := m.snap.Counters
	lines := []string{
		titleStyle.Render("All done!"),
		"",
		fmt.Sprintf("You reviewed %d posts: %s and %s.",
			c.Total(),
			deleteStyle.Render(fmt.Sprintf("%d deleted", c.Deleted)),
			keepStyle.Render(fmt.Sprintf("%d kept", c.Kept)),
		),
		"",
		dimStyle.Render("a: delete history · q: quit"),
	}
	return lipgloss.JoinVertical(lipgloss.Center, lines...)
}

func (m *SwipeModel) renderErrorScreen() string {
	title := "Couldn't load posts"
	if m.snap.Fallback {
		title = "Couldn't reach the service"
	}
	errText := ""
	if m.snap.Err != nil {
		errText = m.snap.Err.Error()
	}
	wrapped := lipgloss.NewStyle().Width(m.cardWidth()).Foreground(ColorLight).Render(errText)

	var action string
	if !m.snap.RateLimitedUntil.IsZero() {
		action = warningStyle.Render("Rate limited, retrying in " + formatWait(m.snap.RateLimitedUntil.Sub(m.now())))
	} else if m.snap.Fallback {
		action = dimStyle.Render("Sample posts are shown while the service is offline. q: quit")
	} else {
		action = dimStyle.Render("r: retry · q: quit")
	}

	return lipgloss.JoinVertical(lipgloss.Center,
		deleteStyle.Render(title),
		"",
		wrapped,
		"",
		action,
	)
}

// renderFooter reports pagination and rate-limit state.
func (m *SwipeModel) renderFooter() string {
	var parts []string
	switch {
	case m.snap.Loading && m.snap.Len > 0:
		parts = append(parts, m.spinner.View()+" Loading more")
	case m.snap.Fallback:
		parts = append(parts, lipgloss.NewStyle().Foreground(ColorYellow).Render("Sample posts, deletes are simulated"))
	case m.snap.HasMore:
		parts = append(parts, dimStyle.Render("More available"))
	case m.snap.Started && !m.snap.Loading:
		parts = append(parts, dimStyle.Render("End of feed"))
	}
	if m.snap.Len > 0 {
		parts = append(parts, dimStyle.Render(fmt.Sprintf("%d in queue", m.snap.Len)))
	}
	if !m.snap.RateLimitedUntil.IsZero() && m.snap.HasFront {
		parts = append(parts, warningStyle.Render("rate limited for "+formatWait(m.snap.RateLimitedUntil.Sub(m.now()))))
	}
	return strings.Join(parts, dimStyle.Render(" · "))
}

func formatWait(d time.Duration) string {
	if d < time.Second {
		return "a moment"
	}
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
}
