package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/swiper/internal/model"
	"github.com/tinytelemetry/swiper/internal/session"
)

// refreshBody re-wraps the front item's text into the body viewport.
func (m *SwipeModel) refreshBody() {
	inner := m.cardWidth() - 4
	m.body.Width = inner
	m.body.Height = m.bodyHeight()
	if !m.snap.HasFront {
		m.body.SetContent("")
		return
	}
	m.body.SetContent(lipgloss.NewStyle().Width(inner).Render(m.snap.Front.Payload.Text))
	m.body.GotoTop()
}

// renderFrontCard draws the front card shifted by its drag displacement.
func (m *SwipeModel) renderFrontCard() string {
	item := m.snap.Front
	st := m.resolver.Tracker().State()
	width := m.cardWidth()
	inner := width - 4

	borderColor := ColorBlue
	hint := dimStyle.Render("← delete · keep →")
	switch {
	case st.Displacement.X < 0 && st.Direction == session.DirectionLeft:
		borderColor = ColorRed
		hint = deleteStyle.Render("✗ DELETE")
	case st.Displacement.X > 0 && st.Direction == session.DirectionRight:
		borderColor = ColorGreen
		hint = keepStyle.Render("✓ KEEP")
	case st.Displacement.X < 0:
		hint = deleteStyle.Faint(true).Render(dragMeter(st.Displacement.X, m.resolver.Tracker().Threshold(), "← delete"))
	case st.Displacement.X > 0:
		hint = keepStyle.Faint(true).Render(dragMeter(st.Displacement.X, m.resolver.Tracker().Threshold(), "keep →"))
	}

	age := dimStyle.Render(formatAge(m.now(), item.CreatedAt))
	top := spaceBetween(age, hint, inner)

	lines := []string{
		top,
		"",
		m.body.View(),
		"",
		renderMetrics(item.Payload.Metrics),
		renderMedia(item.Payload.Media),
	}

	style := lipgloss.NewStyle().
		Width(width-2).
		Height(m.cardHeight()-2).
		Padding(0, 1).
		Border(cardBorder).
		BorderForeground(borderColor)
	if st.Phase == session.PhaseCommitting {
		style = style.Faint(true)
	}

	card := style.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
	return lipgloss.NewStyle().MarginLeft(m.cardX() + m.offsetColumns()).Render(card)
}

// renderStackedCard draws the edge of the next card beneath the front card.
func (m *SwipeModel) renderStackedCard() string {
	if !m.snap.HasNext {
		return strings.Repeat("\n", stackHeight-1)
	}
	r := m.stackRect()
	text := firstLine(m.snap.Next.Payload.Text)
	line := dimStyle.Render("Next · ") + lipgloss.NewStyle().Foreground(ColorGray).Render(truncate(text, r.w-11))

	card := lipgloss.NewStyle().
		Width(r.w-2).
		Padding(0, 1).
		Border(cardBorder).
		BorderTop(false).
		BorderForeground(ColorGray).
		Render(line)
	// Pad to a fixed height so rows below the stack stay put.
	for lipgloss.Height(card) < stackHeight {
		card += "\n"
	}
	return lipgloss.NewStyle().MarginLeft(r.x).Render(card)
}

func dragMeter(dx, threshold float64, label string) string {
	progress := math.Min(math.Abs(dx)/threshold, 1)
	filled := int(math.Round(progress * 5))
	return label + " " + strings.Repeat("▮", filled) + strings.Repeat("▯", 5-filled)
}

func renderMetrics(pm model.PublicMetrics) string {
	parts := []string{
		"♥ " + formatCount(pm.Likes),
		"⟲ " + formatCount(pm.Reposts),
		"↩ " + formatCount(pm.Replies),
		"❝ " + formatCount(pm.Quotes),
	}
	if pm.Impressions > 0 {
		parts = append(parts, "◉ "+formatCount(pm.Impressions))
	}
	return dimStyle.Render(strings.Join(parts, "   "))
}

func renderMedia(media []model.Media) string {
	if len(media) == 0 {
		return ""
	}
	counts := map[string]int{}
	var order []string
	for _, md := range media {
		kind := md.Type
		if kind == "" {
			kind = "attachment"
		}
		if counts[kind] == 0 {
			order = append(order, kind)
		}
		counts[kind]++
	}
	parts := make([]string, 0, len(order))
	for _, kind := range order {
		label := strings.ReplaceAll(kind, "_", " ")
		if counts[kind] > 1 {
			label += "s"
		}
		parts = append(parts, fmt.Sprintf("%d %s", counts[kind], label))
	}
	return lipgloss.NewStyle().Foreground(ColorLight).Render("▣ " + strings.Join(parts, ", "))
}

func formatAge(now, t time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
	if t.Year() == now.Year() {
		return t.Format("Jan 2")
	}
	return t.Format("Jan 2, 2006")
}

func formatCount(n int64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 10_000:
		return fmt.Sprintf("%dK", n/1000)
	case n >= 1000:
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	}
	return fmt.Sprintf("%d", n)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}

// spaceBetween places left and right at the edges of width.
func spaceBetween(left, right string, width int) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}
