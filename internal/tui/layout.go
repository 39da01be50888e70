package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/swiper/internal/session"
)

const (
	minWidth    = 50
	minHeight   = 22
	statsHeight = 4
	footerLines = 1
)

type rect struct {
	x, y, w, h int
}

func (r rect) contains(x, y int) bool {
	return x >= r.x && x < r.x+r.w && y >= r.y && y < r.y+r.h
}

func (m *SwipeModel) cardWidth() int {
	w := m.width - 4
	if w > maxCardWidth {
		w = maxCardWidth
	}
	if w < minCardWidth {
		w = minCardWidth
	}
	return w
}

func (m *SwipeModel) helpHeight() int {
	return lipgloss.Height(m.help.View(m.keys))
}

// bodyHeight is the number of post text lines visible on the front card.
func (m *SwipeModel) bodyHeight() int {
	fixed := headerHeight + 7 + stackHeight + statsHeight + footerLines + m.helpHeight()
	h := m.height - fixed
	if h > maxBodyHeight {
		h = maxBodyHeight
	}
	if h < minBodyHeight {
		h = minBodyHeight
	}
	return h
}

// cardHeight includes borders.
func (m *SwipeModel) cardHeight() int {
	return m.bodyHeight() + 7
}

func (m *SwipeModel) cardX() int {
	return (m.width - m.cardWidth()) / 2
}

// offsetColumns converts the front card's displacement into a column shift,
// clamped so the card stays on screen.
func (m *SwipeModel) offsetColumns() int {
	dx := m.resolver.Tracker().State().Displacement.X
	cols := int(dx / m.cellWidth)
	base := m.cardX()
	if base+cols < 0 {
		cols = -base
	}
	if maxX := m.width - m.cardWidth(); base+cols > maxX {
		cols = maxX - base
	}
	return cols
}

// frontRect is where the front card is currently drawn.
func (m *SwipeModel) frontRect() rect {
	return rect{x: m.cardX() + m.offsetColumns(), y: headerHeight, w: m.cardWidth(), h: m.cardHeight()}
}

// stackRect is the visible sliver of the next card.
func (m *SwipeModel) stackRect() rect {
	return rect{x: m.cardX() + 2, y: headerHeight + m.cardHeight(), w: m.cardWidth() - 4, h: stackHeight}
}

func (m *SwipeModel) hitTest(x, y int) (session.Role, bool) {
	if m.frontRect().contains(x, y) {
		return session.RoleFront, true
	}
	if m.snap.HasNext && m.stackRect().contains(x, y) {
		return session.RoleStacked, true
	}
	return 0, false
}
