package tui

import (
	"fmt"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/swiper/internal/session"
)

var (
	deletedBarStyle = lipgloss.NewStyle().Foreground(ColorRed).Background(ColorRed)
	keptBarStyle    = lipgloss.NewStyle().Foreground(ColorGreen).Background(ColorGreen)
)

// renderSessionStats draws the deleted/kept bar chart with its legend.
func renderSessionStats(c session.Counters, height int) string {
	if c.Total() == 0 {
		return dimStyle.Render("No decisions yet")
	}

	bc := barchart.New(9, height,
		barchart.WithBarGap(1),
		barchart.WithBarWidth(4),
		barchart.WithNoAxis(),
	)
	bc.Push(barchart.BarData{
		Label: "",
		Values: []barchart.BarValue{
			{Name: "Deleted", Value: float64(c.Deleted), Style: deletedBarStyle},
		},
	})
	bc.Push(barchart.BarData{
		Label: "",
		Values: []barchart.BarValue{
			{Name: "Kept", Value: float64(c.Kept), Style: keptBarStyle},
		},
	})
	bc.Draw()

	total := float64(c.Total())
	legend := lipgloss.JoinVertical(lipgloss.Left,
		deleteStyle.Render("■")+fmt.Sprintf(" Deleted %d (%.0f%%)", c.Deleted, float64(c.Deleted)/total*100),
		keepStyle.Render("■")+fmt.Sprintf(" Kept    %d (%.0f%%)", c.Kept, float64(c.Kept)/total*100),
		dimStyle.Render(fmt.Sprintf("  Reviewed %d", c.Total())),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, bc.View(), "  ", legend)
}
