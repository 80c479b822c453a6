package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/plannetic/ifaengine/internal/domain"
	"github.com/plannetic/ifaengine/internal/tui/tuistyles"
	"gonum.org/v1/gonum/floats"
)

const (
	lowMark  = '.'
	midMark  = '*'
	highMark = '\''
	bandMark = '░'
)

// FanChart plots the yearly p10, p50 and p90 of total assets.
type FanChart struct {
	Title  string
	Rows   []domain.YearlyPercentiles
	Width  int
	Height int
}

// NewFanChart creates a chart over rows with a 60x12 plot area.
func NewFanChart(title string, rows []domain.YearlyPercentiles) *FanChart {
	return &FanChart{Title: title, Rows: rows, Width: 60, Height: 12}
}

// Render returns the chart, one line per plot row plus an age axis and a
// legend.
func (c *FanChart) Render() string {
	n := len(c.Rows)
	if n == 0 || c.Width < 2 || c.Height < 2 {
		return tuistyles.InfoStyle.Render("No data to display")
	}

	low := make([]float64, n)
	mid := make([]float64, n)
	high := make([]float64, n)
	for i, r := range c.Rows {
		low[i] = r.P10.InexactFloat64()
		mid[i] = r.P50.InexactFloat64()
		high[i] = r.P90.InexactFloat64()
	}
	top := floats.Max(high)
	if top <= 0 {
		top = 1
	}

	cols := min(c.Width, n)
	grid := make([][]rune, c.Height)
	for y := range grid {
		grid[y] = []rune(strings.Repeat(" ", cols))
	}
	row := func(v float64) int {
		y := int(math.Round(max(v, 0) / top * float64(c.Height-1)))
		return c.Height - 1 - y
	}
	for x := 0; x < cols; x++ {
		i := x * (n - 1) / max(cols-1, 1)
		lo, hi := row(low[i]), row(high[i])
		for y := hi + 1; y < lo; y++ {
			grid[y][x] = bandMark
		}
		grid[lo][x] = lowMark
		grid[hi][x] = highMark
		grid[row(mid[i])][x] = midMark
	}

	var b strings.Builder
	if c.Title != "" {
		b.WriteString(tuistyles.TitleStyle.Render(c.Title))
		b.WriteString("\n\n")
	}

	axis := []string{shortMoney(top), shortMoney(top / 2), shortMoney(0)}
	labelWidth := 0
	for _, a := range axis {
		labelWidth = max(labelWidth, lipgloss.Width(a))
	}
	for y, line := range grid {
		label := ""
		switch y {
		case 0:
			label = axis[0]
		case (c.Height - 1) / 2:
			label = axis[1]
		case c.Height - 1:
			label = axis[2]
		}
		b.WriteString(tuistyles.MetricLabelStyle.Render(fmt.Sprintf("%*s │", labelWidth, label)))
		b.WriteString(colorize(line))
		b.WriteString("\n")
	}

	first, last := c.Rows[0].Age, c.Rows[n-1].Age
	footer := fmt.Sprintf("%*s └ age %d", labelWidth, "", first)
	end := fmt.Sprint(last)
	if pad := labelWidth + 2 + cols - lipgloss.Width(footer) - len(end); pad > 0 {
		footer += strings.Repeat(" ", pad) + end
	}
	b.WriteString(tuistyles.MetricLabelStyle.Render(footer))
	b.WriteString("\n")
	b.WriteString(legend())
	return b.String()
}

func colorize(line []rune) string {
	var b strings.Builder
	for _, r := range line {
		switch r {
		case lowMark:
			b.WriteString(lipgloss.NewStyle().Foreground(tuistyles.ColorChartLow).Render(string(r)))
		case midMark:
			b.WriteString(lipgloss.NewStyle().Foreground(tuistyles.ColorChartMid).Bold(true).Render(string(r)))
		case highMark:
			b.WriteString(lipgloss.NewStyle().Foreground(tuistyles.ColorChartHigh).Render(string(r)))
		case bandMark:
			b.WriteString(lipgloss.NewStyle().Foreground(tuistyles.ColorBorder).Render(string(r)))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func legend() string {
	return lipgloss.NewStyle().Foreground(tuistyles.ColorChartHigh).Render("' p90") + "  " +
		lipgloss.NewStyle().Foreground(tuistyles.ColorChartMid).Render("* median") + "  " +
		lipgloss.NewStyle().Foreground(tuistyles.ColorChartLow).Render(". p10")
}

func shortMoney(v float64) string {
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("£%.1fm", v/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("£%.0fk", v/1_000)
	default:
		return fmt.Sprintf("£%.0f", v)
	}
}
