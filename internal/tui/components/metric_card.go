package components

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/plannetic/ifaengine/internal/tui/tuistyles"
)

// MetricCard displays a single headline figure.
type MetricCard struct {
	Label       string
	Value       string
	Description string
	Width       int
	ValueStyle  *lipgloss.Style
}

// NewMetricCard creates a new metric card
func NewMetricCard(label, value string) *MetricCard {
	return &MetricCard{
		Label: label,
		Value: value,
		Width: 24,
	}
}

// WithDescription adds a subtitle under the value.
func (m *MetricCard) WithDescription(desc string) *MetricCard {
	m.Description = desc
	return m
}

// WithValueStyle overrides the value style.
func (m *MetricCard) WithValueStyle(style lipgloss.Style) *MetricCard {
	m.ValueStyle = &style
	return m
}

// Render returns the styled metric card
func (m *MetricCard) Render() string {
	valueStyle := tuistyles.MetricValueStyle
	if m.ValueStyle != nil {
		valueStyle = *m.ValueStyle
	}
	content := tuistyles.MetricLabelStyle.Render(m.Label) + "\n" + valueStyle.Render(m.Value)
	if m.Description != "" {
		content += "\n" + tuistyles.SubtitleStyle.Render(m.Description)
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(tuistyles.ColorBorder).
		Padding(0, 1).
		Width(m.Width).
		Render(content)
}

// MetricGrid renders cards in rows of columns.
func MetricGrid(cards []*MetricCard, columns int) string {
	if len(cards) == 0 || columns <= 0 {
		return ""
	}

	var rows, current []string
	for i, card := range cards {
		current = append(current, card.Render())
		if (i+1)%columns == 0 || i == len(cards)-1 {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, current...))
			current = nil
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
