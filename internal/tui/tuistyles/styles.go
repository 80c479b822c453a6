// Package tuistyles holds the colour palette and base styles shared by the
// TUI and its components.
package tuistyles

import "github.com/charmbracelet/lipgloss"

var (
	ColorPrimary = lipgloss.Color("#7D56F4")
	ColorSuccess = lipgloss.Color("#04B575")
	ColorWarning = lipgloss.Color("#FFB86C")
	ColorDanger  = lipgloss.Color("#FF5F87")
	ColorInfo    = lipgloss.Color("#5FAFFF")

	ColorForeground = lipgloss.Color("#FAFAFA")
	ColorMuted      = lipgloss.Color("#767676")
	ColorBorder     = lipgloss.Color("#3C3C3C")

	ColorChartLow  = lipgloss.Color("#FF5F87")
	ColorChartMid  = lipgloss.Color("#7D56F4")
	ColorChartHigh = lipgloss.Color("#04B575")
)

var (
	AppStyle = lipgloss.NewStyle().Padding(1, 2)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Italic(true)

	MetricLabelStyle = lipgloss.NewStyle().Foreground(ColorMuted)

	MetricValueStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorForeground)

	HelpKeyStyle  = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	HelpDescStyle = lipgloss.NewStyle().Foreground(ColorMuted)

	ErrorStyle = lipgloss.NewStyle().Foreground(ColorDanger).Bold(true)
	InfoStyle  = lipgloss.NewStyle().Foreground(ColorInfo)
	WarnStyle  = lipgloss.NewStyle().Foreground(ColorWarning)
)

// SuccessRateStyle colours a success rate by the usual advice bands:
// 85 and above is comfortable, below 75 needs action.
func SuccessRateStyle(rate float64) lipgloss.Style {
	switch {
	case rate >= 85:
		return lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true)
	case rate >= 75:
		return lipgloss.NewStyle().Foreground(ColorWarning).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(ColorDanger).Bold(true)
	}
}
