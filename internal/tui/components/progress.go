package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/plannetic/ifaengine/internal/tui/tuistyles"
)

// TrialProgress tracks completed Monte Carlo trials and renders them as a
// gradient bar with a count.
type TrialProgress struct {
	Done  int
	Total int
	bar   progress.Model
}

// NewTrialProgress creates a progress bar for total trials.
func NewTrialProgress(total int) TrialProgress {
	return TrialProgress{
		Total: total,
		bar: progress.New(
			progress.WithGradient(string(tuistyles.ColorPrimary), string(tuistyles.ColorSuccess)),
			progress.WithWidth(40),
			progress.WithoutPercentage(),
		),
	}
}

// SetWidth resizes the bar, keeping it between 10 and 80 cells.
func (p *TrialProgress) SetWidth(width int) {
	p.bar.Width = max(10, min(width, 80))
}

// Width returns the bar width.
func (p TrialProgress) Width() int {
	return p.bar.Width
}

// Update records done trials. Counts never move backwards since batches
// report out of order.
func (p *TrialProgress) Update(done int) {
	if done > p.Done {
		p.Done = min(done, p.Total)
	}
}

// Fraction returns completion in [0, 1].
func (p TrialProgress) Fraction() float64 {
	if p.Total <= 0 {
		return 0
	}
	return float64(p.Done) / float64(p.Total)
}

// Render returns the bar followed by percent and count.
func (p TrialProgress) Render() string {
	stats := fmt.Sprintf("%.1f%%", p.Fraction()*100)
	count := fmt.Sprintf("%d/%d trials", p.Done, p.Total)
	return p.bar.ViewAs(p.Fraction()) + " " +
		tuistyles.TitleStyle.Render(stats) + " " +
		tuistyles.MetricLabelStyle.Render("• "+count)
}
