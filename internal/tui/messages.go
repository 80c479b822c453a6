package tui

import (
	"time"

	"github.com/plannetic/ifaengine/internal/domain"
)

// progressMsg carries the number of completed trials.
type progressMsg struct {
	done, total int
}

// resultMsg is sent once when the run returns.
type resultMsg struct {
	res *domain.SimulationResults
	err error
}

type tickMsg time.Time
