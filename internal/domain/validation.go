package domain

import "github.com/shopspring/decimal"

// IssueSeverity ranks a validation issue.
type IssueSeverity string

const (
	IssueError      IssueSeverity = "error"
	IssueWarning    IssueSeverity = "warning"
	IssueSuggestion IssueSeverity = "suggestion"
)

// ValidationIssue is a single coded validator finding.
type ValidationIssue struct {
	Code     string        `json:"code"`
	Severity IssueSeverity `json:"severity"`
	Message  string        `json:"message"`
}

// ValidationResult is recomputed on every parameter change and never stored.
type ValidationResult struct {
	IsValid     bool              `json:"isValid"`
	Errors      []string          `json:"errors"`
	Warnings    []string          `json:"warnings"`
	Suggestions []string          `json:"suggestions"`
	Issues      []ValidationIssue `json:"issues"`

	WithdrawalRate decimal.Decimal `json:"withdrawalRate"`
	RealReturn     decimal.Decimal `json:"realReturn"`
}

// HasIssue reports whether a finding with code was produced.
func (r ValidationResult) HasIssue(code string) bool {
	for _, is := range r.Issues {
		if is.Code == code {
			return true
		}
	}
	return false
}

// Err returns a *ParameterError when the result is blocking.
func (r ValidationResult) Err() error {
	if r.IsValid {
		return nil
	}
	return &ParameterError{Errors: append([]string(nil), r.Errors...)}
}
