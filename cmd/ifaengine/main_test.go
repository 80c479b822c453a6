package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/plannetic/ifaengine/internal/domain"
	"github.com/plannetic/ifaengine/internal/output"
	"github.com/plannetic/ifaengine/internal/store"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioYAML = `id: patel-2026
name: Patel household
client_age: 58
retirement_age: 66
life_expectancy: 92
state_pension_age: 67
state_pension_amount: 11500
current_income: 52000
current_expenses: 32000
current_savings: 25000
pension_pot: 310000
investment_value: 80000
pension_contribution: 5000
risk_score: 5
goals:
  retirement_income: 28000
  emergency_fund: 12000
`

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the CLI with an isolated history database.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("IFA_DB_PATH", filepath.Join(t.TempDir(), "history.db"))
	t.Setenv("IFA_LOG_LEVEL", "error")
	return executeShared(t, args...)
}

func executeShared(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	if args == nil {
		args = []string{}
	}
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeScenario(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "patel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(scenarioYAML), 0644))
	return path
}

func TestRootCommand(t *testing.T) {
	assert.Equal(t, "ifaengine", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)

	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"project", "monte-carlo", "stress-test", "stress-scenarios", "validate", "serve", "history", "version"} {
		assert.True(t, names[want], want)
	}
}

func TestRootCommand_Help(t *testing.T) {
	out, err := execute(t)
	require.NoError(t, err)
	assert.Contains(t, out, "monte-carlo")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "ifaengine dev")
}

func TestProject_JSON(t *testing.T) {
	out, err := execute(t, "project", writeScenario(t), "--format", "json")
	require.NoError(t, err)

	var report output.ProjectionReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "patel-2026", report.ScenarioID)
	assert.Len(t, report.Rows, 34)
	assert.Equal(t, 58, report.Rows[0].Age)
	assert.Contains(t, report.Defaulted, "assumptions")
}

func TestProject_MissingFile(t *testing.T) {
	_, err := execute(t, "project", filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestMonteCarlo_SavesAndListsHistory(t *testing.T) {
	t.Setenv("IFA_DB_PATH", filepath.Join(t.TempDir(), "history.db"))
	t.Setenv("IFA_LOG_LEVEL", "error")
	path := writeScenario(t)

	out, err := executeShared(t, "monte-carlo", path, "--simulations", "150", "--seed", "11", "--format", "json")
	require.NoError(t, err)
	var report output.SimulationReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.NotNil(t, report.Results)
	assert.Equal(t, 150, report.Results.SimulationCount)
	assert.Equal(t, int64(11), report.Results.Seed)
	require.NotEmpty(t, report.RunID)

	out, err = executeShared(t, "history", "patel-2026", "--format", "json")
	require.NoError(t, err)
	var listing struct {
		Runs []store.RunInfo `json:"runs"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &listing))
	require.Len(t, listing.Runs, 1)
	assert.Equal(t, report.RunID, listing.Runs[0].ID)

	out, err = executeShared(t, "history", "patel-2026", report.RunID, "--format", "json")
	require.NoError(t, err)
	var stored output.SimulationReport
	require.NoError(t, json.Unmarshal([]byte(out), &stored))
	require.NotNil(t, stored.Results)
	assert.True(t, stored.Results.SuccessRate.Equal(report.Results.SuccessRate))

	_, err = executeShared(t, "history", "someone-else", report.RunID)
	assert.Error(t, err)
}

func TestMonteCarlo_ParameterFlags(t *testing.T) {
	out, err := execute(t, "monte-carlo", "--portfolio", "400000", "--withdrawal", "16000", "--years", "25",
		"--simulations", "100", "--seed", "2", "--format", "json")
	require.NoError(t, err)

	var report output.SimulationReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Empty(t, report.RunID)
	assert.Len(t, report.Results.YearlyPercentiles, 25)
	assert.True(t, report.Results.Allocation.Equity.Equal(domain.AllocationForRisk(5).Equity))
}

func TestMonteCarlo_BlockedParameters(t *testing.T) {
	out, err := execute(t, "monte-carlo", "--portfolio", "400000", "--withdrawal", "60000", "--format", "json")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidParameters))

	var check domain.ValidationResult
	require.NoError(t, json.Unmarshal([]byte(out), &check))
	assert.False(t, check.IsValid)
}

func TestMonteCarlo_NeedsInput(t *testing.T) {
	_, err := execute(t, "monte-carlo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenario file")
}

func TestStressTest_JSON(t *testing.T) {
	out, err := execute(t, "stress-test", writeScenario(t),
		"--scenarios", "market_crash,job_loss",
		"--set", "market_crash:equity_decline=30,bond_decline=5",
		"--format", "json")
	require.NoError(t, err)

	var report output.StressReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Results, 2)
	assert.Equal(t, "market_crash", report.Results[0].ScenarioID)
	assert.True(t, report.Results[0].AppliedParameters[domain.ParamEquityDecline].Equal(decimal.NewFromInt(30)))
	assert.Equal(t, "job_loss", report.Results[1].ScenarioID)
	assert.Equal(t, 2, report.Summary.Tested)
	assert.NotEmpty(t, report.RunID)
}

func TestStressTest_BadFlags(t *testing.T) {
	path := writeScenario(t)

	_, err := execute(t, "stress-test", path, "--severity", "extreme")
	assert.Error(t, err)

	_, err = execute(t, "stress-test", path, "--set", "market_crash")
	assert.Error(t, err)
}

func TestStressScenarios_CSV(t *testing.T) {
	out, err := execute(t, "stress-scenarios", "--format", "csv")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Greater(t, len(lines), 9)
	assert.Contains(t, out, "market_crash")
	assert.Contains(t, out, "long_term_care")
}

func TestValidate(t *testing.T) {
	out, err := execute(t, "validate", "--portfolio", "500000", "--withdrawal", "20000", "--format", "json")
	require.NoError(t, err)
	var check domain.ValidationResult
	require.NoError(t, json.Unmarshal([]byte(out), &check))
	assert.True(t, check.IsValid)

	_, err = execute(t, "validate", writeScenario(t), "--format", "json")
	assert.NoError(t, err)

	_, err = execute(t, "validate", "--portfolio", "100000", "--withdrawal", "20000")
	assert.True(t, errors.Is(err, domain.ErrInvalidParameters))
}

func TestValidate_SaverScenario(t *testing.T) {
	saver := `id: okafor-2026
client_age: 30
retirement_age: 67
life_expectancy: 90
state_pension_age: 67
state_pension_amount: 11500
current_income: 45000
current_expenses: 30000
current_savings: 20000
pension_contribution: 8000
risk_score: 6
goals:
  retirement_income: 25000
`
	path := filepath.Join(t.TempDir(), "okafor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(saver), 0644))

	out, err := execute(t, "validate", path, "--format", "json")
	require.NoError(t, err)
	var check domain.ValidationResult
	require.NoError(t, json.Unmarshal([]byte(out), &check))
	assert.True(t, check.IsValid)
	assert.Empty(t, check.Errors)

	_, err = execute(t, "monte-carlo", path, "-s", "50", "--seed", "3", "--no-save", "--format", "json")
	assert.NoError(t, err)
}

func TestUnsupportedFormat(t *testing.T) {
	_, err := execute(t, "stress-scenarios", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}
