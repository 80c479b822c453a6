package main

import (
	"fmt"

	"github.com/plannetic/ifaengine/internal/output"
	"github.com/plannetic/ifaengine/internal/store"
	"github.com/plannetic/ifaengine/internal/stress"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history <scenario-id> [run-id]",
	Short: "List stored runs for a scenario, or show one run",
	Long:  `Monte Carlo and stress runs are stored by scenario id. With only a scenario
id the runs are listed newest first; with a run id the stored result is
printed in full.

Examples:
  ifaengine history smith-2026
  ifaengine history smith-2026 --limit 5 --format json
  ifaengine history smith-2026 3f6c2a0e-...`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runHistory,
}

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum runs to list (0 for all)")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	st, err := a.openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	scenarioID := args[0]
	if len(args) == 1 {
		runs, err := st.ListRuns(cmd.Context(), scenarioID, historyLimit)
		if err != nil {
			return err
		}
		return a.write(a.formatter.History(scenarioID, runs))
	}

	run, err := st.GetRun(cmd.Context(), args[1])
	if err != nil {
		return err
	}
	if run.ScenarioID != scenarioID {
		return fmt.Errorf("run %s belongs to scenario %s, not %s", run.ID, run.ScenarioID, scenarioID)
	}
	switch run.Kind {
	case store.KindMonteCarlo:
		return a.write(a.formatter.Simulation(output.SimulationReport{
			ScenarioID: run.ScenarioID,
			RunID:      run.ID,
			Results:    run.Simulation,
		}))
	default:
		return a.write(a.formatter.Stress(output.StressReport{
			ScenarioID: run.ScenarioID,
			RunID:      run.ID,
			Summary:    stress.Summarize(run.Stress),
			Results:    run.Stress,
		}))
	}
}
