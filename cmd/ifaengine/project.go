package main

import (
	"github.com/plannetic/ifaengine/internal/output"
	"github.com/plannetic/ifaengine/internal/projection"
	"github.com/spf13/cobra"
)

var projectCmd = &cobra.Command{
	Use:   "project <scenario-file>",
	Short: "Project a scenario year by year at expected returns",
	Long:  `Run the deterministic cash-flow ledger for a scenario: contributions before
retirement, drawdown after it, state pension from its start age, all at the
scenario's expected real returns converted to nominal.

Examples:
  ifaengine project smith.yaml
  ifaengine project smith.yaml --format csv > smith.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runProject,
}

func init() {
	rootCmd.AddCommand(projectCmd)
}

func runProject(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	loaded, err := a.loadScenario(args[0])
	if err != nil {
		return err
	}
	plan, err := projection.PlanFromScenario(loaded.Scenario)
	if err != nil {
		return err
	}

	projector := projection.NewProjector()
	projector.SetLogger(a.log)
	res := projector.ProjectPlan(plan, nil)

	return a.write(a.formatter.Projection(output.ProjectionReport{
		ScenarioID: loaded.Scenario.ID,
		Name:       loaded.Scenario.Name,
		Defaulted:  loaded.Defaulted,
		Summary:    projection.Summarize(plan, res),
		Rows:       res.Rows,
	}))
}
