package main

import (
	"os"
	"os/signal"

	"github.com/plannetic/ifaengine/internal/domain"
	"github.com/plannetic/ifaengine/internal/output"
	"github.com/plannetic/ifaengine/internal/stress"
	"github.com/spf13/cobra"
)

var stressTestCmd = &cobra.Command{
	Use:   "stress-test <scenario-file>",
	Short: "Apply catalog stress scenarios to a scenario",
	Long:  `Run each selected stress scenario against the unshocked baseline and report
survival, worst case, recovery time, impact and a 0-100 resilience score.

Shock magnitudes can be overridden per scenario with --set; values are clamped
to each parameter's range. --trials switches survival and worst case to Monte
Carlo estimates with the baseline and every shock sharing one seed.

Examples:
  ifaengine stress-test smith.yaml
  ifaengine stress-test smith.yaml --scenarios market_crash,job_loss --severity severe
  ifaengine stress-test smith.yaml --set market_crash:equity_decline=30,bond_decline=5
  ifaengine stress-test smith.yaml --trials 500 --seed 7 --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runStressTest,
}

var stressScenariosCmd = &cobra.Command{
	Use:   "stress-scenarios",
	Short: "List the stress scenario catalog",
	Args:  cobra.NoArgs,
	RunE:  runStressScenarios,
}

var (
	stIDs        []string
	stSet        []string
	stSeverity   string
	stTrials     int
	stSeed       int64
	stCatalog    string
	stProjection bool
	stNoSave     bool
)

func init() {
	stressTestCmd.Flags().StringSliceVar(&stIDs, "scenarios", nil, "Stress scenario ids to run (default: whole catalog)")
	stressTestCmd.Flags().StringArrayVar(&stSet, "set", nil, "Override parameters: id:param=value[,param=value] (repeatable)")
	stressTestCmd.Flags().StringVar(&stSeverity, "severity", "", "Rescale every shock: mild, moderate or severe")
	stressTestCmd.Flags().IntVar(&stTrials, "trials", 0, "Monte Carlo trials per shock (0 for deterministic)")
	stressTestCmd.Flags().Int64Var(&stSeed, "seed", 0, "Random seed shared by baseline and shocks")
	stressTestCmd.Flags().StringVar(&stCatalog, "catalog", "", "Stress catalog file (default IFA_CATALOG_PATH or built-in)")
	stressTestCmd.Flags().BoolVar(&stProjection, "projection", false, "Include each stressed yearly projection (json only)")
	stressTestCmd.Flags().BoolVar(&stNoSave, "no-save", false, "Do not store the run in history")

	stressScenariosCmd.Flags().StringVar(&stCatalog, "catalog", "", "Stress catalog file (default IFA_CATALOG_PATH or built-in)")

	rootCmd.AddCommand(stressTestCmd)
	rootCmd.AddCommand(stressScenariosCmd)
}

func runStressTest(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	severity := domain.Severity(stSeverity)
	if severity != "" {
		if _, err := severity.Multiplier(); err != nil {
			return err
		}
	}
	overrides, err := stress.ParseOverrides(stSet)
	if err != nil {
		return err
	}
	catalog, err := a.catalog(stCatalog)
	if err != nil {
		return err
	}
	loaded, err := a.loadScenario(args[0])
	if err != nil {
		return err
	}

	opts := stress.Options{Severity: severity, Trials: stTrials, IncludeProjection: stProjection}
	if cmd.Flags().Changed("seed") {
		opts.Seed = &stSeed
	}
	ids := stIDs
	if len(ids) == 0 {
		ids = catalog.IDs()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	engine := stress.NewEngine(catalog, a.simulator())
	engine.SetLogger(a.log)
	results, err := engine.Run(ctx, loaded.Scenario, ids, overrides, opts)
	if err != nil {
		return err
	}

	report := output.StressReport{
		ScenarioID: loaded.Scenario.ID,
		Summary:    stress.Summarize(results),
		Results:    results,
	}
	if !stNoSave {
		report.RunID = a.saveStress(cmd, loaded.Scenario.ID, report)
	}
	return a.write(a.formatter.Stress(report))
}

func (a *app) saveStress(cmd *cobra.Command, scenarioID string, report output.StressReport) string {
	st, err := a.openStore(cmd.Context())
	if err != nil {
		a.log.Warn().Err(err).Msg("run history unavailable")
		return ""
	}
	defer st.Close()

	id, err := st.SaveStress(cmd.Context(), scenarioID, report.Results, report.Summary)
	if err != nil {
		a.log.Warn().Err(err).Msg("failed to save run")
		return ""
	}
	return id
}

func runStressScenarios(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	catalog, err := a.catalog(stCatalog)
	if err != nil {
		return err
	}
	return a.write(a.formatter.Catalog(catalog.List()))
}
