package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/plannetic/ifaengine/internal/domain"
	"github.com/plannetic/ifaengine/internal/output"
	"github.com/plannetic/ifaengine/internal/simulation"
	"github.com/plannetic/ifaengine/internal/tui"
	"github.com/spf13/cobra"
)

var monteCarloCmd = &cobra.Command{
	Use:   "monte-carlo [scenario-file]",
	Short: "Run a Monte Carlo simulation of a scenario or parameter set",
	Long:  `Simulate many random return paths and report the success rate, final wealth
percentiles, drawdown and a yearly fan chart.

Parameters are validated first; a blocking finding stops the run. Ctrl+C stops
early and reports the trials already completed.

Examples:
  ifaengine monte-carlo smith.yaml --simulations 5000 --seed 42
  ifaengine monte-carlo smith.yaml --risk 8 --tui
  ifaengine monte-carlo --portfolio 500000 --withdrawal 20000 --years 30
  ifaengine monte-carlo --params drawdown.yaml --volatility 12`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMonteCarlo,
}

var (
	mcSimulations int
	mcSeed        int64
	mcVolatility  float64
	mcTUI         bool
	mcNoSave      bool
	mcParams      paramFlags
)

func init() {
	monteCarloCmd.Flags().IntVarP(&mcSimulations, "simulations", "s", 0, "Number of trials (default IFA_DEFAULT_SIMULATIONS)")
	monteCarloCmd.Flags().Int64Var(&mcSeed, "seed", 0, "Random seed for a reproducible run")
	monteCarloCmd.Flags().Float64Var(&mcVolatility, "volatility", 0, "Target portfolio volatility in percent")
	monteCarloCmd.Flags().BoolVar(&mcTUI, "tui", false, "Show a live progress view")
	monteCarloCmd.Flags().BoolVar(&mcNoSave, "no-save", false, "Do not store the run in history")
	mcParams.register(monteCarloCmd)

	rootCmd.AddCommand(monteCarloCmd)
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	count := mcSimulations
	if count == 0 {
		count = a.cfg.DefaultSimulations
	}

	var (
		scenario *domain.Scenario
		params   domain.SimulationParameters
	)
	if len(args) == 1 {
		loaded, err := a.loadScenario(args[0])
		if err != nil {
			return err
		}
		scenario = &loaded.Scenario
		params = domain.SimulationParameters{SimulationCount: count, RiskScore: scenario.RiskScore}
		if cmd.Flags().Changed("risk") {
			params.RiskScore = mcParams.risk
		}
	} else {
		var ok bool
		params, ok, err = mcParams.parameters(cmd, count)
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("provide a scenario file, --params, or --portfolio and --withdrawal")
		}
		if cmd.Flags().Changed("simulations") {
			params.SimulationCount = count
		}
	}
	if cmd.Flags().Changed("seed") {
		params.Seed = &mcSeed
	}
	if cmd.Flags().Changed("volatility") {
		params.Volatility = &mcVolatility
	}

	check := checkRun(scenario, params)
	if !check.IsValid {
		if err := a.write(a.formatter.Validation(check)); err != nil {
			return err
		}
		return check.Err()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	sim := a.simulator()
	run := func(ctx context.Context, report simulation.ProgressFunc) (*domain.SimulationResults, error) {
		sim.SetProgressFunc(report)
		if scenario != nil {
			return sim.RunScenario(ctx, *scenario, params)
		}
		return sim.RunParameters(ctx, params)
	}

	var res *domain.SimulationResults
	if mcTUI {
		title := "Monte Carlo"
		if scenario != nil {
			title += ": " + scenario.ID
		}
		res, err = tui.Run(ctx, title, params.SimulationCount, run)
	} else {
		res, err = run(ctx, nil)
	}
	if err != nil {
		if res == nil || !errors.Is(err, domain.ErrSimulationCancelled) {
			return err
		}
		a.log.Warn().Err(err).Msg("reporting partial result")
	}

	report := output.SimulationReport{Validation: &check, Results: res}
	if scenario != nil {
		report.ScenarioID = scenario.ID
		if !mcNoSave && !res.Partial {
			report.RunID = a.saveSimulation(cmd.Context(), scenario.ID, res)
		}
	}
	return a.write(a.formatter.Simulation(report))
}

// saveSimulation stores res, logging rather than failing when history is
// unavailable.
func (a *app) saveSimulation(ctx context.Context, scenarioID string, res *domain.SimulationResults) string {
	st, err := a.openStore(ctx)
	if err != nil {
		a.log.Warn().Err(err).Msg("run history unavailable")
		return ""
	}
	defer st.Close()

	id, err := st.SaveSimulation(ctx, scenarioID, res)
	if err != nil {
		a.log.Warn().Err(err).Msg("failed to save run")
		return ""
	}
	a.log.Debug().Str("run_id", id).Str("scenario_id", scenarioID).Msg("saved monte carlo run")
	return id
}
