package main

import (
	"errors"

	"github.com/plannetic/ifaengine/internal/domain"
	"github.com/plannetic/ifaengine/internal/validation"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [scenario-file]",
	Short: "Check simulation parameters before running them",
	Long:  `Report blocking errors, warnings and suggestions for a parameter set: the
withdrawal rate against the 4/5/7/10% bands, the expected real return, the
risk score and the horizon. A scenario file is judged at its retirement
point, where the rate bands are advisory. Exits non-zero when the run is
blocked.

Examples:
  ifaengine validate smith.yaml
  ifaengine validate --portfolio 500000 --withdrawal 25000 --years 35 --risk 3`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

var (
	valParams      paramFlags
	valSimulations int
)

func init() {
	valParams.register(validateCmd)
	validateCmd.Flags().IntVarP(&valSimulations, "simulations", "s", 0, "Number of trials (default IFA_DEFAULT_SIMULATIONS)")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	count := valSimulations
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
			params.RiskScore = valParams.risk
		}
	} else {
		var ok bool
		params, ok, err = valParams.parameters(cmd, count)
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

	check := checkRun(scenario, params)
	if err := a.write(a.formatter.Validation(check)); err != nil {
		return err
	}
	return check.Err()
}

// checkRun validates a scenario run at its retirement point, or a bare
// parameter set as given.
func checkRun(scenario *domain.Scenario, params domain.SimulationParameters) domain.ValidationResult {
	if scenario != nil {
		return validation.NewValidator().ValidateScenario(*scenario, params)
	}
	return validation.NewValidator().Validate(params)
}
