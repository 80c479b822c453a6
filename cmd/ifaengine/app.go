package main

import (
	"context"
	"fmt"
	"io"

	"github.com/plannetic/ifaengine/internal/config"
	"github.com/plannetic/ifaengine/internal/domain"
	"github.com/plannetic/ifaengine/internal/logger"
	"github.com/plannetic/ifaengine/internal/output"
	"github.com/plannetic/ifaengine/internal/simulation"
	"github.com/plannetic/ifaengine/internal/store"
	"github.com/plannetic/ifaengine/internal/stress"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// app bundles what every command needs: configuration, a logger and the
// selected output formatter.
type app struct {
	cfg       *config.AppConfig
	log       zerolog.Logger
	formatter output.Formatter
	out       io.Writer
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.LoadAppConfig(envFileFlag)
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if debugFlag {
		level = "debug"
	}
	f, err := output.NewFormatter(formatFlag)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:       cfg,
		log:       logger.New(logger.Config{Level: level, Pretty: cfg.LogPretty, Out: cmd.ErrOrStderr()}),
		formatter: f,
		out:       cmd.OutOrStdout(),
	}, nil
}

func (a *app) write(data []byte, err error) error {
	if err != nil {
		return fmt.Errorf("format %s output: %w", a.formatter.Name(), err)
	}
	_, err = a.out.Write(data)
	return err
}

func (a *app) simulator() *simulation.Simulator {
	sim := simulation.NewSimulator(simulation.Config{BatchSize: a.cfg.BatchSize, Workers: a.cfg.Workers})
	sim.SetLogger(a.log)
	return sim
}

// catalog loads path, falling back to IFA_CATALOG_PATH and then to the
// built-in catalog.
func (a *app) catalog(path string) (*stress.Catalog, error) {
	if path == "" {
		path = a.cfg.CatalogPath
	}
	if path == "" {
		return stress.DefaultCatalog(), nil
	}
	return config.NewInputParser().LoadStressCatalog(path)
}

func (a *app) openStore(ctx context.Context) (*store.Store, error) {
	st, err := store.Open(ctx, a.cfg.DBPath)
	if err != nil {
		return nil, err
	}
	st.SetLogger(a.log)
	return st, nil
}

// loadScenario reads a scenario file and logs every defaulted field.
func (a *app) loadScenario(path string) (*config.LoadResult, error) {
	loaded, err := config.NewInputParser().LoadScenario(path)
	if err != nil {
		return nil, err
	}
	for _, field := range loaded.Defaulted {
		a.log.Info().Str("scenario", loaded.Scenario.ID).Str("field", field).Msg("using default")
	}
	return loaded, nil
}

// paramFlags are the flags that describe a bare parameter set.
type paramFlags struct {
	file       string
	portfolio  float64
	withdrawal float64
	years      int
	risk       int
	inflation  float64
	startAge   int
}

func (p *paramFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.file, "params", "", "Simulation parameters file (YAML or JSON)")
	cmd.Flags().Float64Var(&p.portfolio, "portfolio", 0, "Initial portfolio value")
	cmd.Flags().Float64Var(&p.withdrawal, "withdrawal", 0, "Annual withdrawal in today's money")
	cmd.Flags().IntVar(&p.years, "years", 30, "Time horizon in years")
	cmd.Flags().IntVar(&p.risk, "risk", 0, "Risk score 1-10 (overrides a scenario's own)")
	cmd.Flags().Float64Var(&p.inflation, "inflation", 2.5, "Inflation rate in percent")
	cmd.Flags().IntVar(&p.startAge, "start-age", domain.DefaultStartAge, "Age at the start of drawdown")
}

// parameters builds a parameter set from --params or the individual flags.
// ok is false when neither was given.
func (p *paramFlags) parameters(cmd *cobra.Command, count int) (params domain.SimulationParameters, ok bool, err error) {
	if p.file != "" {
		params, err = config.NewInputParser().LoadParameters(p.file)
		if err != nil {
			return params, false, err
		}
		if cmd.Flags().Changed("risk") {
			params.RiskScore = p.risk
		}
		return params, true, nil
	}
	if !cmd.Flags().Changed("portfolio") && !cmd.Flags().Changed("withdrawal") {
		return params, false, nil
	}

	risk := p.risk
	if risk == 0 {
		risk = 5
	}
	return domain.SimulationParameters{
		InitialPortfolio: decimal.NewFromFloat(p.portfolio),
		AnnualWithdrawal: decimal.NewFromFloat(p.withdrawal),
		TimeHorizon:      p.years,
		RiskScore:        risk,
		InflationRate:    decimal.NewFromFloat(p.inflation),
		SimulationCount:  count,
		StartAge:         p.startAge,
	}, true, nil
}
