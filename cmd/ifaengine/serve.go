package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/plannetic/ifaengine/internal/server"
	"github.com/plannetic/ifaengine/internal/store"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the engines over HTTP",
	Long:  `Start the JSON API:

  GET  /health
  POST /api/v1/validate
  POST /api/v1/projections
  POST /api/v1/monte-carlo
  POST /api/v1/stress-tests
  GET  /api/v1/stress-scenarios
  GET  /api/v1/scenarios/{scenarioID}/runs
  GET  /api/v1/runs/{runID}`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	servePort      int
	serveNoHistory bool
	serveDev       bool
)

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Listen port (default IFA_PORT)")
	serveCmd.Flags().BoolVar(&serveNoHistory, "no-history", false, "Disable run history")
	serveCmd.Flags().BoolVar(&serveDev, "dev", false, "Development mode (no response compression)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	port := servePort
	if port == 0 {
		port = a.cfg.Port
	}
	catalog, err := a.catalog("")
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var st *store.Store
	if !serveNoHistory {
		st, err = a.openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
	}

	srv := server.New(server.Config{
		Port:               port,
		Log:                a.log,
		Store:              st,
		Simulator:          a.simulator(),
		Catalog:            catalog,
		DefaultSimulations: a.cfg.DefaultSimulations,
		DevMode:            serveDev,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
