package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/savioxavier/swe-group-7/internal/app"
	"github.com/savioxavier/swe-group-7/internal/services"
)

var forceHarvest bool

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "garden",
	Short:        "Task garden backend",
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the daily sweeps",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		return a.Serve(ctx)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply schema and data migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		log, cfg, err := app.Bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync()
		return app.Migrate(cmd.Context(), log, cfg)
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run a sweep once and print its report",
}

var sweepDecayCmd = &cobra.Command{
	Use:   "decay",
	Short: "Apply today's plant and user decay",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runSweep(cmd.Context(), func(ctx context.Context, s services.SweepService) (*services.SweepReport, error) {
			return s.RunDecay(ctx)
		})
	},
}

var sweepHarvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Harvest completed plants past the auto-harvest delay",
	Long: `Harvest completed plants whose completion is older than the configured delay.

With --force the delay is ignored, and when harvest_untracked_trophies is set in
the balance file, completed plants without a completion date are harvested too.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runSweep(cmd.Context(), func(ctx context.Context, s services.SweepService) (*services.SweepReport, error) {
			return s.RunHarvest(ctx, forceHarvest)
		})
	},
}

func init() {
	sweepHarvestCmd.Flags().BoolVar(&forceHarvest, "force", false, "ignore the auto-harvest delay")
	sweepCmd.AddCommand(sweepDecayCmd, sweepHarvestCmd)
	rootCmd.AddCommand(serveCmd, migrateCmd, sweepCmd)
}

func newApp(ctx context.Context) (*app.App, error) {
	log, cfg, err := app.Bootstrap()
	if err != nil {
		return nil, err
	}
	a, err := app.New(ctx, log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}
	return a, nil
}

func runSweep(ctx context.Context, run func(context.Context, services.SweepService) (*services.SweepReport, error)) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := run(ctx, a.Services.Sweeps)
	if report != nil {
		out, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(out))
	}
	return err
}
