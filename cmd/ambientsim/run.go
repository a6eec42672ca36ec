package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/Harshitk-cp/ambient/internal/domain"
	"github.com/Harshitk-cp/ambient/internal/simulation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	runRows     int
	runCols     int
	runVirtual  int
	runSamples  int
	runGapRate  float64
	runSeed     uint64
	runSpacing  float64
	runDuration time.Duration
	runTrain    bool
	runInfo     string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation and print per agent estimation errors",
	RunE:  runSimulation,
}

func init() {
	def := simulation.DefaultScenario()
	runCmd.Flags().IntVar(&runRows, "rows", def.Rows, "rows of real sensors")
	runCmd.Flags().IntVar(&runCols, "cols", def.Cols, "columns of real sensors")
	runCmd.Flags().IntVar(&runVirtual, "virtual", def.Virtual, "virtual agents placed between the sensors")
	runCmd.Flags().IntVar(&runSamples, "samples", def.Samples, "samples replayed by each sensor")
	runCmd.Flags().Float64Var(&runGapRate, "gap-rate", def.GapRate, "probability of a sample being hidden")
	runCmd.Flags().Uint64Var(&runSeed, "seed", def.Seed, "random seed for series and gaps")
	runCmd.Flags().Float64Var(&runSpacing, "spacing", def.Spacing, "distance between grid neighbors")
	runCmd.Flags().DurationVar(&runDuration, "duration", 0, "stop after this long (0 runs until the data ends)")
	runCmd.Flags().BoolVar(&runTrain, "train", def.Train, "replay fully observed before evaluating on gaps")
	runCmd.Flags().StringVar(&runInfo, "info", def.Info.String(), "measured quantity")
}

func runSimulation(cmd *cobra.Command, _ []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	info, err := domain.ParseInfoType(runInfo)
	if err != nil {
		return err
	}

	sc := simulation.DefaultScenario()
	sc.Rows, sc.Cols = runRows, runCols
	sc.Virtual = runVirtual
	sc.Samples = runSamples
	sc.GapRate = runGapRate
	sc.Seed = runSeed
	sc.Spacing = runSpacing
	sc.Train = runTrain
	sc.Info = info

	rec := simulation.NewRecorder()
	agents, err := sc.Build(simulation.SettingsFromEnv(), rec, logger)
	if err != nil {
		return fmt.Errorf("build scenario: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if runDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, runDuration)
		defer cancel()
	}

	runner := simulation.NewRunner(logger, agents...)
	if err := runner.Run(ctx); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, r := range rec.Reports() {
		logger.Info("agent report",
			zap.String("agent", r.Agent),
			zap.Int("contexts", r.Contexts),
			zap.Int("imputations", r.Imputations),
			zap.Float64("mae", r.MAE),
			zap.Float64("rmse", r.RMSE),
		)
		fmt.Fprintf(out, "%-14s contexts=%-5d imputations=%-4d mae=%.4f rmse=%.4f\n",
			r.Agent, r.Contexts, r.Imputations, r.MAE, r.RMSE)
	}
	return nil
}
