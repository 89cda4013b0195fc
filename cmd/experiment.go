package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/poisonlab/poisonlab/experiment"
	"github.com/poisonlab/poisonlab/log"
	"github.com/poisonlab/poisonlab/util"
)

const (
	defaultTrials       = 50
	defaultTrialPause   = 200 * time.Millisecond
	defaultBenchQueries = 30
)

func newExperimentCommand() *cobra.Command {
	c := &cobra.Command{
		Use:               "experiment",
		Args:              cobra.NoArgs,
		Short:             "Run attack trials in one mode and write the results as CSV",
		RunE:              runExperiment,
		PersistentPreRunE: initConfigPreRun,
	}

	c.Flags().StringP("mode", "m", experiment.ModeUnsigned.String(), "unsigned (no DNSSEC) or dnssec (validation on)")
	c.Flags().IntP("trials", "n", defaultTrials, "number of attack trials")
	c.Flags().StringP("out", "o", "", "output CSV path, measurements_<mode>_<trials>.csv by default")
	c.Flags().Duration("pause", defaultTrialPause, "pause between two trials")

	return c
}

func runExperiment(cmd *cobra.Command, _ []string) error {
	modeFlag, _ := cmd.Flags().GetString("mode")
	trials, _ := cmd.Flags().GetInt("trials")
	out, _ := cmd.Flags().GetString("out")
	pause, _ := cmd.Flags().GetDuration("pause")

	mode, err := experiment.ParseMode(modeFlag)
	if err != nil {
		return err
	}

	if trials < 1 {
		return fmt.Errorf("trials must be positive, got %d", trials)
	}

	if out == "" {
		out = fmt.Sprintf("measurements_%s_%d.csv", mode, trials)
	}

	runner := experiment.NewRunner(newClient(), pause)

	results, err := runner.Run(context.Background(), mode, trials)
	if err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("can't create %s: %w", out, err)
	}

	defer func() { util.LogOnError("can't close file: ", f.Close()) }()

	if err := experiment.WriteCSV(f, results); err != nil {
		return err
	}

	log.Log().Infof("wrote results to %s", out)
	log.Log().Info(experiment.Summarize(results))

	return nil
}

func newBenchmarkCommand() *cobra.Command {
	c := &cobra.Command{
		Use:               "benchmark [domain]",
		Args:              cobra.MaximumNArgs(1),
		Short:             "Measure the latency of uncached resolutions",
		RunE:              runBenchmark,
		PersistentPreRunE: initConfigPreRun,
	}

	c.Flags().IntP("queries", "n", defaultBenchQueries, "number of queries")

	return c
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	n, _ := cmd.Flags().GetInt("queries")

	if n < 1 {
		return fmt.Errorf("queries must be positive, got %d", n)
	}

	report, err := experiment.NewRunner(newClient(), 0).Benchmark(context.Background(), firstArg(args), n)
	if err != nil {
		return err
	}

	if report.Count == 0 {
		return fmt.Errorf("no successful measurements")
	}

	log.Log().Info("latency summary:")
	log.Log().Info(report)

	return nil
}
