package cmd

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/poisonlab/poisonlab/log"
)

func newMetricsCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "metrics",
		Args:              cobra.NoArgs,
		Short:             "Print the attack counters",
		RunE:              printMetrics,
		PersistentPreRunE: initConfigPreRun,
	}
}

func printMetrics(_ *cobra.Command, _ []string) error {
	m, err := newClient().Metrics(context.Background())
	if err != nil {
		return fmt.Errorf("can't read metrics: %w", err)
	}

	log.Log().Infof("poison attempts:    %d", m.PoisonAttempts)
	log.Log().Infof("successful poisons: %d", m.SuccessfulPoisons)
	log.Log().Infof("blocked attempts:   %d", m.BlockedAttempts)
	log.Log().Infof("success rate:       %.2f%%", m.SuccessRate)

	if len(m.Outcomes) > 0 {
		log.Log().Info(outcomeTable(m.Outcomes))
	}

	return nil
}

// outcomeTable renders the attempts per outcome of the last 24 hours
func outcomeTable(outcomes map[string]int) string {
	t := table.NewWriter()
	t.SetTitle("outcomes (24h)")
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"outcome", "count"})

	keys := maps.Keys(outcomes)
	slices.Sort(keys)

	for _, k := range keys {
		t.AppendRow(table.Row{k, outcomes[k]})
	}

	return "\n" + t.Render()
}

func newAnomaliesCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "anomalies",
		Args:              cobra.NoArgs,
		Short:             "Print suspicious resolver traffic",
		RunE:              printAnomalies,
		PersistentPreRunE: initConfigPreRun,
	}
}

func printAnomalies(_ *cobra.Command, _ []string) error {
	anomalies, err := newClient().Anomalies(context.Background())
	if err != nil {
		return fmt.Errorf("can't read anomalies: %w", err)
	}

	if len(anomalies) == 0 {
		log.Log().Info("no anomalies detected")

		return nil
	}

	for _, a := range anomalies {
		log.Log().Infof("[%s] %s: %s, %d responses %v", a.Severity, a.Type, a.Domain, a.Count, a.IPs)
	}

	return nil
}

func newLogsCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "logs",
		Args:              cobra.NoArgs,
		Short:             "Print the log of the latest attack round",
		RunE:              printLogs,
		PersistentPreRunE: initConfigPreRun,
	}
}

func printLogs(_ *cobra.Command, _ []string) error {
	logs, err := newClient().Logs(context.Background())
	if err != nil {
		return fmt.Errorf("can't read logs: %w", err)
	}

	log.Log().Info(logs.Output)

	return nil
}

func newResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "reset",
		Args:              cobra.NoArgs,
		Short:             "Restore the initial lab state",
		RunE:              resetLab,
		PersistentPreRunE: initConfigPreRun,
	}
}

func resetLab(_ *cobra.Command, _ []string) error {
	return printResult(newClient().Reset(context.Background()))
}
