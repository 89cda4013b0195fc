package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/poisonlab/poisonlab/log"
)

func newAttackCommand() *cobra.Command {
	c := &cobra.Command{
		Use:               "attack",
		Short:             "Control the cache poisoning attack",
		PersistentPreRunE: initConfigPreRun,
	}

	c.AddCommand(&cobra.Command{
		Use:   "start",
		Args:  cobra.NoArgs,
		Short: "Start the attack loop",
		RunE:  startAttack,
	}, &cobra.Command{
		Use:   "stop",
		Args:  cobra.NoArgs,
		Short: "Stop the attack loop",
		RunE:  stopAttack,
	}, &cobra.Command{
		Use:   "run",
		Args:  cobra.NoArgs,
		Short: "Run a single attack round",
		RunE:  runAttack,
	}, &cobra.Command{
		Use:   "status",
		Args:  cobra.NoArgs,
		Short: "Print the state of the attack loop",
		RunE:  attackStatus,
	})

	return c
}

func startAttack(_ *cobra.Command, _ []string) error {
	return printResult(newClient().StartAttack(context.Background()))
}

func stopAttack(_ *cobra.Command, _ []string) error {
	return printResult(newClient().StopAttack(context.Background()))
}

func runAttack(_ *cobra.Command, _ []string) error {
	res, err := newClient().RunRound(context.Background())
	if err != nil {
		return fmt.Errorf("can't run attack: %w", err)
	}

	log.Log().Info(res.Summary)
	log.Log().Infof("outcome:           %s", res.Outcome)
	log.Log().Infof("blocked by DNSSEC: %t", res.BlockedByDNSSEC)
	log.Log().Infof("forged responses:  %d", res.Sent)
	log.Log().Infof("duration:          %.3fs", res.DurationSec)

	return nil
}

func attackStatus(_ *cobra.Command, _ []string) error {
	status, err := newClient().AttackStatus(context.Background())
	if err != nil {
		return fmt.Errorf("can't read attack status: %w", err)
	}

	log.Log().Infof("attack is %s", status.State)

	return nil
}
