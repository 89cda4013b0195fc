package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/poisonlab/poisonlab/log"
)

func newDNSSECCommand() *cobra.Command {
	c := &cobra.Command{
		Use:               "dnssec",
		Short:             "Control signing of the zone and validation at the resolver",
		PersistentPreRunE: initConfigPreRun,
	}

	validate := &cobra.Command{
		Use:   "validate",
		Args:  cobra.NoArgs,
		Short: "Enable DNSSEC validation at the resolver",
		RunE:  validateDNSSEC,
	}
	validate.Flags().Bool("disable", false, "disable validation instead")

	logs := &cobra.Command{
		Use:   "logs",
		Args:  cobra.NoArgs,
		Short: "Print the DNSSEC logs of the authoritative server and the resolver",
		RunE:  dnssecLogs,
	}
	logs.Flags().String("side", "all", "authoritative, resolver or all")

	c.AddCommand(&cobra.Command{
		Use:   "setup",
		Args:  cobra.NoArgs,
		Short: "Generate keys and sign the zone, a signed zone is unsigned again",
		RunE:  setupDNSSEC,
	}, &cobra.Command{
		Use:   "unsign",
		Args:  cobra.NoArgs,
		Short: "Serve the unsigned zone",
		RunE:  unsignZone,
	}, &cobra.Command{
		Use:   "status",
		Args:  cobra.NoArgs,
		Short: "Print the DNSSEC state",
		RunE:  dnssecStatus,
	}, &cobra.Command{
		Use:   "verify [domain]",
		Args:  cobra.MaximumNArgs(1),
		Short: "Validate the zone's answer for a domain, the victim domain by default",
		RunE:  verifyDomain,
	}, &cobra.Command{
		Use:   "rotate",
		Args:  cobra.NoArgs,
		Short: "Replace the key pairs",
		RunE:  rotateKeys,
	}, validate, logs)

	return c
}

func setupDNSSEC(_ *cobra.Command, _ []string) error {
	return printResult(newClient().SetupDNSSEC(context.Background()))
}

func unsignZone(_ *cobra.Command, _ []string) error {
	return printResult(newClient().UnsignZone(context.Background()))
}

func rotateKeys(_ *cobra.Command, _ []string) error {
	return printResult(newClient().RotateKeys(context.Background()))
}

func validateDNSSEC(cmd *cobra.Command, _ []string) error {
	disable, _ := cmd.Flags().GetBool("disable")

	if disable {
		return printResult(newClient().DisableValidation(context.Background()))
	}

	return printResult(newClient().EnableValidation(context.Background()))
}

func dnssecStatus(_ *cobra.Command, _ []string) error {
	status, err := newClient().DNSSECStatus(context.Background())
	if err != nil {
		return fmt.Errorf("can't read dnssec status: %w", err)
	}

	log.Log().Infof("keys generated:     %t", status.KeysGenerated)
	log.Log().Infof("zone signed:        %t", status.ZoneSigned)
	log.Log().Infof("DNSKEY records:     %d", status.DNSKEYCount)
	log.Log().Infof("validation enabled: %t", status.DNSSECEnabled)

	return nil
}

func verifyDomain(_ *cobra.Command, args []string) error {
	res, err := newClient().Verify(context.Background(), firstArg(args))
	if err != nil {
		return fmt.Errorf("can't verify: %w", err)
	}

	log.Log().Infof("Verification result for '%s':", res.Domain)
	log.Log().Infof("\thas signatures:        %t", res.HasSignatures)
	log.Log().Infof("\tvalidation successful: %t", res.ValidationSuccessful)
	log.Log().Infof("\tauthenticated:         %t", res.Authenticated)
	log.Log().Info(res.QueryOutput)

	return nil
}

func dnssecLogs(cmd *cobra.Command, _ []string) error {
	side, _ := cmd.Flags().GetString("side")
	client := newClient()
	ctx := context.Background()

	switch side {
	case "authoritative", "all":
		logs, err := client.AuthoritativeLogs(ctx)
		if err != nil {
			return fmt.Errorf("can't read authoritative logs: %w", err)
		}

		log.Log().Info("authoritative server:")
		log.Log().Info(logs.Logs)

		if side == "authoritative" {
			return nil
		}

		fallthrough
	case "resolver":
		logs, err := client.ResolverLogs(ctx)
		if err != nil {
			return fmt.Errorf("can't read resolver logs: %w", err)
		}

		log.Log().Info("resolver validation:")
		log.Log().Info(logs.DNSSECLogs)
		log.Log().Info("resolver queries:")
		log.Log().Info(logs.QueryLogs)
	default:
		return fmt.Errorf("unknown side '%s'", side)
	}

	return nil
}
