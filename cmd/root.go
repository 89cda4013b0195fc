package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/poisonlab/poisonlab/api"
	"github.com/poisonlab/poisonlab/config"
	"github.com/poisonlab/poisonlab/log"
)

//nolint:gochecknoglobals
var (
	configPath string
	apiHost    string
	apiPort    uint16
)

const (
	defaultPort       = 5000
	defaultHost       = "localhost"
	defaultConfigPath = "./config.yml"
	configFileEnvVar  = "POISONLAB_CONFIG_FILE"
)

// NewRootCommand creates a new root cli command instance
func NewRootCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "poisonlab",
		Short: "poisonlab is a DNS cache poisoning lab",
		Long: `A lab which races forged DNS responses against a caching resolver
and shows how DNSSEC validation stops the attack.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return newServeCommand().RunE(cmd, args)
		},
		SilenceUsage: true,
	}

	c.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file or folder")
	c.PersistentFlags().StringVar(&apiHost, "apiHost", defaultHost, "host of poisonlab (API). Default overridden by config and CLI.")
	c.PersistentFlags().Uint16Var(&apiPort, "apiPort", defaultPort, "port of poisonlab (API). Default overridden by config and CLI.")

	c.AddCommand(newServeCommand(),
		newAttackCommand(),
		NewQueryCommand(),
		newCacheCommand(),
		newWebsiteCommand(),
		newMetricsCommand(),
		newAnomaliesCommand(),
		newLogsCommand(),
		newResetCommand(),
		newDNSSECCommand(),
		newExperimentCommand(),
		newBenchmarkCommand(),
		NewVersionCommand(),
		NewHealthcheckCommand(),
		NewValidateCommand())

	return c
}

func apiURL() string {
	return fmt.Sprintf("http://%s:%d/api", apiHost, apiPort)
}

func newClient() *api.Client {
	return api.NewClient(apiURL())
}

// initConfigPreRun loads the config for commands calling the API. Explicit flags win over the config.
func initConfigPreRun(cmd *cobra.Command, _ []string) error {
	host, port := apiHost, apiPort

	if err := initConfig(); err != nil {
		return err
	}

	if cmd.Flags().Changed("apiHost") {
		apiHost = host
	}

	if cmd.Flags().Changed("apiPort") {
		apiPort = port
	}

	return nil
}

func initConfig() error {
	if configPath == defaultConfigPath {
		if val, present := os.LookupEnv(configFileEnvVar); present {
			configPath = val
		}
	}

	cfg, err := config.LoadConfig(configPath, false)
	if err != nil {
		return fmt.Errorf("unable to load configuration: %w", err)
	}

	log.ConfigureLogger(cfg.Log)

	if addrs := cfg.Ports.HTTPAddrs(); len(addrs) != 0 {
		split := strings.Split(addrs[0], ":")
		lastIdx := len(split) - 1

		if host := strings.Join(split[:lastIdx], ":"); host != "" {
			apiHost = host
		}

		port, err := strconv.ParseUint(split[lastIdx], 10, 16)
		if err != nil {
			return fmt.Errorf("can't convert port '%s' to number %w", split[lastIdx], err)
		}

		apiPort = uint16(port)
	}

	return nil
}

// Execute starts the command
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func printResult(res api.OperationResult, err error) error {
	if err != nil {
		return err
	}

	for _, line := range strings.Split(strings.TrimSpace(res.Output), "\n") {
		if line != "" {
			log.Log().Info(line)
		}
	}

	log.Log().Info("OK")

	return nil
}
