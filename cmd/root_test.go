package cmd

import (
	"io"
	"os"

	"github.com/poisonlab/poisonlab/api"
	. "github.com/poisonlab/poisonlab/helpertest"
	"github.com/poisonlab/poisonlab/log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("root command", func() {
	BeforeEach(func() {
		configPath = defaultConfigPath
		apiHost = defaultHost
		apiPort = defaultPort
	})

	When("help is called", func() {
		It("should execute without error", func() {
			c := NewRootCommand()
			c.SetOut(io.Discard)
			c.SetArgs([]string{"help"})

			Expect(c.Execute()).Should(Succeed())
		})
	})

	When("Config provided", func() {
		var tmpDir *TmpFolder

		BeforeEach(func() {
			tmpDir = NewTmpFolder("RootCommand")
			DeferCleanup(log.Silence)
		})

		It("should accept the env var", func() {
			tmpFile := tmpDir.CreateStringFile("config", "ports:", "  http: \"5333\"")

			os.Setenv(configFileEnvVar, tmpFile.Path)
			DeferCleanup(func() { os.Unsetenv(configFileEnvVar) })

			Expect(initConfig()).Should(Succeed())

			Expect(configPath).Should(Equal(tmpFile.Path))
			Expect(apiPort).Should(Equal(uint16(5333)))
		})

		It("should handle config with HTTP host and port", func() {
			configPath = tmpDir.CreateStringFile("config_with_http", "ports:", "  http: 127.0.0.1:8080").Path

			Expect(initConfig()).Should(Succeed())
			Expect(apiHost).Should(Equal("127.0.0.1"))
			Expect(apiPort).Should(Equal(uint16(8080)))
		})

		It("should keep the default host for a bare port", func() {
			configPath = tmpDir.CreateStringFile("config_with_port", "ports:", "  http: \"8080\"").Path

			Expect(initConfig()).Should(Succeed())
			Expect(apiHost).Should(Equal(defaultHost))
		})

		It("should handle config with invalid HTTP port", func() {
			configPath = tmpDir.CreateStringFile("config_with_invalid_http", "ports:", "  http: 127.0.0.1:invalid").Path

			err := initConfig()
			Expect(err).Should(HaveOccurred())
			Expect(err.Error()).Should(ContainSubstring("can't convert port"))
		})

		It("should report a broken config", func() {
			configPath = tmpDir.CreateStringFile("broken", "unknown: 1").Path

			Expect(initConfig()).Should(MatchError(ContainSubstring("unable to load configuration")))
		})

		It("should prefer explicit flags over the config", func() {
			configPath = tmpDir.CreateStringFile("config_with_http", "ports:", "  http: 127.0.0.1:8080").Path

			c := NewRootCommand()
			Expect(c.PersistentFlags().Set("apiPort", "9090")).Should(Succeed())

			Expect(initConfigPreRun(c, nil)).Should(Succeed())
			Expect(apiHost).Should(Equal("127.0.0.1"))
			Expect(apiPort).Should(Equal(uint16(9090)))
		})
	})

	Describe("apiURL function", func() {
		It("should return correct URL with default values", func() {
			Expect(apiURL()).Should(Equal("http://localhost:5000/api"))
		})

		It("should return correct URL with custom values", func() {
			apiHost = "127.0.0.1"
			apiPort = 8080

			Expect(apiURL()).Should(Equal("http://127.0.0.1:8080/api"))
		})
	})

	Describe("printResult function", func() {
		It("should pass the error through", func() {
			err := printResult(api.OperationResult{}, os.ErrClosed)

			Expect(err).Should(MatchError(os.ErrClosed))
		})

		It("should succeed for a result", func() {
			Expect(printResult(api.OperationResult{Success: true, Output: "line 1\nline 2"}, nil)).Should(Succeed())
		})
	})

	Describe("Command execution", func() {
		It("should create root command with all subcommands", func() {
			cmd := NewRootCommand()

			subCmdNames := []string{}
			for _, subCmd := range cmd.Commands() {
				subCmdNames = append(subCmdNames, subCmd.Name())
			}

			Expect(subCmdNames).Should(ContainElements(
				"serve", "attack", "query", "cache", "website", "metrics", "anomalies", "logs", "reset",
				"dnssec", "experiment", "benchmark", "version", "healthcheck", "validate",
			))
		})

		It("should set flags correctly", func() {
			cmd := NewRootCommand()

			configFlag := cmd.PersistentFlags().Lookup("config")
			Expect(configFlag).ShouldNot(BeNil())
			Expect(configFlag.Shorthand).Should(Equal("c"))
			Expect(configFlag.DefValue).Should(Equal(defaultConfigPath))

			Expect(cmd.PersistentFlags().Lookup("apiHost").DefValue).Should(Equal(defaultHost))
			Expect(cmd.PersistentFlags().Lookup("apiPort").DefValue).Should(Equal("5000"))
		})
	})
})
