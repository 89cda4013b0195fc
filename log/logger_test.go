package log

import (
	"context"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Logger", func() {
	When("hostname file is provided", func() {
		var (
			tmpFile *os.File
			err     error
		)
		JustBeforeEach(func() {
			tmpFile, err = os.CreateTemp("", "prefix")
			Expect(err).Should(Succeed())
			_, err = tmpFile.WriteString("Test-Hostname")
			Expect(err).Should(Succeed())
			DeferCleanup(func() { os.Remove(tmpFile.Name()) })
		})
		It("should use it", func() {
			hostname, err := getHostname(tmpFile.Name())
			Expect(err).Should(Succeed())
			Expect(hostname).Should(Equal("test-hostname"))
		})
	})
	When("hostname file is not provided", func() {
		hostname1, err := os.Hostname()
		Expect(err).Should(Succeed())
		hostname2, err := getHostname("")
		Expect(err).Should(Succeed())
		Expect(hostname2).Should(Equal(hostname1))
	})
})

var _ = Describe("ConfigureLogger", func() {
	AfterEach(func() {
		ConfigureLogger(Config{Level: LevelInfo, Format: FormatTypeText, Timestamp: true})
		Silence()
	})

	When("a log file is configured", func() {
		It("should write entries to the file", func() {
			path := filepath.Join(GinkgoT().TempDir(), "poisonlab.log")

			ConfigureLogger(Config{
				Level:  LevelDebug,
				Format: FormatTypeJson,
				File:   FileConfig{Path: path, MaxSizeMB: 1},
			})

			PrefixedLog("test").Info("hello from the lab")

			Eventually(func() (string, error) {
				b, err := os.ReadFile(path)

				return string(b), err
			}).Should(ContainSubstring("hello from the lab"))
		})
	})

	When("level is changed", func() {
		It("should apply the level to the global logger", func() {
			ConfigureLogger(Config{Level: LevelWarn, Format: FormatTypeText})

			Expect(Log().GetLevel()).Should(Equal(logrus.WarnLevel))
		})
	})
})

var _ = Describe("EscapeInput", func() {
	It("should strip line breaks", func() {
		Expect(EscapeInput("www.example.com.\r\nevil")).Should(Equal("www.example.com.evil"))
	})
})

var _ = Describe("Context logger", func() {
	It("should fall back to the global logger", func() {
		Expect(FromCtx(context.Background()).Logger).Should(BeIdenticalTo(Log()))
	})

	It("should carry fields through the context", func() {
		ctx, _ := NewCtx(context.Background(), PrefixedLog("dns"))
		ctx, entry := CtxWithFields(ctx, logrus.Fields{"client_ip": "10.0.0.1"})

		Expect(entry.Data).Should(HaveKeyWithValue("prefix", "dns"))
		Expect(entry.Data).Should(HaveKeyWithValue("client_ip", "10.0.0.1"))
		Expect(FromCtx(ctx).Data).Should(HaveKeyWithValue("client_ip", "10.0.0.1"))
		Expect(FromCtx(ctx).Context).Should(Equal(ctx))
	})
})
