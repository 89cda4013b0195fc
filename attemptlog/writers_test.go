package attemptlog

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"gorm.io/driver/sqlite"

	"github.com/poisonlab/poisonlab/helpertest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func newEntry(start time.Time) *LogEntry {
	return &LogEntry{
		Start:        start,
		AttemptID:    fmt.Sprintf("attempt-%d", start.UnixNano()),
		QueryID:      "query-1",
		Domain:       "www.example.com.",
		GuessedToken: 12,
		GuessedPort:  33333,
		ForgedIP:     "10.0.100.100",
		Outcome:      "rejected-mismatch",
	}
}

var _ = Describe("Writers", func() {
	var tmpDir *helpertest.TmpFolder

	BeforeEach(func() {
		tmpDir = helpertest.NewTmpFolder("attemptLog")
		Expect(tmpDir.Error).Should(Succeed())
		DeferCleanup(tmpDir.Clean)
	})

	Describe("NoneWriter", func() {
		It("should do nothing", func() {
			NewNoneWriter().Write(nil)
			NewNoneWriter().CleanUp()
		})
	})

	Describe("LoggerWriter", func() {
		It("should log the attempt", func() {
			writer := NewLoggerWriter()
			logger, hook := test.NewNullLogger()
			writer.logger = logger.WithField("k", "v")

			writer.Write(newEntry(time.Now()))

			Expect(hook.Entries).Should(HaveLen(1))
			Expect(hook.LastEntry().Message).Should(Equal("attempt finished"))
			Expect(hook.LastEntry().Data).Should(HaveKeyWithValue("outcome", "rejected-mismatch"))
		})

		It("should omit empty fields", func() {
			fields := LogEntryFields(&LogEntry{Domain: "www.example.com."})

			Expect(fields).Should(Equal(logrus.Fields{"domain": "www.example.com."}))
		})
	})

	Describe("CSV writer", func() {
		When("target dir does not exist", func() {
			It("should return error", func() {
				_, err := NewCSVWriter("wrongdir", 0)
				Expect(err).Should(HaveOccurred())
			})
		})

		It("should write all attempts of a day into one file", func() {
			writer, err := NewCSVWriter(tmpDir.Path, 0)
			Expect(err).Should(Succeed())

			writer.Write(newEntry(time.Now()))
			writer.Write(newEntry(time.Now()))

			rows := readCsv(tmpDir.JoinPath(fmt.Sprintf("%s_attempts.log", time.Now().Format("2006-01-02"))))
			Expect(rows).Should(HaveLen(2))
			Expect(rows[0][3]).Should(Equal("www.example.com."))
			Expect(rows[0][7]).Should(Equal("rejected-mismatch"))
		})

		It("should delete files older than the retention", func() {
			writer, err := NewCSVWriter(tmpDir.Path, 1)
			Expect(err).Should(Succeed())

			writer.Write(newEntry(time.Now()))
			writer.Write(newEntry(time.Now().AddDate(0, 0, -3)))

			Expect(tmpDir.CountFiles()).Should(Equal(2))

			writer.CleanUp()

			Expect(tmpDir.CountFiles()).Should(Equal(1))
		})
	})

	Describe("DatabaseWriter", func() {
		var writer *DatabaseWriter

		count := func() int64 {
			var res int64

			writer.db.Model(&attemptEntry{}).Count(&res)

			return res
		}

		BeforeEach(func() {
			ctx, cancel := context.WithCancel(context.Background())
			DeferCleanup(cancel)

			var err error

			writer, err = newDatabaseWriter(ctx, sqlite.Open(tmpDir.JoinPath("attempts.db")), 1, time.Millisecond)
			Expect(err).Should(Succeed())
		})

		It("should persist the attempts", func() {
			writer.Write(newEntry(time.Now()))

			Eventually(count, "1s").Should(BeNumerically("==", 1))

			var stored attemptEntry
			Expect(writer.db.First(&stored).Error).Should(Succeed())
			Expect(stored.EffectiveTLD).Should(Equal("example.com"))
			Expect(stored.GuessedPort).Should(BeNumerically("==", 33333))
		})

		It("should delete entries exceeding the retention period", func() {
			writer.Write(newEntry(time.Now()))
			writer.Write(newEntry(time.Now().AddDate(0, 0, -2)))

			Eventually(count, "1s").Should(BeNumerically("==", 2))

			writer.CleanUp()

			Eventually(count, "1s").Should(BeNumerically("==", 1))
		})
	})
})

func readCsv(file string) [][]string {
	var result [][]string

	csvFile, err := os.Open(file)
	Expect(err).Should(Succeed())

	defer csvFile.Close()

	reader := csv.NewReader(bufio.NewReader(csvFile))
	reader.Comma = '\t'

	for {
		line, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		Expect(err).Should(Succeed())

		result = append(result, line)
	}

	return result
}
