package attemptlog

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/creasty/defaults"

	"github.com/poisonlab/poisonlab/config"
	"github.com/poisonlab/poisonlab/model"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type memoryWriter struct {
	sync.Mutex
	entries []*LogEntry
}

func (m *memoryWriter) Write(entry *LogEntry) {
	m.Lock()
	defer m.Unlock()

	m.entries = append(m.entries, entry)
}

func (m *memoryWriter) CleanUp() {}

func (m *memoryWriter) Entries() []*LogEntry {
	m.Lock()
	defer m.Unlock()

	return append([]*LogEntry(nil), m.entries...)
}

var _ = Describe("Logger", func() {
	var (
		cfg config.AttemptLog
		ctx context.Context
	)

	BeforeEach(func() {
		cfg = config.AttemptLog{}
		Expect(defaults.Set(&cfg)).Should(Succeed())

		var cancel context.CancelFunc

		ctx, cancel = context.WithCancel(context.Background())
		DeferCleanup(cancel)
	})

	It("should write recorded attempts asynchronously", func() {
		writer := &memoryWriter{}
		sut := newLogger(ctx, cfg, writer)

		sut.RecordAttempt(model.AttackAttempt{
			ID:           "a1",
			QueryID:      "q1",
			Domain:       "www.example.com.",
			GuessedToken: 3,
			GuessedPort:  33334,
			ForgedIP:     net.ParseIP("10.0.100.100"),
			Outcome:      model.OutcomeAccepted,
			Timestamp:    time.Now(),
		})

		Eventually(writer.Entries).Should(HaveLen(1))
		Expect(writer.Entries()[0].Outcome).Should(Equal("accepted"))
		Expect(writer.Entries()[0].ForgedIP).Should(Equal("10.0.100.100"))
	})

	DescribeTable("writer creation",
		func(logType config.AttemptLogType, target string, expected any) {
			cfg.Type = logType
			cfg.Target = target

			sut, err := New(ctx, cfg)
			Expect(err).Should(Succeed())
			Expect(sut.writer).Should(BeAssignableToTypeOf(expected))
		},
		Entry("none", config.AttemptLogTypeNone, "", &NoneWriter{}),
		Entry("console", config.AttemptLogTypeConsole, "", &LoggerWriter{}),
		Entry("csv", config.AttemptLogTypeCsv, "", &FileWriter{}),
	)

	It("should give up after the configured attempts", func() {
		cfg.Type = config.AttemptLogTypeCsv
		cfg.Target = "/does/not/exist"
		cfg.CreationAttempts = 2
		cfg.CreationCooldown = config.Duration(time.Millisecond)

		_, err := New(ctx, cfg)
		Expect(err).Should(MatchError(ContainSubstring("can't create attempt log writer")))
	})
})
