package attemptlog

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"

	"github.com/poisonlab/poisonlab/config"
	"github.com/poisonlab/poisonlab/log"
	"github.com/poisonlab/poisonlab/model"
)

const (
	cleanUpRunPeriod = 12 * time.Hour
	attemptLogPrefix = "attempt_log"
	logChanCap       = 1000
	defaultFlushTime = 30 * time.Second
)

// Logger writes every decided attack attempt asynchronously to the configured writer
type Logger struct {
	cfg     config.AttemptLog
	writer  Writer
	logChan chan *LogEntry
	logger  *logrus.Entry
}

// New creates the attempt logger. Creation of the writer is retried as configured.
func New(ctx context.Context, cfg config.AttemptLog) (*Logger, error) {
	logger := log.PrefixedLog(attemptLogPrefix)

	var writer Writer

	err := retry.Do(
		func() error {
			var err error

			writer, err = newWriter(ctx, cfg)

			return err
		},
		retry.Attempts(uint(cfg.CreationAttempts)),
		retry.Delay(cfg.CreationCooldown.ToDuration()),
		retry.DelayType(retry.FixedDelay),
		retry.OnRetry(func(n uint, err error) {
			logger.Warnf("error on creating attempt log writer, n: %d, error: %v", n+1, err)
		}),
		retry.Context(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("can't create attempt log writer: %w", err)
	}

	return newLogger(ctx, cfg, writer), nil
}

func newLogger(ctx context.Context, cfg config.AttemptLog, writer Writer) *Logger {
	l := &Logger{
		cfg:     cfg,
		writer:  writer,
		logChan: make(chan *LogEntry, logChanCap),
		logger:  log.PrefixedLog(attemptLogPrefix),
	}

	go l.writeLog(ctx)

	if cfg.LogRetentionDays > 0 {
		go l.periodicCleanUp(ctx)
	}

	return l
}

func newWriter(ctx context.Context, cfg config.AttemptLog) (Writer, error) {
	flush := cfg.FlushInterval.ToDuration()
	if flush <= 0 {
		flush = defaultFlushTime
	}

	switch cfg.Type {
	case config.AttemptLogTypeCsv:
		return NewCSVWriter(cfg.Target, cfg.LogRetentionDays)
	case config.AttemptLogTypeMysql:
		return NewDatabaseWriter(ctx, mysql.Open(cfg.Target), cfg.LogRetentionDays, flush)
	case config.AttemptLogTypePostgresql:
		return NewDatabaseWriter(ctx, postgres.Open(cfg.Target), cfg.LogRetentionDays, flush)
	case config.AttemptLogTypeSqlite:
		return NewDatabaseWriter(ctx, sqlite.Open(cfg.Target), cfg.LogRetentionDays, flush)
	case config.AttemptLogTypeConsole:
		return NewLoggerWriter(), nil
	case config.AttemptLogTypeNone:
		return NewNoneWriter(), nil
	}

	return nil, fmt.Errorf("unsupported attempt log type: %s", cfg.Type)
}

// RecordAttempt implements spoofer.Recorder
func (l *Logger) RecordAttempt(attempt model.AttackAttempt) {
	entry := &LogEntry{
		Start:        attempt.Timestamp,
		AttemptID:    attempt.ID,
		QueryID:      attempt.QueryID,
		Domain:       attempt.Domain,
		GuessedToken: attempt.GuessedToken,
		GuessedPort:  attempt.GuessedPort,
		ForgedIP:     attempt.ForgedIP.String(),
		Outcome:      attempt.Outcome.String(),
	}

	select {
	case l.logChan <- entry:
	default:
		l.logger.Error("attempt log writer is too slow, log entry will be dropped")
	}
}

func (l *Logger) writeLog(ctx context.Context) {
	for {
		select {
		case entry := <-l.logChan:
			start := time.Now()

			l.writer.Write(entry)

			halfCap := cap(l.logChan) / 2

			// if log channel is > 50% full, this could be a problem with slow writer (external storage over network etc.)
			if len(l.logChan) > halfCap {
				l.logger.WithField("channel_len",
					len(l.logChan)).Warnf("attempt log writer is too slow, write duration: %d ms",
					time.Since(start).Milliseconds())
			}
		case <-ctx.Done():
			return
		}
	}
}

// triggers periodically cleanup of old log entries
func (l *Logger) periodicCleanUp(ctx context.Context) {
	ticker := time.NewTicker(cleanUpRunPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.writer.CleanUp()
		case <-ctx.Done():
			return
		}
	}
}
