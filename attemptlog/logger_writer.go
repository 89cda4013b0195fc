package attemptlog

import (
	"github.com/sirupsen/logrus"

	"github.com/poisonlab/poisonlab/log"
)

const loggerPrefixLoggerWriter = "attemptLog"

type LoggerWriter struct {
	logger *logrus.Entry
}

func NewLoggerWriter() *LoggerWriter {
	return &LoggerWriter{logger: log.PrefixedLog(loggerPrefixLoggerWriter)}
}

func (d *LoggerWriter) Write(entry *LogEntry) {
	d.logger.WithFields(LogEntryFields(entry)).Infof("attempt finished")
}

func (d *LoggerWriter) CleanUp() {
	// Nothing to do
}

// LogEntryFields returns the non-empty fields of the entry
func LogEntryFields(entry *LogEntry) logrus.Fields {
	return withoutZeroes(logrus.Fields{
		"attempt_id":    entry.AttemptID,
		"query_id":      entry.QueryID,
		"domain":        entry.Domain,
		"guessed_token": entry.GuessedToken,
		"guessed_port":  entry.GuessedPort,
		"forged_ip":     entry.ForgedIP,
		"outcome":       entry.Outcome,
	})
}

func withoutZeroes(fields logrus.Fields) logrus.Fields {
	for k, v := range fields {
		switch v := v.(type) {
		case string:
			if v == "" {
				delete(fields, k)
			}
		case uint16:
			if v == 0 {
				delete(fields, k)
			}
		case int:
			if v == 0 {
				delete(fields, k)
			}
		}
	}

	return fields
}
