package attemptlog

import (
	"time"
)

// LogEntry is a flattened attack attempt
type LogEntry struct {
	Start        time.Time
	AttemptID    string
	QueryID      string
	Domain       string
	GuessedToken uint16
	GuessedPort  uint16
	ForgedIP     string
	Outcome      string
}

type Writer interface {
	Write(entry *LogEntry)
	CleanUp()
}
