package attemptlog

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/publicsuffix"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/poisonlab/poisonlab/log"
	"github.com/poisonlab/poisonlab/util"
)

const loggerPrefixDatabaseWriter = "databaseAttemptLogWriter"

type attemptEntry struct {
	AttemptID    string     `gorm:"primaryKey"`
	StartTS      *time.Time `gorm:"index"`
	QueryID      string     `gorm:"index"`
	Domain       string
	EffectiveTLD string
	GuessedToken uint16
	GuessedPort  uint16
	ForgedIP     string
	Outcome      string `gorm:"index"`
}

// DatabaseWriter buffers attempts and stores them in batches
type DatabaseWriter struct {
	db               *gorm.DB
	logRetentionDays uint64
	pendingEntries   []*attemptEntry
	lock             sync.RWMutex
	dbFlushPeriod    time.Duration
}

func NewDatabaseWriter(ctx context.Context, target gorm.Dialector, logRetentionDays uint64,
	dbFlushPeriod time.Duration,
) (*DatabaseWriter, error) {
	return newDatabaseWriter(ctx, target, logRetentionDays, dbFlushPeriod)
}

func newDatabaseWriter(ctx context.Context, target gorm.Dialector, logRetentionDays uint64,
	dbFlushPeriod time.Duration,
) (*DatabaseWriter, error) {
	db, err := gorm.Open(target, &gorm.Config{
		Logger: logger.New(
			log.PrefixedLog(loggerPrefixDatabaseWriter),
			logger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  logger.Error,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			}),
	})
	if err != nil {
		return nil, fmt.Errorf("can't create database connection: %w", err)
	}

	// Migrate the schema
	if err := db.AutoMigrate(&attemptEntry{}); err != nil {
		return nil, fmt.Errorf("can't perform auto migration: %w", err)
	}

	w := &DatabaseWriter{
		db:               db,
		logRetentionDays: logRetentionDays,
		dbFlushPeriod:    dbFlushPeriod,
	}

	go w.periodicFlush(ctx)

	return w, nil
}

func (d *DatabaseWriter) periodicFlush(ctx context.Context) {
	ticker := time.NewTicker(d.dbFlushPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			err := d.doDBWrite()

			util.LogOnError("can't write attempts to the database", err)

		case <-ctx.Done():
			util.LogOnError("can't write attempts to the database", d.doDBWrite())

			return
		}
	}
}

func (d *DatabaseWriter) Write(entry *LogEntry) {
	eTLD, _ := publicsuffix.EffectiveTLDPlusOne(strings.TrimSuffix(entry.Domain, "."))
	start := entry.Start

	e := &attemptEntry{
		AttemptID:    entry.AttemptID,
		StartTS:      &start,
		QueryID:      entry.QueryID,
		Domain:       entry.Domain,
		EffectiveTLD: eTLD,
		GuessedToken: entry.GuessedToken,
		GuessedPort:  entry.GuessedPort,
		ForgedIP:     entry.ForgedIP,
		Outcome:      entry.Outcome,
	}

	d.lock.Lock()
	defer d.lock.Unlock()

	d.pendingEntries = append(d.pendingEntries, e)
}

// CleanUp deletes entries older than the retention period
func (d *DatabaseWriter) CleanUp() {
	deletionDate := time.Now().AddDate(0, 0, -int(d.logRetentionDays))

	log.PrefixedLog(loggerPrefixDatabaseWriter).WithFields(logrus.Fields{
		"retention_days": d.logRetentionDays,
	}).Debugf("deleting attempt entries with start_ts < %s", deletionDate)
	d.db.Where("start_ts < ?", deletionDate).Delete(&attemptEntry{})
}

func (d *DatabaseWriter) doDBWrite() error {
	d.lock.Lock()
	defer d.lock.Unlock()

	if len(d.pendingEntries) > 0 {
		log.PrefixedLog(loggerPrefixDatabaseWriter).Tracef("%d entries to write", len(d.pendingEntries))

		const bulkSize = 1000

		// write bulk
		err := d.db.CreateInBatches(d.pendingEntries, bulkSize).Error
		// clear the slice with pending entries
		d.pendingEntries = nil

		return err
	}

	return nil
}
