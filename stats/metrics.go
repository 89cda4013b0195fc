package stats

import (
	"math"
	"sync"

	"github.com/poisonlab/poisonlab/evt"
	"github.com/poisonlab/poisonlab/model"
)

// Metrics aggregates the attack counters. Counters only grow until Reset.
type Metrics struct {
	lock      sync.RWMutex
	attempts  uint64
	successes uint64
	blocked   uint64
	outcomes  *Aggregator
}

// NewMetrics creates empty counters
func NewMetrics() *Metrics {
	return &Metrics{outcomes: NewAggregator("outcomes")}
}

// RecordAttempt counts a decided forged response
func (m *Metrics) RecordAttempt(attempt model.AttackAttempt) {
	m.lock.Lock()

	m.attempts++

	switch attempt.Outcome {
	case model.OutcomeAccepted:
		m.successes++
	case model.OutcomeRejectedDnssec:
		m.blocked++
	}

	snapshot := m.snapshot()

	m.lock.Unlock()

	m.outcomes.Put(attempt.Outcome.String())

	evt.Bus().Publish(evt.MetricsChanged, snapshot)
}

// Snapshot returns the current counters
func (m *Metrics) Snapshot() model.MetricsSnapshot {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return m.snapshot()
}

// Outcomes returns the number of attempts per outcome of the last 24 hours
func (m *Metrics) Outcomes() map[string]int {
	return m.outcomes.AggregateResult()
}

// Reset sets all counters to zero
func (m *Metrics) Reset() {
	m.lock.Lock()
	m.attempts, m.successes, m.blocked = 0, 0, 0
	snapshot := m.snapshot()
	m.lock.Unlock()

	m.outcomes.Reset()

	evt.Bus().Publish(evt.MetricsChanged, snapshot)
}

func (m *Metrics) snapshot() model.MetricsSnapshot {
	return model.MetricsSnapshot{
		PoisonAttempts:    m.attempts,
		SuccessfulPoisons: m.successes,
		BlockedAttempts:   m.blocked,
		SuccessRate:       SuccessRate(m.successes, m.attempts),
	}
}

// SuccessRate returns successful/attempts in percent rounded to two decimals, 0 without attempts
func SuccessRate(successful, attempts uint64) float64 {
	if attempts == 0 {
		return 0
	}

	return math.Round(float64(successful)/float64(attempts)*100*100) / 100
}
