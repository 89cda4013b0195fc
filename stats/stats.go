package stats

import (
	"strings"
	"sync"
	"time"
)

const (
	window     = 24 * time.Hour
	hourLayout = "2006010215"
)

// nolint
var now = time.Now

// Aggregator counts keys (attempt outcomes) per hour and keeps the hours of the last day
type Aggregator struct {
	// hour -> ( string -> count )
	hourResults map[string]map[string]int
	Name        string
	currentHour string
	lock        sync.Mutex
	stageData   map[string]int
}

// NewAggregator returns new aggregator with specified name
func NewAggregator(name string) *Aggregator {
	return &Aggregator{
		Name:        name,
		stageData:   make(map[string]int),
		hourResults: make(map[string]map[string]int),
		currentHour: currentHour(),
	}
}

// AggregateResult returns a map with aggregation result including the current hour
func (s *Aggregator) AggregateResult() map[string]int {
	result := make(map[string]int)

	s.lock.Lock()
	defer s.lock.Unlock()

	s.hourSwitch()

	for _, hv := range s.hourResults {
		for k, v := range hv {
			result[k] += v
		}
	}

	for k, v := range s.stageData {
		result[k] += v
	}

	return result
}

// returns current date with hour
func currentHour() string {
	return now().Format(hourLayout)
}

// Put adds a new key to the aggregation
func (s *Aggregator) Put(key string) {
	key = strings.TrimSpace(key)
	if len(key) > 0 {
		s.lock.Lock()
		defer s.lock.Unlock()

		s.hourSwitch()

		s.stageData[key]++
	}
}

// Reset removes all aggregated values
func (s *Aggregator) Reset() {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.hourResults = make(map[string]map[string]int)
	s.stageData = make(map[string]int)
	s.currentHour = currentHour()
}

func (s *Aggregator) hourSwitch() {
	hour := currentHour()
	if hour == s.currentHour {
		return
	}

	if len(s.stageData) > 0 {
		s.hourResults[s.currentHour] = s.stageData
	}

	for k := range s.hourResults {
		h, _ := time.Parse(hourLayout, k)

		if h.Before(now().Add(-window)) {
			delete(s.hourResults, k)
		}
	}

	s.currentHour = hour
	s.stageData = make(map[string]int)
}
