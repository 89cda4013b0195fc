package detector

//go:generate go run github.com/abice/go-enum -f=$GOFILE --marshal --names

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/maps"

	"github.com/poisonlab/poisonlab/collector"
	"github.com/poisonlab/poisonlab/evt"
	"github.com/poisonlab/poisonlab/log"
	"github.com/poisonlab/poisonlab/model"
	"github.com/poisonlab/poisonlab/util"
)

const detectorLogger = "detector"

// nolint
var now = time.Now

// AnomalyType kind of suspicious resolver traffic ENUM(
// multiple_responses // more than one response reached the query
// conflicting_responses // responses carried different addresses
// )
type AnomalyType int

// Severity of an anomaly ENUM(
// high
// critical
// )
type Severity int

// Anomaly is a suspicious pattern in the responses of one query
type Anomaly struct {
	Type       AnomalyType `json:"type"`
	Domain     string      `json:"domain"`
	QueryID    string      `json:"query_id"`
	Count      int         `json:"count"`
	IPs        []string    `json:"ips,omitempty"`
	Severity   Severity    `json:"severity"`
	DetectedAt time.Time   `json:"detected_at"`
}

type observation struct {
	domain    string
	responses int
	ips       map[string]struct{}
	first     time.Time
}

// Detector watches the responses delivered to the resolver and flags queries that received
// more than one response or conflicting addresses
type Detector struct {
	mu           sync.RWMutex
	observations map[string]*observation
	order        []string
	capacity     int
	collector    *collector.Collector
	logger       *logrus.Entry
}

// New creates a detector remembering at most capacity queries
func New(capacity int, c *collector.Collector) *Detector {
	d := &Detector{
		observations: make(map[string]*observation),
		capacity:     capacity,
		collector:    c,
		logger:       log.PrefixedLog(detectorLogger),
	}

	util.LogOnErrorWithEntry(d.logger, "can't subscribe to lab reset", evt.Bus().Subscribe(evt.LabReset, d.Reset))

	return d
}

// Observe implements resolver.Observer
func (d *Detector) Observe(key model.QueryKey, queryID string, c *model.Candidate, _ model.Outcome) {
	if queryID == "" {
		// no outstanding query, nothing to correlate with
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	o, ok := d.observations[queryID]
	if !ok {
		o = &observation{domain: key.Domain, ips: make(map[string]struct{}), first: now()}
		d.observations[queryID] = o
		d.order = append(d.order, queryID)
		d.evict()
	}

	o.responses++

	if o.responses == 2 {
		d.logger.WithField("query_id", queryID).Warnf("multiple responses for %s", key.Domain)
	}

	ip := util.FirstA(c.Msg)
	if ip == nil {
		return
	}

	before := len(o.ips)
	o.ips[ip.String()] = struct{}{}

	if before == 1 && len(o.ips) == 2 {
		d.collector.Add(collector.ScopeResolver, collector.KindAttack,
			"anomaly: conflicting responses for %s (%s)", key.Domain, strings.Join(sortedIPs(o.ips), ", "))
	}
}

func (d *Detector) evict() {
	for d.capacity > 0 && len(d.order) > d.capacity {
		delete(d.observations, d.order[0])
		d.order = d.order[1:]
	}
}

// Anomalies returns all anomalies found so far, oldest first
func (d *Detector) Anomalies() []Anomaly {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var res []Anomaly

	for _, id := range d.order {
		o := d.observations[id]

		if o.responses > 1 {
			res = append(res, Anomaly{
				Type:       AnomalyTypeMultipleResponses,
				Domain:     o.domain,
				QueryID:    id,
				Count:      o.responses,
				Severity:   SeverityHigh,
				DetectedAt: o.first,
			})
		}

		if len(o.ips) > 1 {
			res = append(res, Anomaly{
				Type:       AnomalyTypeConflictingResponses,
				Domain:     o.domain,
				QueryID:    id,
				Count:      o.responses,
				IPs:        sortedIPs(o.ips),
				Severity:   SeverityCritical,
				DetectedAt: o.first,
			})
		}
	}

	return res
}

// Reset forgets all observations
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.observations = make(map[string]*observation)
	d.order = nil
}

func sortedIPs(ips map[string]struct{}) []string {
	res := maps.Keys(ips)
	sort.Strings(res)

	return res
}
