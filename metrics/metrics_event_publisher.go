package metrics

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/poisonlab/poisonlab/evt"
	"github.com/poisonlab/poisonlab/model"
	"github.com/poisonlab/poisonlab/util"
)

//nolint:gochecknoglobals
var registerOnce sync.Once

// RegisterEventListeners registers all metric handlers by the event bus
func RegisterEventListeners() {
	registerOnce.Do(func() {
		registerApplicationEventListeners()
		registerAttackEventListeners()
		registerResolverEventListeners()
		registerDNSSECEventListeners()
	})
}

func registerApplicationEventListeners() {
	v := versionNumberGauge()
	RegisterMetric(v)

	subscribe(evt.ApplicationStarted, func(version, buildTime string) {
		v.WithLabelValues(version, buildTime).Set(1)
	})
}

func versionNumberGauge() *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "poisonlab_build_info",
			Help: "Version number and build info",
		}, []string{"version", "build_time"},
	)
}

func registerAttackEventListeners() {
	running := attackRunningGauge()
	attempts := attemptCount()
	rounds := roundCount()
	successRate := successRateGauge()

	RegisterMetric(running)
	RegisterMetric(attempts)
	RegisterMetric(rounds)
	RegisterMetric(successRate)

	subscribe(evt.AttackStateChanged, func(state model.AttackState) {
		running.Set(boolToFloat(state == model.AttackStateRunning))
	})

	subscribe(evt.AttemptFinished, func(attempt model.AttackAttempt) {
		attempts.WithLabelValues(attempt.Outcome.String()).Inc()
	})

	subscribe(evt.AttackRoundFinished, func(_ any) {
		rounds.Inc()
	})

	subscribe(evt.MetricsChanged, func(snapshot model.MetricsSnapshot) {
		successRate.Set(snapshot.SuccessRate)
	})
}

func attackRunningGauge() prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "poisonlab_attack_running",
		Help: "Attack controller status",
	})
}

func attemptCount() *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poisonlab_attempts_total",
			Help: "Number of forged responses by outcome",
		}, []string{"outcome"},
	)
}

func roundCount() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "poisonlab_attack_rounds_total",
		Help: "Number of finished attack rounds",
	})
}

func successRateGauge() prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "poisonlab_success_rate_percent",
		Help: "Share of successful poisoning attempts",
	})
}

func registerResolverEventListeners() {
	commits := commitCount()
	timeouts := timeoutCount()
	flushes := flushCount()

	RegisterMetric(commits)
	RegisterMetric(timeouts)
	RegisterMetric(flushes)

	subscribe(evt.ResolverCacheCommitted, func(commit model.Commit) {
		commits.WithLabelValues(
			commit.Source.String(),
			strconv.FormatBool(commit.Poisoned),
			strconv.FormatBool(commit.Authenticated),
		).Inc()
	})

	subscribe(evt.ResolverQueryTimedOut, func(_ model.QueryKey) {
		timeouts.Inc()
	})

	subscribe(evt.ResolverCacheFlushed, func(_ string) {
		flushes.Inc()
	})
}

func commitCount() *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poisonlab_cache_commits_total",
			Help: "Number of answers committed to the resolver cache",
		}, []string{"source", "poisoned", "authenticated"},
	)
}

func timeoutCount() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "poisonlab_query_timeouts_total",
		Help: "Number of queries without accepted answer",
	})
}

func flushCount() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "poisonlab_cache_flushes_total",
		Help: "Number of resolver cache flushes",
	})
}

func registerDNSSECEventListeners() {
	status := dnssecStatusGauge()

	RegisterMetric(status)

	subscribe(evt.DNSSECStateChanged, func(s model.DNSSECStatus) {
		status.WithLabelValues("keys_generated").Set(boolToFloat(s.KeysGenerated))
		status.WithLabelValues("zone_signed").Set(boolToFloat(s.ZoneSigned))
		status.WithLabelValues("dnskey_published").Set(boolToFloat(s.DNSKEYPublished))
		status.WithLabelValues("validation_enabled").Set(boolToFloat(s.DNSSECEnabled))
	})
}

func dnssecStatusGauge() *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "poisonlab_dnssec_status",
			Help: "DNSSEC lifecycle flags",
		}, []string{"flag"},
	)
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}

	return 0
}

func subscribe(topic string, fn interface{}) {
	util.FatalOnError(fmt.Sprintf("can't subscribe topic '%s'", topic), evt.Bus().Subscribe(topic, fn))
}
