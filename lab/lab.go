package lab

import (
	"context"
	"errors"
	"strings"

	"github.com/miekg/dns"
	"github.com/sirupsen/logrus"

	"github.com/poisonlab/poisonlab/attack"
	"github.com/poisonlab/poisonlab/authoritative"
	"github.com/poisonlab/poisonlab/collector"
	"github.com/poisonlab/poisonlab/config"
	"github.com/poisonlab/poisonlab/detector"
	"github.com/poisonlab/poisonlab/dnssec"
	"github.com/poisonlab/poisonlab/evt"
	"github.com/poisonlab/poisonlab/log"
	"github.com/poisonlab/poisonlab/model"
	"github.com/poisonlab/poisonlab/resolver"
	"github.com/poisonlab/poisonlab/spoofer"
	"github.com/poisonlab/poisonlab/stats"
	"github.com/poisonlab/poisonlab/website"
	"github.com/poisonlab/poisonlab/zone"
)

const (
	labLogger = "lab"

	noDNSSECLogs = "No DNSSEC logs yet"
	noQueryLogs  = "No query logs yet"
)

// Result is the outcome of a state changing operation
type Result struct {
	Success bool
	Output  string
	Err     error
}

// ResolverLogs contains the validation and the query log of the resolver
type ResolverLogs struct {
	DNSSEC  string
	Queries string
}

// Lab connects all actors of the simulation and exposes the lab operations
type Lab struct {
	cfg *config.Config

	store         *zone.Store
	collector     *collector.Collector
	engine        *dnssec.Engine
	resolver      *resolver.Resolver
	authoritative *authoritative.Server
	spoofer       *spoofer.Spoofer
	controller    *attack.Controller
	detector      *detector.Detector
	metrics       *stats.Metrics
	fetcher       *website.Fetcher

	logger *logrus.Entry
}

// New creates a lab in its initial state: unsigned zone, validation off, attack stopped.
// Every forged response is additionally passed to the recorders.
func New(ctx context.Context, cfg *config.Config, recorders ...spoofer.Recorder) (*Lab, error) {
	l := &Lab{
		cfg:       cfg,
		store:     zone.NewStore(cfg.Lab),
		collector: collector.New(cfg.Collector.Capacity),
		metrics:   stats.NewMetrics(),
		fetcher:   website.NewFetcher(cfg.Website, cfg.Lab),
		logger:    log.PrefixedLog(labLogger),
	}

	l.engine = dnssec.NewEngine(cfg.DNSSEC, l.store, l.collector)
	l.resolver = resolver.NewResolver(ctx, cfg.Resolver, cfg.Lab, l.engine.State(), l.engine.NewValidator(), l.collector)

	auth, err := authoritative.New(cfg.Authoritative, l.store, l.collector)
	if err != nil {
		return nil, err
	}

	l.authoritative = auth
	l.resolver.SetUpstream(auth)

	l.detector = detector.New(cfg.Collector.Capacity, l.collector)
	l.resolver.AddObserver(l.detector)

	l.spoofer = spoofer.New(cfg.Attack, cfg.Resolver, cfg.Lab, l.collector,
		append([]spoofer.Recorder{l.metrics}, recorders...)...).
		WithSignatures(l.signatures)

	l.controller = attack.NewController(cfg.Attack, cfg.Lab, l.resolver, auth, l.spoofer, l.collector)

	return l, nil
}

func (l *Lab) signatures(name string, qtype uint16) []*dns.RRSIG {
	set, ok := l.store.Lookup(name, qtype)
	if !ok {
		return nil
	}

	return set.RRSIGs
}

// Config returns the lab configuration
func (l *Lab) Config() *config.Config {
	return l.cfg
}

// StartAttack starts the attack loop, a running attack is left untouched
func (l *Lab) StartAttack() Result {
	l.controller.Start()

	return Result{Success: true, Output: "attack running against " + l.cfg.Lab.Victim()}
}

// StopAttack stops the attack loop
func (l *Lab) StopAttack() Result {
	if err := l.controller.Stop(); err != nil {
		return failure(err)
	}

	return Result{Success: true, Output: "attack stopped"}
}

// AttackState returns the lifecycle state of the attack loop
func (l *Lab) AttackState() model.AttackState {
	return l.controller.State()
}

// RunAttack runs a single attack round
func (l *Lab) RunAttack(ctx context.Context) (attack.Round, error) {
	return l.controller.RunOnce(ctx)
}

// Resolve resolves domain through the victim resolver
func (l *Lab) Resolve(ctx context.Context, domain string) (model.Resolution, error) {
	if domain == "" {
		domain = l.cfg.Lab.Victim()
	}

	return l.resolver.Resolve(ctx, domain)
}

// FlushCache drops the cached answer of domain, all answers for an empty domain
func (l *Lab) FlushCache(domain string) {
	l.resolver.Flush(domain)
}

// FetchSite resolves domain and downloads the site its address points to
func (l *Lab) FetchSite(ctx context.Context, domain string) website.Page {
	res, err := l.Resolve(ctx, domain)
	if err != nil {
		return website.Page{Error: err.Error()}
	}

	return l.fetcher.Fetch(ctx, res.IP)
}

// Logs returns the rendered log of the latest attack round
func (l *Lab) Logs() string {
	return l.controller.Log()
}

// Metrics returns the attack counters
func (l *Lab) Metrics() model.MetricsSnapshot {
	return l.metrics.Snapshot()
}

// Outcomes returns the number of forged responses per outcome
func (l *Lab) Outcomes() map[string]int {
	return l.metrics.Outcomes()
}

// Queries returns the outstanding queries of the resolver
func (l *Lab) Queries() []resolver.QueryInfo {
	return l.resolver.Queries()
}

// Anomalies returns the suspicious queries seen by the resolver
func (l *Lab) Anomalies() []detector.Anomaly {
	return l.detector.Anomalies()
}

// Reset restores the initial lab state. Calling it repeatedly leaves the same state.
func (l *Lab) Reset() {
	l.controller.Reset()
	l.resolver.Reset()
	l.store.Reset()
	l.engine.Reset()
	l.metrics.Reset()
	l.collector.Reset()

	evt.Bus().Publish(evt.LabReset)

	l.logger.Info("lab reset")
}

// SetupDNSSEC signs the zone, a signed zone is unsigned again
func (l *Lab) SetupDNSSEC() Result {
	return result(l.engine.Setup())
}

// UnsignZone removes the signatures and keeps the keys
func (l *Lab) UnsignZone() Result {
	return Result{Success: true, Output: l.engine.Unsign()}
}

// DNSSECStatus returns the DNSSEC lifecycle state
func (l *Lab) DNSSECStatus() model.DNSSECStatus {
	return l.engine.Status()
}

// EnableValidation turns on DNSSEC validation at the resolver
func (l *Lab) EnableValidation() Result {
	return result(l.engine.EnableValidation())
}

// DisableValidation turns off DNSSEC validation at the resolver
func (l *Lab) DisableValidation() Result {
	return Result{Success: true, Output: l.engine.DisableValidation()}
}

// RotateKeys replaces the key pairs and re-signs a signed zone
func (l *Lab) RotateKeys() Result {
	return result(l.engine.Rotate())
}

// Verify validates the zone's answer for domain
func (l *Lab) Verify(domain string) (model.VerifyResult, error) {
	if domain == "" {
		domain = l.cfg.Lab.Victim()
	}

	return l.engine.Verify(domain)
}

// AuthoritativeLogs returns the log of the authoritative server
func (l *Lab) AuthoritativeLogs() string {
	return collector.Render(l.collector.Entries(collector.ScopeAuthoritative), noDNSSECLogs)
}

// ResolverLogs returns the validation and query log of the resolver
func (l *Lab) ResolverLogs() ResolverLogs {
	return ResolverLogs{
		DNSSEC: collector.Render(
			l.collector.Entries(collector.ScopeResolver, collector.KindValidation, collector.KindInfo), noDNSSECLogs),
		Queries: collector.Render(l.collector.Entries(collector.ScopeResolver, collector.KindQuery), noQueryLogs),
	}
}

// IsInvalidState returns true if err was caused by an operation not allowed in the current state
func IsInvalidState(err error) bool {
	return errors.Is(err, model.ErrInvalidState)
}

func result(output string, err error) Result {
	if err != nil {
		r := failure(err)
		r.Output = strings.TrimSpace(output)

		return r
	}

	return Result{Success: true, Output: output}
}

func failure(err error) Result {
	return Result{Err: err}
}
