package resolver

import (
	"context"
	"fmt"
	"net"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/miekg/dns"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/singleflight"

	"github.com/poisonlab/poisonlab/cache/expirationcache"
	"github.com/poisonlab/poisonlab/collector"
	"github.com/poisonlab/poisonlab/config"
	"github.com/poisonlab/poisonlab/dnssec"
	"github.com/poisonlab/poisonlab/evt"
	"github.com/poisonlab/poisonlab/log"
	"github.com/poisonlab/poisonlab/model"
	"github.com/poisonlab/poisonlab/util"
)

const (
	resolverLogger = "resolver"

	cacheCleanUpInterval = 5 * time.Second
)

// ErrQueryOutstanding is returned if a query for the same domain and type is in flight
var ErrQueryOutstanding = fmt.Errorf("%w: query already outstanding", model.ErrInvalidState)

// nolint
var now = time.Now

// DeliverFunc hands a candidate response to the resolver and returns its outcome
type DeliverFunc func(c *model.Candidate) model.Outcome

// Upstream answers outstanding queries asynchronously through deliver
type Upstream interface {
	Ask(ctx context.Context, q *Query, deliver DeliverFunc)
}

// Observer is notified about every candidate and its outcome
type Observer interface {
	Observe(key model.QueryKey, queryID string, c *model.Candidate, outcome model.Outcome)
}

// Resolver is the victim resolver: it keeps at most one outstanding query per domain and type,
// accepts the first matching candidate and caches it.
type Resolver struct {
	cfg       config.Resolver
	lab       config.Lab
	queries   cmap.ConcurrentMap[string, *Query]
	cache     expirationcache.ExpiringCache[model.Commit]
	state     *dnssec.State
	validator *dnssec.Validator
	group     singleflight.Group
	upstream  Upstream
	observers []Observer
	collector *collector.Collector
	logger    *logrus.Entry
}

// NewResolver creates a resolver. The cache cleanup stops when ctx is done.
func NewResolver(ctx context.Context, cfg config.Resolver, lab config.Lab,
	state *dnssec.State, validator *dnssec.Validator, c *collector.Collector,
) *Resolver {
	return &Resolver{
		cfg:     cfg,
		lab:     lab,
		queries: cmap.New[*Query](),
		cache: expirationcache.NewCache[model.Commit](ctx, expirationcache.Options{
			CleanupInterval: cacheCleanUpInterval,
			MaxSize:         uint(cfg.CacheSize),
		}),
		state:     state,
		validator: validator,
		collector: c,
		logger:    log.PrefixedLog(resolverLogger),
	}
}

// SetUpstream sets the authoritative server used by Resolve
func (r *Resolver) SetUpstream(u Upstream) {
	r.upstream = u
}

// AddObserver registers an observer for delivered candidates
func (r *Resolver) AddObserver(o Observer) {
	r.observers = append(r.observers, o)
}

// Open creates the outstanding query for domain and type with a fresh token and port
func (r *Resolver) Open(domain string, qtype uint16) (*Query, error) {
	key := model.NewQueryKey(domain, qtype)

	q := newQuery(uuid.NewString(), key, r.randomToken(), r.randomPort(), now())

	if !r.queries.SetIfAbsent(key.String(), q) {
		return nil, fmt.Errorf("%w: %s", ErrQueryOutstanding, key)
	}

	q.mu.Lock()
	q.timer = time.AfterFunc(r.cfg.QueryTimeout.ToDuration(), func() { r.expire(q) })
	q.mu.Unlock()

	r.logger.WithField("query_id", q.ID).Debugf("opened query %s token=%d port=%d", key, q.Token, q.Port)
	r.collector.Add(collector.ScopeResolver, collector.KindQuery,
		"query %s %s id=%d port=%d", key.Domain, dns.TypeToString[qtype], q.Token, q.Port)

	return q, nil
}

// Outstanding returns the outstanding query of domain and type
func (r *Resolver) Outstanding(domain string, qtype uint16) (*Query, bool) {
	return r.queries.Get(model.NewQueryKey(domain, qtype).String())
}

// Queries returns snapshots of all outstanding queries
func (r *Resolver) Queries() []QueryInfo {
	res := make([]QueryInfo, 0, r.queries.Count())

	for _, q := range r.queries.Items() {
		res = append(res, QueryInfo{
			ID:       q.ID,
			Domain:   q.Key.Domain,
			Type:     dns.TypeToString[q.Key.Qtype],
			Age:      now().Sub(q.Created),
			Received: q.Received(),
		})
	}

	sort.Slice(res, func(i, j int) bool { return res[i].Domain < res[j].Domain })

	return res
}

// Deliver applies the acceptance policy to a candidate:
// unknown or retired query -> too-late, token or port mismatch -> rejected-mismatch,
// failed validation -> rejected-dnssec, otherwise the first candidate is committed.
func (r *Resolver) Deliver(c *model.Candidate) model.Outcome {
	if c == nil || c.Msg == nil || len(c.Msg.Question) == 0 {
		return model.OutcomeRejectedMismatch
	}

	key := model.NewQueryKey(c.Msg.Question[0].Name, c.Msg.Question[0].Qtype)

	q, ok := r.queries.Get(key.String())
	if !ok {
		r.notify(key, "", c, model.OutcomeTooLate)

		return model.OutcomeTooLate
	}

	outcome := r.arbitrate(q, c)

	r.notify(key, q.ID, c, outcome)

	return outcome
}

func (r *Resolver) arbitrate(q *Query, c *model.Candidate) model.Outcome {
	q.mu.Lock()
	q.received++
	retired := q.resolved
	q.mu.Unlock()

	if retired {
		return model.OutcomeTooLate
	}

	if c.Token() != q.Token || c.Port != q.Port {
		return model.OutcomeRejectedMismatch
	}

	ip := util.FirstA(c.Msg)
	if ip == nil {
		return model.OutcomeRejectedMismatch
	}

	authenticated := false

	if r.state.ValidationEnabled() {
		result, _, err := r.validator.ValidateResponse(c.Msg, now())
		if result != dnssec.ValidationResultSecure {
			return r.rejectDNSSEC(q, c, ip, result, err)
		}

		authenticated = true

		r.collector.Add(collector.ScopeResolver, collector.KindValidation,
			"DNSSEC validation succeeded for %s from %s (%s)", q.Key.Domain, c.Source, ip)
	}

	commit := &model.Commit{
		Key:           q.Key,
		QueryID:       q.ID,
		IP:            ip,
		TTL:           answerTTL(c.Msg),
		Poisoned:      ip.Equal(r.lab.Attacker()),
		Authenticated: authenticated,
		Source:        c.Source,
		CommittedAt:   now(),
	}

	q.mu.Lock()
	won := q.retire(commit, nil)
	q.mu.Unlock()

	if !won {
		return model.OutcomeTooLate
	}

	r.queries.RemoveCb(q.Key.String(), func(_ string, v *Query, exists bool) bool {
		return exists && v == q
	})

	r.cache.Put(q.Key.String(), commit, time.Duration(commit.TTL)*time.Second)

	r.logger.WithFields(logrus.Fields{
		"query_id": q.ID,
		"source":   c.Source,
		"poisoned": commit.Poisoned,
	}).Infof("accepted %s -> %s", q.Key, ip)
	r.collector.Add(collector.ScopeResolver, collector.KindAnswer,
		"accepted answer for %s from %s: %s ttl=%d poisoned=%t", q.Key.Domain, c.Source, ip, commit.TTL, commit.Poisoned)

	evt.Bus().Publish(evt.ResolverCacheCommitted, *commit)

	return model.OutcomeAccepted
}

func (r *Resolver) rejectDNSSEC(
	q *Query, c *model.Candidate, ip net.IP, result dnssec.ValidationResult, err error,
) model.Outcome {
	q.mu.Lock()
	retired := q.resolved
	q.mu.Unlock()

	if retired {
		return model.OutcomeTooLate
	}

	r.logger.WithField("query_id", q.ID).Debugf("DNSSEC validation failed for %s: %s %v", q.Key, result, err)
	r.collector.Add(collector.ScopeResolver, collector.KindValidation,
		"DNSSEC validation FAILED for %s from %s (%s): %s: %v", q.Key.Domain, c.Source, ip, result, err)

	return model.OutcomeRejectedDnssec
}

// Wait blocks until the query is retired or ctx is done
func (r *Resolver) Wait(ctx context.Context, q *Query) (*model.Commit, error) {
	select {
	case <-q.Done():
		return q.Result()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Resolve answers domain from the cache or resolves it through the upstream.
// Concurrent resolutions of the same domain share one outstanding query.
func (r *Resolver) Resolve(ctx context.Context, domain string) (model.Resolution, error) {
	key := model.NewQueryKey(domain, dns.TypeA)

	if commit, ttl := r.cache.Get(key.String()); commit != nil {
		r.collector.Add(collector.ScopeResolver, collector.KindAnswer,
			"cache hit for %s: %s (ttl %s)", key.Domain, commit.IP, ttl.Round(time.Second))

		return resolution(commit, true), nil
	}

	v, err, _ := r.group.Do(key.String(), func() (any, error) {
		q, opened, err := r.openOrJoin(key)
		if err != nil {
			return nil, err
		}

		if opened && r.upstream != nil {
			r.ask(ctx, q)
		}

		return q, nil
	})
	if err != nil {
		return model.Resolution{Domain: key.Domain}, fmt.Errorf("can't resolve %s: %w", key.Domain, err)
	}

	commit, err := r.Wait(ctx, v.(*Query))
	if err != nil {
		return model.Resolution{Domain: key.Domain}, fmt.Errorf("can't resolve %s: %w", key.Domain, err)
	}

	return resolution(commit, false), nil
}

// ask sends q upstream with a context bound to the lifetime of q instead of the caller's
func (r *Resolver) ask(ctx context.Context, q *Query) {
	askCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.cfg.QueryTimeout.ToDuration())

	go func() {
		<-q.Done()
		cancel()
	}()

	r.upstream.Ask(askCtx, q, r.Deliver)
}

func (r *Resolver) openOrJoin(key model.QueryKey) (*Query, bool, error) {
	for {
		q, err := r.Open(key.Domain, key.Qtype)
		if err == nil {
			return q, true, nil
		}

		if existing, ok := r.queries.Get(key.String()); ok {
			return existing, false, nil
		}
	}
}

// Cached returns the cached commit of domain
func (r *Resolver) Cached(domain string) (*model.Commit, time.Duration) {
	return r.cache.Get(model.NewQueryKey(domain, dns.TypeA).String())
}

// CacheSize returns the number of cached answers
func (r *Resolver) CacheSize() int {
	return r.cache.TotalCount()
}

// Flush removes the cached answer of domain, all answers for an empty domain
func (r *Resolver) Flush(domain string) {
	if domain == "" {
		r.cache.Clear()
		r.collector.Add(collector.ScopeResolver, collector.KindInfo, "cache flushed")

		evt.Bus().Publish(evt.ResolverCacheFlushed, "")

		return
	}

	key := model.NewQueryKey(domain, dns.TypeA)

	r.cache.Delete(key.String())
	r.collector.Add(collector.ScopeResolver, collector.KindInfo, "cache flushed for %s", key.Domain)

	evt.Bus().Publish(evt.ResolverCacheFlushed, key.Domain)
}

// Cancel retires an outstanding query without an answer
func (r *Resolver) Cancel(q *Query) {
	q.mu.Lock()
	q.retire(nil, context.Canceled)
	q.mu.Unlock()

	r.queries.RemoveCb(q.Key.String(), func(_ string, v *Query, exists bool) bool {
		return exists && v == q
	})
}

// Reset cancels all outstanding queries and clears the cache
func (r *Resolver) Reset() {
	for _, q := range r.queries.Items() {
		r.Cancel(q)
	}

	r.cache.Clear()

	evt.Bus().Publish(evt.ResolverCacheFlushed, "")
}

func (r *Resolver) expire(q *Query) {
	q.mu.Lock()
	retired := q.retire(nil, model.ErrTimeout)
	q.mu.Unlock()

	if !retired {
		return
	}

	r.queries.RemoveCb(q.Key.String(), func(_ string, v *Query, exists bool) bool {
		return exists && v == q
	})

	r.logger.WithField("query_id", q.ID).Warnf("query %s timed out", q.Key)
	r.collector.Add(collector.ScopeResolver, collector.KindQuery,
		"query %s timed out after %s (%d responses)", q.Key.Domain, r.cfg.QueryTimeout, q.Received())

	evt.Bus().Publish(evt.ResolverQueryTimedOut, q.Key)
}

func (r *Resolver) notify(key model.QueryKey, queryID string, c *model.Candidate, outcome model.Outcome) {
	for _, o := range r.observers {
		o.Observe(key, queryID, c, outcome)
	}
}

func (r *Resolver) randomToken() uint16 {
	return uint16(rand.Uint32() % r.cfg.TokenSpace())
}

func (r *Resolver) randomPort() uint16 {
	return r.cfg.MinPort + uint16(rand.Uint32()%r.cfg.PortSpace())
}

func answerTTL(msg *dns.Msg) uint32 {
	var ttl uint32

	for _, rr := range msg.Answer {
		if rr.Header().Rrtype != dns.TypeA {
			continue
		}

		if ttl == 0 || rr.Header().Ttl < ttl {
			ttl = rr.Header().Ttl
		}
	}

	return ttl
}

func resolution(c *model.Commit, cached bool) model.Resolution {
	return model.Resolution{
		Domain:        c.Key.Domain,
		IP:            c.IP,
		Poisoned:      c.Poisoned,
		Authenticated: c.Authenticated,
		Cached:        cached,
	}
}
