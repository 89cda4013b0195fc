package authoritative

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/miekg/dns"
	"github.com/mroth/weightedrand"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"

	"github.com/poisonlab/poisonlab/collector"
	"github.com/poisonlab/poisonlab/config"
	"github.com/poisonlab/poisonlab/log"
	"github.com/poisonlab/poisonlab/model"
	"github.com/poisonlab/poisonlab/resolver"
	"github.com/poisonlab/poisonlab/util"
	"github.com/poisonlab/poisonlab/zone"
)

const authoritativeLogger = "authoritative"

// nolint
var now = time.Now

// Server is the simulated authoritative name server of the lab zone.
// It answers outstanding queries with the true records after a bounded delay.
type Server struct {
	cfg       config.Authoritative
	store     *zone.Store
	collector *collector.Collector
	logger    *logrus.Entry

	mu      sync.Mutex
	chooser *weightedrand.Chooser
}

// New creates the authoritative server for the store
func New(cfg config.Authoritative, store *zone.Store, c *collector.Collector) (*Server, error) {
	chooser, err := weightedrand.NewChooser(
		weightedrand.Choice{Item: true, Weight: 100 - cfg.LossPercent},
		weightedrand.Choice{Item: false, Weight: cfg.LossPercent},
	)
	if err != nil {
		return nil, fmt.Errorf("can't create loss model: %w", err)
	}

	return &Server{
		cfg:       cfg,
		store:     store,
		collector: c,
		chooser:   chooser,
		logger:    log.PrefixedLog(authoritativeLogger),
	}, nil
}

// Answer builds the response to a question. Records of a signed zone carry their RRSIGs.
func (s *Server) Answer(name string, qtype uint16, id uint16) *dns.Msg {
	req := util.NewMsgWithQuestion(name, qtype)
	req.Id = id

	resp := new(dns.Msg)
	resp.SetReply(req)
	resp.Authoritative = true

	set, ok := s.store.Lookup(name, qtype)
	if !ok {
		if !s.store.Contains(name) {
			resp.Rcode = dns.RcodeNameError
		}

		if soa, ok := s.store.Lookup(s.store.Origin(), dns.TypeSOA); ok {
			resp.Ns = append(resp.Ns, soa.RRs...)
		}

		return resp
	}

	resp.Answer = append(resp.Answer, set.RRs...)

	for _, sig := range set.RRSIGs {
		resp.Answer = append(resp.Answer, sig)
	}

	return resp
}

// Ask implements resolver.Upstream. The answer is delivered asynchronously after the simulated delay.
func (s *Server) Ask(ctx context.Context, q *resolver.Query, deliver resolver.DeliverFunc) {
	go func() {
		_, err := s.Respond(ctx, q, deliver)
		if err != nil {
			s.logger.WithField("query_id", q.ID).Debugf("no answer for %s: %v", q.Key, err)
		}
	}()
}

// Respond waits the simulated network delay and delivers the answer to the query.
// No lock is held while waiting.
func (s *Server) Respond(ctx context.Context, q *resolver.Query, deliver resolver.DeliverFunc) (model.Outcome, error) {
	delay := s.delay()

	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return model.OutcomePending, ctx.Err()
	case <-q.Done():
		// already retired, the answer would only be too late
	}

	if !s.delivered() {
		s.collector.Add(collector.ScopeAuthoritative, collector.KindAnswer,
			"answer for %s lost in transit", q.Key.Domain)

		return model.OutcomePending, fmt.Errorf("answer for %s lost", q.Key.Domain)
	}

	msg := s.Answer(q.Key.Domain, q.Key.Qtype, q.Token)

	s.collector.Add(collector.ScopeAuthoritative, collector.KindAnswer,
		"answered %s %s after %s: %s %s",
		q.Key.Domain, dns.TypeToString[q.Key.Qtype], delay.Round(time.Millisecond),
		dns.RcodeToString[msg.Rcode], describe(msg))

	if msg.Rcode != dns.RcodeSuccess {
		return model.OutcomePending, fmt.Errorf("%s for %s", dns.RcodeToString[msg.Rcode], q.Key.Domain)
	}

	outcome := deliver(&model.Candidate{
		ID:     uuid.NewString(),
		Source: model.CandidateSourceAuthoritative,
		Msg:    msg,
		Port:   q.Port,
		SentAt: now(),
	})

	s.logger.WithFields(logrus.Fields{
		"query_id": q.ID,
		"outcome":  outcome,
	}).Debugf("answered %s", q.Key)

	return outcome, nil
}

func (s *Server) delay() time.Duration {
	minDelay := s.cfg.MinDelay.ToDuration()
	maxDelay := s.cfg.MaxDelay.ToDuration()

	if maxDelay <= minDelay {
		return minDelay
	}

	return minDelay + time.Duration(rand.Int63n(int64(maxDelay-minDelay)+1))
}

func (s *Server) delivered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.chooser.Pick().(bool)
}

func describe(msg *dns.Msg) string {
	res := util.AnswerToString(msg.Answer)

	signed := false

	for _, rr := range msg.Answer {
		if rr.Header().Rrtype == dns.TypeRRSIG {
			signed = true

			break
		}
	}

	if signed {
		return strings.TrimSpace(res) + " (signed)"
	}

	return strings.TrimSpace(res) + " (unsigned)"
}
