package spoofer

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/miekg/dns"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"

	"github.com/poisonlab/poisonlab/collector"
	"github.com/poisonlab/poisonlab/config"
	"github.com/poisonlab/poisonlab/evt"
	"github.com/poisonlab/poisonlab/log"
	"github.com/poisonlab/poisonlab/model"
	"github.com/poisonlab/poisonlab/resolver"
	"github.com/poisonlab/poisonlab/util"
)

const spooferLogger = "spoofer"

// nolint
var now = time.Now

// Recorder receives every decided attempt
type Recorder interface {
	RecordAttempt(attempt model.AttackAttempt)
}

// SignatureSource returns the published signatures of a record set
type SignatureSource func(name string, qtype uint16) []*dns.RRSIG

// Guess is a token and port pair the spoofer bets on
type Guess struct {
	Token uint16
	Port  uint16
}

// AttackReport summarizes the forged responses sent for one query
type AttackReport struct {
	QueryID  string
	Domain   string
	Attempts []model.AttackAttempt
}

// Won returns true if a forged response was accepted
func (r AttackReport) Won() bool {
	return r.Count(model.OutcomeAccepted) > 0
}

// Count returns the number of attempts with the outcome
func (r AttackReport) Count(outcome model.Outcome) int {
	n := 0

	for _, a := range r.Attempts {
		if a.Outcome == outcome {
			n++
		}
	}

	return n
}

// Spoofer is the off-path attacker. It knows the outstanding query's domain but not its token
// or port, so it floods forged responses over the guess space.
type Spoofer struct {
	cfg        config.Attack
	resolver   config.Resolver
	lab        config.Lab
	signatures SignatureSource
	recorders  []Recorder
	collector  *collector.Collector
	logger     *logrus.Entry
}

// New creates a spoofer guessing in the token and port space of the resolver configuration
func New(cfg config.Attack, resolverCfg config.Resolver, lab config.Lab,
	c *collector.Collector, recorders ...Recorder,
) *Spoofer {
	return &Spoofer{
		cfg:       cfg,
		resolver:  resolverCfg,
		lab:       lab,
		recorders: recorders,
		collector: c,
		logger:    log.PrefixedLog(spooferLogger),
	}
}

// WithSignatures sets the source of published signatures replayed in forged responses
func (s *Spoofer) WithSignatures(src SignatureSource) *Spoofer {
	s.signatures = src

	return s
}

// Guesses returns n distinct token and port pairs, at most the size of the guess space
func (s *Spoofer) Guesses(n uint) []Guess {
	tokens := s.resolver.TokenSpace()
	ports := s.resolver.PortSpace()
	space := uint64(tokens) * uint64(ports)

	if space == 0 {
		return nil
	}

	if uint64(n) > space {
		n = uint(space)
	}

	picked := make(map[uint64]struct{}, n)
	res := make([]Guess, 0, n)

	for uint(len(res)) < n {
		v := rand.Uint64() % space
		if _, ok := picked[v]; ok {
			continue
		}

		picked[v] = struct{}{}

		res = append(res, Guess{
			Token: uint16(v % uint64(tokens)),
			Port:  s.resolver.MinPort + uint16(v/uint64(tokens)),
		})
	}

	return res
}

// Forge builds a forged answer for domain pointing to the attacker address
func (s *Spoofer) Forge(domain string, qtype uint16, token uint16) *dns.Msg {
	req := util.NewMsgWithQuestion(domain, qtype)
	req.Id = token

	msg := new(dns.Msg)
	msg.SetReply(req)
	msg.Authoritative = true
	msg.Answer = []dns.RR{&dns.A{
		Hdr: dns.RR_Header{
			Name:   dns.Fqdn(domain),
			Rrtype: dns.TypeA,
			Class:  dns.ClassINET,
			Ttl:    s.lab.RecordTTL,
		},
		A: s.lab.Attacker(),
	}}

	if s.cfg.ReplaySignatures && s.signatures != nil {
		for _, sig := range s.signatures(domain, dns.TypeA) {
			msg.Answer = append(msg.Answer, sig)
		}
	}

	return msg
}

// Attack sends the configured number of forged responses for the query, spread over the
// configured window. Every guess is delivered independently of the others.
func (s *Spoofer) Attack(ctx context.Context, q *resolver.Query, deliver resolver.DeliverFunc) AttackReport {
	guesses := s.Guesses(s.cfg.GuessesPerAttempt)
	spread := s.cfg.Spread.ToDuration()

	report := AttackReport{QueryID: q.ID, Domain: q.Key.Domain}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	for i, g := range guesses {
		offset := time.Duration(0)
		if len(guesses) > 1 {
			offset = spread * time.Duration(i) / time.Duration(len(guesses)-1)
		}

		wg.Add(1)

		go func(g Guess, offset time.Duration) {
			defer wg.Done()

			select {
			case <-time.After(offset):
			case <-ctx.Done():
				return
			}

			attempt := s.send(q, g, deliver)

			mu.Lock()
			report.Attempts = append(report.Attempts, attempt)
			mu.Unlock()
		}(g, offset)
	}

	wg.Wait()

	sort.Slice(report.Attempts, func(i, j int) bool {
		return report.Attempts[i].Timestamp.Before(report.Attempts[j].Timestamp)
	})

	s.summarize(q, report)

	return report
}

func (s *Spoofer) send(q *resolver.Query, g Guess, deliver resolver.DeliverFunc) model.AttackAttempt {
	msg := s.Forge(q.Key.Domain, q.Key.Qtype, g.Token)

	candidate := &model.Candidate{
		ID:     uuid.NewString(),
		Source: model.CandidateSourceSpoofer,
		Msg:    msg,
		Port:   g.Port,
		SentAt: now(),
	}

	outcome := deliver(candidate)

	attempt := model.AttackAttempt{
		ID:           candidate.ID,
		QueryID:      q.ID,
		Domain:       q.Key.Domain,
		GuessedToken: g.Token,
		GuessedPort:  g.Port,
		ForgedIP:     s.lab.Attacker(),
		Outcome:      outcome,
		Timestamp:    candidate.SentAt,
	}

	for _, r := range s.recorders {
		r.RecordAttempt(attempt)
	}

	evt.Bus().Publish(evt.AttemptFinished, attempt)

	switch outcome {
	case model.OutcomeAccepted:
		s.collector.Add(collector.ScopeResolver, collector.KindAttack,
			"forged response id=%d port=%d for %s ACCEPTED: %s cached", g.Token, g.Port, q.Key.Domain, s.lab.Attacker())
	case model.OutcomeRejectedDnssec:
		s.collector.Add(collector.ScopeResolver, collector.KindAttack,
			"forged response id=%d port=%d for %s BLOCKED by DNSSEC", g.Token, g.Port, q.Key.Domain)
	}

	return attempt
}

func (s *Spoofer) summarize(q *resolver.Query, report AttackReport) {
	summary := fmt.Sprintf("sent %d forged responses for %s (ids 0-%d, ports %d-%d): "+
		"accepted=%d mismatch=%d dnssec=%d too-late=%d",
		len(report.Attempts), q.Key.Domain, s.resolver.TokenSpace()-1, s.resolver.MinPort, s.resolver.MaxPort,
		report.Count(model.OutcomeAccepted), report.Count(model.OutcomeRejectedMismatch),
		report.Count(model.OutcomeRejectedDnssec), report.Count(model.OutcomeTooLate))

	s.collector.Add(collector.ScopeResolver, collector.KindAttack, "%s", summary)
	s.logger.WithField("query_id", q.ID).Debug(summary)
}
