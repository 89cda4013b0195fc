package attack

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/miekg/dns"
	"github.com/sirupsen/logrus"

	"github.com/poisonlab/poisonlab/authoritative"
	"github.com/poisonlab/poisonlab/collector"
	"github.com/poisonlab/poisonlab/config"
	"github.com/poisonlab/poisonlab/evt"
	"github.com/poisonlab/poisonlab/log"
	"github.com/poisonlab/poisonlab/model"
	"github.com/poisonlab/poisonlab/resolver"
	"github.com/poisonlab/poisonlab/spoofer"
)

const (
	controllerLogger = "attack"

	noLogs = "No logs yet"
)

// nolint
var now = time.Now

// Controller drives repeated attack rounds against the victim domain
type Controller struct {
	cfg           config.Attack
	lab           config.Lab
	resolver      *resolver.Resolver
	authoritative *authoritative.Server
	spoofer       *spoofer.Spoofer
	collector     *collector.Collector
	logger        *logrus.Entry

	mu     sync.Mutex
	state  model.AttackState
	cancel context.CancelFunc
	done   chan struct{}

	roundMu sync.Mutex
	rounds  uint64
	last    *Round
}

// NewController creates a stopped controller
func NewController(cfg config.Attack, lab config.Lab, res *resolver.Resolver, auth *authoritative.Server,
	sp *spoofer.Spoofer, c *collector.Collector,
) *Controller {
	return &Controller{
		cfg:           cfg,
		lab:           lab,
		resolver:      res,
		authoritative: auth,
		spoofer:       sp,
		collector:     c,
		state:         model.AttackStateStopped,
		logger:        log.PrefixedLog(controllerLogger),
	}
}

// State returns the current lifecycle state
func (c *Controller) State() model.AttackState {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Start runs the attack loop in the background. Starting a running attack does nothing.
func (c *Controller) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == model.AttackStateRunning {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	c.state = model.AttackStateRunning
	c.cancel = cancel
	c.done = make(chan struct{})

	go c.loop(ctx, c.done)

	c.logger.Info("attack started")
	c.collector.Add(collector.ScopeResolver, collector.KindAttack, "attack started against %s", c.lab.Victim())

	evt.Bus().Publish(evt.AttackStateChanged, model.AttackStateRunning)
}

// Stop cancels the attack loop and waits for the current round to end
func (c *Controller) Stop() error {
	c.mu.Lock()

	if c.state == model.AttackStateStopped {
		c.mu.Unlock()

		return model.NewInvalidStateError("attack is not running")
	}

	cancel, done := c.cancel, c.done
	c.state = model.AttackStateStopped
	c.cancel, c.done = nil, nil

	c.mu.Unlock()

	cancel()
	<-done

	c.logger.Info("attack stopped")
	c.collector.Add(collector.ScopeResolver, collector.KindAttack, "attack stopped")

	evt.Bus().Publish(evt.AttackStateChanged, model.AttackStateStopped)

	return nil
}

// Reset stops the attack and forgets all rounds
func (c *Controller) Reset() {
	if err := c.Stop(); err != nil && !errors.Is(err, model.ErrInvalidState) {
		c.logger.Warn("can't stop attack: ", err)
	}

	c.roundMu.Lock()
	defer c.roundMu.Unlock()

	c.rounds = 0
	c.last = nil
}

// LastRound returns the most recent finished round
func (c *Controller) LastRound() (Round, bool) {
	c.roundMu.Lock()
	defer c.roundMu.Unlock()

	if c.last == nil {
		return Round{}, false
	}

	return *c.last, true
}

// Log renders the most recent round as attack log
func (c *Controller) Log() string {
	r, ok := c.LastRound()
	if !ok {
		return noLogs
	}

	text := r.Text(c.lab.Legit().String(), c.lab.Attacker().String())

	if entries := c.collector.Entries(collector.ScopeResolver, collector.KindAttack); len(entries) > 0 {
		text += "\n" + collector.Render(entries, "")
	}

	return text
}

func (c *Controller) loop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	pacing := c.cfg.Pacing.ToDuration()

	for {
		if _, err := c.RunOnce(ctx); err != nil && ctx.Err() == nil {
			c.logger.Warn("attack round failed: ", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(pacing):
		}
	}
}

// RunOnce flushes the victim's cache entry, opens a query and races the authoritative answer
// against the forged responses. Rounds never overlap.
func (c *Controller) RunOnce(ctx context.Context) (Round, error) {
	c.roundMu.Lock()
	defer c.roundMu.Unlock()

	victim := c.lab.Victim()

	c.resolver.Flush(victim)

	q, err := c.resolver.Open(victim, dns.TypeA)
	if err != nil {
		var ok bool

		if q, ok = c.resolver.Outstanding(victim, dns.TypeA); !ok {
			return Round{}, err
		}
	}

	round := Round{
		Number:  c.rounds + 1,
		QueryID: q.ID,
		Domain:  q.Key.Domain,
		Started: now(),
	}

	var (
		wg     sync.WaitGroup
		report spoofer.AttackReport
	)

	wg.Add(2)

	go func() {
		defer wg.Done()

		if _, err := c.authoritative.Respond(ctx, q, c.resolver.Deliver); err != nil {
			c.logger.WithField("query_id", q.ID).Debug("no authoritative answer: ", err)
		}
	}()

	go func() {
		defer wg.Done()

		report = c.spoofer.Attack(ctx, q, c.resolver.Deliver)
	}()

	commit, err := c.resolver.Wait(ctx, q)

	if ctx.Err() != nil {
		c.resolver.Cancel(q)
		wg.Wait()

		return round, ctx.Err()
	}

	wg.Wait()

	round.Finished = now()
	round.Commit = commit
	round.Err = err
	round.Sent = len(report.Attempts)
	round.Outcomes = make(map[model.Outcome]int)

	for _, a := range report.Attempts {
		round.Outcomes[a.Outcome]++
	}

	round.BlockedByDNSSEC = round.Outcomes[model.OutcomeRejectedDnssec] > 0

	switch {
	case commit != nil && commit.Poisoned:
		round.Outcome = RoundOutcomeSuccess
	case round.BlockedByDNSSEC:
		round.Outcome = RoundOutcomeBlocked
	default:
		round.Outcome = RoundOutcomeFailed
	}

	c.rounds++
	c.last = &round

	c.collector.Add(collector.ScopeResolver, collector.KindQuery, "%s", round.Summary())
	c.logger.WithFields(logrus.Fields{
		"round":    round.Number,
		"outcome":  round.Outcome,
		"sent":     round.Sent,
		"duration": round.Duration(),
	}).Info("attack round finished")

	evt.Bus().Publish(evt.AttackRoundFinished, round)

	return round, nil
}
