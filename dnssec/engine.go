package dnssec

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/miekg/dns"
	"github.com/sirupsen/logrus"

	"github.com/poisonlab/poisonlab/collector"
	"github.com/poisonlab/poisonlab/config"
	"github.com/poisonlab/poisonlab/evt"
	"github.com/poisonlab/poisonlab/log"
	"github.com/poisonlab/poisonlab/model"
	"github.com/poisonlab/poisonlab/util"
	"github.com/poisonlab/poisonlab/zone"
)

const (
	engineLogger = "dnssec"

	StageKeyGeneration = "key generation"
	StageZoneSigning   = "zone signing"
	StagePublication   = "key publication"
)

// nolint
var now = time.Now

// Engine generates keys, signs the zone and switches validation on the resolver side.
// States: unkeyed -> keyed -> signed, validation is an independent flag of State.
type Engine struct {
	mu        sync.Mutex
	cfg       config.DNSSEC
	zone      *zone.Store
	state     *State
	collector *collector.Collector
	ksk       *Key
	zsk       *Key
	logger    *logrus.Entry
}

// NewEngine creates an engine for the zone in store
func NewEngine(cfg config.DNSSEC, store *zone.Store, c *collector.Collector) *Engine {
	return &Engine{
		cfg:       cfg,
		zone:      store,
		state:     NewState(),
		collector: c,
		logger:    log.PrefixedLog(engineLogger),
	}
}

// State returns the validation state shared with the resolver
func (e *Engine) State() *State {
	return e.state
}

// NewValidator creates a validator bound to the engine's state and zone
func (e *Engine) NewValidator() *Validator {
	return NewValidator(e.state, func() (zone.RRset, bool) {
		return e.zone.Lookup(e.zone.Origin(), dns.TypeDNSKEY)
	}, e.cfg.ClockSkew.ToDuration(), e.logger.WithField("component", "validator"))
}

// Setup toggles DNSSEC on the zone. An unsigned zone gets keys (generated once and kept),
// signatures and published DNSKEYs. A signed zone is unsigned, keys are kept.
func (e *Engine) Setup() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.zone.Signed() {
		return e.unsign(), nil
	}

	out := newOutput()

	if e.ksk == nil || e.zsk == nil {
		if err := e.generateKeys(out); err != nil {
			e.fail(err)

			return out.String(), err
		}
	} else {
		out.addf("Reusing existing keys: KSK keytag %d, ZSK keytag %d", e.ksk.DNSKEY.KeyTag(), e.zsk.DNSKEY.KeyTag())
	}

	if err := e.signZone(out); err != nil {
		e.fail(err)

		return out.String(), err
	}

	origin := strings.TrimSuffix(e.zone.Origin(), ".")
	e.event(collector.ScopeAuthoritative, collector.KindSigning, out,
		"DNSSEC keys generated and %s zone signed.", origin)
	e.event(collector.ScopeResolver, collector.KindValidation, out,
		"Resolver configured for signed %s zone (validation still OFF).", origin)

	e.publishState()

	return out.String(), nil
}

// Unsign drops signatures and published keys, keeps the key material and turns validation off
func (e *Engine) Unsign() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.unsign()
}

func (e *Engine) unsign() string {
	out := newOutput()

	e.zone.Unsign()
	e.state.setEnabled(false)

	e.event(collector.ScopeAuthoritative, collector.KindSigning, out,
		"DNSSEC disabled: signatures removed from %s zone (keys kept).", strings.TrimSuffix(e.zone.Origin(), "."))
	e.event(collector.ScopeResolver, collector.KindValidation, out, "DNSSEC validation DISABLED on resolver.")

	e.publishState()

	return out.String()
}

// EnableValidation turns validation on at the resolver. Requires keys and a signed zone.
func (e *Engine) EnableValidation() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ksk == nil || !e.zone.Signed() || !e.state.Configured() {
		return "", model.NewInvalidStateError("DNSSEC not set up yet, run setup first")
	}

	out := newOutput()

	e.state.setEnabled(true)
	e.event(collector.ScopeResolver, collector.KindValidation, out,
		"DNSSEC validation ENABLED on resolver (trust anchor %s keytag %d).",
		e.ksk.DNSKEY.Header().Name, e.ksk.DNSKEY.KeyTag())

	e.publishState()

	return out.String(), nil
}

// DisableValidation turns validation off at the resolver
func (e *Engine) DisableValidation() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := newOutput()

	e.state.setEnabled(false)
	e.event(collector.ScopeResolver, collector.KindValidation, out, "DNSSEC validation DISABLED on resolver.")

	e.publishState()

	return out.String()
}

// Rotate replaces both keys. A signed zone is re-signed and the trust anchor is updated.
func (e *Engine) Rotate() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ksk == nil || e.zsk == nil {
		return "", model.NewInvalidStateError("no keys to rotate, run setup first")
	}

	out := newOutput()
	oldKSK, oldZSK := e.ksk.DNSKEY.KeyTag(), e.zsk.DNSKEY.KeyTag()

	if err := e.generateKeys(out); err != nil {
		e.fail(err)

		return out.String(), err
	}

	if e.zone.Signed() {
		if err := e.signZone(out); err != nil {
			e.fail(err)

			return out.String(), err
		}
	} else if e.state.Configured() {
		e.state.setAnchors(dns.Copy(e.ksk.DNSKEY).(*dns.DNSKEY))
	}

	e.event(collector.ScopeAuthoritative, collector.KindSigning, out,
		"DNSSEC keys rotated: KSK %d -> %d, ZSK %d -> %d.",
		oldKSK, e.ksk.DNSKEY.KeyTag(), oldZSK, e.zsk.DNSKEY.KeyTag())

	e.publishState()

	return out.String(), nil
}

// Status returns the current DNSSEC lifecycle state
func (e *Engine) Status() model.DNSSECStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.status()
}

func (e *Engine) status() model.DNSSECStatus {
	keys := len(e.zone.DNSKEYs())

	return model.DNSSECStatus{
		KeysGenerated:   e.ksk != nil && e.zsk != nil,
		ZoneSigned:      e.zone.Signed(),
		DNSKEYPublished: keys > 0,
		DNSKEYRecords:   keys,
		DNSSECEnabled:   e.state.ValidationEnabled(),
	}
}

// Verify validates the zone's answer for domain on demand. Requires generated keys.
func (e *Engine) Verify(domain string) (model.VerifyResult, error) {
	e.mu.Lock()
	keyed := e.ksk != nil
	e.mu.Unlock()

	domain = dns.CanonicalName(domain)
	res := model.VerifyResult{Domain: domain}

	if !keyed {
		return res, model.NewInvalidStateError("DNSSEC not set up yet, can't verify %s", domain)
	}

	msg := util.NewMsgWithQuestion(domain, dns.TypeA)
	msg.Response = true

	res.Trace = append(res.Trace, fmt.Sprintf("; <<>> verify <<>> %s A +dnssec", domain))

	set, ok := e.zone.Lookup(domain, dns.TypeA)
	if !ok {
		res.Trace = append(res.Trace, ";; status: NXDOMAIN")
		e.collector.Add(collector.ScopeResolver, collector.KindValidation, "verify %s: no such record", domain)

		return res, nil
	}

	msg.Answer = append(msg.Answer, set.RRs...)
	for _, sig := range set.RRSIGs {
		msg.Answer = append(msg.Answer, sig)
	}

	for _, rr := range msg.Answer {
		res.Trace = append(res.Trace, rr.String())
	}

	res.HasSignatures = set.Signed()

	result, trace, err := e.NewValidator().ValidateResponse(msg, now())
	res.Trace = append(res.Trace, trace...)

	res.ValidationSuccessful = result == ValidationResultSecure
	res.Authenticated = res.ValidationSuccessful && e.state.ValidationEnabled()

	flags := "qr aa"
	if res.Authenticated {
		flags += " ad"
	}

	res.Trace = append(res.Trace, fmt.Sprintf(";; flags: %s; validation: %s", flags, result))

	if err != nil {
		res.Trace = append(res.Trace, fmt.Sprintf(";; error: %v", err))
	}

	e.collector.Add(collector.ScopeResolver, collector.KindValidation,
		"verify %s: has_signatures=%t validation=%s authenticated=%t",
		domain, res.HasSignatures, result, res.Authenticated)

	return res, nil
}

// Reset drops all key material and the resolver state
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.ksk, e.zsk = nil, nil
	e.state.reset()

	e.publishState()
}

func (e *Engine) generateKeys(out *output) error {
	origin := e.zone.Origin()
	alg := e.cfg.AlgorithmID()

	ksk, err := generateKey(origin, true, alg, e.cfg.KeyBits(true), e.zone.TTL())
	if err != nil {
		return &model.ConfigurationError{Stage: StageKeyGeneration, Err: err}
	}

	out.addf("Generated KSK for %s: %s, keytag %d", origin, e.cfg.Algorithm, ksk.DNSKEY.KeyTag())

	zsk, err := generateKey(origin, false, alg, e.cfg.KeyBits(false), e.zone.TTL())
	if err != nil {
		return &model.ConfigurationError{Stage: StageKeyGeneration, Err: err}
	}

	out.addf("Generated ZSK for %s: %s, keytag %d", origin, e.cfg.Algorithm, zsk.DNSKEY.KeyTag())

	e.ksk, e.zsk = ksk, zsk

	return nil
}

// signZone publishes the DNSKEYs, signs every set (DNSKEY with the KSK, others with the ZSK)
// and configures the KSK as trust anchor
func (e *Engine) signZone(out *output) error {
	e.zone.PublishDNSKEYs(e.ksk.DNSKEY, e.zsk.DNSKEY)

	if len(e.zone.DNSKEYs()) != 2 {
		return &model.ConfigurationError{Stage: StagePublication, Err: fmt.Errorf("DNSKEY set not published")}
	}

	out.addf("Published DNSKEY set at %s", e.zone.Origin())

	ts := now()
	validity := e.cfg.SignatureValidity.ToDuration()
	signed := 0

	err := e.zone.Sign(func(set zone.RRset) ([]*dns.RRSIG, error) {
		key := e.zsk
		if set.Rrtype == dns.TypeDNSKEY {
			key = e.ksk
		}

		sig, err := key.sign(set, e.zone.Origin(), validity, ts)
		if err != nil {
			return nil, err
		}

		signed++
		out.addf("Signed %s %s with %s %d", set.Name, dns.TypeToString[set.Rrtype], key.role(), key.DNSKEY.KeyTag())

		return []*dns.RRSIG{sig}, nil
	})
	if err != nil {
		e.zone.Unsign()

		return &model.ConfigurationError{Stage: StageZoneSigning, Err: err}
	}

	out.addf("Zone %s signed: %d RRsets, serial %d", e.zone.Origin(), signed, e.zone.Serial())

	e.state.setAnchors(dns.Copy(e.ksk.DNSKEY).(*dns.DNSKEY))

	return nil
}

func (e *Engine) fail(err error) {
	e.logger.Error("DNSSEC setup failed: ", err)
	e.collector.Add(collector.ScopeAuthoritative, collector.KindSigning, "DNSSEC setup failed: %v", err)
}

func (e *Engine) event(scope collector.Scope, kind collector.Kind, out *output, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	out.add(msg)
	e.logger.Info(msg)
	e.collector.Add(scope, kind, "%s", msg)
}

func (e *Engine) publishState() {
	evt.Bus().Publish(evt.DNSSECStateChanged, e.status())
}

type output struct {
	lines []string
}

func newOutput() *output {
	return &output{}
}

func (o *output) add(line string) {
	o.lines = append(o.lines, line)
}

func (o *output) addf(format string, args ...any) {
	o.add(fmt.Sprintf(format, args...))
}

func (o *output) String() string {
	return strings.Join(o.lines, "\n")
}
