package dnssec

//go:generate go run github.com/abice/go-enum -f=$GOFILE --marshal --names

import (
	"errors"
	"fmt"
	"time"

	"github.com/miekg/dns"
	"github.com/sirupsen/logrus"

	"github.com/poisonlab/poisonlab/zone"
)

var (
	ErrNoTrustAnchor     = errors.New("no trust anchor configured")
	ErrMissingSignature  = errors.New("no RRSIG covers the answer")
	ErrUntrustedKeys     = errors.New("DNSKEY set is not signed by a trust anchor")
	ErrNoMatchingKey     = errors.New("no DNSKEY matches the RRSIG")
	ErrSignatureWindow   = errors.New("signature outside of its validity window")
	ErrInvalidSignature  = errors.New("signature verification failed")
	errEmptyAnswerRRset  = errors.New("answer has no records for the question")
	errMalformedQuestion = errors.New("response has no question")
)

// ValidationResult represents the result of DNSSEC validation ENUM(
// Secure // Valid signature from a trusted key
// Insecure // No signatures and no trust anchor
// Bogus // Signature missing or invalid although the zone is trusted
// Indeterminate // Validation could not be completed
// )
type ValidationResult int

// KeySource returns the DNSKEY set of the zone as served by the authoritative server
type KeySource func() (zone.RRset, bool)

// Validator checks answers against the trust anchors of a State
type Validator struct {
	state     *State
	keys      KeySource
	clockSkew time.Duration
	logger    *logrus.Entry
}

// NewValidator creates a validator reading anchors from state and keys from keys
func NewValidator(state *State, keys KeySource, clockSkew time.Duration, logger *logrus.Entry) *Validator {
	return &Validator{
		state:     state,
		keys:      keys,
		clockSkew: clockSkew,
		logger:    logger,
	}
}

// ValidateResponse validates the answer section for the question of msg.
// The trace contains one human readable line per step.
func (v *Validator) ValidateResponse(msg *dns.Msg, now time.Time) (ValidationResult, []string, error) {
	var trace []string

	tracef := func(format string, args ...any) {
		line := fmt.Sprintf(format, args...)
		trace = append(trace, line)
		v.logger.Debug(line)
	}

	if len(msg.Question) == 0 {
		return ValidationResultIndeterminate, trace, errMalformedQuestion
	}

	q := msg.Question[0]

	rrset := answerRRset(msg, q.Name, q.Qtype)
	sigs := findMatchingRRSIGs(extractRRSIGs(msg.Answer), q.Name, q.Qtype)

	anchors := v.state.TrustAnchors()
	if len(anchors) == 0 {
		if len(sigs) == 0 {
			tracef(";; no trust anchor and no RRSIG for %s %s: insecure", q.Name, dns.TypeToString[q.Qtype])

			return ValidationResultInsecure, trace, nil
		}

		tracef(";; no trust anchor configured for %s", q.Name)

		return ValidationResultIndeterminate, trace, ErrNoTrustAnchor
	}

	if len(rrset) == 0 {
		tracef(";; no %s records for %s", dns.TypeToString[q.Qtype], q.Name)

		return ValidationResultIndeterminate, trace, errEmptyAnswerRRset
	}

	if len(sigs) == 0 {
		tracef(";; %s %s carries no RRSIG", q.Name, dns.TypeToString[q.Qtype])

		return ValidationResultBogus, trace, ErrMissingSignature
	}

	keys, err := v.trustedKeys(anchors, now, tracef)
	if err != nil {
		return ValidationResultBogus, trace, err
	}

	var lastErr error

	for _, sig := range sigs {
		key := findMatchingDNSKEY(keys, sig.KeyTag, sig.Algorithm)
		if key == nil {
			tracef(";; RRSIG keytag %d: %v", sig.KeyTag, ErrNoMatchingKey)
			lastErr = ErrNoMatchingKey

			continue
		}

		if err := v.verifyRRSIG(rrset, sig, key, now); err != nil {
			tracef(";; RRSIG %s keytag %d: %v", dns.TypeToString[sig.TypeCovered], sig.KeyTag, err)
			lastErr = err

			continue
		}

		tracef(";; RRSIG %s keytag %d verified with %s", dns.TypeToString[sig.TypeCovered], sig.KeyTag, roleOf(key))

		return ValidationResultSecure, trace, nil
	}

	return ValidationResultBogus, trace, lastErr
}

// trustedKeys returns the DNSKEY set after verifying it with a trust anchor
func (v *Validator) trustedKeys(
	anchors []*dns.DNSKEY, now time.Time, tracef func(string, ...any),
) ([]*dns.DNSKEY, error) {
	set, ok := v.keys()
	if !ok || len(set.RRs) == 0 {
		tracef(";; DNSKEY set of %s not available", anchors[0].Header().Name)

		return nil, ErrUntrustedKeys
	}

	keys := make([]*dns.DNSKEY, 0, len(set.RRs))

	for _, rr := range set.RRs {
		if k, ok := rr.(*dns.DNSKEY); ok {
			keys = append(keys, k)
		}
	}

	var lastErr error

	for _, anchor := range anchors {
		for _, sig := range set.RRSIGs {
			if sig.KeyTag != anchor.KeyTag() || sig.Algorithm != anchor.Algorithm {
				continue
			}

			if err := v.verifyRRSIG(set.RRs, sig, anchor, now); err != nil {
				tracef(";; DNSKEY RRSIG keytag %d: %v", sig.KeyTag, err)
				lastErr = err

				continue
			}

			tracef(";; DNSKEY %s keytag %d (KSK) trusted", anchor.Header().Name, anchor.KeyTag())

			return keys, nil
		}
	}

	tracef(";; %v", ErrUntrustedKeys)

	if lastErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrUntrustedKeys, lastErr)
	}

	return nil, ErrUntrustedKeys
}

func (v *Validator) verifyRRSIG(rrset []dns.RR, rrsig *dns.RRSIG, key *dns.DNSKEY, now time.Time) error {
	if rrsig.Algorithm != key.Algorithm {
		return fmt.Errorf("%w: algorithm mismatch: RRSIG uses %d, DNSKEY uses %d",
			ErrInvalidSignature, rrsig.Algorithm, key.Algorithm)
	}

	if len(rrset) > 0 && !validateSignerName(rrsig.SignerName, rrset[0].Header().Name) {
		return fmt.Errorf("%w: signer %s is not a parent of %s",
			ErrInvalidSignature, rrsig.SignerName, rrset[0].Header().Name)
	}

	ts := now.Unix()
	tolerance := int64(v.clockSkew.Seconds())

	if ts < int64(rrsig.Inception)-tolerance {
		return fmt.Errorf("%w: not yet valid (inception: %d, now: %d)", ErrSignatureWindow, rrsig.Inception, ts)
	}

	if ts > int64(rrsig.Expiration)+tolerance {
		return fmt.Errorf("%w: expired (expiration: %d, now: %d)", ErrSignatureWindow, rrsig.Expiration, ts)
	}

	if err := rrsig.Verify(key, rrset); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}

	return nil
}

func roleOf(key *dns.DNSKEY) string {
	if key.Flags&dns.SEP != 0 {
		return "KSK"
	}

	return "ZSK"
}

func answerRRset(msg *dns.Msg, name string, qtype uint16) []dns.RR {
	var res []dns.RR

	for _, rr := range msg.Answer {
		if rr.Header().Rrtype == qtype && dns.CanonicalName(rr.Header().Name) == dns.CanonicalName(name) {
			res = append(res, rr)
		}
	}

	return res
}

func extractRRSIGs(rrs []dns.RR) []*dns.RRSIG {
	var res []*dns.RRSIG

	for _, rr := range rrs {
		if sig, ok := rr.(*dns.RRSIG); ok {
			res = append(res, sig)
		}
	}

	return res
}

// findMatchingRRSIGs finds all RRSIGs that match the given RRset owner name and type
func findMatchingRRSIGs(sigs []*dns.RRSIG, ownerName string, rrType uint16) []*dns.RRSIG {
	ownerName = dns.CanonicalName(ownerName)

	var res []*dns.RRSIG

	for _, sig := range sigs {
		if sig.TypeCovered == rrType && dns.CanonicalName(sig.Header().Name) == ownerName {
			res = append(res, sig)
		}
	}

	return res
}

// validateSignerName checks that the signer is equal to or a parent of the RRset owner
func validateSignerName(signerName, rrsetName string) bool {
	return dns.IsSubDomain(dns.CanonicalName(signerName), dns.CanonicalName(rrsetName))
}

// findMatchingDNSKEY finds the DNSKEY that matches the given key tag and algorithm
func findMatchingDNSKEY(keys []*dns.DNSKEY, keyTag uint16, algorithm uint8) *dns.DNSKEY {
	for _, key := range keys {
		if key.Protocol != dnskeyProtocol {
			continue
		}

		if key.KeyTag() == keyTag && key.Algorithm == algorithm {
			return key
		}
	}

	return nil
}
