package dnssec

import (
	"sync"

	"github.com/miekg/dns"
)

// State is the resolver side of DNSSEC: the validation switch and the configured trust anchors.
// It is shared by reference between the engine and the resolver.
type State struct {
	mu      sync.RWMutex
	enabled bool
	anchors []*dns.DNSKEY
}

// NewState returns a state without trust anchors and validation disabled
func NewState() *State {
	return &State{}
}

// ValidationEnabled returns true if the resolver must validate answers
func (s *State) ValidationEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.enabled
}

// TrustAnchors returns copies of the configured anchors
func (s *State) TrustAnchors() []*dns.DNSKEY {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]*dns.DNSKEY, len(s.anchors))
	for i, a := range s.anchors {
		res[i] = dns.Copy(a).(*dns.DNSKEY)
	}

	return res
}

// Configured returns true if at least one trust anchor is set
func (s *State) Configured() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.anchors) > 0
}

func (s *State) setEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.enabled = enabled
}

func (s *State) setAnchors(anchors ...*dns.DNSKEY) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.anchors = anchors
}

func (s *State) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.enabled = false
	s.anchors = nil
}
