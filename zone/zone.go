package zone

import (
	"fmt"
	"net"
	"sort"
	"sync"

	"github.com/miekg/dns"

	"github.com/poisonlab/poisonlab/config"
	"github.com/poisonlab/poisonlab/model"
)

// RRset is the set of records of one owner name and type together with its signatures
type RRset struct {
	Name   string
	Rrtype uint16
	RRs    []dns.RR
	RRSIGs []*dns.RRSIG
}

// Signed returns true if at least one signature covers the set
func (r RRset) Signed() bool {
	return len(r.RRSIGs) > 0
}

func (r RRset) clone() RRset {
	res := RRset{Name: r.Name, Rrtype: r.Rrtype}

	res.RRs = make([]dns.RR, len(r.RRs))
	for i, rr := range r.RRs {
		res.RRs[i] = dns.Copy(rr)
	}

	if len(r.RRSIGs) > 0 {
		res.RRSIGs = make([]*dns.RRSIG, len(r.RRSIGs))
		for i, sig := range r.RRSIGs {
			res.RRSIGs[i] = dns.Copy(sig).(*dns.RRSIG)
		}
	}

	return res
}

// Record is a flattened view of an address record
type Record struct {
	Name   string
	Type   string
	IP     net.IP
	TTL    uint32
	Signed bool
}

// Store holds the authoritative data of the simulated zone
type Store struct {
	mu     sync.RWMutex
	cfg    config.Lab
	origin string
	serial uint32
	rrsets map[model.QueryKey]*RRset
}

// NewStore creates a store loaded with the unsigned lab zone
func NewStore(cfg config.Lab) *Store {
	s := &Store{cfg: cfg, origin: cfg.ZoneName()}
	s.load()

	return s
}

// Origin returns the zone apex
func (s *Store) Origin() string {
	return s.origin
}

// TTL returns the record ttl of the zone
func (s *Store) TTL() uint32 {
	return s.cfg.RecordTTL
}

// Serial returns the current SOA serial
func (s *Store) Serial() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.serial
}

// Lookup returns a copy of the set of name and type
func (s *Store) Lookup(name string, qtype uint16) (RRset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set, ok := s.rrsets[model.NewQueryKey(name, qtype)]
	if !ok {
		return RRset{}, false
	}

	return set.clone(), true
}

// Contains returns true if name is inside the zone
func (s *Store) Contains(name string) bool {
	return dns.IsSubDomain(s.origin, dns.CanonicalName(name))
}

// RRsets returns copies of all sets ordered by name and type
func (s *Store) RRsets() []RRset {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]RRset, 0, len(s.rrsets))
	for _, set := range s.rrsets {
		res = append(res, set.clone())
	}

	sort.Slice(res, func(i, j int) bool {
		if res[i].Name != res[j].Name {
			return res[i].Name < res[j].Name
		}

		return res[i].Rrtype < res[j].Rrtype
	})

	return res
}

// Records returns the address records of the zone
func (s *Store) Records() []Record {
	var res []Record

	for _, set := range s.RRsets() {
		for _, rr := range set.RRs {
			if a, ok := rr.(*dns.A); ok {
				res = append(res, Record{
					Name:   a.Hdr.Name,
					Type:   dns.TypeToString[a.Hdr.Rrtype],
					IP:     a.A,
					TTL:    a.Hdr.Ttl,
					Signed: set.Signed(),
				})
			}
		}
	}

	return res
}

// Signed returns true if any set carries signatures
func (s *Store) Signed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, set := range s.rrsets {
		if set.Signed() {
			return true
		}
	}

	return false
}

// DNSKEYs returns the published keys
func (s *Store) DNSKEYs() []*dns.DNSKEY {
	set, ok := s.Lookup(s.origin, dns.TypeDNSKEY)
	if !ok {
		return nil
	}

	res := make([]*dns.DNSKEY, 0, len(set.RRs))

	for _, rr := range set.RRs {
		if k, ok := rr.(*dns.DNSKEY); ok {
			res = append(res, k)
		}
	}

	return res
}

// PublishDNSKEYs replaces the DNSKEY set at the apex
func (s *Store) PublishDNSKEYs(keys ...*dns.DNSKEY) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := &RRset{Name: s.origin, Rrtype: dns.TypeDNSKEY}
	for _, k := range keys {
		set.RRs = append(set.RRs, dns.Copy(k))
	}

	s.rrsets[model.NewQueryKey(s.origin, dns.TypeDNSKEY)] = set
}

// Sign replaces the signatures of every set with the ones returned by sign and bumps the serial
func (s *Store) Sign(sign func(set RRset) ([]*dns.RRSIG, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bumpSerial()

	signatures := make(map[model.QueryKey][]*dns.RRSIG, len(s.rrsets))

	for key, set := range s.rrsets {
		sigs, err := sign(set.clone())
		if err != nil {
			return fmt.Errorf("can't sign %s: %w", key, err)
		}

		signatures[key] = sigs
	}

	for key, sigs := range signatures {
		s.rrsets[key].RRSIGs = sigs
	}

	return nil
}

// Unsign drops all signatures and the published keys
func (s *Store) Unsign() {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.rrsets, model.NewQueryKey(s.origin, dns.TypeDNSKEY))

	for _, set := range s.rrsets {
		set.RRSIGs = nil
	}

	s.bumpSerial()
}

// Reset restores the unsigned lab zone
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.load()
}

func (s *Store) bumpSerial() {
	s.serial++

	if set, ok := s.rrsets[model.NewQueryKey(s.origin, dns.TypeSOA)]; ok {
		for _, rr := range set.RRs {
			if soa, ok := rr.(*dns.SOA); ok {
				soa.Serial = s.serial
			}
		}
	}
}

func (s *Store) load() {
	ttl := s.cfg.RecordTTL
	ns := "ns1." + s.origin

	s.serial = s.cfg.SOASerial
	s.rrsets = make(map[model.QueryKey]*RRset)

	s.add(&dns.SOA{
		Hdr:     dns.RR_Header{Name: s.origin, Rrtype: dns.TypeSOA, Class: dns.ClassINET, Ttl: ttl},
		Ns:      ns,
		Mbox:    "admin." + s.origin,
		Serial:  s.serial,
		Refresh: 3600,
		Retry:   1800,
		Expire:  604800,
		Minttl:  ttl,
	})
	s.add(&dns.NS{
		Hdr: dns.RR_Header{Name: s.origin, Rrtype: dns.TypeNS, Class: dns.ClassINET, Ttl: ttl},
		Ns:  ns,
	})
	s.add(&dns.A{
		Hdr: dns.RR_Header{Name: ns, Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: ttl},
		A:   s.cfg.Nameserver(),
	})
	s.add(&dns.A{
		Hdr: dns.RR_Header{Name: s.cfg.Victim(), Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: ttl},
		A:   s.cfg.Legit(),
	})
}

func (s *Store) add(rr dns.RR) {
	key := model.NewQueryKey(rr.Header().Name, rr.Header().Rrtype)

	set, ok := s.rrsets[key]
	if !ok {
		set = &RRset{Name: key.Domain, Rrtype: key.Qtype}
		s.rrsets[key] = set
	}

	set.RRs = append(set.RRs, rr)
}
