package model

//go:generate go run github.com/abice/go-enum -f=$GOFILE --marshal --names
import (
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"
)

// Outcome of a candidate response at the resolver ENUM(
// pending // not decided yet
// accepted // committed to the cache
// rejected-mismatch // token or port did not match the outstanding query
// rejected-dnssec // signature missing or invalid while validation is enabled
// too-late // the query was already retired or never existed
// )
type Outcome int

// CandidateSource identifies who delivered a candidate response ENUM(
// authoritative // the authoritative name server
// spoofer // the attacker
// )
type CandidateSource int

// AttackState lifecycle of the attack controller ENUM(
// stopped
// running
// )
type AttackState int

// QueryKey identifies an outstanding query
type QueryKey struct {
	Domain string
	Qtype  uint16
}

// NewQueryKey creates a key for a domain and a record type
func NewQueryKey(domain string, qtype uint16) QueryKey {
	return QueryKey{Domain: dns.CanonicalName(domain), Qtype: qtype}
}

func (k QueryKey) String() string {
	return fmt.Sprintf("%s|%s", k.Domain, dns.TypeToString[k.Qtype])
}

// Candidate is a response delivered to the resolver for an outstanding query
type Candidate struct {
	ID     string
	Source CandidateSource
	// Msg carries the token as message id
	Msg    *dns.Msg
	Port   uint16
	SentAt time.Time
}

// Token returns the transaction id carried by the candidate
func (c *Candidate) Token() uint16 {
	return c.Msg.Id
}

// AttackAttempt is a single forged response and the resolver's verdict
type AttackAttempt struct {
	ID           string
	QueryID      string
	Domain       string
	GuessedToken uint16
	GuessedPort  uint16
	ForgedIP     net.IP
	Outcome      Outcome
	Timestamp    time.Time
}

// Commit is the single accepted answer of a query
type Commit struct {
	Key           QueryKey
	QueryID       string
	IP            net.IP
	TTL           uint32
	Poisoned      bool
	Authenticated bool
	Source        CandidateSource
	CommittedAt   time.Time
}

// MarshalBinary encodes the struct to json
func (c *Commit) MarshalBinary() ([]byte, error) {
	return json.Marshal(c)
}

// Resolution is the result of resolving a domain through the victim resolver
type Resolution struct {
	Domain        string
	IP            net.IP
	Poisoned      bool
	Authenticated bool
	Cached        bool
}

// MetricsSnapshot contains the attack counters at one point in time
type MetricsSnapshot struct {
	PoisonAttempts    uint64  `json:"poison_attempts"`
	SuccessfulPoisons uint64  `json:"successful_poisons"`
	BlockedAttempts   uint64  `json:"blocked_attempts"`
	SuccessRate       float64 `json:"success_rate"`
}

// MarshalBinary encodes the struct to json
func (s *MetricsSnapshot) MarshalBinary() ([]byte, error) {
	return json.Marshal(s)
}

// DNSSECStatus describes the DNSSEC lifecycle of the zone and the resolver
type DNSSECStatus struct {
	KeysGenerated   bool
	ZoneSigned      bool
	DNSKEYPublished bool
	DNSKEYRecords   int
	DNSSECEnabled   bool
}

// VerifyResult is the outcome of an on demand validation of a domain
type VerifyResult struct {
	Domain               string
	HasSignatures        bool
	Authenticated        bool
	ValidationSuccessful bool
	Trace                []string
}
