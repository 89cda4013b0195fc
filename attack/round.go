package attack

//go:generate go run github.com/abice/go-enum -f=$GOFILE --marshal --names

import (
	"fmt"
	"strings"
	"time"

	"github.com/poisonlab/poisonlab/model"
)

const banner = "============================================================"

// RoundOutcome result of one attack round ENUM(
// success // the forged address was cached
// blocked // forged responses were rejected by DNSSEC
// failed // the authoritative answer won or the query timed out
// )
type RoundOutcome int

// Round is one race between the authoritative answer and the forged responses
type Round struct {
	Number          uint64
	QueryID         string
	Domain          string
	Started         time.Time
	Finished        time.Time
	Outcome         RoundOutcome
	BlockedByDNSSEC bool
	Commit          *model.Commit
	Sent            int
	Outcomes        map[model.Outcome]int
	Err             error
}

// Duration returns how long the round took
func (r *Round) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Summary returns the one-line description used in the query log
func (r *Round) Summary() string {
	switch r.Outcome {
	case RoundOutcomeSuccess:
		return fmt.Sprintf("Attack attempt #%d: SUCCESS (cache poisoned)", r.Number)
	case RoundOutcomeBlocked:
		return fmt.Sprintf("Attack attempt #%d: BLOCKED by DNSSEC (validated answer)", r.Number)
	}

	if r.Err != nil {
		return fmt.Sprintf("Attack attempt #%d: FAILED (%v)", r.Number, r.Err)
	}

	return fmt.Sprintf("Attack attempt #%d: FAILED (authoritative answer won the race)", r.Number)
}

// Text renders the round as attack log
func (r *Round) Text(legitIP, attackerIP string) string {
	var b strings.Builder

	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format+"\n", args...)
	}

	domain := strings.TrimSuffix(r.Domain, ".")

	line(banner)
	line("DNS CACHE POISONING ATTACK")
	line(banner)
	line("[1/4] Flushing resolver cache for %s...", domain)
	line("[✓] Cache cleared - resolver must ask the authoritative server")
	line("[2/4] Triggering resolver query (id and port unknown to attacker)...")
	line("[✓] Query %s outstanding", r.QueryID)
	line("[3/4] Racing %d forged responses against the authoritative answer...", r.Sent)
	line("[✓] accepted=%d mismatch=%d dnssec=%d too-late=%d",
		r.Outcomes[model.OutcomeAccepted], r.Outcomes[model.OutcomeRejectedMismatch],
		r.Outcomes[model.OutcomeRejectedDnssec], r.Outcomes[model.OutcomeTooLate])
	line("[4/4] Attack complete!")
	line("")
	line(banner)

	switch r.Outcome {
	case RoundOutcomeSuccess:
		line("[✓✓✓] ATTACK SUCCESSFUL!")
		line("[!] %s now resolves to: %s (FAKE SITE)", domain, attackerIP)
	case RoundOutcomeBlocked:
		line("[✗] ATTACK BLOCKED BY DNSSEC!")
		line("[!] Resolver kept %s pointing to the REAL site (%s)", domain, legitIP)
	default:
		if r.Err != nil {
			line("[✗] ATTACK FAILED - NO ANSWER")
			line("[!] %s could not be resolved: %v", domain, r.Err)
		} else {
			line("[✗] ATTACK FAILED - LOST THE RACE")
			line("[!] Resolver accepted the authoritative answer (%s)", legitIP)
		}
	}

	line(banner)

	return b.String()
}
