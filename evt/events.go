package evt

import (
	"github.com/asaskevich/EventBus"
)

const (
	// AttackStateChanged fires if the attack controller starts or stops. Parameter: model.AttackState
	AttackStateChanged = "attack:stateChanged"

	// AttackRoundFinished fires after a round of the attack loop. Parameter: attack.Round
	AttackRoundFinished = "attack:roundFinished"

	// AttemptFinished fires if the resolver decided a forged response. Parameter: model.AttackAttempt
	AttemptFinished = "attack:attemptFinished"

	// ResolverCacheCommitted fires if a query was answered and cached. Parameter: model.Commit
	ResolverCacheCommitted = "resolver:cacheCommitted"

	// ResolverQueryTimedOut fires if no response was accepted in time. Parameter: model.QueryKey
	ResolverQueryTimedOut = "resolver:queryTimedOut"

	// ResolverCacheFlushed fires if cache entries were removed. Parameter: domain name ("" = all)
	ResolverCacheFlushed = "resolver:cacheFlushed"

	// DNSSECStateChanged fires if keys, signatures or validation change. Parameter: model.DNSSECStatus
	DNSSECStateChanged = "dnssec:stateChanged"

	// MetricsChanged fires if the attack counters change. Parameter: model.MetricsSnapshot
	MetricsChanged = "metrics:changed"

	// LabReset fires after a full lab reset. No parameter
	LabReset = "lab:reset"

	// ApplicationStarted fires on start of the application. Parameter: version number, build time
	ApplicationStarted = "application:started"
)

// nolint
var evtBus = EventBus.New()

func Bus() EventBus.Bus {
	return evtBus
}
