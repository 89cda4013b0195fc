// @title poisonlab API
// @description poisonlab API

// @BasePath /api/
package api

const (
	PathAttackStartPath             = "/api/attack/start"
	PathAttackStopPath              = "/api/attack/stop"
	PathAttackRunPath               = "/api/attack/run"
	PathAttackStatusPath            = "/api/attack/status"
	PathQueryPath                   = "/api/query"
	PathCacheFlushPath              = "/api/cache/flush"
	PathWebsiteFetchPath            = "/api/website/fetch"
	PathLogsPath                    = "/api/logs"
	PathMetricsPath                 = "/api/metrics"
	PathResetPath                   = "/api/reset"
	PathAnomaliesPath               = "/api/anomalies"
	PathDNSSECSetupPath             = "/api/dnssec/setup"
	PathDNSSECUnsignPath            = "/api/dnssec/unsign"
	PathDNSSECStatusPath            = "/api/dnssec/status"
	PathDNSSECEnableValidationPath  = "/api/dnssec/enable-validation"
	PathDNSSECDisableValidationPath = "/api/dnssec/disable-validation"
	PathDNSSECRotatePath            = "/api/dnssec/rotate"
	PathDNSSECVerifyPath            = "/api/dnssec/verify"
	PathDNSSECAuthoritativeLogsPath = "/api/dnssec/logs/authoritative"
	PathDNSSECResolverLogsPath      = "/api/dnssec/logs/resolver"
)

// OperationResult is the answer of a state changing operation
type OperationResult struct {
	// True if the operation succeeded
	Success bool `json:"success"`
	// Human readable output of the operation
	Output string `json:"output,omitempty"`
	// Reason of the failure
	Error string `json:"error,omitempty"`
}

// AttackStatus is the lifecycle state of the attack loop
type AttackStatus struct {
	Running bool   `json:"running"`
	State   string `json:"state"`
}

// RoundResult is the outcome of a single attack round
type RoundResult struct {
	Success         bool    `json:"success"`
	Round           uint64  `json:"round"`
	Outcome         string  `json:"outcome"`
	BlockedByDNSSEC bool    `json:"blocked_by_dnssec"`
	Sent            int     `json:"sent"`
	DurationSec     float64 `json:"duration_sec"`
	Summary         string  `json:"summary"`
	Error           string  `json:"error,omitempty"`
}

// QueryResult is the answer of the victim resolver
type QueryResult struct {
	Domain        string `json:"domain"`
	IP            string `json:"ip"`
	Poisoned      bool   `json:"poisoned"`
	Authenticated bool   `json:"authenticated"`
	Cached        bool   `json:"cached"`
	Error         string `json:"error,omitempty"`
}

// LogsResult contains the attack log
type LogsResult struct {
	Output string `json:"output"`
}

// MetricsResult contains the attack counters
type MetricsResult struct {
	PoisonAttempts    uint64         `json:"poison_attempts"`
	SuccessfulPoisons uint64         `json:"successful_poisons"`
	BlockedAttempts   uint64         `json:"blocked_attempts"`
	SuccessRate       float64        `json:"success_rate"`
	Outcomes          map[string]int `json:"outcomes,omitempty"`
}

// DNSSECStatus is the DNSSEC lifecycle state of zone and resolver
type DNSSECStatus struct {
	ZoneSigned       bool `json:"zone_signed"`
	KeysGenerated    bool `json:"keys_generated"`
	DNSKEYRecords    bool `json:"dnskey_records"`
	DNSKEYCount      int  `json:"dnskey_count"`
	DNSSECEnabled    bool `json:"dnssec_enabled"`
	UsesSignedConfig bool `json:"uses_signed_config"`
}

// VerifyResult is the outcome of an on demand validation
type VerifyResult struct {
	Domain               string `json:"domain"`
	Authenticated        bool   `json:"authenticated"`
	HasSignatures        bool   `json:"has_signatures"`
	ValidationSuccessful bool   `json:"validation_successful"`
	QueryOutput          string `json:"query_output"`
	Error                string `json:"error,omitempty"`
}

// AuthoritativeLogs contains the log of the authoritative server
type AuthoritativeLogs struct {
	Logs string `json:"logs"`
}

// ResolverLogs contains the validation and query log of the resolver
type ResolverLogs struct {
	DNSSECLogs string `json:"dnssec_logs"`
	QueryLogs  string `json:"query_logs"`
}
