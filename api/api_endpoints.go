package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/poisonlab/poisonlab/attack"
	"github.com/poisonlab/poisonlab/detector"
	"github.com/poisonlab/poisonlab/lab"
	"github.com/poisonlab/poisonlab/log"
	"github.com/poisonlab/poisonlab/model"
	"github.com/poisonlab/poisonlab/util"
	"github.com/poisonlab/poisonlab/website"
)

const (
	contentTypeHeader = "content-type"
	jsonContentType   = "application/json"

	domainParam = "domain"
)

// AttackControl interface to control the attack loop
type AttackControl interface {
	StartAttack() lab.Result
	StopAttack() lab.Result
	RunAttack(ctx context.Context) (attack.Round, error)
	AttackState() model.AttackState
	Logs() string
}

// Querier interface to resolve names through the victim resolver
type Querier interface {
	Resolve(ctx context.Context, domain string) (model.Resolution, error)
	FlushCache(domain string)
}

// SiteFetcher interface to load the site a resolved name points to
type SiteFetcher interface {
	FetchSite(ctx context.Context, domain string) website.Page
}

// MetricsSource interface to read the attack counters
type MetricsSource interface {
	Metrics() model.MetricsSnapshot
	Outcomes() map[string]int
}

// Resetter interface to restore the initial lab state
type Resetter interface {
	Reset()
}

// AnomalySource interface to read suspicious resolver traffic
type AnomalySource interface {
	Anomalies() []detector.Anomaly
}

// DNSSECControl interface to control signing and validation
type DNSSECControl interface {
	SetupDNSSEC() lab.Result
	UnsignZone() lab.Result
	DNSSECStatus() model.DNSSECStatus
	EnableValidation() lab.Result
	DisableValidation() lab.Result
	RotateKeys() lab.Result
	Verify(domain string) (model.VerifyResult, error)
	AuthoritativeLogs() string
	ResolverLogs() lab.ResolverLogs
}

// RegisterEndpoint registers an implementation as HTTP endpoint
func RegisterEndpoint(router chi.Router, t interface{}) {
	if a, ok := t.(AttackControl); ok {
		registerAttackEndpoints(router, a)
	}

	if a, ok := t.(Querier); ok {
		registerQueryEndpoints(router, a)
	}

	if a, ok := t.(SiteFetcher); ok {
		router.Get(PathWebsiteFetchPath, (&SiteEndpoint{a}).apiWebsiteFetch)
	}

	if a, ok := t.(MetricsSource); ok {
		router.Get(PathMetricsPath, (&MetricsEndpoint{a}).apiMetrics)
	}

	if a, ok := t.(Resetter); ok {
		router.Post(PathResetPath, (&ResetEndpoint{a}).apiReset)
	}

	if a, ok := t.(AnomalySource); ok {
		router.Get(PathAnomaliesPath, (&AnomalyEndpoint{a}).apiAnomalies)
	}

	if a, ok := t.(DNSSECControl); ok {
		registerDNSSECEndpoints(router, a)
	}
}

// AttackEndpoint endpoint for the attack control
type AttackEndpoint struct {
	control AttackControl
}

// QueryEndpoint endpoint for resolver queries
type QueryEndpoint struct {
	querier Querier
}

// SiteEndpoint endpoint for the website view
type SiteEndpoint struct {
	fetcher SiteFetcher
}

// MetricsEndpoint endpoint for the attack counters
type MetricsEndpoint struct {
	source MetricsSource
}

// ResetEndpoint endpoint for the lab reset
type ResetEndpoint struct {
	resetter Resetter
}

// AnomalyEndpoint endpoint for detected anomalies
type AnomalyEndpoint struct {
	source AnomalySource
}

// DNSSECEndpoint endpoint for the DNSSEC lifecycle
type DNSSECEndpoint struct {
	control DNSSECControl
}

func registerAttackEndpoints(router chi.Router, control AttackControl) {
	s := &AttackEndpoint{control}

	router.Post(PathAttackStartPath, s.apiAttackStart)
	router.Post(PathAttackStopPath, s.apiAttackStop)
	router.Post(PathAttackRunPath, s.apiAttackRun)
	router.Get(PathAttackStatusPath, s.apiAttackStatus)
	router.Get(PathLogsPath, s.apiLogs)
}

func registerQueryEndpoints(router chi.Router, querier Querier) {
	s := &QueryEndpoint{querier}

	router.Get(PathQueryPath, s.apiQuery)
	router.Post(PathCacheFlushPath, s.apiCacheFlush)
}

func registerDNSSECEndpoints(router chi.Router, control DNSSECControl) {
	s := &DNSSECEndpoint{control}

	router.Post(PathDNSSECSetupPath, s.apiSetup)
	router.Post(PathDNSSECUnsignPath, s.apiUnsign)
	router.Get(PathDNSSECStatusPath, s.apiStatus)
	router.Post(PathDNSSECEnableValidationPath, s.apiEnableValidation)
	router.Post(PathDNSSECDisableValidationPath, s.apiDisableValidation)
	router.Post(PathDNSSECRotatePath, s.apiRotate)
	router.Get(PathDNSSECVerifyPath, s.apiVerify)
	router.Get(PathDNSSECAuthoritativeLogsPath, s.apiAuthoritativeLogs)
	router.Get(PathDNSSECResolverLogsPath, s.apiResolverLogs)
}

// apiAttackStart is the http endpoint to start the attack loop
// @Summary Start attack
// @Description start the attack loop, a running attack is left untouched
// @Tags attack
// @Produce  json
// @Success 200 {object} api.OperationResult "Attack is running"
// @Router /attack/start [post]
func (s *AttackEndpoint) apiAttackStart(rw http.ResponseWriter, _ *http.Request) {
	log.Log().Info("starting attack...")

	writeResult(rw, s.control.StartAttack())
}

// apiAttackStop is the http endpoint to stop the attack loop
// @Summary Stop attack
// @Description stop the attack loop
// @Tags attack
// @Produce  json
// @Success 200 {object} api.OperationResult "Attack is stopped"
// @Failure 409 {object} api.OperationResult "Attack is not running"
// @Router /attack/stop [post]
func (s *AttackEndpoint) apiAttackStop(rw http.ResponseWriter, _ *http.Request) {
	log.Log().Info("stopping attack...")

	writeResult(rw, s.control.StopAttack())
}

// apiAttackRun is the http endpoint to run a single attack round
// @Summary Run attack round
// @Description race one set of forged responses against the authoritative answer
// @Tags attack
// @Produce  json
// @Success 200 {object} api.RoundResult "Outcome of the round"
// @Router /attack/run [post]
func (s *AttackEndpoint) apiAttackRun(rw http.ResponseWriter, req *http.Request) {
	round, err := s.control.RunAttack(req.Context())
	if err != nil {
		writeJSON(rw, statusOf(err), RoundResult{Error: err.Error()})

		return
	}

	writeJSON(rw, http.StatusOK, RoundResult{
		Success:         round.Outcome == attack.RoundOutcomeSuccess,
		Round:           round.Number,
		Outcome:         round.Outcome.String(),
		BlockedByDNSSEC: round.BlockedByDNSSEC,
		Sent:            round.Sent,
		DurationSec:     round.Duration().Seconds(),
		Summary:         round.Summary(),
	})
}

// apiAttackStatus is the http endpoint to get the attack state
// @Summary Attack status
// @Description get the lifecycle state of the attack loop
// @Tags attack
// @Produce  json
// @Success 200 {object} api.AttackStatus "Returns the attack state"
// @Router /attack/status [get]
func (s *AttackEndpoint) apiAttackStatus(rw http.ResponseWriter, _ *http.Request) {
	state := s.control.AttackState()

	writeJSON(rw, http.StatusOK, AttackStatus{
		Running: state == model.AttackStateRunning,
		State:   state.String(),
	})
}

// apiLogs is the http endpoint to get the attack log
// @Summary Attack log
// @Description get the log of the latest attack round
// @Tags attack
// @Produce  json
// @Success 200 {object} api.LogsResult "Returns the attack log"
// @Router /logs [get]
func (s *AttackEndpoint) apiLogs(rw http.ResponseWriter, _ *http.Request) {
	writeJSON(rw, http.StatusOK, LogsResult{Output: s.control.Logs()})
}

// apiQuery is the http endpoint to resolve a name through the victim resolver
// @Summary Query
// @Description resolve a name through the victim resolver
// @Tags query
// @Produce  json
// @Param domain query string false "domain to resolve, the victim domain if empty"
// @Success 200 {object} api.QueryResult "Resolver answer"
// @Failure 504 {object} api.QueryResult "Query timed out"
// @Router /query [get]
func (s *QueryEndpoint) apiQuery(rw http.ResponseWriter, req *http.Request) {
	domain := strings.TrimSpace(req.URL.Query().Get(domainParam))

	res, err := s.querier.Resolve(req.Context(), domain)
	if err != nil {
		log.Log().Warnf("can't resolve '%s': %v", log.EscapeInput(domain), err)

		writeJSON(rw, statusOf(err), QueryResult{Domain: domain, Error: err.Error()})

		return
	}

	result := QueryResult{
		Domain:        strings.TrimSuffix(res.Domain, "."),
		Poisoned:      res.Poisoned,
		Authenticated: res.Authenticated,
		Cached:        res.Cached,
	}

	if res.IP != nil {
		result.IP = res.IP.String()
	}

	writeJSON(rw, http.StatusOK, result)
}

// apiCacheFlush is the http endpoint to flush the resolver cache
// @Summary Flush cache
// @Description drop the cached answer of a domain, all answers if empty
// @Tags query
// @Param domain query string false "domain to flush"
// @Success 200 {object} api.OperationResult "Cache flushed"
// @Router /cache/flush [post]
func (s *QueryEndpoint) apiCacheFlush(rw http.ResponseWriter, req *http.Request) {
	s.querier.FlushCache(strings.TrimSpace(req.URL.Query().Get(domainParam)))

	writeJSON(rw, http.StatusOK, OperationResult{Success: true})
}

// apiWebsiteFetch is the http endpoint to load the site a name resolves to
// @Summary Website
// @Description resolve a name and load the real or the fake site
// @Tags website
// @Produce  json
// @Param domain query string false "domain to resolve, the victim domain if empty"
// @Success 200 {object} website.Page "The page"
// @Router /website/fetch [get]
func (s *SiteEndpoint) apiWebsiteFetch(rw http.ResponseWriter, req *http.Request) {
	page := s.fetcher.FetchSite(req.Context(), strings.TrimSpace(req.URL.Query().Get(domainParam)))

	writeJSON(rw, http.StatusOK, page)
}

// apiMetrics is the http endpoint to get the attack counters
// @Summary Metrics
// @Description get the attack counters
// @Tags metrics
// @Produce  json
// @Success 200 {object} api.MetricsResult "Returns the counters"
// @Router /metrics [get]
func (s *MetricsEndpoint) apiMetrics(rw http.ResponseWriter, _ *http.Request) {
	snapshot := s.source.Metrics()

	writeJSON(rw, http.StatusOK, MetricsResult{
		PoisonAttempts:    snapshot.PoisonAttempts,
		SuccessfulPoisons: snapshot.SuccessfulPoisons,
		BlockedAttempts:   snapshot.BlockedAttempts,
		SuccessRate:       snapshot.SuccessRate,
		Outcomes:          s.source.Outcomes(),
	})
}

// apiReset is the http endpoint to restore the initial lab state
// @Summary Reset
// @Description stop the attack, clear counters, logs, cache and DNSSEC state
// @Tags lab
// @Produce  json
// @Success 200 {object} api.OperationResult "Lab was reset"
// @Router /reset [post]
func (s *ResetEndpoint) apiReset(rw http.ResponseWriter, _ *http.Request) {
	log.Log().Info("resetting lab...")

	s.resetter.Reset()

	writeJSON(rw, http.StatusOK, OperationResult{Success: true, Output: "lab reset"})
}

// apiAnomalies is the http endpoint to list detected anomalies
// @Summary Anomalies
// @Description list queries which received multiple or conflicting responses
// @Tags lab
// @Produce  json
// @Success 200 {array} detector.Anomaly "Detected anomalies"
// @Router /anomalies [get]
func (s *AnomalyEndpoint) apiAnomalies(rw http.ResponseWriter, _ *http.Request) {
	anomalies := s.source.Anomalies()
	if anomalies == nil {
		anomalies = []detector.Anomaly{}
	}

	writeJSON(rw, http.StatusOK, anomalies)
}

// apiSetup is the http endpoint to toggle DNSSEC on the zone
// @Summary DNSSEC setup
// @Description sign the zone, a signed zone is unsigned again
// @Tags dnssec
// @Produce  json
// @Success 200 {object} api.OperationResult "Setup output"
// @Failure 500 {object} api.OperationResult "Failing stage"
// @Router /dnssec/setup [post]
func (s *DNSSECEndpoint) apiSetup(rw http.ResponseWriter, _ *http.Request) {
	writeResult(rw, s.control.SetupDNSSEC())
}

// @Router /dnssec/unsign [post]
func (s *DNSSECEndpoint) apiUnsign(rw http.ResponseWriter, _ *http.Request) {
	writeResult(rw, s.control.UnsignZone())
}

// apiStatus is the http endpoint to get the DNSSEC state
// @Summary DNSSEC status
// @Description get the DNSSEC lifecycle state
// @Tags dnssec
// @Produce  json
// @Success 200 {object} api.DNSSECStatus "Returns the DNSSEC state"
// @Router /dnssec/status [get]
func (s *DNSSECEndpoint) apiStatus(rw http.ResponseWriter, _ *http.Request) {
	status := s.control.DNSSECStatus()

	writeJSON(rw, http.StatusOK, DNSSECStatus{
		ZoneSigned:       status.ZoneSigned,
		KeysGenerated:    status.KeysGenerated,
		DNSKEYRecords:    status.DNSKEYPublished,
		DNSKEYCount:      status.DNSKEYRecords,
		DNSSECEnabled:    status.DNSSECEnabled,
		UsesSignedConfig: status.ZoneSigned && status.DNSSECEnabled,
	})
}

// apiEnableValidation is the http endpoint to turn on DNSSEC validation
// @Summary Enable validation
// @Description turn on DNSSEC validation at the resolver, requires setup
// @Tags dnssec
// @Produce  json
// @Success 200 {object} api.OperationResult "Validation enabled"
// @Failure 409 {object} api.OperationResult "DNSSEC not set up"
// @Router /dnssec/enable-validation [post]
func (s *DNSSECEndpoint) apiEnableValidation(rw http.ResponseWriter, _ *http.Request) {
	writeResult(rw, s.control.EnableValidation())
}

// @Router /dnssec/disable-validation [post]
func (s *DNSSECEndpoint) apiDisableValidation(rw http.ResponseWriter, _ *http.Request) {
	writeResult(rw, s.control.DisableValidation())
}

// apiRotate is the http endpoint to replace the keys
// @Summary Rotate keys
// @Description generate new keys and re-sign a signed zone
// @Tags dnssec
// @Produce  json
// @Success 200 {object} api.OperationResult "Keys rotated"
// @Router /dnssec/rotate [post]
func (s *DNSSECEndpoint) apiRotate(rw http.ResponseWriter, _ *http.Request) {
	writeResult(rw, s.control.RotateKeys())
}

// apiVerify is the http endpoint to validate a domain on demand
// @Summary Verify
// @Description validate the zone's answer for a domain
// @Tags dnssec
// @Produce  json
// @Param domain query string false "domain to verify, the victim domain if empty"
// @Success 200 {object} api.VerifyResult "Validation result"
// @Failure 409 {object} api.VerifyResult "DNSSEC not set up"
// @Router /dnssec/verify [get]
func (s *DNSSECEndpoint) apiVerify(rw http.ResponseWriter, req *http.Request) {
	res, err := s.control.Verify(strings.TrimSpace(req.URL.Query().Get(domainParam)))

	result := VerifyResult{
		Domain:               strings.TrimSuffix(res.Domain, "."),
		Authenticated:        res.Authenticated,
		HasSignatures:        res.HasSignatures,
		ValidationSuccessful: res.ValidationSuccessful,
		QueryOutput:          strings.Join(res.Trace, "\n"),
	}

	if err != nil {
		result.Error = err.Error()

		writeJSON(rw, statusOf(err), result)

		return
	}

	writeJSON(rw, http.StatusOK, result)
}

// apiAuthoritativeLogs is the http endpoint to get the authoritative server's log
// @Summary Authoritative log
// @Tags dnssec
// @Produce  json
// @Success 200 {object} api.AuthoritativeLogs "Returns the log"
// @Router /dnssec/logs/authoritative [get]
func (s *DNSSECEndpoint) apiAuthoritativeLogs(rw http.ResponseWriter, _ *http.Request) {
	writeJSON(rw, http.StatusOK, AuthoritativeLogs{Logs: s.control.AuthoritativeLogs()})
}

// apiResolverLogs is the http endpoint to get the resolver's logs
// @Summary Resolver logs
// @Tags dnssec
// @Produce  json
// @Success 200 {object} api.ResolverLogs "Returns validation and query logs"
// @Router /dnssec/logs/resolver [get]
func (s *DNSSECEndpoint) apiResolverLogs(rw http.ResponseWriter, _ *http.Request) {
	logs := s.control.ResolverLogs()

	writeJSON(rw, http.StatusOK, ResolverLogs{DNSSECLogs: logs.DNSSEC, QueryLogs: logs.Queries})
}

func writeResult(rw http.ResponseWriter, res lab.Result) {
	if res.Err != nil {
		log.Log().Warn("operation failed: ", res.Err)

		writeJSON(rw, statusOf(res.Err), OperationResult{Output: res.Output, Error: res.Err.Error()})

		return
	}

	writeJSON(rw, http.StatusOK, OperationResult{Success: true, Output: res.Output})
}

func statusOf(err error) int {
	var cfgErr *model.ConfigurationError

	switch {
	case errors.Is(err, model.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, model.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &cfgErr):
		return http.StatusInternalServerError
	}

	return http.StatusBadGateway
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	response, err := json.Marshal(v)
	if err != nil {
		util.LogOnError("unable to marshal response ", err)
		rw.WriteHeader(http.StatusInternalServerError)

		return
	}

	rw.Header().Set(contentTypeHeader, jsonContentType)
	rw.WriteHeader(status)

	_, err = rw.Write(response)
	util.LogOnError("unable to write response ", err)
}
