package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/poisonlab/poisonlab/detector"
	"github.com/poisonlab/poisonlab/util"
	"github.com/poisonlab/poisonlab/website"
)

const (
	clientTimeout = 30 * time.Second

	transportAttempts = 3
	transportCooldown = 200 * time.Millisecond
)

// StatusError is returned for a non 2xx response
type StatusError struct {
	Path   string
	Status int
	Reason string
}

func (e *StatusError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: %d %s", e.Path, e.Status, http.StatusText(e.Status))
	}

	return fmt.Sprintf("%s: %d %s (%s)", e.Path, e.Status, http.StatusText(e.Status), e.Reason)
}

// IsStatus reports whether err is a response with the given status
func IsStatus(err error, status int) bool {
	var statusErr *StatusError

	return errors.As(err, &statusErr) && statusErr.Status == status
}

// Client calls the REST API of a running lab
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the API rooted at baseURL, e.g. http://localhost:5000/api
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http: &http.Client{
			Transport: util.DefaultHTTPTransport(),
			Timeout:   clientTimeout,
		},
	}
}

// StartAttack starts the attack loop
func (c *Client) StartAttack(ctx context.Context) (OperationResult, error) {
	return c.operation(ctx, PathAttackStartPath)
}

// StopAttack stops the attack loop
func (c *Client) StopAttack(ctx context.Context) (OperationResult, error) {
	return c.operation(ctx, PathAttackStopPath)
}

// RunRound runs a single attack round
func (c *Client) RunRound(ctx context.Context) (RoundResult, error) {
	return call[RoundResult](ctx, c, http.MethodPost, PathAttackRunPath)
}

// AttackStatus returns the state of the attack loop
func (c *Client) AttackStatus(ctx context.Context) (AttackStatus, error) {
	return call[AttackStatus](ctx, c, http.MethodGet, PathAttackStatusPath)
}

// Logs returns the log of the latest attack round
func (c *Client) Logs(ctx context.Context) (LogsResult, error) {
	return call[LogsResult](ctx, c, http.MethodGet, PathLogsPath)
}

// Query resolves domain through the victim resolver, the victim domain if empty
func (c *Client) Query(ctx context.Context, domain string) (QueryResult, error) {
	return call[QueryResult](ctx, c, http.MethodGet, withDomain(PathQueryPath, domain))
}

// FlushCache drops the cached answer of domain, all answers if empty
func (c *Client) FlushCache(ctx context.Context, domain string) error {
	_, err := c.operation(ctx, withDomain(PathCacheFlushPath, domain))

	return err
}

// FetchSite loads the site domain resolves to
func (c *Client) FetchSite(ctx context.Context, domain string) (website.Page, error) {
	return call[website.Page](ctx, c, http.MethodGet, withDomain(PathWebsiteFetchPath, domain))
}

// Metrics returns the attack counters
func (c *Client) Metrics(ctx context.Context) (MetricsResult, error) {
	return call[MetricsResult](ctx, c, http.MethodGet, PathMetricsPath)
}

// Reset restores the initial lab state
func (c *Client) Reset(ctx context.Context) (OperationResult, error) {
	return c.operation(ctx, PathResetPath)
}

// Anomalies returns the suspicious queries seen by the resolver
func (c *Client) Anomalies(ctx context.Context) ([]detector.Anomaly, error) {
	return call[[]detector.Anomaly](ctx, c, http.MethodGet, PathAnomaliesPath)
}

// SetupDNSSEC toggles the signed zone
func (c *Client) SetupDNSSEC(ctx context.Context) (OperationResult, error) {
	return c.operation(ctx, PathDNSSECSetupPath)
}

// UnsignZone serves the unsigned zone
func (c *Client) UnsignZone(ctx context.Context) (OperationResult, error) {
	return c.operation(ctx, PathDNSSECUnsignPath)
}

// DNSSECStatus returns the DNSSEC lifecycle state
func (c *Client) DNSSECStatus(ctx context.Context) (DNSSECStatus, error) {
	return call[DNSSECStatus](ctx, c, http.MethodGet, PathDNSSECStatusPath)
}

// EnableValidation turns on validation at the resolver
func (c *Client) EnableValidation(ctx context.Context) (OperationResult, error) {
	return c.operation(ctx, PathDNSSECEnableValidationPath)
}

// DisableValidation turns off validation at the resolver
func (c *Client) DisableValidation(ctx context.Context) (OperationResult, error) {
	return c.operation(ctx, PathDNSSECDisableValidationPath)
}

// RotateKeys replaces the key pairs
func (c *Client) RotateKeys(ctx context.Context) (OperationResult, error) {
	return c.operation(ctx, PathDNSSECRotatePath)
}

// Verify validates the zone's answer for domain, the victim domain if empty
func (c *Client) Verify(ctx context.Context, domain string) (VerifyResult, error) {
	return call[VerifyResult](ctx, c, http.MethodGet, withDomain(PathDNSSECVerifyPath, domain))
}

// AuthoritativeLogs returns the log of the authoritative server
func (c *Client) AuthoritativeLogs(ctx context.Context) (AuthoritativeLogs, error) {
	return call[AuthoritativeLogs](ctx, c, http.MethodGet, PathDNSSECAuthoritativeLogsPath)
}

// ResolverLogs returns the validation and query log of the resolver
func (c *Client) ResolverLogs(ctx context.Context) (ResolverLogs, error) {
	return call[ResolverLogs](ctx, c, http.MethodGet, PathDNSSECResolverLogsPath)
}

func (c *Client) operation(ctx context.Context, path string) (OperationResult, error) {
	return call[OperationResult](ctx, c, http.MethodPost, path)
}

func withDomain(path, domain string) string {
	if domain == "" {
		return path
	}

	return path + "?" + domainParam + "=" + url.QueryEscape(domain)
}

// call sends the request and decodes the JSON body. Transport errors are retried, API errors are not.
func call[T any](ctx context.Context, c *Client, method, path string) (T, error) {
	var out T

	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, method, c.baseURL+strings.TrimPrefix(path, "/api"), nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}

			resp, err := c.http.Do(req)
			if err != nil {
				return err
			}

			defer resp.Body.Close()

			raw, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}

			if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
				var failure struct {
					Error string `json:"error"`
				}

				_ = json.Unmarshal(raw, &failure)

				return retry.Unrecoverable(&StatusError{Path: path, Status: resp.StatusCode, Reason: failure.Error})
			}

			if err := json.Unmarshal(raw, &out); err != nil {
				return retry.Unrecoverable(fmt.Errorf("can't decode response of %s: %w", path, err))
			}

			return nil
		},
		retry.Attempts(transportAttempts),
		retry.DelayType(retry.FixedDelay),
		retry.Delay(transportCooldown),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)

	return out, err
}
