package helpertest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/miekg/dns"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/onsi/gomega/types"

	"github.com/poisonlab/poisonlab/log"
)

// GetIntPort returns an port for the current testing
// process by adding the current ginkgo parallel process to
// the base port and returning it as int
func GetIntPort(port int) int {
	return port + ginkgo.GinkgoParallelProcess()
}

// GetStringPort returns an port for the current testing
// process by adding the current ginkgo parallel process to
// the base port and returning it as string
func GetStringPort(port int) string {
	return fmt.Sprintf("%d", GetIntPort(port))
}

// TestServer creates temp http server with passed data
func TestServer(data string) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		_, err := rw.Write([]byte(data))
		if err != nil {
			log.Log().Fatal("can't write to buffer:", err)
		}
	}))

	ginkgo.DeferCleanup(srv.Close)

	return srv
}

// DoGetRequest performs a GET request
func DoGetRequest(ctx context.Context, url string, handler http.Handler) (*httptest.ResponseRecorder, *bytes.Buffer) {
	return doRequest(ctx, http.MethodGet, url, nil, handler)
}

// DoPostRequest performs a POST request
func DoPostRequest(ctx context.Context, url string, body io.Reader,
	handler http.Handler,
) (*httptest.ResponseRecorder, *bytes.Buffer) {
	return doRequest(ctx, http.MethodPost, url, body, handler)
}

func doRequest(ctx context.Context, method, url string, body io.Reader,
	handler http.Handler,
) (*httptest.ResponseRecorder, *bytes.Buffer) {
	r, _ := http.NewRequestWithContext(ctx, method, url, body)

	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, r)

	return rr, rr.Body
}

// HaveReturnCode checks the rcode of a dns message
func HaveReturnCode(code int) types.GomegaMatcher {
	return gomega.WithTransform(
		func(m *dns.Msg) int {
			return m.Rcode
		},
		gomega.Equal(code),
	)
}

func toFirstRR(actual interface{}) (dns.RR, error) {
	switch i := actual.(type) {
	case *dns.Msg:
		return toFirstRR(i.Answer)
	case []dns.RR:
		for _, rr := range i {
			if rr.Header().Rrtype != dns.TypeRRSIG {
				return rr, nil
			}
		}

		return nil, fmt.Errorf("answer must not be empty")
	case dns.RR:
		return i, nil
	default:
		return nil, fmt.Errorf("not supported type")
	}
}

// HaveTTL checks the TTL of the first record
func HaveTTL(matcher types.GomegaMatcher) types.GomegaMatcher {
	return gomega.WithTransform(func(actual interface{}) (uint32, error) {
		rr, err := toFirstRR(actual)
		if err != nil {
			return 0, err
		}

		return rr.Header().Ttl, nil
	}, matcher)
}

// BeDNSRecord returns new dns matcher for the first non signature record
func BeDNSRecord(domain string, dnsType uint16, answer string) types.GomegaMatcher {
	return &dnsRecordMatcher{
		domain:  domain,
		dnsType: dnsType,
		answer:  answer,
	}
}

type dnsRecordMatcher struct {
	domain  string
	dnsType uint16
	answer  string
}

func (matcher *dnsRecordMatcher) matchSingle(rr dns.RR) (success bool, err error) {
	if (rr.Header().Name != matcher.domain) ||
		(rr.Header().Rrtype != matcher.dnsType) {
		return false, nil
	}

	switch v := rr.(type) {
	case *dns.A:
		return v.A.String() == matcher.answer, nil
	case *dns.NS:
		return v.Ns == matcher.answer, nil
	case *dns.SOA:
		return v.Ns == matcher.answer, nil
	}

	return false, nil
}

// Match checks the DNS record
func (matcher *dnsRecordMatcher) Match(actual interface{}) (success bool, err error) {
	rr, err := toFirstRR(actual)
	if err != nil {
		return false, err
	}

	return matcher.matchSingle(rr)
}

// FailureMessage generates a failure message
func (matcher *dnsRecordMatcher) FailureMessage(actual interface{}) (message string) {
	return fmt.Sprintf("Expected\n\t%s\n to contain\n\t domain '%s', type '%s', answer '%s'",
		actual, matcher.domain, dns.TypeToString[matcher.dnsType], matcher.answer)
}

// NegatedFailureMessage creates negated message
func (matcher *dnsRecordMatcher) NegatedFailureMessage(actual interface{}) (message string) {
	return fmt.Sprintf("Expected\n\t%s\n not to contain\n\t domain '%s', type '%s', answer '%s'",
		actual, matcher.domain, dns.TypeToString[matcher.dnsType], matcher.answer)
}
