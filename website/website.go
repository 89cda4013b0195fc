package website

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"

	"github.com/avast/retry-go/v4"
	"github.com/sirupsen/logrus"

	"github.com/poisonlab/poisonlab/config"
	"github.com/poisonlab/poisonlab/log"
	"github.com/poisonlab/poisonlab/util"
)

const (
	websiteLogger = "website"

	maxPageSize = 1 << 20
)

// ErrUnknownIP is returned for addresses which are neither the legitimate nor the attacker address
var ErrUnknownIP = errors.New("unknown IP")

// Page is the site a browser would see after resolving the victim domain
type Page struct {
	Success  bool   `json:"success"`
	IP       string `json:"ip"`
	Poisoned bool   `json:"poisoned"`
	Port     uint16 `json:"port,omitempty"`
	URL      string `json:"url,omitempty"`
	HTML     string `json:"html,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Fetcher maps a resolved address to the real or the fake site and downloads its page
type Fetcher struct {
	cfg    config.Website
	lab    config.Lab
	client http.Client
	logger *logrus.Entry
}

// NewFetcher creates a fetcher for the configured sites
func NewFetcher(cfg config.Website, lab config.Lab) *Fetcher {
	return &Fetcher{
		cfg: cfg,
		lab: lab,
		client: http.Client{
			Timeout:   cfg.Timeout.ToDuration(),
			Transport: util.DefaultHTTPTransport(),
		},
		logger: log.PrefixedLog(websiteLogger),
	}
}

// PortFor returns the site port serving ip
func (f *Fetcher) PortFor(ip net.IP) (uint16, bool, error) {
	switch {
	case ip.Equal(f.lab.Legit()):
		return f.cfg.RealPort, false, nil
	case ip.Equal(f.lab.Attacker()):
		return f.cfg.FakePort, true, nil
	}

	return 0, false, fmt.Errorf("%w: %s", ErrUnknownIP, ip)
}

// Fetch downloads the site served for ip. Failures are reported in the page, ip and poisoned are
// always set for known addresses.
func (f *Fetcher) Fetch(ctx context.Context, ip net.IP) Page {
	page := Page{IP: ip.String()}

	port, poisoned, err := f.PortFor(ip)
	if err != nil {
		page.Error = ErrUnknownIP.Error()

		return page
	}

	page.Port = port
	page.Poisoned = poisoned
	page.URL = f.cfg.URL(port)

	html, err := f.download(ctx, page.URL)
	if err != nil {
		page.Error = err.Error()

		return page
	}

	page.Success = true
	page.HTML = html

	return page
}

func (f *Fetcher) download(ctx context.Context, link string) (string, error) {
	var html string

	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}

			resp, err := f.client.Do(req)
			if err != nil {
				return err
			}

			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("got status code %d", resp.StatusCode)
			}

			body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
			if err != nil {
				return err
			}

			html = string(body)

			return nil
		},
		retry.Attempts(f.cfg.FetchAttempts),
		retry.DelayType(retry.FixedDelay),
		retry.Delay(f.cfg.FetchCooldown.ToDuration()),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			f.logger.WithField("link", link).WithField("attempt",
				fmt.Sprintf("%d/%d", n+1, f.cfg.FetchAttempts)).Warnf("can't fetch site: %s", err)
		}))
	if err != nil {
		return "", fmt.Errorf("can't fetch %s: %w", link, err)
	}

	return html, nil
}

// Addr returns the listen address of the site on port
func (f *Fetcher) Addr(port uint16) string {
	return net.JoinHostPort(f.cfg.Host, strconv.Itoa(int(port)))
}
