package website

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/go-multierror"

	"github.com/poisonlab/poisonlab/web"
)

const readHeaderTimeout = 20 * time.Second

// SiteRouter serves the pages of a site
func SiteRouter(site fs.FS) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.NoCache)
	router.Handle("/*", http.FileServer(http.FS(site)))

	return router
}

// Sites runs the embedded real and fake sites on their ports
type Sites struct {
	servers []*http.Server
}

// NewSites creates the http servers of both sites
func NewSites(f *Fetcher) (*Sites, error) {
	realSite, err := web.RealSite()
	if err != nil {
		return nil, fmt.Errorf("can't load real site: %w", err)
	}

	fakeSite, err := web.FakeSite()
	if err != nil {
		return nil, fmt.Errorf("can't load fake site: %w", err)
	}

	return &Sites{servers: []*http.Server{
		{Addr: f.Addr(f.cfg.RealPort), Handler: SiteRouter(realSite), ReadHeaderTimeout: readHeaderTimeout},
		{Addr: f.Addr(f.cfg.FakePort), Handler: SiteRouter(fakeSite), ReadHeaderTimeout: readHeaderTimeout},
	}}, nil
}

// Start serves both sites in the background. Listen errors are sent to errCh.
func (s *Sites) Start(errCh chan<- error) {
	for _, srv := range s.servers {
		go func(srv *http.Server) {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("site on %s failed: %w", srv.Addr, err)
			}
		}(srv)
	}
}

// Stop shuts both sites down
func (s *Sites) Stop(ctx context.Context) error {
	var err *multierror.Error

	for _, srv := range s.servers {
		err = multierror.Append(err, srv.Shutdown(ctx))
	}

	return err.ErrorOrNil()
}
