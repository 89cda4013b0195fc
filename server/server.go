package server

import (
	"context"
	"fmt"
	"net"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hashicorp/go-multierror"
	"github.com/miekg/dns"
	"github.com/sirupsen/logrus"

	"github.com/poisonlab/poisonlab/api"
	"github.com/poisonlab/poisonlab/attemptlog"
	"github.com/poisonlab/poisonlab/config"
	"github.com/poisonlab/poisonlab/lab"
	"github.com/poisonlab/poisonlab/log"
	"github.com/poisonlab/poisonlab/metrics"
	"github.com/poisonlab/poisonlab/model"
	"github.com/poisonlab/poisonlab/redis"
	"github.com/poisonlab/poisonlab/util"
	"github.com/poisonlab/poisonlab/website"
)

const (
	maxUDPBufferSize = 65535

	healthCheckDomain = "healthcheck.poisonlab."
)

// Server controls the endpoints for DNS and HTTP and owns the lab
type Server struct {
	cfg           *config.Config
	lab           *lab.Lab
	dnsServers    []*dns.Server
	httpListeners []net.Listener
	httpMux       *chi.Mux
	sites         *website.Sites
	redisClient   *redis.Client
}

func logger() *logrus.Entry {
	return log.PrefixedLog("server")
}

func getServerAddress(addr string) string {
	if !strings.Contains(addr, ":") {
		addr = fmt.Sprintf(":%s", addr)
	}

	return addr
}

type NewServerFunc func(address string) (*dns.Server, error)

// NewServer creates new server instance with passed config
func NewServer(ctx context.Context, cfg *config.Config) (server *Server, err error) {
	log.ConfigureLogger(cfg.Log)

	dnsServers, err := createServers(cfg)
	if err != nil {
		return nil, fmt.Errorf("server creation failed: %w", err)
	}

	httpListeners, err := newListeners("http", cfg.Ports.HTTPAddrs())
	if err != nil {
		return nil, err
	}

	metrics.RegisterEventListeners()

	redisClient, redisErr := redis.New(ctx, &cfg.Redis)
	if redisErr != nil {
		if cfg.Redis.Required {
			closeListeners(httpListeners)

			return nil, redisErr
		}

		logger().Warn("continuing without redis: ", redisErr)
	}

	if redisClient != nil {
		util.LogOnErrorWithEntry(logger(), "can't subscribe redis to lab events: ", redisClient.Subscribe(ctx))
	}

	attemptLog, err := attemptlog.New(ctx, cfg.AttemptLog)
	if err != nil {
		closeListeners(httpListeners)

		return nil, err
	}

	l, err := lab.New(ctx, cfg, attemptLog)
	if err != nil {
		closeListeners(httpListeners)

		return nil, err
	}

	router := createRouter(cfg)

	server = &Server{
		cfg:           cfg,
		lab:           l,
		dnsServers:    dnsServers,
		httpListeners: httpListeners,
		httpMux:       router,
		redisClient:   redisClient,
	}

	if cfg.Website.Serve {
		server.sites, err = website.NewSites(website.NewFetcher(cfg.Website, cfg.Lab))
		if err != nil {
			closeListeners(httpListeners)

			return nil, err
		}
	}

	if cfg.Prometheus.Enable {
		metrics.StartCollection()
		router.Handle(cfg.Prometheus.Path, metrics.Handler())
	}

	server.printConfiguration()

	server.registerDNSHandlers()
	server.registerDoHEndpoints(router)

	api.RegisterEndpoint(router, l)

	return server, nil
}

// Lab returns the lab served by the server
func (s *Server) Lab() *lab.Lab {
	return s.lab
}

func createServers(cfg *config.Config) ([]*dns.Server, error) {
	var dnsServers []*dns.Server

	var err *multierror.Error

	addServers := func(newServer NewServerFunc, addresses []string) error {
		for _, address := range addresses {
			server, err := newServer(getServerAddress(address))
			if err != nil {
				return err
			}

			dnsServers = append(dnsServers, server)
		}

		return nil
	}

	err = multierror.Append(err,
		addServers(createUDPServer, cfg.Ports.DNSAddrs()),
		addServers(createTCPServer, cfg.Ports.DNSAddrs()))

	return dnsServers, err.ErrorOrNil()
}

func newListeners(proto string, addresses []string) ([]net.Listener, error) {
	listeners := make([]net.Listener, 0, len(addresses))

	for _, address := range addresses {
		listener, err := net.Listen("tcp", getServerAddress(address))
		if err != nil {
			closeListeners(listeners)

			return nil, fmt.Errorf("start %s listener on %s failed: %w", proto, address, err)
		}

		listeners = append(listeners, listener)
	}

	return listeners, nil
}

func closeListeners(listeners []net.Listener) {
	for _, l := range listeners {
		_ = l.Close()
	}
}

func createTCPServer(address string) (*dns.Server, error) {
	return &dns.Server{
		Addr:    address,
		Net:     "tcp",
		Handler: dns.NewServeMux(),
		NotifyStartedFunc: func() {
			logger().Infof("TCP server is up and running on address %s", address)
		},
	}, nil
}

func createUDPServer(address string) (*dns.Server, error) {
	return &dns.Server{
		Addr:    address,
		Net:     "udp",
		Handler: dns.NewServeMux(),
		NotifyStartedFunc: func() {
			logger().Infof("UDP server is up and running on address %s", address)
		},
		UDPSize: maxUDPBufferSize,
	}, nil
}

func (s *Server) registerDNSHandlers() {
	for _, server := range s.dnsServers {
		handler := server.Handler.(*dns.ServeMux)
		handler.HandleFunc(".", s.OnRequest)
		handler.HandleFunc(healthCheckDomain, s.OnHealthCheck)
	}
}

func (s *Server) printConfiguration() {
	logger().Info("current configuration:")

	s.cfg.LogConfig(logger())

	logger().Infof("- DNS listening on addrs/ports: %v", s.cfg.Ports.DNSAddrs())
	logger().Infof("- HTTP listening on addrs/ports: %v", s.cfg.Ports.HTTPAddrs())

	logger().Info("runtime information:")

	// force garbage collector
	runtime.GC()
	debug.FreeOSMemory()

	// gather memory stats
	var m runtime.MemStats

	runtime.ReadMemStats(&m)

	logger().Infof("MEM Alloc =        %10v MB", toMB(m.Alloc))
	logger().Infof("MEM HeapAlloc =    %10v MB", toMB(m.HeapAlloc))
	logger().Infof("MEM Sys =          %10v MB", toMB(m.Sys))
	logger().Infof("MEM NumGC =        %10v", m.NumGC)
	logger().Infof("RUN NumCPU =       %10d", runtime.NumCPU())
	logger().Infof("RUN NumGoroutine = %10d", runtime.NumGoroutine())
}

func toMB(b uint64) uint64 {
	const bytesInKB = 1024

	return b / bytesInKB / bytesInKB
}

// Start starts the server
func (s *Server) Start(ctx context.Context, errCh chan<- error) {
	logger().Info("Starting server")

	for _, srv := range s.dnsServers {
		srv := srv

		go func() {
			if err := srv.ListenAndServe(); err != nil {
				errCh <- fmt.Errorf("start %s listener failed: %w", srv.Net, err)
			}
		}()
	}

	for i, listener := range s.httpListeners {
		listener := listener
		address := s.cfg.Ports.HTTPAddrs()[i]

		go func() {
			logger().Infof("http server is up and running on addr/port %s", address)

			srv := newHTTPServer("http", s.httpMux)

			if err := srv.Serve(ctx, listener); err != nil && ctx.Err() == nil {
				errCh <- fmt.Errorf("start http listener failed: %w", err)
			}
		}()
	}

	if s.sites != nil {
		s.sites.Start(errCh)
	}

	registerPrintConfigurationTrigger(s)
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	logger().Info("Stopping server")

	var err *multierror.Error

	if s.lab.AttackState() == model.AttackStateRunning {
		if res := s.lab.StopAttack(); res.Err != nil {
			err = multierror.Append(err, res.Err)
		}
	}

	for _, server := range s.dnsServers {
		if e := server.ShutdownContext(ctx); e != nil {
			err = multierror.Append(err, fmt.Errorf("stop %s listener failed: %w", server.Net, e))
		}
	}

	if s.sites != nil {
		err = multierror.Append(err, s.sites.Stop(ctx))
	}

	if s.redisClient != nil {
		err = multierror.Append(err, s.redisClient.Close())
	}

	return err.ErrorOrNil()
}
