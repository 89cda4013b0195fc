package config

//go:generate go run github.com/abice/go-enum -f=$GOFILE --marshal --names

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/miekg/dns"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/publicsuffix"
	"gopkg.in/yaml.v2"

	"github.com/poisonlab/poisonlab/log"
)

// AttemptLogType type of the attempt log ENUM(
// none // no logging
// console // use logger as fallback
// csv // CSV file per day in a directory
// mysql // MySQL or MariaDB database
// postgresql // PostgreSQL database
// sqlite // SQLite database file
// )
type AttemptLogType int

// Configurable is implemented by every config section
type Configurable interface {
	// IsEnabled returns true when the feature is configured and not disabled
	IsEnabled() bool

	// LogConfig logs the section's values
	LogConfig(*logrus.Entry)
}

// Config main configuration
type Config struct {
	Log           log.Config    `yaml:"log"`
	Ports         Ports         `yaml:"ports"`
	Lab           Lab           `yaml:"lab"`
	Resolver      Resolver      `yaml:"resolver"`
	Authoritative Authoritative `yaml:"authoritative"`
	Attack        Attack        `yaml:"attack"`
	DNSSEC        DNSSEC        `yaml:"dnssec"`
	Collector     Collector     `yaml:"collector"`
	Website       Website       `yaml:"website"`
	AttemptLog    AttemptLog    `yaml:"attemptLog"`
	Redis         Redis         `yaml:"redis"`
	Prometheus    Metrics       `yaml:"prometheus"`
}

// Ports listening addresses, comma separated. An empty DNS value disables the DNS listener.
type Ports struct {
	DNS  string `yaml:"dns" default:"5353"`
	HTTP string `yaml:"http" default:"5000" validate:"required"`
}

// DNSAddrs returns the listening addresses of the DNS front end
func (p *Ports) DNSAddrs() []string {
	return splitAddrs(p.DNS)
}

// HTTPAddrs returns the listening addresses of the API
func (p *Ports) HTTPAddrs() []string {
	return splitAddrs(p.HTTP)
}

func splitAddrs(s string) []string {
	var addrs []string

	for _, a := range strings.Split(s, ",") {
		if a = strings.TrimSpace(a); a != "" {
			addrs = append(addrs, a)
		}
	}

	return addrs
}

// NewDefaultConfig returns a configuration with all default values applied
func NewDefaultConfig() (*Config, error) {
	return WithDefaults[Config]()
}

// WithDefaults returns a new T with default values applied
func WithDefaults[T any]() (*T, error) {
	var cfg T

	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("can't apply %T defaults: %w", cfg, err)
	}

	return &cfg, nil
}

// LoadConfig reads the configuration file. Missing non-mandatory file results in the default configuration.
func LoadConfig(path string, mandatory bool) (*Config, error) {
	cfg, err := NewDefaultConfig()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !mandatory {
			log.Log().Infof("config file '%s' not found, using defaults", path)

			return cfg, cfg.Validate()
		}

		return nil, fmt.Errorf("can't read config file '%s': %w", path, err)
	}

	if err := unmarshalConfig(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func unmarshalConfig(data []byte, cfg *Config) error {
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return fmt.Errorf("wrong file structure: %w", err)
	}

	return cfg.Validate()
}

// Validate checks all sections and cross-field constraints
func (cfg *Config) Validate() error {
	var result *multierror.Error

	if err := validator.New().Struct(cfg); err != nil {
		result = multierror.Append(result, err)
	}

	if err := cfg.Lab.validate(); err != nil {
		result = multierror.Append(result, err)
	}

	if cfg.Resolver.MinPort > cfg.Resolver.MaxPort {
		result = multierror.Append(result,
			fmt.Errorf("resolver.minPort %d is greater than resolver.maxPort %d", cfg.Resolver.MinPort, cfg.Resolver.MaxPort))
	}

	if cfg.Authoritative.MinDelay > cfg.Authoritative.MaxDelay {
		result = multierror.Append(result,
			fmt.Errorf("authoritative.minDelay %s is greater than authoritative.maxDelay %s",
				cfg.Authoritative.MinDelay, cfg.Authoritative.MaxDelay))
	}

	if cfg.Resolver.QueryTimeout <= 0 {
		result = multierror.Append(result,
			fmt.Errorf("resolver.queryTimeout must be positive, got %s", cfg.Resolver.QueryTimeout))
	} else if cfg.Authoritative.MaxDelay >= cfg.Resolver.QueryTimeout {
		result = multierror.Append(result,
			fmt.Errorf("authoritative.maxDelay %s must be less than resolver.queryTimeout %s",
				cfg.Authoritative.MaxDelay, cfg.Resolver.QueryTimeout))
	}

	if cfg.AttemptLog.Type != AttemptLogTypeNone && cfg.AttemptLog.Type != AttemptLogTypeConsole &&
		cfg.AttemptLog.Target == "" {
		result = multierror.Append(result,
			fmt.Errorf("attemptLog.target is required for type '%s'", cfg.AttemptLog.Type))
	}

	return result.ErrorOrNil()
}

// LogConfig logs all enabled sections
func (cfg *Config) LogConfig(logger *logrus.Entry) {
	sections := []struct {
		name string
		c    Configurable
	}{
		{"lab", &cfg.Lab},
		{"resolver", &cfg.Resolver},
		{"authoritative", &cfg.Authoritative},
		{"attack", &cfg.Attack},
		{"dnssec", &cfg.DNSSEC},
		{"collector", &cfg.Collector},
		{"website", &cfg.Website},
		{"attemptLog", &cfg.AttemptLog},
		{"redis", &cfg.Redis},
		{"prometheus", &cfg.Prometheus},
	}

	for _, s := range sections {
		if !s.c.IsEnabled() {
			logger.Infof("%s: disabled", s.name)

			continue
		}

		logger.Infof("%s:", s.name)
		s.c.LogConfig(logger.WithField("section", s.name))
	}
}

// zoneApex derives the registrable domain of a name as a fqdn
func zoneApex(name string) (string, error) {
	apex, err := publicsuffix.EffectiveTLDPlusOne(strings.TrimSuffix(strings.ToLower(name), "."))
	if err != nil {
		return "", err
	}

	return dns.Fqdn(apex), nil
}
