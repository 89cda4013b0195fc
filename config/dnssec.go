package config

import (
	"github.com/miekg/dns"
	"github.com/sirupsen/logrus"
)

// DNSSEC is the configuration for zone signing and validation
type DNSSEC struct {
	Algorithm string `yaml:"algorithm" default:"ECDSAP256SHA256" validate:"oneof=ECDSAP256SHA256 ECDSAP384SHA384 RSASHA256 ED25519"` //nolint:lll
	// KSKBits and ZSKBits default to the algorithm's key size
	KSKBits           int      `yaml:"kskBits" default:"0" validate:"min=0"`
	ZSKBits           int      `yaml:"zskBits" default:"0" validate:"min=0"`
	SignatureValidity Duration `yaml:"signatureValidity" default:"720h"`
	// Clock skew tolerance for signature validity checks
	ClockSkew Duration `yaml:"clockSkew" default:"1h"`
}

// IsEnabled implements `config.Configurable`.
func (c *DNSSEC) IsEnabled() bool {
	return true
}

// LogConfig implements `config.Configurable`.
func (c *DNSSEC) LogConfig(logger *logrus.Entry) {
	logger.Infof("algorithm = %s", c.Algorithm)
	logger.Infof("kskBits = %d", c.KeyBits(true))
	logger.Infof("zskBits = %d", c.KeyBits(false))
	logger.Infof("signatureValidity = %s", c.SignatureValidity)
	logger.Infof("clockSkew = %s", c.ClockSkew)
}

// AlgorithmID returns the DNSSEC algorithm number
func (c *DNSSEC) AlgorithmID() uint8 {
	return dns.StringToAlgorithm[c.Algorithm]
}

// KeyBits returns the key size for a KSK or ZSK
func (c *DNSSEC) KeyBits(ksk bool) int {
	if ksk && c.KSKBits > 0 {
		return c.KSKBits
	}

	if !ksk && c.ZSKBits > 0 {
		return c.ZSKBits
	}

	switch c.AlgorithmID() {
	case dns.ECDSAP384SHA384:
		return 384
	case dns.RSASHA256:
		if ksk {
			return 2048
		}

		return 1024
	case dns.ED25519:
		return 256
	default:
		return 256
	}
}
