package config

import (
	"github.com/sirupsen/logrus"
)

// Resolver configuration of the victim resolver
type Resolver struct {
	QueryTimeout Duration `yaml:"queryTimeout" default:"2s"`
	// TokenBits is the entropy of the transaction id, the lab default keeps the space guessable
	TokenBits uint8  `yaml:"tokenBits" default:"6" validate:"min=1,max=16"`
	MinPort   uint16 `yaml:"minPort" default:"33333" validate:"min=1"`
	MaxPort   uint16 `yaml:"maxPort" default:"33334" validate:"min=1"`
	CacheSize int    `yaml:"cacheSize" default:"1000" validate:"min=1"`
}

// IsEnabled implements `config.Configurable`.
func (c *Resolver) IsEnabled() bool {
	return true
}

// LogConfig implements `config.Configurable`.
func (c *Resolver) LogConfig(logger *logrus.Entry) {
	logger.Infof("queryTimeout = %s", c.QueryTimeout)
	logger.Infof("tokenBits = %d", c.TokenBits)
	logger.Infof("ports = %d-%d", c.MinPort, c.MaxPort)
	logger.Infof("cacheSize = %d", c.CacheSize)
}

// TokenSpace returns the number of possible transaction ids
func (c *Resolver) TokenSpace() uint32 {
	return 1 << c.TokenBits
}

// PortSpace returns the number of possible response ports
func (c *Resolver) PortSpace() uint32 {
	if c.MaxPort < c.MinPort {
		return 0
	}

	return uint32(c.MaxPort-c.MinPort) + 1
}
