package config

import (
	"github.com/sirupsen/logrus"
)

// Authoritative configuration of the simulated authoritative name server
type Authoritative struct {
	MinDelay Duration `yaml:"minDelay" default:"20ms"`
	MaxDelay Duration `yaml:"maxDelay" default:"80ms"`
	// LossPercent is the share of answers that never arrive
	LossPercent uint `yaml:"lossPercent" default:"0" validate:"max=100"`
}

// IsEnabled implements `config.Configurable`.
func (c *Authoritative) IsEnabled() bool {
	return true
}

// LogConfig implements `config.Configurable`.
func (c *Authoritative) LogConfig(logger *logrus.Entry) {
	logger.Infof("delay = %s - %s", c.MinDelay, c.MaxDelay)
	logger.Infof("lossPercent = %d", c.LossPercent)
}
