package config

import (
	"github.com/sirupsen/logrus"
)

// Collector configuration of the in-memory event logs
type Collector struct {
	Capacity int `yaml:"capacity" default:"500" validate:"min=1"`
}

// IsEnabled implements `config.Configurable`.
func (c *Collector) IsEnabled() bool {
	return true
}

// LogConfig implements `config.Configurable`.
func (c *Collector) LogConfig(logger *logrus.Entry) {
	logger.Infof("capacity = %d", c.Capacity)
}
