package config

import (
	"github.com/sirupsen/logrus"
)

// AttemptLog configuration for the attack attempt log
type AttemptLog struct {
	Type             AttemptLogType `yaml:"type" default:"none"`
	Target           string         `yaml:"target"`
	LogRetentionDays uint64         `yaml:"logRetentionDays"`
	CreationAttempts int            `yaml:"creationAttempts" default:"3" validate:"min=1"`
	CreationCooldown Duration       `yaml:"creationCooldown" default:"2s"`
	FlushInterval    Duration       `yaml:"flushInterval" default:"30s"`
}

// IsEnabled implements `config.Configurable`.
func (c *AttemptLog) IsEnabled() bool {
	return c.Type != AttemptLogTypeNone
}

// LogConfig implements `config.Configurable`.
func (c *AttemptLog) LogConfig(logger *logrus.Entry) {
	logger.Infof("type: %q", c.Type)
	logger.Infof("target: %q", c.Target)
	logger.Infof("logRetentionDays: %d", c.LogRetentionDays)
	logger.Debugf("creationAttempts: %d", c.CreationAttempts)
	logger.Debugf("creationCooldown: %s", c.CreationCooldown)
	logger.Debugf("flushInterval: %s", c.FlushInterval)
}
