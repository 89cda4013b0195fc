package config

import (
	"github.com/sirupsen/logrus"
)

// Attack configuration of the spoofer and the attack controller loop
type Attack struct {
	GuessesPerAttempt uint `yaml:"guessesPerAttempt" default:"64" validate:"min=1,max=65536"`
	// Spread is the window the forged responses are distributed over
	Spread Duration `yaml:"spread" default:"50ms"`
	Pacing Duration `yaml:"pacing" default:"1s"`
	// ReplaySignatures attaches the published RRSIG of the real record to every forged response
	ReplaySignatures bool `yaml:"replaySignatures" default:"false"`
}

// IsEnabled implements `config.Configurable`.
func (c *Attack) IsEnabled() bool {
	return true
}

// LogConfig implements `config.Configurable`.
func (c *Attack) LogConfig(logger *logrus.Entry) {
	logger.Infof("guessesPerAttempt = %d", c.GuessesPerAttempt)
	logger.Infof("spread = %s", c.Spread)
	logger.Infof("pacing = %s", c.Pacing)
	logger.Infof("replaySignatures = %t", c.ReplaySignatures)
}
