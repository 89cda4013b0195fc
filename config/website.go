package config

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Website configuration of the real and the fake demo sites
type Website struct {
	Host string `yaml:"host" default:"127.0.0.1" validate:"required"`
	// Serve starts the embedded demo sites on the real and the fake port
	Serve         bool     `yaml:"serve" default:"true"`
	RealPort      uint16   `yaml:"realPort" default:"8080" validate:"min=1"`
	FakePort      uint16   `yaml:"fakePort" default:"8081" validate:"min=1,nefield=RealPort"`
	Timeout       Duration `yaml:"timeout" default:"2s"`
	FetchAttempts uint     `yaml:"fetchAttempts" default:"3" validate:"min=1"`
	FetchCooldown Duration `yaml:"fetchCooldown" default:"200ms"`
}

// IsEnabled implements `config.Configurable`.
func (c *Website) IsEnabled() bool {
	return c.Host != ""
}

// LogConfig implements `config.Configurable`.
func (c *Website) LogConfig(logger *logrus.Entry) {
	logger.Infof("real site = %s", c.URL(c.RealPort))
	logger.Infof("fake site = %s", c.URL(c.FakePort))
	logger.Infof("serve = %t", c.Serve)
	logger.Infof("fetchAttempts = %d", c.FetchAttempts)
	logger.Debugf("fetchCooldown = %s", c.FetchCooldown)
}

// URL returns the base url of the site listening on port
func (c *Website) URL(port uint16) string {
	return fmt.Sprintf("http://%s:%d/", c.Host, port)
}
