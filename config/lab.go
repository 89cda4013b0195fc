package config

import (
	"fmt"
	"net"

	"github.com/miekg/dns"
	"github.com/sirupsen/logrus"
)

// Lab describes the simulated zone and the actors' addresses
type Lab struct {
	// Zone is derived from VictimDomain if empty
	Zone         string `yaml:"zone"`
	VictimDomain string `yaml:"victimDomain" default:"www.example.com." validate:"required,fqdn"`
	LegitIP      string `yaml:"legitIP" default:"10.0.1.20" validate:"required,ipv4"`
	AttackerIP   string `yaml:"attackerIP" default:"10.0.100.100" validate:"required,ipv4,nefield=LegitIP"`
	NameserverIP string `yaml:"nameserverIP" default:"10.0.1.10" validate:"required,ipv4"`
	RecordTTL    uint32 `yaml:"recordTTL" default:"300" validate:"min=1"`
	SOASerial    uint32 `yaml:"soaSerial" default:"2024111901"`
}

// IsEnabled implements `config.Configurable`.
func (c *Lab) IsEnabled() bool {
	return true
}

// LogConfig implements `config.Configurable`.
func (c *Lab) LogConfig(logger *logrus.Entry) {
	logger.Infof("zone = %s", c.ZoneName())
	logger.Infof("victimDomain = %s", c.VictimDomain)
	logger.Infof("legitIP = %s", c.LegitIP)
	logger.Infof("attackerIP = %s", c.AttackerIP)
	logger.Infof("nameserverIP = %s", c.NameserverIP)
	logger.Infof("recordTTL = %d", c.RecordTTL)
}

// ZoneName returns the configured zone or the apex of the victim domain
func (c *Lab) ZoneName() string {
	if c.Zone != "" {
		return dns.CanonicalName(c.Zone)
	}

	apex, err := zoneApex(c.VictimDomain)
	if err != nil {
		return dns.CanonicalName(c.VictimDomain)
	}

	return apex
}

// Victim returns the victim domain as canonical fqdn
func (c *Lab) Victim() string {
	return dns.CanonicalName(c.VictimDomain)
}

// Legit returns the parsed legitimate address
func (c *Lab) Legit() net.IP {
	return net.ParseIP(c.LegitIP).To4()
}

// Attacker returns the parsed attacker address
func (c *Lab) Attacker() net.IP {
	return net.ParseIP(c.AttackerIP).To4()
}

// Nameserver returns the parsed nameserver address
func (c *Lab) Nameserver() net.IP {
	return net.ParseIP(c.NameserverIP).To4()
}

func (c *Lab) validate() error {
	if c.Zone != "" {
		if _, ok := dns.IsDomainName(c.Zone); !ok {
			return fmt.Errorf("lab.zone '%s' is not a valid domain name", c.Zone)
		}
	}

	if !dns.IsSubDomain(c.ZoneName(), c.Victim()) {
		return fmt.Errorf("lab.victimDomain '%s' is not inside zone '%s'", c.VictimDomain, c.ZoneName())
	}

	return nil
}
