// Package config holds the engine settings for a run: readiness and reboot
// wait budgets, SSH dial behavior, the optional metrics listener, and the
// parameters of the built-in domain-lab plan.
package config

import (
	"fmt"
	"time"
)

// Config holds the application configuration.
type Config struct {
	// Readiness bounds wait-until-ready post-conditions.
	Readiness WaitConfig `mapstructure:"readiness" yaml:"readiness"`

	// Reboot bounds the readiness wait after an issued reboot.
	Reboot WaitConfig `mapstructure:"reboot" yaml:"reboot"`

	// SSH configures the remote action provider's dial behavior.
	SSH SSHConfig `mapstructure:"ssh" yaml:"ssh"`

	// MetricsListen, when set, exposes /metrics on that address for the
	// duration of the run (e.g. ":9472").
	MetricsListen string `mapstructure:"metrics_listen" yaml:"metrics_listen,omitempty"`

	// Lab parameterizes the built-in plan used when no plan file is given.
	Lab LabConfig `mapstructure:"lab" yaml:"lab"`
}

// WaitConfig is one readiness wait budget. The defaults are starting
// points, not calibrated values; deployments tune them per environment.
type WaitConfig struct {
	MaxAttempts  int `mapstructure:"max_attempts" yaml:"max_attempts"`
	DelaySeconds int `mapstructure:"delay_seconds" yaml:"delay_seconds"`
}

// Delay returns the configured delay between attempts.
func (w WaitConfig) Delay() time.Duration {
	return time.Duration(w.DelaySeconds) * time.Second
}

// SSHConfig configures the SSH provider.
type SSHConfig struct {
	DialTimeoutSeconds int `mapstructure:"dial_timeout_seconds" yaml:"dial_timeout_seconds"`
	DialAttempts       int `mapstructure:"dial_attempts" yaml:"dial_attempts"`
}

// DialTimeout returns the per-attempt dial timeout.
func (s SSHConfig) DialTimeout() time.Duration {
	return time.Duration(s.DialTimeoutSeconds) * time.Second
}

// LabConfig parameterizes the default domain-lab plan.
type LabConfig struct {
	Domain     string   `mapstructure:"domain" yaml:"domain"`
	DNSServer  string   `mapstructure:"dns_server" yaml:"dns_server,omitempty"`
	AdminUsers []string `mapstructure:"admin_users" yaml:"admin_users,omitempty"`
	Packages   []string `mapstructure:"packages" yaml:"packages,omitempty"`
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Readiness.MaxAttempts == 0 {
		cfg.Readiness.MaxAttempts = 60
	}
	if cfg.Readiness.DelaySeconds == 0 {
		cfg.Readiness.DelaySeconds = 5
	}
	if cfg.Reboot.MaxAttempts == 0 {
		cfg.Reboot.MaxAttempts = 30
	}
	if cfg.Reboot.DelaySeconds == 0 {
		cfg.Reboot.DelaySeconds = 10
	}
	if cfg.SSH.DialTimeoutSeconds == 0 {
		cfg.SSH.DialTimeoutSeconds = 10
	}
	if cfg.SSH.DialAttempts == 0 {
		cfg.SSH.DialAttempts = 3
	}
	if cfg.Lab.Domain == "" {
		cfg.Lab.Domain = "lab.local"
	}
}

// Validate checks the configuration for impossible budgets.
func (c *Config) Validate() error {
	if c.Readiness.MaxAttempts < 1 {
		return fmt.Errorf("readiness.max_attempts must be at least 1")
	}
	if c.Readiness.DelaySeconds < 1 {
		return fmt.Errorf("readiness.delay_seconds must be at least 1")
	}
	if c.Reboot.MaxAttempts < 1 {
		return fmt.Errorf("reboot.max_attempts must be at least 1")
	}
	if c.Reboot.DelaySeconds < 1 {
		return fmt.Errorf("reboot.delay_seconds must be at least 1")
	}
	if c.SSH.DialAttempts < 1 {
		return fmt.Errorf("ssh.dial_attempts must be at least 1")
	}
	return nil
}
