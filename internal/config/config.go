package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/enginrect/ovs-bridge-agent/internal/domain"
)

const (
	ExecutorLocal = "local"
	ExecutorSSH   = "ssh"

	NameSourceVsctl = "vsctl"
	NameSourceOVSDB = "ovsdb"
)

type Config struct {
	Bind      string         `yaml:"bind"`
	LogLevel  string         `yaml:"log_level"`
	LogFormat string         `yaml:"log_format"` // text or json
	Executor  ExecutorConfig `yaml:"executor"`
	OVS       OVSConfig      `yaml:"ovs"`
}

type ExecutorConfig struct {
	Mode      string        `yaml:"mode"`
	Container string        `yaml:"container"`
	Timeout   time.Duration `yaml:"timeout"`
	SSH       SSHConfig     `yaml:"ssh"`
}

type SSHConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	KeyFile  string `yaml:"key_file"`
}

type OVSConfig struct {
	ServiceUnit     string        `yaml:"service_unit"`
	OVSDBEndpoint   string        `yaml:"ovsdb_endpoint"`
	NameSource      string        `yaml:"name_source"`
	NameSearchLimit int           `yaml:"name_search_limit"`
	ReadyTimeout    time.Duration `yaml:"ready_timeout"`
}

func Default() *Config {
	return &Config{
		Bind:      ":9406",
		LogLevel:  "info",
		LogFormat: "text",
		Executor: ExecutorConfig{
			Mode:    ExecutorLocal,
			Timeout: domain.DefaultCommandTimeout,
			SSH:     SSHConfig{Port: 22, User: "root"},
		},
		OVS: OVSConfig{
			ServiceUnit:     domain.DefaultServiceUnit,
			OVSDBEndpoint:   domain.DefaultOVSDBEndpoint,
			NameSource:      NameSourceVsctl,
			NameSearchLimit: domain.DefaultNameSearchLimit,
			ReadyTimeout:    domain.DefaultReadyTimeout,
		},
	}
}

// Load reads path over the defaults and applies environment overrides. An
// empty path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config YAML: %w", err)
			}
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("OVS_CONTAINER"); v != "" {
		c.Executor.Container = v
	}
	if v := os.Getenv("OVSDB_ENDPOINT"); v != "" {
		c.OVS.OVSDBEndpoint = v
	}
	if v := os.Getenv("OVS_AGENT_BIND"); v != "" {
		c.Bind = v
	}
}

func (c *Config) Validate() error {
	switch c.Executor.Mode {
	case ExecutorLocal:
	case ExecutorSSH:
		if c.Executor.SSH.Host == "" {
			return fmt.Errorf("executor.ssh.host is required in ssh mode")
		}
		if c.Executor.SSH.Password == "" && c.Executor.SSH.KeyFile == "" {
			return fmt.Errorf("executor.ssh needs a password or key_file")
		}
	default:
		return fmt.Errorf("executor.mode must be %q or %q, got %q", ExecutorLocal, ExecutorSSH, c.Executor.Mode)
	}
	switch c.OVS.NameSource {
	case NameSourceVsctl, NameSourceOVSDB:
	default:
		return fmt.Errorf("ovs.name_source must be %q or %q, got %q", NameSourceVsctl, NameSourceOVSDB, c.OVS.NameSource)
	}
	if c.OVS.NameSearchLimit <= 0 {
		return fmt.Errorf("ovs.name_search_limit must be positive")
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("log_format must be 'text' or 'json', got %q", c.LogFormat)
	}
	return nil
}
