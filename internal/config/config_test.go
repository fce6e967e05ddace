package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enginrect/ovs-bridge-agent/internal/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agent.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":9406", cfg.Bind)
	assert.Equal(t, ExecutorLocal, cfg.Executor.Mode)
	assert.Equal(t, NameSourceVsctl, cfg.OVS.NameSource)
	assert.Equal(t, domain.DefaultNameSearchLimit, cfg.OVS.NameSearchLimit)
	assert.Equal(t, domain.DefaultServiceUnit, cfg.OVS.ServiceUnit)
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Bind, cfg.Bind)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
bind: 127.0.0.1:9500
log_level: debug
log_format: json
executor:
  mode: ssh
  timeout: 30s
  ssh:
    host: 10.0.0.7
    key_file: /root/.ssh/id_ed25519
ovs:
  name_source: ovsdb
  name_search_limit: 64
  ready_timeout: 1m
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9500", cfg.Bind)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, ExecutorSSH, cfg.Executor.Mode)
	assert.Equal(t, 30*time.Second, cfg.Executor.Timeout)
	assert.Equal(t, "10.0.0.7", cfg.Executor.SSH.Host)
	assert.Equal(t, 22, cfg.Executor.SSH.Port)
	assert.Equal(t, NameSourceOVSDB, cfg.OVS.NameSource)
	assert.Equal(t, 64, cfg.OVS.NameSearchLimit)
	assert.Equal(t, time.Minute, cfg.OVS.ReadyTimeout)
	// untouched keys keep defaults
	assert.Equal(t, domain.DefaultOVSDBEndpoint, cfg.OVS.OVSDBEndpoint)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("OVS_CONTAINER", "openvswitch_vswitchd")
	t.Setenv("OVSDB_ENDPOINT", "tcp:127.0.0.1:6640")
	t.Setenv("OVS_AGENT_BIND", ":9999")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "openvswitch_vswitchd", cfg.Executor.Container)
	assert.Equal(t, "tcp:127.0.0.1:6640", cfg.OVS.OVSDBEndpoint)
	assert.Equal(t, ":9999", cfg.Bind)
}

func TestLoadBadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "bind: [unterminated"))
	assert.ErrorContains(t, err, "parsing config YAML")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"unknown mode", func(c *Config) { c.Executor.Mode = "telnet" }, "executor.mode"},
		{"ssh without host", func(c *Config) { c.Executor.Mode = ExecutorSSH }, "executor.ssh.host"},
		{"ssh without credentials", func(c *Config) {
			c.Executor.Mode = ExecutorSSH
			c.Executor.SSH.Host = "10.0.0.7"
		}, "password or key_file"},
		{"unknown name source", func(c *Config) { c.OVS.NameSource = "redis" }, "ovs.name_source"},
		{"zero limit", func(c *Config) { c.OVS.NameSearchLimit = 0 }, "name_search_limit"},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "log_format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.errMsg)
		})
	}
	assert.NoError(t, Default().Validate())
}
