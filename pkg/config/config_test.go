package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cuemby/vespanet/pkg/log"
	"github.com/cuemby/vespanet/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "/proc", cfg.ProcRoot)
	assert.Equal(t, "/var/run/netns", cfg.NetnsDir)
	assert.Equal(t, 1, cfg.HostPID)
	assert.Equal(t, "vespa", cfg.InterfaceName)
	assert.Equal(t, "vespa-tmp-", cfg.TempInterfacePrefix)
	assert.Empty(t, cfg.JournalPath)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")

	cfg, err := Load(path, false)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = Load(path, true)
	assert.Error(t, err)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
procRoot: /host/proc
journalPath: /var/lib/vespanet/journal.db
log:
  level: debug
  json: true
containerd:
  namespace: k8s.io
`)

	cfg, err := Load(path, true)
	require.NoError(t, err)

	assert.Equal(t, "/host/proc", cfg.ProcRoot)
	assert.Equal(t, "/var/lib/vespanet/journal.db", cfg.JournalPath)
	assert.Equal(t, "k8s.io", cfg.Containerd.Namespace)
	assert.Equal(t, "/run/containerd/containerd.sock", cfg.Containerd.Address, "unset fields keep defaults")
	assert.Equal(t, "vespa", cfg.InterfaceName)

	logCfg := cfg.LoggerConfig()
	assert.Equal(t, log.DebugLevel, logCfg.Level)
	assert.True(t, logCfg.JSONOutput)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "procRoot: [unterminated")

	_, err := Load(path, true)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"empty proc root", func(c *Config) { c.ProcRoot = "" }},
		{"empty netns dir", func(c *Config) { c.NetnsDir = "" }},
		{"zero host pid", func(c *Config) { c.HostPID = 0 }},
		{"long interface name", func(c *Config) { c.InterfaceName = "vespa-interface-0" }},
		{"empty temp prefix", func(c *Config) { c.TempInterfacePrefix = "" }},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assert.ErrorIs(t, cfg.Validate(), types.ErrArgument)
		})
	}
}

func TestProvisionConfig(t *testing.T) {
	cfg := Default()
	cfg.TraceDir = "/run/vespanet"

	pc := cfg.ProvisionConfig()
	assert.Equal(t, "vespa", pc.InterfaceName)
	assert.Equal(t, "vespa-tmp-", pc.TempPrefix)
	assert.Equal(t, "/run/vespanet", pc.TraceDir)
}
