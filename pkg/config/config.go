package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/cuemby/vespanet/pkg/log"
	"github.com/cuemby/vespanet/pkg/netns"
	"github.com/cuemby/vespanet/pkg/provision"
	"github.com/cuemby/vespanet/pkg/types"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when --config is not given
const DefaultPath = "/etc/vespanet/config.yaml"

// Config is the on-disk configuration of vespanet
type Config struct {
	// ProcRoot is the proc filesystem namespaces are looked up in.
	// Set to /host/proc when running inside a container with the host's /proc mounted there.
	ProcRoot string `yaml:"procRoot"`
	NetnsDir string `yaml:"netnsDir"`

	// HostPID identifies the host network namespace (pid 1 of ProcRoot)
	HostPID int `yaml:"hostPID"`

	InterfaceName       string `yaml:"interfaceName"`
	TempInterfacePrefix string `yaml:"tempInterfacePrefix"`
	TraceDir            string `yaml:"traceDir"`

	// JournalPath enables the provisioning history when set
	JournalPath string `yaml:"journalPath"`

	// MetricsFile enables the node_exporter textfile dump when set
	MetricsFile string `yaml:"metricsFile"`

	Log        LogConfig        `yaml:"log"`
	Containerd ContainerdConfig `yaml:"containerd"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// ContainerdConfig is used by the task subcommand
type ContainerdConfig struct {
	Address   string `yaml:"address"`
	Namespace string `yaml:"namespace"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		ProcRoot:            netns.DefaultProcRoot,
		NetnsDir:            netns.DefaultNetnsDir,
		HostPID:             1,
		InterfaceName:       types.DefaultInterfaceName,
		TempInterfacePrefix: types.DefaultTempInterfacePrefix,
		TraceDir:            provision.DefaultTraceDir,
		Log: LogConfig{
			Level: string(log.InfoLevel),
		},
		Containerd: ContainerdConfig{
			Address:   "/run/containerd/containerd.sock",
			Namespace: "default",
		},
	}
}

// Load reads path on top of the defaults. A missing file yields the
// defaults unless required is set.
func Load(path string, required bool) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail halfway through a run
func (c *Config) Validate() error {
	if c.ProcRoot == "" {
		return fmt.Errorf("%w: procRoot must not be empty", types.ErrArgument)
	}
	if c.NetnsDir == "" {
		return fmt.Errorf("%w: netnsDir must not be empty", types.ErrArgument)
	}
	if c.HostPID <= 0 {
		return fmt.Errorf("%w: hostPID must be positive, got %d", types.ErrArgument, c.HostPID)
	}
	if err := provision.ValidateInterfaceName(c.InterfaceName); err != nil {
		return err
	}
	if c.TempInterfacePrefix == "" {
		return fmt.Errorf("%w: tempInterfacePrefix must not be empty", types.ErrArgument)
	}
	if _, ok := log.ParseLevel(c.Log.Level); !ok {
		return fmt.Errorf("%w: unknown log level %q", types.ErrArgument, c.Log.Level)
	}
	return nil
}

// ProvisionConfig returns the interface provisioner settings
func (c *Config) ProvisionConfig() provision.Config {
	return provision.Config{
		InterfaceName: c.InterfaceName,
		TempPrefix:    c.TempInterfacePrefix,
		TraceDir:      c.TraceDir,
	}
}

// LoggerConfig returns the logger settings
func (c *Config) LoggerConfig() log.Config {
	level, _ := log.ParseLevel(c.Log.Level)
	return log.Config{
		Level:      level,
		JSONOutput: c.Log.JSON,
	}
}
