package provision

import (
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cuemby/vespanet/pkg/kernel"
	"github.com/cuemby/vespanet/pkg/log"
	"github.com/cuemby/vespanet/pkg/netns"
	"github.com/cuemby/vespanet/pkg/types"
	"github.com/rs/zerolog"
)

const (
	// DefaultTraceDir is where the per-IP MAC address files are written
	DefaultTraceDir = "/tmp"

	traceFilePrefix = "container_mac_address_"
)

// Config holds provisioner settings
type Config struct {
	InterfaceName string
	TempPrefix    string
	TraceDir      string

	// Hostname feeds the MAC derivation; os.Hostname() when empty
	Hostname string
}

// Provisioner creates the container interface in the host namespace and
// hands it over to the container namespace
type Provisioner struct {
	cfg    Config
	logger zerolog.Logger
}

// Result describes the interface found or created in the container namespace
type Result struct {
	Interface types.InterfaceRecord
	MAC       string
	Created   bool
}

// NewProvisioner validates cfg and fills in defaults
func NewProvisioner(cfg Config) (*Provisioner, error) {
	if cfg.InterfaceName == "" {
		cfg.InterfaceName = types.DefaultInterfaceName
	}
	if cfg.TempPrefix == "" {
		cfg.TempPrefix = types.DefaultTempInterfacePrefix
	}
	if cfg.TraceDir == "" {
		cfg.TraceDir = DefaultTraceDir
	}
	if cfg.Hostname == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("failed to get hostname: %w", err)
		}
		cfg.Hostname = hostname
	}
	if err := ValidateInterfaceName(cfg.InterfaceName); err != nil {
		return nil, err
	}

	return &Provisioner{
		cfg:    cfg,
		logger: log.WithComponent("provision"),
	}, nil
}

// InterfaceName returns the final name of the container interface
func (p *Provisioner) InterfaceName() string {
	return p.cfg.InterfaceName
}

// TempName returns the staging name used in the host namespace for pid
func (p *Provisioner) TempName(pid int) string {
	return p.cfg.TempPrefix + strconv.Itoa(pid)
}

// CheckNames verifies both interface names for pid before anything is touched
func (p *Provisioner) CheckNames(pid int) error {
	temp := p.TempName(pid)
	if err := ValidateInterfaceName(temp); err != nil {
		return err
	}
	if temp == p.cfg.InterfaceName {
		return fmt.Errorf("%w: temporary interface name %q collides with final name", types.ErrArgument, temp)
	}
	return nil
}

// EnsureInterface makes sure the container namespace has the final
// interface. A leftover staging link from an earlier failed run is removed
// first; an interface that already exists in the container is returned
// untouched.
func (p *Provisioner) EnsureInterface(hostNs, containerNs kernel.Namespace, container *netns.Handle, ip netip.Addr, hostLinkIndex int) (*Result, error) {
	if err := p.CheckNames(container.PID); err != nil {
		return nil, err
	}
	tempName := p.TempName(container.PID)
	logger := log.WithContainer(p.logger, container.PID, ip)

	if err := p.removeStaleTemp(hostNs, tempName, logger); err != nil {
		return nil, err
	}

	existing, err := containerNs.LinkByName(p.cfg.InterfaceName)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		logger.Debug().
			Str("interface", existing.Name).
			Int("link_index", existing.Index).
			Msg("Container interface already present")
		return &Result{Interface: *existing, MAC: existing.MAC.String()}, nil
	}

	mac := GenerateMAC(p.cfg.Hostname, ip.String())
	p.writeTrace(ip, mac.String(), logger)

	if err := hostNs.CreateMacvlan(tempName, hostLinkIndex, mac); err != nil {
		return nil, fmt.Errorf("%w: %s on link %d: %v", types.ErrInterfaceCreationFailed, tempName, hostLinkIndex, err)
	}

	staged, err := hostNs.LinkByName(tempName)
	if err != nil {
		return nil, err
	}
	if staged == nil {
		return nil, fmt.Errorf("%w: %s not found after creation", types.ErrInterfaceCreationFailed, tempName)
	}

	logger.Info().
		Str("interface", tempName).
		Int("parent_index", hostLinkIndex).
		Str("mac", mac.String()).
		Msg("Created staging interface")

	if err := hostNs.MoveLink(staged.Index, container, p.cfg.InterfaceName); err != nil {
		return nil, fmt.Errorf("failed to move %s into %s: %w", tempName, container, err)
	}

	moved, err := containerNs.LinkByName(p.cfg.InterfaceName)
	if err != nil {
		return nil, err
	}
	if moved == nil {
		return nil, fmt.Errorf("%w: %s missing from %s after move", types.ErrConcurrentModification, p.cfg.InterfaceName, container)
	}

	logger.Info().
		Str("interface", moved.Name).
		Int("link_index", moved.Index).
		Msg("Moved interface into container namespace")

	return &Result{Interface: *moved, MAC: mac.String(), Created: true}, nil
}

func (p *Provisioner) removeStaleTemp(hostNs kernel.Namespace, tempName string, logger zerolog.Logger) error {
	stale, err := hostNs.LinkByName(tempName)
	if err != nil {
		return err
	}
	if stale == nil {
		return nil
	}
	if err := hostNs.LinkDelete(stale.Index); err != nil {
		return fmt.Errorf("failed to remove leftover interface %s: %w", tempName, err)
	}
	logger.Info().Str("interface", tempName).Msg("Removed leftover staging interface")
	return nil
}

// writeTrace leaves the MAC address where operators can find it; failures are not fatal
func (p *Provisioner) writeTrace(ip netip.Addr, mac string, logger zerolog.Logger) {
	path := filepath.Join(p.cfg.TraceDir, traceFilePrefix+ip.String())
	if err := os.WriteFile(path, []byte(mac), 0644); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("Failed to write MAC trace file")
	}
}

// ValidateInterfaceName checks a device name against the kernel limits
func ValidateInterfaceName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty interface name", types.ErrArgument)
	}
	if len(name) > types.MaxInterfaceNameLen {
		return fmt.Errorf("%w: interface name %q is longer than %d characters",
			types.ErrArgument, name, types.MaxInterfaceNameLen)
	}
	return nil
}
