package types

import (
	"fmt"
	"net"
	"net/netip"
	"time"
)

const (
	// MaxInterfaceNameLen is the kernel limit for a device name (IFNAMSIZ - 1)
	MaxInterfaceNameLen = 15

	// DefaultInterfaceName is the name every container interface ends up with
	DefaultInterfaceName = "vespa"

	// DefaultTempInterfacePrefix prefixes the staging name used in the host namespace
	DefaultTempInterfacePrefix = "vespa-tmp-"

	// IPAnnotation is the OCI annotation carrying the container's address
	IPAnnotation = "vespanet.ip"
)

// HostAddress is an IPv4 address assigned to a link in some namespace
type HostAddress struct {
	Addr      netip.Addr
	PrefixLen int
	LinkIndex int
	Label     string
}

// Prefix returns the address together with its prefix length
func (a HostAddress) Prefix() netip.Prefix {
	return netip.PrefixFrom(a.Addr, a.PrefixLen)
}

// Network returns the network the address belongs to (address masked by its own prefix)
func (a HostAddress) Network() netip.Prefix {
	return a.Prefix().Masked()
}

func (a HostAddress) String() string {
	return fmt.Sprintf("%s dev %d", a.Prefix(), a.LinkIndex)
}

// InterfaceRecord describes a link as seen from one namespace.
// Index is only meaningful inside the namespace identified by NamespacePID.
type InterfaceRecord struct {
	Name         string
	Index        int
	NamespacePID int
	MAC          net.HardwareAddr
	Up           bool
}

// RouteRecord is an IPv4 route. A default route has a zero-length Dst.
type RouteRecord struct {
	Dst       netip.Prefix
	Gateway   netip.Addr
	LinkIndex int
}

// DefaultDst is the destination of an IPv4 default route
var DefaultDst = netip.PrefixFrom(netip.IPv4Unspecified(), 0)

// IsDefault reports whether the route is a default route
func (r RouteRecord) IsDefault() bool {
	return !r.Dst.IsValid() || r.Dst.Bits() == 0
}

func (r RouteRecord) String() string {
	dst := "default"
	if !r.IsDefault() {
		dst = r.Dst.String()
	}
	if r.Gateway.IsValid() {
		return fmt.Sprintf("%s via %s dev %d", dst, r.Gateway, r.LinkIndex)
	}
	return fmt.Sprintf("%s dev %d", dst, r.LinkIndex)
}

// Mode selects how the container's default route is chosen
type Mode string

const (
	// ModeDefault copies the host's default gateway into the container
	ModeDefault Mode = "default"

	// ModeLocal installs no route at all
	ModeLocal Mode = "local"

	// ModeVM routes through the host's own address on the matched network
	ModeVM Mode = "vm"
)

// ModeFromFlags maps the --local/--vm flags to a Mode
func ModeFromFlags(local, vm bool) (Mode, error) {
	switch {
	case local && vm:
		return "", fmt.Errorf("%w: cannot specify both --local and --vm", ErrArgument)
	case local:
		return ModeLocal, nil
	case vm:
		return ModeVM, nil
	default:
		return ModeDefault, nil
	}
}

// ParseMode parses a mode name as written in config files and journal entries
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeDefault:
		return ModeDefault, nil
	case ModeLocal:
		return ModeLocal, nil
	case ModeVM:
		return ModeVM, nil
	default:
		return "", fmt.Errorf("%w: unknown mode %q", ErrArgument, s)
	}
}

// ProvisionEntry is the diagnostic record kept for each configured container IP
type ProvisionEntry struct {
	RunID          string    `json:"run_id"`
	ContainerIP    string    `json:"container_ip"`
	ContainerPID   int       `json:"container_pid"`
	MAC            string    `json:"mac"`
	Mode           Mode      `json:"mode"`
	HostNetwork    string    `json:"host_network"`
	HostLinkIndex  int       `json:"host_link_index"`
	InterfaceIndex int       `json:"interface_index"`
	Created        bool      `json:"created"`
	Gateway        string    `json:"gateway,omitempty"`
	Error          string    `json:"error,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}
