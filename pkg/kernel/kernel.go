package kernel

import (
	"errors"
	"net"
	"net/netip"

	"github.com/cuemby/vespanet/pkg/netns"
	"github.com/cuemby/vespanet/pkg/types"
)

// ErrExists is wrapped by mutations the kernel rejects because the object is already there
var ErrExists = errors.New("already exists")

// Namespace is netlink access to a single network namespace. Every call is a
// blocking request/response; nothing is cached between calls.
type Namespace interface {
	// Addrs lists IPv4 addresses on linkIndex, or on every link when linkIndex is 0
	Addrs(linkIndex int) ([]types.HostAddress, error)

	// DefaultRoutes lists the IPv4 default routes of the main table
	DefaultRoutes() ([]types.RouteRecord, error)

	// LinkByName returns nil, nil when no link has that name
	LinkByName(name string) (*types.InterfaceRecord, error)

	LinkDelete(index int) error
	LinkSetUp(index int) error

	// CreateMacvlan creates a bridge-mode macvlan on top of parentIndex
	CreateMacvlan(name string, parentIndex int, mac net.HardwareAddr) error

	// MoveLink moves a link into dest, renaming it in the same request
	MoveLink(index int, dest *netns.Handle, newName string) error

	AddrAdd(linkIndex int, addr netip.Prefix) error
	AddrDel(linkIndex int, addr netip.Prefix) error

	// RouteReplace installs route, replacing any route with the same destination
	RouteReplace(route types.RouteRecord) error

	Close() error
}

// Opener opens netlink access to the namespace behind a handle
type Opener interface {
	Open(h *netns.Handle) (Namespace, error)
}

// IsExist reports whether err is an "already exists" condition
func IsExist(err error) bool {
	return errors.Is(err, ErrExists)
}
