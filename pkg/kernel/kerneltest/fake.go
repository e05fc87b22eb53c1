// Package kerneltest provides an in-memory kernel.Opener for tests. It keeps
// links, addresses and routes per namespace and records every mutation so
// tests can assert what a run changed.
package kerneltest

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"sort"

	"github.com/cuemby/vespanet/pkg/kernel"
	"github.com/cuemby/vespanet/pkg/netns"
	"github.com/cuemby/vespanet/pkg/types"
	"golang.org/x/sys/unix"
)

// Link is a fake network device
type Link struct {
	Name   string
	Index  int
	MAC    net.HardwareAddr
	Up     bool
	Kind   string
	Parent int
}

// World holds every fake namespace, keyed by pid
type World struct {
	Namespaces map[int]*Namespace

	// Mutations lists every state-changing call, in order
	Mutations []string

	// FailCreate, when set, is returned by CreateMacvlan
	FailCreate error

	// VanishOnMove drops the link instead of delivering it, as if another
	// process deleted it right after the move
	VanishOnMove bool

	nextIndex int
}

// NewWorld creates an empty world
func NewWorld() *World {
	return &World{
		Namespaces: make(map[int]*Namespace),
		nextIndex:  1000,
	}
}

// AddNamespace registers the namespace of pid
func (w *World) AddNamespace(pid int) *Namespace {
	ns := &Namespace{
		world: w,
		PID:   pid,
		Links: make(map[int]*Link),
	}
	w.Namespaces[pid] = ns
	return ns
}

// Open implements kernel.Opener
func (w *World) Open(h *netns.Handle) (kernel.Namespace, error) {
	ns, ok := w.Namespaces[h.PID]
	if !ok {
		return nil, fmt.Errorf("no fake namespace for pid %d", h.PID)
	}
	ns.opened++
	return ns, nil
}

// ResetMutations clears the mutation log
func (w *World) ResetMutations() {
	w.Mutations = nil
}

func (w *World) record(ns *Namespace, format string, args ...interface{}) {
	w.Mutations = append(w.Mutations, fmt.Sprintf("ns=%d ", ns.PID)+fmt.Sprintf(format, args...))
}

func (w *World) allocIndex() int {
	w.nextIndex++
	return w.nextIndex
}

// Namespace is one fake network namespace
type Namespace struct {
	world *World

	PID      int
	Links    map[int]*Link
	AddrList []types.HostAddress
	Routes   []types.RouteRecord

	opened int
	closed int
}

// AddLink adds a link with a fixed index
func (ns *Namespace) AddLink(name string, index int, up bool) *Link {
	l := &Link{Name: name, Index: index, Up: up, Kind: "device"}
	ns.Links[index] = l
	return l
}

// AddAddr assigns prefix (for example "10.0.2.15/24") to a link
func (ns *Namespace) AddAddr(linkIndex int, prefix, label string) {
	p := netip.MustParsePrefix(prefix)
	ns.AddrList = append(ns.AddrList, types.HostAddress{
		Addr:      p.Addr(),
		PrefixLen: p.Bits(),
		LinkIndex: linkIndex,
		Label:     label,
	})
}

// AddDefaultRoute adds a default route via gateway on linkIndex
func (ns *Namespace) AddDefaultRoute(gateway string, linkIndex int) {
	ns.Routes = append(ns.Routes, types.RouteRecord{
		Dst:       types.DefaultDst,
		Gateway:   netip.MustParseAddr(gateway),
		LinkIndex: linkIndex,
	})
}

// Link returns the link called name, or nil
func (ns *Namespace) Link(name string) *Link {
	for _, l := range ns.Links {
		if l.Name == name {
			return l
		}
	}
	return nil
}

// AddrsOn returns the prefixes assigned to linkIndex, sorted
func (ns *Namespace) AddrsOn(linkIndex int) []string {
	var out []string
	for _, a := range ns.AddrList {
		if a.LinkIndex == linkIndex {
			out = append(out, a.Prefix().String())
		}
	}
	sort.Strings(out)
	return out
}

// Balanced reports whether every Open was matched by a Close
func (ns *Namespace) Balanced() bool {
	return ns.opened == ns.closed
}

func (ns *Namespace) Addrs(linkIndex int) ([]types.HostAddress, error) {
	var out []types.HostAddress
	for _, a := range ns.AddrList {
		if linkIndex == 0 || a.LinkIndex == linkIndex {
			out = append(out, a)
		}
	}
	return out, nil
}

func (ns *Namespace) DefaultRoutes() ([]types.RouteRecord, error) {
	var out []types.RouteRecord
	for _, r := range ns.Routes {
		if r.IsDefault() {
			out = append(out, r)
		}
	}
	return out, nil
}

func (ns *Namespace) LinkByName(name string) (*types.InterfaceRecord, error) {
	l := ns.Link(name)
	if l == nil {
		return nil, nil
	}
	return &types.InterfaceRecord{
		Name:         l.Name,
		Index:        l.Index,
		NamespacePID: ns.PID,
		MAC:          l.MAC,
		Up:           l.Up,
	}, nil
}

func (ns *Namespace) LinkDelete(index int) error {
	l, ok := ns.Links[index]
	if !ok {
		return fmt.Errorf("link %d: %w", index, unix.ENODEV)
	}
	ns.detach(index)
	ns.world.record(ns, "link del %s", l.Name)
	return nil
}

func (ns *Namespace) LinkSetUp(index int) error {
	l, ok := ns.Links[index]
	if !ok {
		return fmt.Errorf("link %d: %w", index, unix.ENODEV)
	}
	l.Up = true
	ns.world.record(ns, "link set %s up", l.Name)
	return nil
}

func (ns *Namespace) CreateMacvlan(name string, parentIndex int, mac net.HardwareAddr) error {
	if ns.world.FailCreate != nil {
		return ns.world.FailCreate
	}
	if ns.Link(name) != nil {
		return fmt.Errorf("%w: link %s", kernel.ErrExists, name)
	}
	if _, ok := ns.Links[parentIndex]; !ok {
		return fmt.Errorf("parent link %d: %w", parentIndex, unix.ENODEV)
	}
	l := &Link{Name: name, Index: ns.world.allocIndex(), MAC: mac, Kind: "macvlan", Parent: parentIndex}
	ns.Links[l.Index] = l
	ns.world.record(ns, "link add %s type macvlan mode bridge link %d address %s", name, parentIndex, mac)
	return nil
}

func (ns *Namespace) MoveLink(index int, dest *netns.Handle, newName string) error {
	l, ok := ns.Links[index]
	if !ok {
		return fmt.Errorf("link %d: %w", index, unix.ENODEV)
	}
	target, ok := ns.world.Namespaces[dest.PID]
	if !ok {
		return errors.New("invalid namespace handle")
	}
	if target.Link(newName) != nil {
		return fmt.Errorf("%w: link %s in namespace %d", kernel.ErrExists, newName, dest.PID)
	}

	ns.detach(index)
	ns.world.record(ns, "link set %s netns %d name %s", l.Name, dest.PID, newName)
	if ns.world.VanishOnMove {
		return nil
	}

	l.Name = newName
	l.Index = ns.world.allocIndex()
	l.Up = false
	target.Links[l.Index] = l
	return nil
}

func (ns *Namespace) AddrAdd(linkIndex int, addr netip.Prefix) error {
	if _, ok := ns.Links[linkIndex]; !ok {
		return fmt.Errorf("link %d: %w", linkIndex, unix.ENODEV)
	}
	for _, a := range ns.AddrList {
		if a.LinkIndex == linkIndex && a.Addr == addr.Addr() && a.PrefixLen == addr.Bits() {
			return fmt.Errorf("%w: address %s", kernel.ErrExists, addr)
		}
	}
	ns.AddrList = append(ns.AddrList, types.HostAddress{
		Addr:      addr.Addr(),
		PrefixLen: addr.Bits(),
		LinkIndex: linkIndex,
		Label:     ns.Links[linkIndex].Name,
	})
	ns.world.record(ns, "addr add %s dev %d", addr, linkIndex)
	return nil
}

func (ns *Namespace) AddrDel(linkIndex int, addr netip.Prefix) error {
	for i, a := range ns.AddrList {
		if a.LinkIndex == linkIndex && a.Addr == addr.Addr() && a.PrefixLen == addr.Bits() {
			ns.AddrList = append(ns.AddrList[:i], ns.AddrList[i+1:]...)
			ns.world.record(ns, "addr del %s dev %d", addr, linkIndex)
			return nil
		}
	}
	return fmt.Errorf("address %s: %w", addr, unix.EADDRNOTAVAIL)
}

func (ns *Namespace) RouteReplace(route types.RouteRecord) error {
	if route.LinkIndex != 0 {
		if _, ok := ns.Links[route.LinkIndex]; !ok {
			return fmt.Errorf("link %d: %w", route.LinkIndex, unix.ENODEV)
		}
	}
	if !route.Dst.IsValid() {
		route.Dst = types.DefaultDst
	}

	kept := ns.Routes[:0]
	for _, r := range ns.Routes {
		if r.IsDefault() != route.IsDefault() || (!r.IsDefault() && r.Dst != route.Dst) {
			kept = append(kept, r)
		}
	}
	ns.Routes = append(kept, route)
	ns.world.record(ns, "route replace %s", route)
	return nil
}

func (ns *Namespace) Close() error {
	ns.closed++
	return nil
}

// detach removes a link together with its addresses and routes
func (ns *Namespace) detach(index int) {
	delete(ns.Links, index)

	addrs := ns.AddrList[:0]
	for _, a := range ns.AddrList {
		if a.LinkIndex != index {
			addrs = append(addrs, a)
		}
	}
	ns.AddrList = addrs

	routes := ns.Routes[:0]
	for _, r := range ns.Routes {
		if r.LinkIndex != index {
			routes = append(routes, r)
		}
	}
	ns.Routes = routes
}
