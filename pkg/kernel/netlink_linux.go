//go:build linux

package kernel

import (
	"errors"
	"fmt"
	"net"
	"net/netip"

	"github.com/cuemby/vespanet/pkg/netns"
	"github.com/cuemby/vespanet/pkg/types"
	"github.com/vishvananda/netlink"
	"github.com/vishvananda/netlink/nl"
	vnetns "github.com/vishvananda/netns"
	"golang.org/x/sys/unix"
)

// NetlinkOpener opens real netlink sockets inside the target namespace
type NetlinkOpener struct{}

// NewNetlinkOpener returns the kernel-backed Opener
func NewNetlinkOpener() *NetlinkOpener {
	return &NetlinkOpener{}
}

// Open creates a netlink handle bound to the namespace of h
func (o *NetlinkOpener) Open(h *netns.Handle) (Namespace, error) {
	handle, err := netlink.NewHandleAt(h.NsHandle())
	if err != nil {
		return nil, fmt.Errorf("failed to open netlink handle in %s: %w", h, err)
	}
	return &netlinkNamespace{handle: handle, ns: h}, nil
}

type netlinkNamespace struct {
	handle *netlink.Handle
	ns     *netns.Handle
}

func (n *netlinkNamespace) Addrs(linkIndex int) ([]types.HostAddress, error) {
	var link netlink.Link
	if linkIndex > 0 {
		link = linkRef(linkIndex)
	}

	addrs, err := dumpOnce(func() ([]netlink.Addr, error) {
		return n.handle.AddrList(link, netlink.FAMILY_V4)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}

	result := make([]types.HostAddress, 0, len(addrs))
	for _, a := range addrs {
		if a.IPNet == nil {
			continue
		}
		ip, ok := netip.AddrFromSlice(a.IP.To4())
		if !ok {
			continue
		}
		ones, _ := a.Mask.Size()
		result = append(result, types.HostAddress{
			Addr:      ip,
			PrefixLen: ones,
			LinkIndex: a.LinkIndex,
			Label:     a.Label,
		})
	}
	return result, nil
}

func (n *netlinkNamespace) DefaultRoutes() ([]types.RouteRecord, error) {
	routes, err := dumpOnce(func() ([]netlink.Route, error) {
		return n.handle.RouteListFiltered(netlink.FAMILY_V4,
			&netlink.Route{Table: unix.RT_TABLE_MAIN}, netlink.RT_FILTER_TABLE)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list routes: %w", err)
	}

	var result []types.RouteRecord
	for _, r := range routes {
		if r.Dst != nil {
			if ones, _ := r.Dst.Mask.Size(); ones != 0 {
				continue
			}
		}
		rec := types.RouteRecord{Dst: types.DefaultDst, LinkIndex: r.LinkIndex}
		if gw, ok := netip.AddrFromSlice(r.Gw.To4()); ok {
			rec.Gateway = gw
		}
		result = append(result, rec)
	}
	return result, nil
}

func (n *netlinkNamespace) LinkByName(name string) (*types.InterfaceRecord, error) {
	link, err := n.handle.LinkByName(name)
	if err != nil {
		var notFound netlink.LinkNotFoundError
		if errors.As(err, &notFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up link %s: %w", name, err)
	}

	attrs := link.Attrs()
	return &types.InterfaceRecord{
		Name:         attrs.Name,
		Index:        attrs.Index,
		NamespacePID: n.ns.PID,
		MAC:          attrs.HardwareAddr,
		Up:           attrs.Flags&net.FlagUp != 0,
	}, nil
}

func (n *netlinkNamespace) LinkDelete(index int) error {
	if err := n.handle.LinkDel(linkRef(index)); err != nil {
		return fmt.Errorf("failed to delete link %d: %w", index, err)
	}
	return nil
}

func (n *netlinkNamespace) LinkSetUp(index int) error {
	if err := n.handle.LinkSetUp(linkRef(index)); err != nil {
		return fmt.Errorf("failed to set link %d up: %w", index, err)
	}
	return nil
}

func (n *netlinkNamespace) CreateMacvlan(name string, parentIndex int, mac net.HardwareAddr) error {
	attrs := netlink.NewLinkAttrs()
	attrs.Name = name
	attrs.ParentIndex = parentIndex
	attrs.HardwareAddr = mac

	link := &netlink.Macvlan{
		LinkAttrs: attrs,
		Mode:      netlink.MACVLAN_MODE_BRIDGE,
	}
	if err := n.handle.LinkAdd(link); err != nil {
		return wrapExists(err, "link "+name)
	}
	return nil
}

// MoveLink sends a single RTM_SETLINK carrying both IFLA_NET_NS_FD and
// IFLA_IFNAME, so the link never exists under its new name in the source
// namespace nor under its old name in the destination.
func (n *netlinkNamespace) MoveLink(index int, dest *netns.Handle, newName string) error {
	sock, err := nl.GetNetlinkSocketAt(n.ns.NsHandle(), vnetns.None(), unix.NETLINK_ROUTE)
	if err != nil {
		return fmt.Errorf("failed to open netlink socket in %s: %w", n.ns, err)
	}
	defer sock.Close()

	req := nl.NewNetlinkRequest(unix.RTM_SETLINK, unix.NLM_F_ACK)
	req.Sockets = map[int]*nl.SocketHandle{
		unix.NETLINK_ROUTE: {Socket: sock},
	}

	msg := nl.NewIfInfomsg(unix.AF_UNSPEC)
	msg.Index = int32(index)
	req.AddData(msg)
	req.AddData(nl.NewRtAttr(unix.IFLA_NET_NS_FD, nl.Uint32Attr(uint32(dest.Fd()))))
	req.AddData(nl.NewRtAttr(unix.IFLA_IFNAME, nl.ZeroTerminated(newName)))

	if _, err := req.Execute(unix.NETLINK_ROUTE, 0); err != nil {
		return wrapExists(err, fmt.Sprintf("move link %d to %s as %s", index, dest, newName))
	}
	return nil
}

func (n *netlinkNamespace) AddrAdd(linkIndex int, addr netip.Prefix) error {
	if err := n.handle.AddrAdd(linkRef(linkIndex), toNetlinkAddr(addr)); err != nil {
		return wrapExists(err, "address "+addr.String())
	}
	return nil
}

func (n *netlinkNamespace) AddrDel(linkIndex int, addr netip.Prefix) error {
	if err := n.handle.AddrDel(linkRef(linkIndex), toNetlinkAddr(addr)); err != nil {
		return fmt.Errorf("failed to remove address %s from link %d: %w", addr, linkIndex, err)
	}
	return nil
}

func (n *netlinkNamespace) RouteReplace(route types.RouteRecord) error {
	dst := route.Dst
	if !dst.IsValid() {
		dst = types.DefaultDst
	}

	r := &netlink.Route{
		Dst:       toIPNet(dst),
		LinkIndex: route.LinkIndex,
	}
	if route.Gateway.IsValid() {
		r.Gw = net.IP(route.Gateway.AsSlice())
	}

	if err := n.handle.RouteReplace(r); err != nil {
		return fmt.Errorf("failed to replace route %s: %w", route, err)
	}
	return nil
}

func (n *netlinkNamespace) Close() error {
	n.handle.Close()
	return nil
}

// dumpOnce re-reads a dump the kernel flagged as interrupted by a
// concurrent change. A second interruption is returned to the caller.
func dumpOnce[T any](dump func() ([]T, error)) ([]T, error) {
	result, err := dump()
	if errors.Is(err, netlink.ErrDumpInterrupted) {
		result, err = dump()
	}
	return result, err
}

// linkRef addresses a link by index without a round trip to the kernel
func linkRef(index int) netlink.Link {
	attrs := netlink.NewLinkAttrs()
	attrs.Index = index
	return &netlink.Device{LinkAttrs: attrs}
}

func toIPNet(p netip.Prefix) *net.IPNet {
	return &net.IPNet{
		IP:   net.IP(p.Addr().AsSlice()),
		Mask: net.CIDRMask(p.Bits(), p.Addr().BitLen()),
	}
}

func toNetlinkAddr(p netip.Prefix) *netlink.Addr {
	return &netlink.Addr{IPNet: toIPNet(p)}
}

func wrapExists(err error, what string) error {
	if errors.Is(err, unix.EEXIST) {
		return fmt.Errorf("%w: %s: %v", ErrExists, what, err)
	}
	return fmt.Errorf("%s: %w", what, err)
}
