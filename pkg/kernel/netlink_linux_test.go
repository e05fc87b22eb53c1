//go:build linux

package kernel

import (
	"fmt"
	"net"
	"net/netip"
	"os"
	"runtime"
	"testing"

	"github.com/cuemby/vespanet/pkg/netns"
	"github.com/cuemby/vespanet/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vishvananda/netlink"
	vnetns "github.com/vishvananda/netns"
	"golang.org/x/sys/unix"
)

// scratchNamespace creates an empty network namespace and returns the
// calling thread to its original namespace
func scratchNamespace(t *testing.T) vnetns.NsHandle {
	t.Helper()
	if os.Geteuid() != 0 {
		t.Skip("netlink tests require root")
	}

	runtime.LockOSThread()
	t.Cleanup(runtime.UnlockOSThread)

	orig, err := vnetns.Get()
	require.NoError(t, err)
	defer orig.Close()

	ns, err := vnetns.New()
	if err != nil {
		t.Skipf("cannot create network namespace: %v", err)
	}
	require.NoError(t, vnetns.Set(orig))

	t.Cleanup(func() { ns.Close() })
	return ns
}

func TestNetlinkNamespaceLoopback(t *testing.T) {
	ns := scratchNamespace(t)

	// the cleanup registered by scratchNamespace owns the descriptor
	handle := netns.NewHandle(0, "scratch", ns)

	kns, err := NewNetlinkOpener().Open(handle)
	require.NoError(t, err)
	defer kns.Close()

	missing, err := kns.LinkByName("vespa")
	require.NoError(t, err)
	assert.Nil(t, missing)

	lo, err := kns.LinkByName("lo")
	require.NoError(t, err)
	require.NotNil(t, lo)
	assert.False(t, lo.Up)

	require.NoError(t, kns.LinkSetUp(lo.Index))
	lo, err = kns.LinkByName("lo")
	require.NoError(t, err)
	assert.True(t, lo.Up)

	want := netip.MustParsePrefix("10.99.0.1/24")
	require.NoError(t, kns.AddrAdd(lo.Index, want))

	err = kns.AddrAdd(lo.Index, want)
	assert.True(t, IsExist(err), "second add should report exists, got %v", err)

	addrs, err := kns.Addrs(lo.Index)
	require.NoError(t, err)
	var prefixes []netip.Prefix
	for _, a := range addrs {
		prefixes = append(prefixes, a.Prefix())
	}
	assert.Contains(t, prefixes, want)

	require.NoError(t, kns.RouteReplace(types.RouteRecord{Dst: types.DefaultDst, LinkIndex: lo.Index}))
	routes, err := kns.DefaultRoutes()
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, lo.Index, routes[0].LinkIndex)

	require.NoError(t, kns.AddrDel(lo.Index, want))
	addrs, err = kns.Addrs(lo.Index)
	require.NoError(t, err)
	for _, a := range addrs {
		assert.NotEqual(t, want, a.Prefix())
	}
}

func TestNetlinkMacvlanCreateAndMove(t *testing.T) {
	hostNs := scratchNamespace(t)
	containerNs := scratchNamespace(t)
	host := netns.NewHandle(1, "scratch-host", hostNs)
	container := netns.NewHandle(2, "scratch-container", containerNs)

	// veth gives the macvlan a parent in environments without the dummy module
	setup, err := netlink.NewHandleAt(hostNs)
	require.NoError(t, err)
	defer setup.Close()
	veth := &netlink.Veth{LinkAttrs: netlink.LinkAttrs{Name: "veth-parent"}, PeerName: "veth-peer"}
	if err := setup.LinkAdd(veth); err != nil {
		t.Skipf("cannot create veth parent: %v", err)
	}

	opener := NewNetlinkOpener()
	hns, err := opener.Open(host)
	require.NoError(t, err)
	defer hns.Close()
	cns, err := opener.Open(container)
	require.NoError(t, err)
	defer cns.Close()

	parent, err := hns.LinkByName("veth-parent")
	require.NoError(t, err)
	require.NotNil(t, parent)

	mac, err := net.ParseMAC("0a:00:00:00:42:42")
	require.NoError(t, err)
	require.NoError(t, hns.CreateMacvlan("vespa-tmp-4242", parent.Index, mac))

	err = hns.CreateMacvlan("vespa-tmp-4242", parent.Index, mac)
	assert.True(t, IsExist(err), "second create should report exists, got %v", err)

	staged, err := hns.LinkByName("vespa-tmp-4242")
	require.NoError(t, err)
	require.NotNil(t, staged)
	assert.Equal(t, mac.String(), staged.MAC.String())

	require.NoError(t, hns.MoveLink(staged.Index, container, "vespa"))

	moved, err := cns.LinkByName("vespa")
	require.NoError(t, err)
	require.NotNil(t, moved)
	assert.Equal(t, mac.String(), moved.MAC.String())
	assert.Equal(t, 2, moved.NamespacePID)

	gone, err := hns.LinkByName("vespa-tmp-4242")
	require.NoError(t, err)
	assert.Nil(t, gone)

	notRenamed, err := cns.LinkByName("vespa-tmp-4242")
	require.NoError(t, err)
	assert.Nil(t, notRenamed)

	require.NoError(t, cns.LinkDelete(moved.Index))
}

func TestDumpOnceRereadsInterruptedDump(t *testing.T) {
	calls := 0
	got, err := dumpOnce(func() ([]int, error) {
		calls++
		if calls == 1 {
			return []int{1}, fmt.Errorf("list: %w", netlink.ErrDumpInterrupted)
		}
		return []int{1, 2}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, got)
	assert.Equal(t, 2, calls)
}

func TestDumpOnceGivesUpAfterSecondInterruption(t *testing.T) {
	calls := 0
	_, err := dumpOnce(func() ([]int, error) {
		calls++
		return nil, netlink.ErrDumpInterrupted
	})
	assert.ErrorIs(t, err, netlink.ErrDumpInterrupted)
	assert.Equal(t, 2, calls)
}

func TestDumpOncePassesOtherErrors(t *testing.T) {
	calls := 0
	_, err := dumpOnce(func() ([]int, error) {
		calls++
		return nil, unix.EPERM
	})
	assert.ErrorIs(t, err, unix.EPERM)
	assert.Equal(t, 1, calls)
}
