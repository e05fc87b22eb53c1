package provision

import (
	"errors"
	"net/netip"
	"os"
	"path/filepath"
	"testing"

	"github.com/cuemby/vespanet/pkg/kernel/kerneltest"
	"github.com/cuemby/vespanet/pkg/netns"
	"github.com/cuemby/vespanet/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	hostPID      = 1
	containerPID = 4242
	hostLink     = 3
)

type fixture struct {
	world     *kerneltest.World
	host      *kerneltest.Namespace
	container *kerneltest.Namespace
	handle    *netns.Handle
	prov      *Provisioner
	traceDir  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	world := kerneltest.NewWorld()
	host := world.AddNamespace(hostPID)
	host.AddLink("eth0", hostLink, true)
	host.AddAddr(hostLink, "10.0.2.15/24", "eth0")
	container := world.AddNamespace(containerPID)
	container.AddLink("lo", 1, false)

	traceDir := t.TempDir()
	prov, err := NewProvisioner(Config{TraceDir: traceDir, Hostname: "node-1"})
	require.NoError(t, err)

	return &fixture{
		world:     world,
		host:      host,
		container: container,
		handle:    &netns.Handle{PID: containerPID},
		prov:      prov,
		traceDir:  traceDir,
	}
}

func (f *fixture) ensure(t *testing.T) (*Result, error) {
	t.Helper()
	return f.prov.EnsureInterface(f.host, f.container, f.handle, netip.MustParseAddr("10.0.2.20"), hostLink)
}

func TestNames(t *testing.T) {
	prov, err := NewProvisioner(Config{Hostname: "node-1"})
	require.NoError(t, err)

	assert.Equal(t, "vespa", prov.InterfaceName())
	assert.Equal(t, "vespa-tmp-4242", prov.TempName(4242))
	assert.Len(t, prov.TempName(4242), 14)
	assert.NoError(t, prov.CheckNames(4242))

	// 7 digit pids overflow the kernel limit with the default prefix
	err = prov.CheckNames(4194304)
	assert.ErrorIs(t, err, types.ErrArgument)
}

func TestCheckNamesCollision(t *testing.T) {
	prov, err := NewProvisioner(Config{InterfaceName: "c7", TempPrefix: "c", Hostname: "h"})
	require.NoError(t, err)
	assert.ErrorIs(t, prov.CheckNames(7), types.ErrArgument)
}

func TestNewProvisionerRejectsLongName(t *testing.T) {
	_, err := NewProvisioner(Config{InterfaceName: "a-very-long-ifname", Hostname: "h"})
	assert.ErrorIs(t, err, types.ErrArgument)
}

func TestEnsureInterfaceCreatesAndMoves(t *testing.T) {
	f := newFixture(t)

	res, err := f.ensure(t)
	require.NoError(t, err)

	assert.True(t, res.Created)
	assert.Equal(t, "vespa", res.Interface.Name)
	assert.Equal(t, containerPID, res.Interface.NamespacePID)
	assert.Equal(t, GenerateMAC("node-1", "10.0.2.20").String(), res.MAC)

	// staged in the host, delivered to the container under the final name
	assert.Nil(t, f.host.Link("vespa-tmp-4242"))
	moved := f.container.Link("vespa")
	require.NotNil(t, moved)
	assert.Equal(t, "macvlan", moved.Kind)
	assert.Equal(t, hostLink, moved.Parent)
	assert.Equal(t, res.Interface.Index, moved.Index)

	assert.Equal(t, []string{
		"ns=1 link add vespa-tmp-4242 type macvlan mode bridge link 3 address " + res.MAC,
		"ns=1 link set vespa-tmp-4242 netns 4242 name vespa",
	}, f.world.Mutations)

	trace, err := os.ReadFile(filepath.Join(f.traceDir, "container_mac_address_10.0.2.20"))
	require.NoError(t, err)
	assert.Equal(t, res.MAC, string(trace))
}

func TestEnsureInterfaceIdempotent(t *testing.T) {
	f := newFixture(t)

	first, err := f.ensure(t)
	require.NoError(t, err)
	f.world.ResetMutations()

	second, err := f.ensure(t)
	require.NoError(t, err)

	assert.False(t, second.Created)
	assert.Equal(t, first.Interface.Index, second.Interface.Index)
	assert.Empty(t, f.world.Mutations)
}

func TestEnsureInterfaceRemovesLeftoverStaging(t *testing.T) {
	f := newFixture(t)
	f.host.AddLink("vespa-tmp-4242", 50, false)

	res, err := f.ensure(t)
	require.NoError(t, err)
	assert.True(t, res.Created)

	require.NotEmpty(t, f.world.Mutations)
	assert.Equal(t, "ns=1 link del vespa-tmp-4242", f.world.Mutations[0])
	_, stillThere := f.host.Links[50]
	assert.False(t, stillThere)
}

func TestEnsureInterfaceLeavesOtherContainersAlone(t *testing.T) {
	f := newFixture(t)
	f.host.AddLink("vespa-tmp-4243", 51, false)

	_, err := f.ensure(t)
	require.NoError(t, err)
	assert.NotNil(t, f.host.Link("vespa-tmp-4243"))
}

func TestEnsureInterfaceCreationFailure(t *testing.T) {
	f := newFixture(t)
	f.world.FailCreate = errors.New("operation not supported")

	_, err := f.ensure(t)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInterfaceCreationFailed)
	assert.Contains(t, err.Error(), "operation not supported")
	assert.Nil(t, f.container.Link("vespa"))
}

func TestEnsureInterfaceConcurrentModification(t *testing.T) {
	f := newFixture(t)
	f.world.VanishOnMove = true

	_, err := f.ensure(t)
	assert.ErrorIs(t, err, types.ErrConcurrentModification)
}

func TestEnsureInterfaceTraceFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	prov, err := NewProvisioner(Config{TraceDir: filepath.Join(f.traceDir, "missing", "dir"), Hostname: "node-1"})
	require.NoError(t, err)
	f.prov = prov

	res, err := f.ensure(t)
	require.NoError(t, err)
	assert.True(t, res.Created)
}
