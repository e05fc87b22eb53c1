package netns

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cuemby/vespanet/pkg/log"
	"github.com/cuemby/vespanet/pkg/types"
	"github.com/rs/zerolog"
	vnetns "github.com/vishvananda/netns"
)

const (
	// DefaultProcRoot is where process namespace handles are looked up
	DefaultProcRoot = "/proc"

	// DefaultNetnsDir is the well-known directory iproute2 uses for named namespaces
	DefaultNetnsDir = "/var/run/netns"
)

// Handle is an open reference to the network namespace of a process
type Handle struct {
	PID  int
	Path string

	ns     vnetns.NsHandle
	opened bool
}

// NewHandle wraps an already open namespace handle
func NewHandle(pid int, path string, ns vnetns.NsHandle) *Handle {
	return &Handle{PID: pid, Path: path, ns: ns, opened: true}
}

// NsHandle returns the underlying namespace handle
func (h *Handle) NsHandle() vnetns.NsHandle {
	if !h.opened {
		return vnetns.None()
	}
	return h.ns
}

// Fd returns the namespace file descriptor, or -1 when the handle is not open
func (h *Handle) Fd() int {
	return int(h.NsHandle())
}

// Close releases the namespace file descriptor. The namespace itself and
// its symlink are left in place.
func (h *Handle) Close() error {
	if !h.opened {
		return nil
	}
	h.opened = false
	return h.ns.Close()
}

func (h *Handle) String() string {
	return fmt.Sprintf("netns(pid=%d, path=%s)", h.PID, h.Path)
}

// Resolver turns process ids into namespace handles, keeping a symlink per
// pid under the netns directory so the namespace is addressable by name.
type Resolver struct {
	procRoot string
	netnsDir string
	logger   zerolog.Logger
}

// NewResolver creates a resolver. Empty arguments select the defaults.
func NewResolver(procRoot, netnsDir string) *Resolver {
	if procRoot == "" {
		procRoot = DefaultProcRoot
	}
	if netnsDir == "" {
		netnsDir = DefaultNetnsDir
	}
	return &Resolver{
		procRoot: procRoot,
		netnsDir: netnsDir,
		logger:   log.WithComponent("netns"),
	}
}

// ProcPath returns the kernel namespace handle path for pid
func (r *Resolver) ProcPath(pid int) string {
	return filepath.Join(r.procRoot, strconv.Itoa(pid), "ns", "net")
}

// LinkPath returns the well-known symlink path for pid
func (r *Resolver) LinkPath(pid int) string {
	return filepath.Join(r.netnsDir, strconv.Itoa(pid))
}

// Resolve returns an open handle on the network namespace of pid
func (r *Resolver) Resolve(pid int) (*Handle, error) {
	procPath := r.ProcPath(pid)
	if _, err := os.Stat(procPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: no such net namespace %s: %v", types.ErrNamespaceNotFound, procPath, err)
		}
		return nil, fmt.Errorf("failed to inspect %s: %w", procPath, err)
	}

	if err := os.MkdirAll(r.netnsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create netns directory %s: %w", r.netnsDir, err)
	}

	linkPath := r.LinkPath(pid)
	if err := ensureSymlink(procPath, linkPath); err != nil {
		return nil, fmt.Errorf("failed to link %s to %s: %w", linkPath, procPath, err)
	}

	ns, err := vnetns.GetFromPath(linkPath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open %s: %v", types.ErrNamespaceNotFound, linkPath, err)
	}

	r.logger.Debug().
		Int("pid", pid).
		Str("path", linkPath).
		Msg("Resolved network namespace")

	return NewHandle(pid, linkPath, ns), nil
}

// ensureSymlink creates linkPath -> target unless some link is already there
func ensureSymlink(target, linkPath string) error {
	if fi, err := os.Lstat(linkPath); err == nil {
		if fi.Mode()&os.ModeSymlink != 0 {
			return nil
		}
		return fmt.Errorf("%s exists and is not a symlink", linkPath)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	if err := os.Symlink(target, linkPath); err != nil && !errors.Is(err, fs.ErrExist) {
		return err
	}
	return nil
}
