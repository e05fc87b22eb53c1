//go:build !linux

package kernel

import (
	"errors"

	"github.com/cuemby/vespanet/pkg/netns"
)

// NetlinkOpener is only functional on linux
type NetlinkOpener struct{}

// NewNetlinkOpener returns the kernel-backed Opener
func NewNetlinkOpener() *NetlinkOpener {
	return &NetlinkOpener{}
}

// Open always fails outside linux
func (o *NetlinkOpener) Open(h *netns.Handle) (Namespace, error) {
	return nil, errors.New("network namespaces are only supported on linux")
}
