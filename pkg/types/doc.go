/*
Package types defines the data model shared by every vespanet package.

The types here are plain values: snapshots of kernel state read fresh on each
invocation (HostAddress, InterfaceRecord, RouteRecord), the routing Mode
selected on the command line, and the ProvisionEntry written to the
diagnostics journal. Nothing in this package talks to the kernel.

# Addresses

Addresses are carried as net/netip values. A HostAddress knows its own
prefix length, so its containing network is simply the masked prefix:

	a := types.HostAddress{Addr: netip.MustParseAddr("10.0.2.15"), PrefixLen: 24, LinkIndex: 3}
	a.Network() // 10.0.2.0/24

# Routes

A RouteRecord with a zero-length (or unset) Dst is a default route. Only IPv4
routes are modelled.

# Errors

The error taxonomy is a set of sentinel errors. Callers wrap them with
fmt.Errorf("%w: ...") so the message carries the failing value while
errors.Is still identifies the category:

	if errors.Is(err, types.ErrNetworkMismatch) {
		// container IP is on a different device than the host default route
	}

Every error is fatal to an invocation; there is no retry taxonomy.
*/
package types
