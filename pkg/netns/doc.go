/*
Package netns resolves process ids to network namespace handles.

For every pid it is asked about, the Resolver makes the namespace
addressable by name the way iproute2 expects: it ensures the netns
directory exists and that <netnsDir>/<pid> is a symlink to
<procRoot>/<pid>/ns/net, then opens the namespace through that link with
vishvananda/netns. Both filesystem steps are create-if-absent, so resolving
the same pid twice changes nothing and resolving different pids
concurrently never interferes.

The symlink outlives the invocation. Namespace lifetime belongs to the
kernel and the owning process; Handle.Close only releases the descriptor.

procRoot is configurable because the tool is usually run from a container
that sees the host's /proc mounted elsewhere (for example /host/proc).
*/
package netns
