/*
Package kernel is the netlink capability the rest of vespanet configures
networking through.

The Namespace interface covers exactly the kernel operations a container
setup needs: IPv4 address and default route enumeration, link lookup by
name, macvlan creation, moving a link into another namespace, link up,
address add/remove and route replace. Opener turns a netns.Handle into a
Namespace.

# Implementations

NetlinkOpener talks to the kernel through vishvananda/netlink. Each
Namespace owns a netlink.Handle created with NewHandleAt, so requests go to
the target namespace without moving the calling thread. MoveLink builds its
RTM_SETLINK by hand with the nl package because the move and the rename must
travel in one message:

	host namespace                      container namespace
	vespa-tmp-4242 (idx 17)  ──move──▶  vespa (idx 2)

The kerneltest package provides World, an in-memory Opener that records
every mutation. All component tests run against it.

# Errors

Mutations rejected because the object already exists return an error
wrapping ErrExists; test it with IsExist. Every other kernel error is
returned wrapped with the operation and its arguments.
*/
package kernel
