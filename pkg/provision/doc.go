/*
Package provision creates the container's network interface.

The interface is a bridge-mode macvlan on the host device chosen by the
topology matcher. It has to be created in the host namespace, so it shares
the host's lifetime rather than that of whatever process runs vespanet, and is
then moved into the container namespace. While it sits in the host namespace
it carries a pid-qualified staging name (vespa-tmp-<pid>); the move renames it
to the final name (vespa) in the same kernel request.

EnsureInterface is safe to re-run:

 1. a staging link left behind by an earlier failed run for the same pid is deleted
 2. if the container already has the final interface, it is returned as is
 3. otherwise the MAC is derived, the staging link created and moved
 4. the move is verified by looking the interface up in the container; a
    missing interface means someone else is changing links concurrently

MAC addresses are derived from SHA-1(hostname || ip), so a container that is
restarted with the same IP on the same host gets the same MAC. The MAC is
also written to /tmp/container_mac_address_<ip> for operators; that file is
never read back.
*/
package provision
