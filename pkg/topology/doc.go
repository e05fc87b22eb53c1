/*
Package topology picks the host network a container address belongs to.

Every IPv4 address configured on the host defines a network (the address
masked by its own prefix length). BestMatch keeps the addresses whose
network contains the container address and returns the one with the
smallest prefix length, which is the broadest matching network, not the
most specific one. Host devices are chosen through this rule, so it must not
be "fixed" into longest-prefix matching:

	10.0.2.15/24    dev 3   ─┐
	192.168.1.5/16  dev 5    ├─ target 192.168.1.200 → dev 5
	                         └─ target 10.0.2.20     → dev 3

When nothing matches, the error lists every candidate network considered.
*/
package topology
