/*
Package route installs the container's default route.

Three modes are supported:

	default  copy the host gateway; the host must have a single default route
	         leaving through the device the container is attached to
	vm       route through the host's own address on the matched network
	local    no route

The installer is idempotent: it only writes when the container's default
routes differ from the single desired one.
*/
package route
