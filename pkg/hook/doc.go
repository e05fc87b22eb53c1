// Package hook lets vespanet run as an OCI runtime hook (createRuntime or
// poststart). The runtime writes the container state to the hook's stdin;
// the pid comes from that state and the address from a flag or from the
// vespanet.ip annotation.
package hook
