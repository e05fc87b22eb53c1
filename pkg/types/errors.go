package types

import "errors"

var (
	// ErrArgument reports bad or missing command line input
	ErrArgument = errors.New("invalid argument")

	// ErrNamespaceNotFound reports a process without a discoverable network namespace
	ErrNamespaceNotFound = errors.New("network namespace not found")

	// ErrNoMatchingNetwork reports that no host network contains the container address
	ErrNoMatchingNetwork = errors.New("no matching host network")

	// ErrInterfaceCreationFailed reports a kernel error while creating the staging link
	ErrInterfaceCreationFailed = errors.New("interface creation failed")

	// ErrConcurrentModification reports a moved link that vanished from its destination
	ErrConcurrentModification = errors.New("concurrent modification to network interfaces")

	// ErrAmbiguousDefaultRoute reports a host without exactly one default route
	ErrAmbiguousDefaultRoute = errors.New("ambiguous host default route")

	// ErrNetworkMismatch reports a container address not reachable through the host's default route device
	ErrNetworkMismatch = errors.New("container network does not match host default route")
)
