package topology

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/cuemby/vespanet/pkg/types"
)

// Candidates returns the IPv4 host addresses whose network contains target,
// in input order
func Candidates(target netip.Addr, addrs []types.HostAddress) []types.HostAddress {
	var matches []types.HostAddress
	for _, a := range addrs {
		if !a.Addr.Is4() {
			continue
		}
		if a.Network().Contains(target) {
			matches = append(matches, a)
		}
	}
	return matches
}

// BestMatch selects the host address the container should be attached
// through. Among the addresses whose network contains target, the one with
// the smallest prefix length wins; on equal prefix lengths the first one
// seen is kept.
func BestMatch(target netip.Addr, addrs []types.HostAddress) (types.HostAddress, error) {
	if !target.Is4() {
		return types.HostAddress{}, fmt.Errorf("%w: %s is not an IPv4 address", types.ErrArgument, target)
	}

	var best types.HostAddress
	found := false
	for _, a := range Candidates(target, addrs) {
		if !found || a.PrefixLen < best.PrefixLen {
			best = a
			found = true
		}
	}

	if !found {
		return types.HostAddress{}, fmt.Errorf("%w: no matching ip address for %s, candidates are on networks %s",
			types.ErrNoMatchingNetwork, target, describeNetworks(addrs))
	}
	return best, nil
}

func describeNetworks(addrs []types.HostAddress) string {
	if len(addrs) == 0 {
		return "(none)"
	}
	networks := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if !a.Addr.Is4() {
			continue
		}
		networks = append(networks, a.Network().String())
	}
	return strings.Join(networks, ", ")
}
