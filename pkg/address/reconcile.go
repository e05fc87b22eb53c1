package address

import (
	"fmt"
	"net/netip"

	"github.com/cuemby/vespanet/pkg/kernel"
	"github.com/cuemby/vespanet/pkg/log"
	"github.com/cuemby/vespanet/pkg/types"
)

// Result summarizes what Reconcile changed
type Result struct {
	Kept    bool
	Added   bool
	Removed []netip.Prefix
}

// Changed reports whether any address was added or removed
func (r *Result) Changed() bool {
	return r.Added || len(r.Removed) > 0
}

// Reconcile leaves exactly want on the link: matching addresses are kept,
// every other IPv4 address is removed, and want is added if it was missing.
// An address that shows up between the listing and the add is accepted.
func Reconcile(ns kernel.Namespace, linkIndex int, want netip.Prefix) (*Result, error) {
	if !want.Addr().Is4() {
		return nil, fmt.Errorf("%w: %s is not an IPv4 prefix", types.ErrArgument, want)
	}
	logger := log.WithComponent("address").With().
		Int("link_index", linkIndex).
		Str("address", want.String()).
		Logger()

	existing, err := ns.Addrs(linkIndex)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for _, a := range existing {
		if a.LinkIndex != linkIndex {
			continue
		}
		if a.Addr == want.Addr() && a.PrefixLen == want.Bits() {
			result.Kept = true
			continue
		}

		stale := a.Prefix()
		logger.Info().Str("stale", stale.String()).Msg("Deleting old ip address")
		if err := ns.AddrDel(linkIndex, stale); err != nil {
			return nil, err
		}
		result.Removed = append(result.Removed, stale)
	}

	if result.Kept {
		logger.Debug().Msg("Address already configured")
		return result, nil
	}

	if err := ns.AddrAdd(linkIndex, want); err != nil {
		if kernel.IsExist(err) {
			logger.Debug().Msg("Address added concurrently")
			return result, nil
		}
		return nil, fmt.Errorf("failed to add address %s to link %d: %w", want, linkIndex, err)
	}
	result.Added = true
	logger.Info().Msg("Added address")

	return result, nil
}
