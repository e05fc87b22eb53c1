package route

import (
	"fmt"
	"strings"

	"github.com/cuemby/vespanet/pkg/kernel"
	"github.com/cuemby/vespanet/pkg/log"
	"github.com/cuemby/vespanet/pkg/types"
)

// Result describes the route outcome of one run
type Result struct {
	// Route is the desired container default route, nil in local mode
	Route   *types.RouteRecord
	Changed bool
}

// Desired computes the container default route for mode.
//
// In vm mode the gateway is the host's own address on the matched network.
// In default mode the host must have exactly one default route, leaving
// through the matched host link, and its gateway is copied.
// Local mode has no route and returns nil.
func Desired(mode types.Mode, hostNs kernel.Namespace, match types.HostAddress, containerLinkIndex int) (*types.RouteRecord, error) {
	switch mode {
	case types.ModeLocal:
		return nil, nil

	case types.ModeVM:
		return &types.RouteRecord{
			Dst:       types.DefaultDst,
			Gateway:   match.Addr,
			LinkIndex: containerLinkIndex,
		}, nil

	case types.ModeDefault:
		routes, err := hostNs.DefaultRoutes()
		if err != nil {
			return nil, fmt.Errorf("failed to list host default routes: %w", err)
		}
		if len(routes) != 1 {
			return nil, fmt.Errorf("%w: expected exactly one default route on the host, found %d: [%s]",
				types.ErrAmbiguousDefaultRoute, len(routes), join(routes))
		}

		host := routes[0]
		if host.LinkIndex != match.LinkIndex {
			return nil, fmt.Errorf("%w: container ip is on the network of %s, but the host default route %s uses another device",
				types.ErrNetworkMismatch, match, host)
		}
		if !host.Gateway.IsValid() {
			return nil, fmt.Errorf("%w: host default route %s has no gateway", types.ErrAmbiguousDefaultRoute, host)
		}
		return &types.RouteRecord{
			Dst:       types.DefaultDst,
			Gateway:   host.Gateway,
			LinkIndex: containerLinkIndex,
		}, nil

	default:
		return nil, fmt.Errorf("%w: unknown mode %q", types.ErrArgument, mode)
	}
}

// Install makes the container's default route equal the one Desired computes.
// When the container already has exactly that single default route nothing is
// written, otherwise the route is replaced.
func Install(mode types.Mode, hostNs, containerNs kernel.Namespace, match types.HostAddress, containerLinkIndex int) (*Result, error) {
	logger := log.WithComponent("route").With().Str("mode", string(mode)).Logger()

	want, err := Desired(mode, hostNs, match, containerLinkIndex)
	if err != nil {
		return nil, err
	}
	if want == nil {
		logger.Debug().Msg("Local mode, no route installed")
		return &Result{}, nil
	}

	current, err := containerNs.DefaultRoutes()
	if err != nil {
		return nil, fmt.Errorf("failed to list container default routes: %w", err)
	}
	if len(current) == 1 && current[0].Gateway == want.Gateway && current[0].LinkIndex == want.LinkIndex {
		logger.Debug().Str("route", want.String()).Msg("Default route already present")
		return &Result{Route: want}, nil
	}

	if err := containerNs.RouteReplace(*want); err != nil {
		return nil, fmt.Errorf("failed to install route %s: %w", want, err)
	}
	logger.Info().Str("route", want.String()).Msg("Installed default route")

	return &Result{Route: want, Changed: true}, nil
}

func join(routes []types.RouteRecord) string {
	parts := make([]string, len(routes))
	for i, r := range routes {
		parts[i] = r.String()
	}
	return strings.Join(parts, ", ")
}
