package hook

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/netip"
	"os"
	"path/filepath"

	"github.com/cuemby/vespanet/pkg/configurator"
	"github.com/cuemby/vespanet/pkg/types"
	specs "github.com/opencontainers/runtime-spec/specs-go"
)

// ParseState decodes the container state an OCI runtime passes to hooks on stdin
func ParseState(r io.Reader) (*specs.State, error) {
	var state specs.State
	if err := json.NewDecoder(r).Decode(&state); err != nil {
		return nil, fmt.Errorf("%w: failed to decode container state: %v", types.ErrArgument, err)
	}
	return &state, nil
}

// RequestFrom builds a configure request from a hook state. The address is
// taken from ip when not empty, else from the vespanet.ip annotation of the
// state, else from the same annotation in the bundle's config.json.
func RequestFrom(state *specs.State, ip string, mode types.Mode) (configurator.Request, error) {
	if state.Pid <= 0 {
		return configurator.Request{}, fmt.Errorf("%w: container %s has no pid in its state (status %s)",
			types.ErrArgument, state.ID, state.Status)
	}

	if ip == "" {
		found, err := annotatedIP(state)
		if err != nil {
			return configurator.Request{}, err
		}
		ip = found
	}
	if ip == "" {
		return configurator.Request{}, fmt.Errorf("%w: no ip given and container %s has no %s annotation",
			types.ErrArgument, state.ID, types.IPAnnotation)
	}

	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return configurator.Request{}, fmt.Errorf("%w: invalid container ip %q: %v", types.ErrArgument, ip, err)
	}

	return configurator.Request{PID: state.Pid, IP: addr, Mode: mode}, nil
}

func annotatedIP(state *specs.State) (string, error) {
	if ip, ok := state.Annotations[types.IPAnnotation]; ok {
		return ip, nil
	}
	if state.Bundle == "" {
		return "", nil
	}

	data, err := os.ReadFile(filepath.Join(state.Bundle, "config.json"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read bundle config: %w", err)
	}

	var spec specs.Spec
	if err := json.Unmarshal(data, &spec); err != nil {
		return "", fmt.Errorf("failed to parse bundle config: %w", err)
	}
	return spec.Annotations[types.IPAnnotation], nil
}
