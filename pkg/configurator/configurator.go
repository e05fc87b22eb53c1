package configurator

import (
	"fmt"
	"net/netip"
	"time"

	"github.com/cuemby/vespanet/pkg/address"
	"github.com/cuemby/vespanet/pkg/kernel"
	"github.com/cuemby/vespanet/pkg/log"
	"github.com/cuemby/vespanet/pkg/metrics"
	"github.com/cuemby/vespanet/pkg/netns"
	"github.com/cuemby/vespanet/pkg/provision"
	"github.com/cuemby/vespanet/pkg/route"
	"github.com/cuemby/vespanet/pkg/storage"
	"github.com/cuemby/vespanet/pkg/topology"
	"github.com/cuemby/vespanet/pkg/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Resolver opens the network namespace of a process
type Resolver interface {
	Resolve(pid int) (*netns.Handle, error)
}

// Request asks for the network of one container to be configured
type Request struct {
	PID  int
	IP   netip.Addr
	Mode types.Mode
}

// Validate checks the request before any namespace is touched
func (r Request) Validate() error {
	if r.PID <= 0 {
		return fmt.Errorf("%w: container pid must be positive, got %d", types.ErrArgument, r.PID)
	}
	if !r.IP.IsValid() || !r.IP.Is4() {
		return fmt.Errorf("%w: container ip %q is not an IPv4 address", types.ErrArgument, r.IP)
	}
	if _, err := types.ParseMode(string(r.Mode)); err != nil {
		return err
	}
	return nil
}

// Result describes what a run found and changed
type Result struct {
	RunID     string
	Match     types.HostAddress
	Interface types.InterfaceRecord
	MAC       string
	Created   bool
	Address   *address.Result
	Activated bool
	Route     *route.Result
}

// Changed reports whether the run modified any kernel state
func (r *Result) Changed() bool {
	return r.Created || r.Activated ||
		(r.Address != nil && r.Address.Changed()) ||
		(r.Route != nil && r.Route.Changed)
}

// Config holds configurator settings
type Config struct {
	// HostPID is a process known to live in the host network namespace
	HostPID   int
	Provision provision.Config
}

// Configurator gives a container a routable interface on the host network
type Configurator struct {
	hostPID     int
	resolver    Resolver
	opener      kernel.Opener
	provisioner *provision.Provisioner
	store       storage.Store
	logger      zerolog.Logger
}

// NewConfigurator creates a configurator. store may be nil to disable the journal.
func NewConfigurator(cfg Config, resolver Resolver, opener kernel.Opener, store storage.Store) (*Configurator, error) {
	if cfg.HostPID == 0 {
		cfg.HostPID = 1
	}
	provisioner, err := provision.NewProvisioner(cfg.Provision)
	if err != nil {
		return nil, err
	}
	return &Configurator{
		hostPID:     cfg.HostPID,
		resolver:    resolver,
		opener:      opener,
		provisioner: provisioner,
		store:       store,
		logger:      log.WithComponent("configurator"),
	}, nil
}

// Configure runs every step for req and records the outcome
func (c *Configurator) Configure(req Request) (*Result, error) {
	if req.Mode == "" {
		req.Mode = types.ModeDefault
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	res := &Result{RunID: uuid.New().String()}
	logger := log.WithContainer(log.WithRunID(c.logger, res.RunID), req.PID, req.IP)
	logger.Debug().Str("mode", string(req.Mode)).Msg("Configuring container network")

	err := c.configure(req, res, logger)

	outcome := "success"
	if err != nil {
		outcome = "failure"
		logger.Error().Err(err).Msg("Container network configuration failed")
	} else {
		logger.Debug().Bool("changed", res.Changed()).Msg("Container network configured")
	}
	metrics.InvocationsTotal.WithLabelValues(string(req.Mode), outcome).Inc()
	c.record(req, res, err, logger)

	if err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Configurator) configure(req Request, res *Result, logger zerolog.Logger) error {
	if err := c.provisioner.CheckNames(req.PID); err != nil {
		return err
	}

	// Resolve namespaces
	timer := metrics.NewTimer()
	hostHandle, err := c.resolver.Resolve(c.hostPID)
	if err != nil {
		return fmt.Errorf("host namespace: %w", err)
	}
	defer hostHandle.Close()

	containerHandle, err := c.resolver.Resolve(req.PID)
	if err != nil {
		return fmt.Errorf("container namespace: %w", err)
	}
	defer containerHandle.Close()

	hostNs, err := c.opener.Open(hostHandle)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", hostHandle, err)
	}
	defer hostNs.Close()

	containerNs, err := c.opener.Open(containerHandle)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", containerHandle, err)
	}
	defer containerNs.Close()
	timer.ObserveDurationVec(metrics.StepDuration, metrics.StepResolveNamespaces)

	// Match network
	timer = metrics.NewTimer()
	hostAddrs, err := hostNs.Addrs(0)
	if err != nil {
		return fmt.Errorf("failed to list host addresses: %w", err)
	}
	match, err := topology.BestMatch(req.IP, hostAddrs)
	if err != nil {
		return err
	}
	res.Match = match
	timer.ObserveDurationVec(metrics.StepDuration, metrics.StepMatchNetwork)
	logger.Debug().
		Str("host_address", match.Prefix().String()).
		Int("host_link_index", match.LinkIndex).
		Msg("Matched host network")

	// Provision interface
	timer = metrics.NewTimer()
	prov, err := c.provisioner.EnsureInterface(hostNs, containerNs, containerHandle, req.IP, match.LinkIndex)
	if err != nil {
		return err
	}
	res.Interface = prov.Interface
	res.MAC = prov.MAC
	res.Created = prov.Created
	if prov.Created {
		metrics.LinksCreated.Inc()
	}
	timer.ObserveDurationVec(metrics.StepDuration, metrics.StepProvisionInterface)

	// Reconcile address
	timer = metrics.NewTimer()
	addr, err := address.Reconcile(containerNs, res.Interface.Index, netip.PrefixFrom(req.IP, match.PrefixLen))
	if err != nil {
		return err
	}
	res.Address = addr
	metrics.AddressesRemoved.Add(float64(len(addr.Removed)))
	timer.ObserveDurationVec(metrics.StepDuration, metrics.StepReconcileAddress)

	// Activate interface
	timer = metrics.NewTimer()
	if !res.Interface.Up {
		if err := containerNs.LinkSetUp(res.Interface.Index); err != nil {
			return fmt.Errorf("failed to bring up %s: %w", res.Interface.Name, err)
		}
		res.Activated = true
		logger.Info().Str("interface", res.Interface.Name).Msg("Interface up")
	}
	timer.ObserveDurationVec(metrics.StepDuration, metrics.StepActivateInterface)

	// Install route
	timer = metrics.NewTimer()
	rt, err := route.Install(req.Mode, hostNs, containerNs, match, res.Interface.Index)
	if err != nil {
		return err
	}
	res.Route = rt
	timer.ObserveDurationVec(metrics.StepDuration, metrics.StepInstallRoute)

	return nil
}

// record writes the run to the journal; failures only warn
func (c *Configurator) record(req Request, res *Result, runErr error, logger zerolog.Logger) {
	if c.store == nil {
		return
	}

	entry := &types.ProvisionEntry{
		RunID:          res.RunID,
		ContainerIP:    req.IP.String(),
		ContainerPID:   req.PID,
		MAC:            res.MAC,
		Mode:           req.Mode,
		HostLinkIndex:  res.Match.LinkIndex,
		InterfaceIndex: res.Interface.Index,
		Created:        res.Created,
		Timestamp:      time.Now().UTC(),
	}
	if res.Match.Addr.IsValid() {
		entry.HostNetwork = res.Match.Network().String()
	}
	if res.Route != nil && res.Route.Route != nil && res.Route.Route.Gateway.IsValid() {
		entry.Gateway = res.Route.Route.Gateway.String()
	}
	if runErr != nil {
		entry.Error = runErr.Error()
	}

	if err := c.store.RecordProvision(entry); err != nil {
		logger.Warn().Err(err).Msg("Failed to record provision in journal")
	}
}
