package main

import (
	"fmt"
	"net/netip"
	"strconv"

	"github.com/cuemby/vespanet/pkg/configurator"
	"github.com/cuemby/vespanet/pkg/kernel"
	"github.com/cuemby/vespanet/pkg/log"
	"github.com/cuemby/vespanet/pkg/metrics"
	"github.com/cuemby/vespanet/pkg/netns"
	"github.com/cuemby/vespanet/pkg/storage"
	"github.com/cuemby/vespanet/pkg/types"
)

// parseArgs validates the positional pid and ip arguments
func parseArgs(pidArg, ipArg string) (configurator.Request, error) {
	pid, err := strconv.Atoi(pidArg)
	if err != nil || pid <= 0 {
		return configurator.Request{}, fmt.Errorf("%w: container pid must be a positive integer, got %q", types.ErrArgument, pidArg)
	}

	ip, err := netip.ParseAddr(ipArg)
	if err != nil {
		return configurator.Request{}, fmt.Errorf("%w: invalid container ip %q: %v", types.ErrArgument, ipArg, err)
	}
	if !ip.Is4() {
		return configurator.Request{}, fmt.Errorf("%w: container ip %s is not IPv4", types.ErrArgument, ip)
	}

	return configurator.Request{PID: pid, IP: ip}, nil
}

// configure runs one configuration with the loaded settings
func configure(req configurator.Request) error {
	var store storage.Store
	if cfg.JournalPath != "" {
		bolt, err := storage.NewBoltStore(cfg.JournalPath)
		if err != nil {
			logger := log.WithComponent("journal")
			logger.Warn().Err(err).Msg("Journal unavailable, continuing without it")
		} else {
			defer bolt.Close()
			store = bolt
		}
	}

	conf, err := configurator.NewConfigurator(configurator.Config{
		HostPID:   cfg.HostPID,
		Provision: cfg.ProvisionConfig(),
	}, netns.NewResolver(cfg.ProcRoot, cfg.NetnsDir), kernel.NewNetlinkOpener(), store)
	if err != nil {
		return err
	}

	_, err = conf.Configure(req)
	writeMetrics()
	return err
}

func writeMetrics() {
	if cfg.MetricsFile == "" {
		return
	}
	if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
		logger := log.WithComponent("metrics")
		logger.Warn().Err(err).Str("path", cfg.MetricsFile).Msg("Failed to write metrics file")
	}
}
