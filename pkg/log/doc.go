/*
Package log provides structured logging for vespanet using zerolog.

The log package wraps the zerolog library with a single global logger,
configurable level and format, and helpers that attach the context fields
every vespanet log line needs: the component, the run id of the invocation,
and the container pid/ip being configured.

# Architecture

	┌──────────────────── LOGGING SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │            Global Logger                    │          │
	│  │  - Zerolog instance, stderr by default      │          │
	│  │  - Initialized via log.Init()               │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │         Context Loggers                     │          │
	│  │  - WithComponent("provision")               │          │
	│  │  - WithRunID(l, "6f1c...")                  │          │
	│  │  - WithContainer(l, 4242, 10.0.2.20)        │          │
	│  └────────────────────────────────────────────┘          │
	└────────────────────────────────────────────────────────────┘

stdout is never used: a successful invocation must print nothing there, so
the default output is stderr even before Init is called.

# Usage

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
	})

	logger := log.WithContainer(log.WithRunID(log.WithComponent("configurator"), runID), pid, ip)
	logger.Info().Int("link_index", idx).Msg("Interface moved into container namespace")

Levels:
  - Debug: every state machine step and every kernel read
  - Info: every kernel mutation (link created/moved, address added/removed, route replaced)
  - Warn: non-fatal side channel failures (trace file, journal)
  - Error: the fatal error that ends an invocation
*/
package log
