/*
Package metrics provides Prometheus instrumentation for vespanet.

vespanet runs once per container and exits, so there is nothing to scrape.
Metrics are kept in a package registry and, when a metrics file is
configured, dumped with WriteTextfile for the node_exporter textfile
collector to pick up:

	vespanet --metrics-file /var/lib/node_exporter/vespanet.prom 4242 10.0.2.20

# Metrics

	vespanet_step_duration_seconds{step}     histogram per configuration step
	vespanet_invocations_total{mode,result}  runs by route mode and success/failure
	vespanet_links_created_total             container interfaces created
	vespanet_addresses_removed_total         stale addresses removed

Timer wraps a start time for the common measure-then-observe pattern:

	timer := metrics.NewTimer()
	err := doStep()
	timer.ObserveDurationVec(metrics.StepDuration, metrics.StepProvisionInterface)
*/
package metrics
