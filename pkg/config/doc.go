/*
Package config loads the vespanet configuration file.

The file is YAML and every field is optional:

	procRoot: /host/proc
	netnsDir: /var/run/netns
	hostPID: 1
	interfaceName: vespa
	tempInterfacePrefix: vespa-tmp-
	traceDir: /tmp
	journalPath: /var/lib/vespanet/journal.db
	metricsFile: /var/lib/node_exporter/textfile/vespanet.prom
	log:
	  level: info
	  json: false
	containerd:
	  address: /run/containerd/containerd.sock
	  namespace: default

Command line flags override the file.
*/
package config
