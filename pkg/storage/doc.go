/*
Package storage keeps the provisioning journal in a BoltDB file.

Each successful or failed run is recorded under the container IP in the
"provisions" bucket as JSON, so the latest run for an address replaces the
previous one. The journal is opt-in (journalPath in the configuration) and
is only ever read by the "vespanet journal" command:

	$ vespanet journal
	IP          PID   MODE     MAC                CREATED  GATEWAY   ERROR
	10.0.2.20   4242  default  0a:1b:2c:3d:4e:5f  true     10.0.2.2

Several vespanet processes may run at once for different containers. BoltDB
takes an exclusive file lock, so Open waits a short while for the lock and
then gives up; callers treat a journal failure as non-fatal.
*/
package storage
