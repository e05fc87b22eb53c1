/*
Package configurator runs the steps that give one container a routable
interface on the host network:

	ResolveNamespaces -> MatchNetwork -> ProvisionInterface ->
	ReconcileAddress -> ActivateInterface -> InstallRoute

Each step checks the current kernel state before changing it, so running
the configurator again for the same container and IP converges without
touching anything. There is no rollback; a failed run leaves at most a
staging link in the host namespace, which the next run for that pid removes.

Every run gets a run id (a UUID) that appears in the log lines of the run
and in its journal entry.
*/
package configurator
