/*
Package runtime finds container processes through containerd.

The "vespanet task" command takes a containerd container id instead of a
pid. LookupTask loads the container in the configured containerd namespace,
checks that its task is running (or paused) and returns the task pid, plus
the container address when the spec carries a vespanet.ip annotation:

	rt, err := runtime.NewContainerdRuntime("/run/containerd/containerd.sock", "k8s.io")
	if err != nil {
		return err
	}
	defer rt.Close()

	task, err := rt.LookupTask(ctx, "web-1")
*/
package runtime
