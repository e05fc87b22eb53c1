package runtime

import (
	"context"
	"fmt"
	"net/netip"
	"time"

	"github.com/containerd/containerd"
	"github.com/containerd/containerd/errdefs"
	"github.com/containerd/containerd/namespaces"
	"github.com/cuemby/vespanet/pkg/types"
)

const (
	// DefaultNamespace is the containerd namespace looked up when none is configured
	DefaultNamespace = "default"

	// DefaultSocketPath is the default containerd socket
	DefaultSocketPath = "/run/containerd/containerd.sock"

	connectTimeout = 5 * time.Second
)

// Task is the running task of a containerd container
type Task struct {
	ContainerID string
	PID         int
	Status      containerd.ProcessStatus

	// IP comes from the vespanet.ip annotation of the container spec, if set
	IP netip.Addr
}

// ContainerdRuntime looks up containers through containerd
type ContainerdRuntime struct {
	client    *containerd.Client
	namespace string
}

// NewContainerdRuntime creates a new containerd runtime client
func NewContainerdRuntime(socketPath, namespace string) (*ContainerdRuntime, error) {
	if socketPath == "" {
		socketPath = DefaultSocketPath
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}

	client, err := containerd.New(socketPath, containerd.WithTimeout(connectTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to containerd: %w", err)
	}

	return &ContainerdRuntime{
		client:    client,
		namespace: namespace,
	}, nil
}

// Close closes the containerd client connection
func (r *ContainerdRuntime) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// LookupTask returns the task of containerID. The task must be running or
// paused, since only then does its pid own a network namespace.
func (r *ContainerdRuntime) LookupTask(ctx context.Context, containerID string) (*Task, error) {
	ctx = namespaces.WithNamespace(ctx, r.namespace)

	container, err := r.client.LoadContainer(ctx, containerID)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return nil, fmt.Errorf("%w: no container %s in namespace %s", types.ErrNamespaceNotFound, containerID, r.namespace)
		}
		return nil, fmt.Errorf("failed to load container %s: %w", containerID, err)
	}

	task, err := container.Task(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: container %s has no task: %v", types.ErrNamespaceNotFound, containerID, err)
	}

	status, err := task.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get task status: %w", err)
	}
	switch status.Status {
	case containerd.Running, containerd.Paused:
	default:
		return nil, fmt.Errorf("%w: task of container %s is %s", types.ErrNamespaceNotFound, containerID, status.Status)
	}

	result := &Task{
		ContainerID: containerID,
		PID:         int(task.Pid()),
		Status:      status.Status,
	}

	spec, err := container.Spec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load spec of container %s: %w", containerID, err)
	}
	if raw, ok := spec.Annotations[types.IPAnnotation]; ok {
		ip, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: annotation %s=%q: %v", types.ErrArgument, types.IPAnnotation, raw, err)
		}
		result.IP = ip
	}

	return result, nil
}

// ListContainers returns all container ids in the configured namespace
func (r *ContainerdRuntime) ListContainers(ctx context.Context) ([]string, error) {
	ctx = namespaces.WithNamespace(ctx, r.namespace)

	containers, err := r.client.Containers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	ids := make([]string, 0, len(containers))
	for _, c := range containers {
		ids = append(ids, c.ID())
	}

	return ids, nil
}
