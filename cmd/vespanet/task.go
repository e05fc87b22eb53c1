package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cuemby/vespanet/pkg/runtime"
	"github.com/cuemby/vespanet/pkg/types"
	"github.com/spf13/cobra"
)

var taskCmd = &cobra.Command{
	Use:   "task [--local | --vm] <container-id> [container-ip]",
	Short: "Configure a containerd container by id",
	Long: `Look up the running task of a containerd container and configure its network.

The address defaults to the vespanet.ip annotation of the container spec.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := modeFlags(cmd)
		if err != nil {
			return err
		}
		address, _ := cmd.Flags().GetString("address")
		namespace, _ := cmd.Flags().GetString("namespace")
		if address == "" {
			address = cfg.Containerd.Address
		}
		if namespace == "" {
			namespace = cfg.Containerd.Namespace
		}

		rt, err := runtime.NewContainerdRuntime(address, namespace)
		if err != nil {
			return err
		}
		defer rt.Close()

		task, err := rt.LookupTask(cmd.Context(), args[0])
		if err != nil {
			return withKnownContainers(cmd.Context(), rt, err)
		}

		ip := task.IP.String()
		if len(args) == 2 {
			ip = args[1]
		} else if !task.IP.IsValid() {
			return fmt.Errorf("%w: no ip given and container %s has no %s annotation",
				types.ErrArgument, args[0], types.IPAnnotation)
		}

		req, err := parseArgs(fmt.Sprint(task.PID), ip)
		if err != nil {
			return err
		}
		req.Mode = mode
		return configure(req)
	},
}

func init() {
	addModeFlags(taskCmd)
	taskCmd.Flags().String("address", "", "containerd socket (default from config)")
	taskCmd.Flags().String("namespace", "", "containerd namespace (default from config)")
}

type containerLister interface {
	ListContainers(ctx context.Context) ([]string, error)
}

// withKnownContainers adds the container ids of the namespace to a failed lookup
func withKnownContainers(ctx context.Context, lister containerLister, err error) error {
	if !errors.Is(err, types.ErrNamespaceNotFound) {
		return err
	}
	ids, listErr := lister.ListContainers(ctx)
	if listErr != nil || len(ids) == 0 {
		return err
	}
	return fmt.Errorf("%w (known containers: %s)", err, strings.Join(ids, ", "))
}
