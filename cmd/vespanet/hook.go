package main

import (
	"github.com/cuemby/vespanet/pkg/hook"
	"github.com/spf13/cobra"
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Run as an OCI runtime hook",
	Long: `Configure the container described by the OCI state on stdin.

Install as a createRuntime or poststart hook. The container address is taken
from --ip, or from the vespanet.ip annotation of the container.`,
	Example: `  # In config.json
  "hooks": {"createRuntime": [{"path": "/usr/local/bin/vespanet", "args": ["vespanet", "hook", "--vm"]}]}`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := modeFlags(cmd)
		if err != nil {
			return err
		}
		ip, _ := cmd.Flags().GetString("ip")

		state, err := hook.ParseState(cmd.InOrStdin())
		if err != nil {
			return err
		}
		req, err := hook.RequestFrom(state, ip, mode)
		if err != nil {
			return err
		}
		return configure(req)
	},
}

func init() {
	addModeFlags(hookCmd)
	hookCmd.Flags().String("ip", "", "Container IPv4 address (default: vespanet.ip annotation)")
}
