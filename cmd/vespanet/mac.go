package main

import (
	"fmt"
	"net/netip"

	"github.com/cuemby/vespanet/pkg/provision"
	"github.com/cuemby/vespanet/pkg/types"
	"github.com/spf13/cobra"
)

var macCmd = &cobra.Command{
	Use:   "mac <hostname> <container-ip>",
	Short: "Print the MAC address a container gets on a host",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ip, err := netip.ParseAddr(args[1])
		if err != nil || !ip.Is4() {
			return fmt.Errorf("%w: invalid container ip %q", types.ErrArgument, args[1])
		}
		fmt.Fprintln(cmd.OutOrStdout(), provision.GenerateMAC(args[0], ip.String()))
		return nil
	},
}
