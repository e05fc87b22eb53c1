package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/cuemby/vespanet/pkg/storage"
	"github.com/cuemby/vespanet/pkg/types"
	"github.com/spf13/cobra"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Show the provisioning history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openJournal()
		if err != nil {
			return err
		}
		defer store.Close()

		entries, err := store.ListProvisions()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "IP\tPID\tMODE\tMAC\tCREATED\tGATEWAY\tTIME\tERROR")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%t\t%s\t%s\t%s\n",
				e.ContainerIP, e.ContainerPID, e.Mode, e.MAC, e.Created, e.Gateway,
				e.Timestamp.Local().Format(time.RFC3339), e.Error)
		}
		return w.Flush()
	},
}

var journalForgetCmd = &cobra.Command{
	Use:   "forget <container-ip>",
	Short: "Remove the entry for a container address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openJournal()
		if err != nil {
			return err
		}
		defer store.Close()

		return store.DeleteProvision(args[0])
	},
}

func init() {
	journalCmd.AddCommand(journalForgetCmd)
}

func openJournal() (*storage.BoltStore, error) {
	if cfg.JournalPath == "" {
		return nil, fmt.Errorf("%w: no journal configured (set journalPath or --journal)", types.ErrArgument)
	}
	return storage.NewBoltStore(cfg.JournalPath)
}
