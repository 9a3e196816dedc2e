package main

import (
	"github.com/spf13/cobra"

	"github.com/fusedtensor/fusedtensor/diag"
	"github.com/fusedtensor/fusedtensor/softwaregpu"
)

func newGraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph NAME",
		Short: "Build a demo graph (s1..s6) and print its DOT dump",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			device := softwaregpu.New()
			demo, err := buildDemoGraph(device, args[0])
			if err != nil {
				return err
			}
			cmd.Printf("# %s: %s\n", demo.Name, demo.Summary)
			return diag.Dump(cmd.OutOrStdout(), demo.Store, demo.Root)
		},
	}
	cmd.ValidArgs = DemoNames()
	return cmd
}
