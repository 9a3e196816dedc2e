package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/fusedtensor/fusedtensor/diag"
	"github.com/fusedtensor/fusedtensor/envconfig"
	"github.com/fusedtensor/fusedtensor/resolve"
	"github.com/fusedtensor/fusedtensor/softwaregpu"
	"github.com/fusedtensor/fusedtensor/tensor"
)

func newResolveCmd() *cobra.Command {
	var unfused bool
	cmd := &cobra.Command{
		Use:   "resolve NAME",
		Short: "Build a demo graph, resolve it against softwaregpu, and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			device := softwaregpu.New()
			demo, err := buildDemoGraph(device, args[0])
			if err != nil {
				return err
			}

			encoder := softwaregpu.NewEncoder()
			var result tensor.TensorData
			if unfused || envconfig.DisableFusion(false) {
				result, err = resolve.ResolveUnfused(cmd.Context(), demo.Root, demo.Store, device, encoder)
			} else {
				result, err = resolve.Resolve(cmd.Context(), demo.Root, demo.Store, device, encoder)
			}
			if err != nil {
				return fmt.Errorf("cmd/fusedtensor: resolve %s: %w", demo.Name, err)
			}

			cmd.Printf("# %s: %s\n", demo.Name, demo.Summary)
			printTensor(cmd, result)
			printDispatchTable(cmd, demo)
			return nil
		},
	}
	cmd.Flags().BoolVar(&unfused, "unfused", false, "Force every elementwise chain to materialize standalone (F2 disabled)")
	cmd.ValidArgs = DemoNames()
	return cmd
}

func printTensor(cmd *cobra.Command, t tensor.TensorData) {
	buf, ok := t.Buf.(*softwaregpu.Buffer)
	if !ok {
		cmd.Printf("result: (non-software buffer, cannot read back)\n")
		return
	}
	values := tensor.DecodeFloats(t.DType, buf.Bytes())
	cmd.Printf("result shape=%v dtype=%s values=%v\n", t.Layout.Shape, t.DType, values)
}

func printDispatchTable(cmd *cobra.Command, demo *demoGraph) {
	counts := diag.DispatchCount(demo.Store, demo.Root)

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"KIND", "COUNT"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(!isNonInteractive())
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")

	for _, kind := range diag.SortedKinds(counts) {
		table.Append([]string{kind.String(), fmt.Sprintf("%d", counts[kind])})
	}
	table.Render()
}

func isNonInteractive() bool {
	return !term.IsTerminal(int(os.Stdout.Fd()))
}
