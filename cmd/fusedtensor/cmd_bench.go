package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/fusedtensor/fusedtensor/resolve"
	"github.com/fusedtensor/fusedtensor/softwaregpu"
)

func newBenchCmd() *cobra.Command {
	var iterations int
	cmd := &cobra.Command{
		Use:   "bench NAME",
		Short: "Resolve a demo graph repeatedly against softwaregpu and report timing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			device := softwaregpu.New()
			demo, err := buildDemoGraph(device, args[0])
			if err != nil {
				return err
			}

			samples := make([]float64, 0, iterations)
			for i := 0; i < iterations; i++ {
				encoder := softwaregpu.NewEncoder()
				start := time.Now()
				if _, err := resolve.Resolve(cmd.Context(), demo.Root, demo.Store, device, encoder); err != nil {
					return fmt.Errorf("cmd/fusedtensor: bench %s: iteration %d: %w", demo.Name, i, err)
				}
				samples = append(samples, time.Since(start).Seconds()*1000)
			}

			mean, stddev := stat.MeanStdDev(samples, nil)
			cmd.Printf("# %s: %s\n", demo.Name, demo.Summary)
			cmd.Printf("iterations=%d mean=%.4fms stddev=%.4fms\n", iterations, mean, stddev)
			return nil
		},
	}
	cmd.Flags().IntVar(&iterations, "iterations", 20, "Number of resolve passes to time")
	cmd.ValidArgs = DemoNames()
	return cmd
}
