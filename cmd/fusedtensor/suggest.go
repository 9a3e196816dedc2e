package main

import (
	"fmt"

	"github.com/agnivade/levenshtein"
)

// unknownDemoError reports an unrecognized demo graph name, suggesting the
// closest valid name by edit distance the way the teacher's template
// lookup suggests the closest known template name.
func unknownDemoError(name string) error {
	best := ""
	score := -1
	for _, candidate := range DemoNames() {
		d := levenshtein.ComputeDistance(name, candidate)
		if score == -1 || d < score {
			score = d
			best = candidate
		}
	}
	if best != "" && score <= 3 {
		return fmt.Errorf("cmd/fusedtensor: unknown demo graph %q, did you mean %q?", name, best)
	}
	return fmt.Errorf("cmd/fusedtensor: unknown demo graph %q (valid names: %v)", name, DemoNames())
}
