// Command fusedtensor is the engine's debug/diagnostic CLI: it builds one
// of the demo graphs, prints its DOT dump and fusion statistics, resolves
// it against softwaregpu, and can stand up a minimal HTTP surface for
// inspecting a running session. It ships no model-serving functionality;
// it exists to make the resolver and fusion planner's decisions visible.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := NewCLI().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
