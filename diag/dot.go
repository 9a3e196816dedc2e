// Package diag implements graph introspection: a DOT dump for visualizing
// a graph.Store's structure, and dispatch-count statistics the CLI's
// `resolve` subcommand prints as a table.
package diag

import (
	"fmt"
	"io"
	"sort"

	"github.com/emirpasic/gods/v2/sets/hashset"

	"github.com/fusedtensor/fusedtensor/graph"
)

func inputsOf(store *graph.Store, k graph.Key) []graph.Key {
	switch k.Kind {
	case graph.KindElementWise:
		return []graph.Key{store.GetElementWise(k).Input}
	case graph.KindPairWise:
		r := store.GetPairWise(k)
		return []graph.Key{r.First, r.Second}
	case graph.KindMatMul:
		r := store.GetMatMul(k)
		return []graph.Key{r.First, r.Second}
	case graph.KindReduce:
		return []graph.Key{store.GetReduce(k).Input}
	case graph.KindMapLayout:
		return []graph.Key{store.GetMapLayout(k).Input}
	case graph.KindResize:
		return []graph.Key{store.GetResize(k).Input}
	case graph.KindSliceAssign:
		r := store.GetSliceAssign(k)
		return []graph.Key{r.Input, r.Value}
	case graph.KindTensor:
		return nil
	default:
		panic(fmt.Sprintf("diag: unknown kind %v", k.Kind))
	}
}

func label(store *graph.Store, k graph.Key) string {
	switch k.Kind {
	case graph.KindElementWise:
		return fmt.Sprintf("%s\\n%s", k.String(), store.GetElementWise(k).Fn.Name)
	case graph.KindPairWise:
		return fmt.Sprintf("%s\\n%s", k.String(), store.GetPairWise(k).Fn.Name)
	case graph.KindReduce:
		r := store.GetReduce(k)
		return fmt.Sprintf("%s\\n%s(axis=%d)", k.String(), r.Fn.Name, r.Axis)
	case graph.KindMatMul:
		return fmt.Sprintf("%s\\nmatmul", k.String())
	case graph.KindMapLayout:
		return fmt.Sprintf("%s\\nmap_layout", k.String())
	case graph.KindResize:
		return fmt.Sprintf("%s\\nresize", k.String())
	case graph.KindSliceAssign:
		return fmt.Sprintf("%s\\nslice_assign", k.String())
	case graph.KindTensor:
		return fmt.Sprintf("%s\\ntensor", k.String())
	default:
		return k.String()
	}
}

// Dump writes a Graphviz DOT rendering of root's transitive ancestry to w,
// one node per distinct Key reachable from root, deduplicated via a
// hashset so a diamond-shaped graph is walked once per node regardless of
// fan-in.
func Dump(w io.Writer, store *graph.Store, root graph.Key) error {
	if _, err := fmt.Fprintln(w, "digraph fusedtensor {"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "  rankdir=BT;"); err != nil {
		return err
	}

	visited := hashset.New[graph.Key]()
	var walk func(k graph.Key) error
	walk = func(k graph.Key) error {
		if visited.Contains(k) {
			return nil
		}
		visited.Add(k)
		if _, err := fmt.Fprintf(w, "  %q [label=%q];\n", nodeID(k), label(store, k)); err != nil {
			return err
		}
		for _, in := range inputsOf(store, k) {
			if _, err := fmt.Fprintf(w, "  %q -> %q;\n", nodeID(in), nodeID(k)); err != nil {
				return err
			}
			if err := walk(in); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(root); err != nil {
		return err
	}

	_, err := fmt.Fprintln(w, "}")
	return err
}

func nodeID(k graph.Key) string {
	return fmt.Sprintf("%s_%d", k.Kind, k.ID)
}

// DispatchCount reports, per graph.Kind, how many distinct nodes of that
// kind are reachable from root. MapLayout and Tensor are included for
// completeness even though they never themselves trigger a dispatch.
func DispatchCount(store *graph.Store, root graph.Key) map[graph.Kind]int {
	visited := hashset.New[graph.Key]()
	counts := make(map[graph.Kind]int)

	var walk func(k graph.Key)
	walk = func(k graph.Key) {
		if visited.Contains(k) {
			return
		}
		visited.Add(k)
		counts[k.Kind]++
		for _, in := range inputsOf(store, k) {
			walk(in)
		}
	}
	walk(root)
	return counts
}

// SortedKinds returns the keys of a DispatchCount result in a stable,
// human-friendly order, for callers (the CLI table printer) that need
// deterministic row ordering.
func SortedKinds(counts map[graph.Kind]int) []graph.Kind {
	kinds := make([]graph.Kind, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
