// Package fusion implements the kernel-fusion planner (C3): pure
// functions over a graph.Store deciding which elementwise chains collapse
// onto which producer. No GPU or I/O happens here; fusion only decides
// shape, the resolver (package resolve) carries the decision out.
package fusion

import "github.com/fusedtensor/fusedtensor/graph"

// Walk implements F1 (elementwise-chain collapse): starting from key,
// follow Input while it is itself an ElementWise node, collecting each
// visited node's function in traversal order (root first). It stops at
// the first non-ElementWise ancestor, returned as producer.
//
// The returned chain is in collection order, i.e. the reverse of
// application order — applying the chain to a value means folding from
// the last element to the first, since the last-collected function sits
// closest to the producer and runs first.
func Walk(store *graph.Store, key graph.Key) (chain []graph.ElementWiseFunction, producer graph.Key) {
	cur := key
	for cur.Kind == graph.KindElementWise {
		ew := store.GetElementWise(cur)
		chain = append(chain, ew.Fn)
		cur = ew.Input
	}
	return chain, cur
}

// PreFuse implements F3 for a single operand of a PairWise or Reduce node:
// if operand is itself ElementWise, peel its chain exactly as Walk does,
// stopping at the first non-ElementWise ancestor. Called once per operand
// (per-operand for PairWise, once for Reduce's single input).
func PreFuse(store *graph.Store, operand graph.Key) (chain []graph.ElementWiseFunction, ancestor graph.Key) {
	return Walk(store, operand)
}

// Absorbs reports whether a producer kind can absorb a post-elementwise
// chain directly into its own kernel (F2), versus needing to be
// materialized first and have the chain run as a standalone kernel.
func Absorbs(kind graph.Kind) bool {
	return kind == graph.KindReduce || kind == graph.KindPairWise
}

// Apply folds chain over an initial value in application order (reverse
// of collection order): the function closest to the producer runs first.
// Used by softwaregpu's reference evaluator and by tests that check
// semantic results without involving any shader text.
func Apply(chain []graph.ElementWiseFunction, value float64) float64 {
	for i := len(chain) - 1; i >= 0; i-- {
		value = chain[i].Eval(value)
	}
	return value
}
