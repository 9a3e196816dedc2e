// function.go - the shader-fragment value types a graph op record carries
// Contains: ElementWiseFunction, BinaryFunction, ReduceFunction, and
// LayoutTransform.
package graph

import "github.com/fusedtensor/fusedtensor/uniqueid"

// ElementWiseFunction is a snippet of shading-language text operating on a
// mutable variable `data` of the node's dtype, plus a reference Go
// evaluator used only by softwaregpu/tests. Eval is never emitted into
// shader text and never part of the function's identity.
type ElementWiseFunction struct {
	Name     string
	UniqueID uint64
	Body     string
	Eval     func(float64) float64
}

// NewElementWiseFunction allocates a fresh unique_id and builds a function
// value from a WGSL body fragment and its reference evaluator.
func NewElementWiseFunction(name, body string, eval func(float64) float64) ElementWiseFunction {
	return ElementWiseFunction{Name: name, UniqueID: uniqueid.Next(), Body: body, Eval: eval}
}

// BinaryFunction is a PairWise op's two-operand shading-language fragment,
// referencing the mutable variables `a` and `b`.
type BinaryFunction struct {
	Name     string
	UniqueID uint64
	Body     string
	Eval     func(a, b float64) float64
}

// NewBinaryFunction allocates a fresh unique_id for a two-operand fragment.
func NewBinaryFunction(name, body string, eval func(a, b float64) float64) BinaryFunction {
	return BinaryFunction{Name: name, UniqueID: uniqueid.Next(), Body: body, Eval: eval}
}

// ReduceFunction folds a running accumulator `acc` with the current
// element `data`; Identity seeds the accumulator before the first element
// of the reduced axis is visited.
type ReduceFunction struct {
	Name     string
	UniqueID uint64
	Body     string
	Identity float64
	Eval     func(acc, data float64) float64
}

// NewReduceFunction allocates a fresh unique_id for a fold fragment.
func NewReduceFunction(name, body string, identity float64, eval func(acc, data float64) float64) ReduceFunction {
	return ReduceFunction{Name: name, UniqueID: uniqueid.Next(), Body: body, Identity: identity, Eval: eval}
}

// LayoutTransform describes a pure metadata change MapLayout applies to an
// input's Layout: a per-axis re-slice (start, end exclusive) followed by
// an optional axis permutation. Both fields are nil-safe; a nil Permute
// leaves axis order unchanged.
type LayoutTransform struct {
	Start   []uint32
	End     []uint32
	Permute []int
}
