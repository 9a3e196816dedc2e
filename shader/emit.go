// Package shader emits WGSL-style compute shader source text for
// elementwise function chains (C4), in two modes: a standalone
// entry-point module for a bare chain running over a materialized
// producer, and a set of named helper functions plus a call-style
// expression for splicing into a host kernel's own shader body.
package shader

import (
	"fmt"
	"math"
	"strings"

	"github.com/fusedtensor/fusedtensor/graph"
	"github.com/fusedtensor/fusedtensor/tensor"
)

// DefaultTile is the number of consecutive elements (dense path) or the
// per-axis tile extent (strided path) each invocation processes.
const DefaultTile = 4

// Blocksize computes floor(256^(1/rank)), the workgroup-size ceiling used
// on every axis of the strided dispatch and on the sole axis of dense.
func Blocksize(rank int) uint32 {
	if rank <= 0 {
		panic("shader: rank must be >= 1")
	}
	return uint32(math.Floor(math.Pow(256, 1.0/float64(rank))))
}

// Options bundles the inputs a single elementwise emission needs.
type Options struct {
	Functions  []graph.ElementWiseFunction
	DType      tensor.DType
	Contiguous bool
	Layout     tensor.Layout
	Tile       uint32
}

func (o Options) blocksize() uint32 {
	return Blocksize(o.Layout.Rank())
}

func (o Options) tile() uint32 {
	if o.Tile == 0 {
		return DefaultTile
	}
	return o.Tile
}

// applicationOrder returns Functions re-ordered so index 0 is applied
// first (the function closest to the original producer) and the last
// index is applied last (the function closest to the graph root) — the
// reverse of fusion.Walk's root-first collection order.
func (o Options) applicationOrder() []graph.ElementWiseFunction {
	out := make([]graph.ElementWiseFunction, len(o.Functions))
	for i, fn := range o.Functions {
		out[len(o.Functions)-1-i] = fn
	}
	return out
}

func dtypePragma(dtype tensor.DType) string {
	if !dtype.RequiresFeaturePragma() {
		return ""
	}
	return fmt.Sprintf("enable %s;\n", dtype.WGSLName())
}

// LayoutStructText renders the `struct Layout { ... }` declaration for a
// tensor of the given rank. Exported so kernel builders that bind more
// than one tensor (pairwise, reduce, matmul, ...) can reuse the same text
// shape for each operand's layout uniform.
func LayoutStructText(rank int) string {
	return layoutStructText(rank)
}

func layoutStructText(rank int) string {
	var b strings.Builder
	b.WriteString("struct Layout {\n  offset: u32,\n")
	for i := 0; i < rank; i++ {
		fmt.Fprintf(&b, "  shape_%d: u32,\n", i)
	}
	for i := 0; i < rank; i++ {
		fmt.Fprintf(&b, "  stride_%d: u32,\n", i)
	}
	b.WriteString("}\n")
	return b.String()
}

func bindingsText(dtype tensor.DType) string {
	return fmt.Sprintf(
		"@group(0) @binding(0) var<uniform> layout: Layout;\n"+
			"@group(0) @binding(1) var<storage, read_write> tensor: array<%s>;\n",
		dtype.WGSLName())
}

// EmitHelpers renders one named helper per function:
//
//	fn unary_{unique_id}(input: dtype) -> dtype { var data = input; <body>; return data; }
//
// Each helper is emitted exactly once; unique_id guarantees no collision
// even when the same logical function value appears in more than one
// chain. Used in embedded mode, where the host kernel (package kernel)
// splices these helpers and a CallChain expression into its own module.
func EmitHelpers(functions []graph.ElementWiseFunction, dtype tensor.DType) string {
	var b strings.Builder
	wgslType := dtype.WGSLName()
	for _, fn := range functions {
		fmt.Fprintf(&b, "fn unary_%d(input: %s) -> %s {\n  var data = input;\n  %s\n  return data;\n}\n",
			fn.UniqueID, wgslType, wgslType, fn.Body)
	}
	return b.String()
}

// CallChain builds the call-style expression
// `unary_{idN}(unary_{idN-1}(… unary_{id0}(data) …))` applying functions
// in producer-first order against dataExpr, for splicing into a host
// kernel's pre/post stage. An empty chain returns dataExpr unchanged.
func CallChain(functions []graph.ElementWiseFunction, dataExpr string) string {
	expr := dataExpr
	for i := len(functions) - 1; i >= 0; i-- {
		expr = fmt.Sprintf("unary_%d(%s)", functions[i].UniqueID, expr)
	}
	return expr
}

func inlineBody(functions []graph.ElementWiseFunction) string {
	ordered := make([]graph.ElementWiseFunction, len(functions))
	for i, fn := range functions {
		ordered[len(functions)-1-i] = fn
	}
	var b strings.Builder
	for _, fn := range ordered {
		b.WriteString("      ")
		b.WriteString(fn.Body)
		b.WriteString("\n")
	}
	return b.String()
}

// EmitEntryPoint renders a full standalone compute module for a bare
// elementwise chain running over a materialized producer: function
// bodies are concatenated inline in the loop body (producer-first
// order), no helper functions are emitted. Used for F2's "materialize P"
// branch.
func EmitEntryPoint(opts Options) string {
	rank := opts.Layout.Rank()
	blocksize := opts.blocksize()
	tile := opts.tile()

	var b strings.Builder
	b.WriteString(dtypePragma(opts.DType))
	b.WriteString(layoutStructText(rank))
	b.WriteString(bindingsText(opts.DType))
	fmt.Fprintf(&b, "const TILE_SIZE: u32 = %du;\n", tile)
	fmt.Fprintf(&b, "const BLOCKSIZE: u32 = %du;\n", blocksize)

	if opts.Contiguous {
		writeDenseEntryPoint(&b, opts, blocksize, tile)
	} else {
		writeStridedEntryPoint(&b, opts, blocksize, tile, rank)
	}
	return b.String()
}

func writeDenseEntryPoint(b *strings.Builder, opts Options, blocksize, tile uint32) {
	b.WriteString("@compute @workgroup_size(BLOCKSIZE, 1, 1)\n")
	b.WriteString("fn main(@builtin(global_invocation_id) gid: vec3<u32>) {\n")
	b.WriteString("  let total = totalElements();\n")
	b.WriteString("  for (var k: u32 = 0u; k < TILE_SIZE; k = k + 1u) {\n")
	b.WriteString("    let idx = gid.x * TILE_SIZE + k;\n")
	b.WriteString("    if (idx < total) {\n")
	b.WriteString("      var data = tensor[idx];\n")
	b.WriteString(inlineBody(opts.Functions))
	b.WriteString("      tensor[idx] = data;\n")
	b.WriteString("    }\n  }\n}\n\n")
	b.WriteString(totalElementsHelper(opts.Layout.Rank()))
}

func writeStridedEntryPoint(b *strings.Builder, opts Options, blocksize, tile uint32, rank int) {
	axisNames := []string{"x", "y", "z"}
	sizeArgs := make([]string, rank)
	for i := 0; i < rank; i++ {
		sizeArgs[i] = "BLOCKSIZE"
	}
	for len(sizeArgs) < 3 {
		sizeArgs = append(sizeArgs, "1")
	}
	fmt.Fprintf(b, "@compute @workgroup_size(%s)\n", strings.Join(sizeArgs, ", "))
	b.WriteString("fn main(@builtin(global_invocation_id) gid: vec3<u32>) {\n")
	for i := 0; i < rank; i++ {
		fmt.Fprintf(b, "  let tile_index_%d = gid.%s * TILE_SIZE;\n", i, axisNames[i])
	}
	indent := "  "
	for i := 0; i < rank; i++ {
		fmt.Fprintf(b, "%sfor (var local_%d: u32 = 0u; local_%d < TILE_SIZE; local_%d = local_%d + 1u) {\n",
			indent, i, i, i, i)
		indent += "  "
	}
	for i := 0; i < rank; i++ {
		fmt.Fprintf(b, "%sif (tile_index_%d + local_%d >= layout.shape_%d) { continue; }\n", indent, i, i, i)
	}
	b.WriteString(indent + "let index = layout.offset")
	for i := 0; i < rank; i++ {
		fmt.Fprintf(b, " + layout.stride_%d * (tile_index_%d + local_%d)", i, i, i)
	}
	b.WriteString(";\n")
	fmt.Fprintf(b, "%svar data = tensor[index];\n", indent)
	b.WriteString(inlineBody(opts.Functions))
	fmt.Fprintf(b, "%stensor[index] = data;\n", indent)
	for i := rank - 1; i >= 0; i-- {
		indent = indent[:len(indent)-2]
		b.WriteString(indent + "}\n")
	}
	b.WriteString("}\n")
}

func totalElementsHelper(rank int) string {
	var b strings.Builder
	b.WriteString("fn totalElements() -> u32 {\n  return ")
	for i := 0; i < rank; i++ {
		if i > 0 {
			b.WriteString(" * ")
		}
		fmt.Fprintf(&b, "layout.shape_%d", i)
	}
	b.WriteString(";\n}\n")
	return b.String()
}

// DispatchGrid computes the workgroup-dispatch triple C5 passes to
// DispatchWorkgroups. Dense dispatches only the x axis; strided dispatches
// one axis per rank, unused axes fixed at 1.
func DispatchGrid(opts Options) (x, y, z uint32) {
	blocksize := opts.blocksize()
	tile := opts.tile()
	step := tile * blocksize
	if opts.Contiguous {
		n := opts.Layout.NumElements()
		return ceilDiv(n, step), 1, 1
	}
	dims := [3]uint32{1, 1, 1}
	for i := 0; i < opts.Layout.Rank(); i++ {
		dims[i] = ceilDiv(opts.Layout.Shape[i], step)
	}
	return dims[0], dims[1], dims[2]
}

func ceilDiv(n, d uint32) uint32 {
	if d == 0 {
		panic("shader: division by zero dispatch step")
	}
	return (n + d - 1) / d
}
