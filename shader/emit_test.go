package shader_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fusedtensor/fusedtensor/graph"
	"github.com/fusedtensor/fusedtensor/shader"
	"github.com/fusedtensor/fusedtensor/tensor"
)

func addOne() graph.ElementWiseFunction {
	return graph.NewElementWiseFunction("add1", "data = data + 1.0;", func(v float64) float64 { return v + 1 })
}

func double() graph.ElementWiseFunction {
	return graph.NewElementWiseFunction("double", "data = data * 2.0;", func(v float64) float64 { return v * 2 })
}

func TestBlocksizeFloorsNthRoot(t *testing.T) {
	require.Equal(t, uint32(256), shader.Blocksize(1))
	require.Equal(t, uint32(16), shader.Blocksize(2))
	require.Equal(t, uint32(6), shader.Blocksize(3))
}

func TestEmitEntryPointDenseEmitsEachBodyOnce(t *testing.T) {
	fns := []graph.ElementWiseFunction{double(), addOne()}
	layout := tensor.NewContiguousLayout([]uint32{8})
	src := shader.EmitEntryPoint(shader.Options{Functions: fns, DType: tensor.F32, Contiguous: true, Layout: layout})

	require.Equal(t, 1, strings.Count(src, "data = data + 1.0;"))
	require.Equal(t, 1, strings.Count(src, "data = data * 2.0;"))
	require.Contains(t, src, "@compute @workgroup_size(BLOCKSIZE, 1, 1)")
	require.NotContains(t, src, "fn unary_")
}

func TestEmitEntryPointStridedUsesLayoutStrides(t *testing.T) {
	layout := tensor.Layout{Offset: 0, Shape: []uint32{3, 2}, Strides: []uint32{1, 3}}
	src := shader.EmitEntryPoint(shader.Options{Functions: nil, DType: tensor.F32, Contiguous: false, Layout: layout})

	require.Contains(t, src, "layout.stride_0")
	require.Contains(t, src, "layout.stride_1")
	require.Contains(t, src, "@workgroup_size(BLOCKSIZE, BLOCKSIZE, 1)")
}

func TestEmitHelpersOneFunctionPerUniqueID(t *testing.T) {
	fn := addOne()
	src := shader.EmitHelpers([]graph.ElementWiseFunction{fn}, tensor.F32)
	require.Contains(t, src, "fn unary_")
	require.Equal(t, 1, strings.Count(src, "fn unary_"))
}

func TestCallChainNestsInProducerFirstOrder(t *testing.T) {
	inner := addOne()
	outer := double()
	chain := []graph.ElementWiseFunction{outer, inner} // collection order: root(outer) first, producer-adjacent(inner) last
	got := shader.CallChain(chain, "data")
	require.Contains(t, got, "unary_")
	// inner (producer-adjacent) applies first, so its call is innermost.
	require.Equal(t, fmt.Sprintf("unary_%d(unary_%d(data))", outer.UniqueID, inner.UniqueID), got)
}

func TestDispatchGridDenseCeilsElementCount(t *testing.T) {
	layout := tensor.NewContiguousLayout([]uint32{1000})
	x, y, z := shader.DispatchGrid(shader.Options{Layout: layout, Contiguous: true})
	require.Equal(t, uint32(1), y)
	require.Equal(t, uint32(1), z)
	require.Greater(t, x, uint32(0))
}

func TestF16RequiresPragma(t *testing.T) {
	layout := tensor.NewContiguousLayout([]uint32{4})
	src := shader.EmitEntryPoint(shader.Options{DType: tensor.F16, Contiguous: true, Layout: layout})
	require.Contains(t, src, "enable f16;")

	srcF32 := shader.EmitEntryPoint(shader.Options{DType: tensor.F32, Contiguous: true, Layout: layout})
	require.NotContains(t, srcF32, "enable")
}
