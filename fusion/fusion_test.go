package fusion_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fusedtensor/fusedtensor/fusion"
	"github.com/fusedtensor/fusedtensor/graph"
	"github.com/fusedtensor/fusedtensor/tensor"
)

type fakeBuffer struct{ size uint64 }

func (b fakeBuffer) Size() uint64 { return b.size }

func leaf(t *testing.T, s *graph.Store, shape []uint32) graph.Key {
	t.Helper()
	layout := tensor.NewContiguousLayout(shape)
	data := tensor.New(fakeBuffer{}, layout, tensor.F32, nil)
	return s.InsertTensor(graph.Tensor{Data: data})
}

func TestWalkCollapsesChainOntoProducer(t *testing.T) {
	s := graph.New()
	root := leaf(t, s, []uint32{4})

	addOne := graph.NewElementWiseFunction("add1", "data = data + 1.0;", func(v float64) float64 { return v + 1 })
	double := graph.NewElementWiseFunction("double", "data = data * 2.0;", func(v float64) float64 { return v * 2 })

	k1, err := s.InsertElementWise(graph.ElementWise{Input: root, Fn: addOne})
	require.NoError(t, err)
	k2, err := s.InsertElementWise(graph.ElementWise{Input: k1, Fn: double})
	require.NoError(t, err)

	chain, producer := fusion.Walk(s, k2)
	require.Len(t, chain, 2)
	require.Equal(t, root, producer)
	require.Equal(t, 4.0, fusion.Apply(chain, 1.0))
}

func TestAbsorbsOnlyReduceAndPairWise(t *testing.T) {
	require.True(t, fusion.Absorbs(graph.KindReduce))
	require.True(t, fusion.Absorbs(graph.KindPairWise))
	require.False(t, fusion.Absorbs(graph.KindMatMul))
	require.False(t, fusion.Absorbs(graph.KindTensor))
	require.False(t, fusion.Absorbs(graph.KindMapLayout))
	require.False(t, fusion.Absorbs(graph.KindResize))
	require.False(t, fusion.Absorbs(graph.KindSliceAssign))
}

func TestWalkOnBareProducerReturnsEmptyChain(t *testing.T) {
	s := graph.New()
	root := leaf(t, s, []uint32{4})

	chain, producer := fusion.Walk(s, root)
	require.Empty(t, chain)
	require.Equal(t, root, producer)
}
