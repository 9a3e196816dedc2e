package graph_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fusedtensor/fusedtensor/gpuapi"
	"github.com/fusedtensor/fusedtensor/graph"
	"github.com/fusedtensor/fusedtensor/tensor"
)

type fakeBuffer struct{ size uint64 }

func (b fakeBuffer) Size() uint64 { return b.size }

func leafTensor(t *testing.T, s *graph.Store, shape []uint32, dtype tensor.DType) graph.Key {
	t.Helper()
	layout := tensor.NewContiguousLayout(shape)
	data := tensor.New(fakeBuffer{size: uint64(layout.NumElements()) * uint64(dtype.ByteWidth())}, layout, dtype, nil)
	return s.InsertTensor(graph.Tensor{Data: data})
}

func TestInsertPairWiseRejectsDtypeMismatch(t *testing.T) {
	s := graph.New()
	a := leafTensor(t, s, []uint32{4}, tensor.F32)
	b := leafTensor(t, s, []uint32{4}, tensor.I32)

	_, err := s.InsertPairWise(graph.PairWise{First: a, Second: b, Fn: graph.NewBinaryFunction("add", "a + b", func(x, y float64) float64 { return x + y })})
	require.Error(t, err)
	var verr *graph.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, graph.KindPairWise, verr.Kind)
}

func TestInsertReduceRejectsAxisOutOfBounds(t *testing.T) {
	s := graph.New()
	a := leafTensor(t, s, []uint32{4, 2}, tensor.F32)

	_, err := s.InsertReduce(graph.Reduce{Input: a, Axis: 5, Fn: graph.NewReduceFunction("sum", "acc + data", 0, func(acc, data float64) float64 { return acc + data })})
	require.Error(t, err)
}

func TestInsertElementWisePreservesRankAndDtype(t *testing.T) {
	s := graph.New()
	a := leafTensor(t, s, []uint32{2, 3}, tensor.F16)

	key, err := s.InsertElementWise(graph.ElementWise{Input: a, Fn: graph.NewElementWiseFunction("neg", "data = -data;", func(v float64) float64 { return -v })})
	require.NoError(t, err)
	require.Equal(t, tensor.F16, s.DType(key))
	require.Equal(t, 2, s.Rank(key))
}

func TestKeysPreservesInsertionOrderPerKind(t *testing.T) {
	s := graph.New()
	first := leafTensor(t, s, []uint32{2}, tensor.F32)
	second := leafTensor(t, s, []uint32{2}, tensor.F32)

	keys := s.Keys()
	require.Len(t, keys, 2)
	require.Equal(t, first, keys[0])
	require.Equal(t, second, keys[1])
}

var _ gpuapi.Buffer = fakeBuffer{}
