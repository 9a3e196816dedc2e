package kernel

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fusedtensor/fusedtensor/gpuapi"
	"github.com/fusedtensor/fusedtensor/graph"
	"github.com/fusedtensor/fusedtensor/softwaregpu"
	"github.com/fusedtensor/fusedtensor/tensor"
)

func leafTensor(t *testing.T, device gpuapi.Device, shape []uint32, values []float32) tensor.TensorData {
	t.Helper()
	layout := tensor.NewContiguousLayout(shape)
	buf, err := device.CreateBuffer(gpuapi.BufferDescriptor{
		Size:     uint64(len(values) * 4),
		Usage:    gpuapi.BufferUsageStorage | gpuapi.BufferUsageCopySrc | gpuapi.BufferUsageCopyDst,
		Contents: tensor.EncodeFloats(tensor.F32, values),
	})
	require.NoError(t, err)
	return tensor.New(buf, layout, tensor.F32, device)
}

func decode(t *testing.T, td tensor.TensorData) []float32 {
	t.Helper()
	buf, ok := td.Buf.(*softwaregpu.Buffer)
	require.True(t, ok)
	return tensor.DecodeFloats(td.DType, buf.Bytes())
}

func TestStandaloneElementWiseChain(t *testing.T) {
	device := softwaregpu.New()
	in := leafTensor(t, device, []uint32{3}, []float32{1, 2, 3})

	// Collection order (root first): +1 is producer-adjacent and applies first, then *2.
	out, err := NewElementWise().Run(device, softwaregpu.NewEncoder(),
		[]graph.ElementWiseFunction{graph.MulConst(2.0), graph.AddConst(1.0)}, in, nil)
	require.NoError(t, err)
	require.Equal(t, []float32{4, 6, 8}, decode(t, out))
}

func TestPairWiseAppliesPreAndPostChains(t *testing.T) {
	device := softwaregpu.New()
	first := leafTensor(t, device, []uint32{3}, []float32{1, 2, 3})
	second := leafTensor(t, device, []uint32{3}, []float32{10, 10, 10})

	k := NewPairWise(graph.Add(), tensor.F32)
	k.SetPreElementWise([2][]graph.ElementWiseFunction{
		{graph.MulConst(2.0)}, // first *= 2 before add
		nil,
	})
	k.SetPostElementWise([]graph.ElementWiseFunction{graph.AddConst(1.0)})

	out, err := k.RunWithQuery(device, softwaregpu.NewEncoder(), first, second, nil)
	require.NoError(t, err)
	// (first*2 + second) + 1 = (2,4,6)+(10,10,10)+1 = (13,15,17)
	require.Equal(t, []float32{13, 15, 17}, decode(t, out))
}

func TestReduceSumAlongAxis(t *testing.T) {
	device := softwaregpu.New()
	in := leafTensor(t, device, []uint32{3, 2}, []float32{1, 2, 3, 4, 5, 6})

	k := NewReduce(graph.Sum(), tensor.F32)
	out, err := k.RunWithQuery(device, softwaregpu.NewEncoder(), in, 0, nil)
	require.NoError(t, err)
	require.Equal(t, []float32{9, 12}, decode(t, out))
}

func TestReduceAppliesPreChainBeforeFolding(t *testing.T) {
	device := softwaregpu.New()
	in := leafTensor(t, device, []uint32{3}, []float32{1, 2, 3})

	k := NewReduce(graph.Sum(), tensor.F32)
	k.SetPreElementWise([]graph.ElementWiseFunction{graph.AddConst(1.0)})
	out, err := k.RunWithQuery(device, softwaregpu.NewEncoder(), in, 0, nil)
	require.NoError(t, err)
	// sum(x+1) over a single axis of length 3 = (1+1)+(2+1)+(3+1) = 9
	require.Equal(t, []float32{9}, decode(t, out))
}

func TestMatMulContractsInnerAxis(t *testing.T) {
	device := softwaregpu.New()
	first := leafTensor(t, device, []uint32{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	second := leafTensor(t, device, []uint32{3, 2}, []float32{7, 8, 9, 10, 11, 12})

	out, err := NewMatMul(tensor.F32).RunWithQuery(device, softwaregpu.NewEncoder(), first, second, nil)
	require.NoError(t, err)
	// [[1,2,3],[4,5,6]] x [[7,8],[9,10],[11,12]] = [[58,64],[139,154]]
	require.Equal(t, []float32{58, 64, 139, 154}, decode(t, out))
}

func TestResizeGrowsAndZeroFillsNewRegion(t *testing.T) {
	device := softwaregpu.New()
	in := leafTensor(t, device, []uint32{2}, []float32{5, 6})

	out, err := NewResize([]uint32{4}, nil, tensor.F32).RunWithQuery(device, softwaregpu.NewEncoder(), in, nil)
	require.NoError(t, err)
	require.Equal(t, []float32{5, 6, 0, 0}, decode(t, out))
}

func TestResizeTruncatesToSmallerShape(t *testing.T) {
	device := softwaregpu.New()
	in := leafTensor(t, device, []uint32{4}, []float32{1, 2, 3, 4})

	out, err := NewResize([]uint32{2}, nil, tensor.F32).RunWithQuery(device, softwaregpu.NewEncoder(), in, nil)
	require.NoError(t, err)
	require.Equal(t, []float32{1, 2}, decode(t, out))
}

func TestSliceAssignWritesValueIntoInputRegion(t *testing.T) {
	device := softwaregpu.New()
	in := leafTensor(t, device, []uint32{4}, []float32{1, 2, 3, 4})
	val := leafTensor(t, device, []uint32{2}, []float32{90, 91})

	slices := []graph.Range{{Start: 1, End: 3}}
	out, err := NewSliceAssign(slices, tensor.F32).RunWithQuery(device, softwaregpu.NewEncoder(), in, val, nil)
	require.NoError(t, err)
	require.Equal(t, []float32{1, 90, 91, 4}, decode(t, out))
	require.Same(t, in.Buf, out.Buf, "SliceAssign mutates input in place and returns the same buffer")
}
