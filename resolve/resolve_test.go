package resolve

import (
	"context"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/fusedtensor/fusedtensor/diag"
	"github.com/fusedtensor/fusedtensor/gpuapi"
	"github.com/fusedtensor/fusedtensor/graph"
	"github.com/fusedtensor/fusedtensor/softwaregpu"
	"github.com/fusedtensor/fusedtensor/tensor"
)

var floatApprox = cmpopts.EquateApprox(0, 1e-5)

func newTestTraceID() uuid.UUID { return uuid.New() }

func leafTensor(t *testing.T, device gpuapi.Device, store *graph.Store, shape []uint32, values []float32) graph.Key {
	t.Helper()
	layout := tensor.NewContiguousLayout(shape)
	buf, err := device.CreateBuffer(gpuapi.BufferDescriptor{
		Label:    "test-leaf",
		Size:     uint64(len(values) * 4),
		Usage:    gpuapi.BufferUsageStorage | gpuapi.BufferUsageCopySrc | gpuapi.BufferUsageCopyDst,
		Contents: tensor.EncodeFloats(tensor.F32, values),
	})
	require.NoError(t, err)
	return store.InsertTensor(graph.Tensor{Data: tensor.New(buf, layout, tensor.F32, device)})
}

func filledTensor(t *testing.T, device gpuapi.Device, store *graph.Store, shape []uint32, fill float32) graph.Key {
	t.Helper()
	n := uint32(1)
	for _, s := range shape {
		n *= s
	}
	fillValues := make([]float32, n)
	for i := range fillValues {
		fillValues[i] = fill
	}
	return leafTensor(t, device, store, shape, fillValues)
}

func values(t *testing.T, td tensor.TensorData) []float32 {
	t.Helper()
	buf, ok := td.Buf.(*softwaregpu.Buffer)
	require.True(t, ok)
	// Read the view through its layout: a strided result addresses only
	// part of its backing buffer.
	out := make([]float32, td.Layout.NumElements())
	for i := range out {
		off := td.Layout.ElementOffset(td.Layout.CoordsOf(uint32(i)))
		out[i] = float32(tensor.DecodeFloatAt(td.DType, buf.Bytes(), off))
	}
	return out
}

// S2: (x + 1.0) * 2.0 must collapse to a single standalone elementwise
// dispatch (F1), never touching a producer-absorption path.
func TestResolveElementWiseChainFuses(t *testing.T) {
	device := softwaregpu.New()
	store := graph.New()
	in := leafTensor(t, device, store, []uint32{3, 2}, []float32{1, 2, 3, 4, 5, 6})
	plusOne, err := store.InsertElementWise(graph.ElementWise{Input: in, Fn: graph.AddConst(1.0)})
	require.NoError(t, err)
	root, err := store.InsertElementWise(graph.ElementWise{Input: plusOne, Fn: graph.MulConst(2.0)})
	require.NoError(t, err)

	out, err := Resolve(context.Background(), root, store, device, softwaregpu.NewEncoder())
	require.NoError(t, err)
	require.Equal(t, []float32{4, 6, 8, 10, 12, 14}, values(t, out))

	counts := diag.DispatchCount(store, root)
	require.Equal(t, 1, counts[graph.KindElementWise])
}

// S6: sum(exp(x) + 1.0, axis=0) must absorb the elementwise chain into
// the reduce dispatch (F2) rather than materializing it standalone.
func TestResolveElementWiseAbsorbsIntoReduce(t *testing.T) {
	device := softwaregpu.New()
	store := graph.New()
	in := leafTensor(t, device, store, []uint32{3, 2}, []float32{1, 2, 3, 4, 5, 6})
	exped, err := store.InsertElementWise(graph.ElementWise{Input: in, Fn: graph.Exp()})
	require.NoError(t, err)
	plusOne, err := store.InsertElementWise(graph.ElementWise{Input: exped, Fn: graph.AddConst(1.0)})
	require.NoError(t, err)
	root, err := store.InsertReduce(graph.Reduce{Input: plusOne, Axis: 0, Fn: graph.Sum()})
	require.NoError(t, err)

	out, err := Resolve(context.Background(), root, store, device, softwaregpu.NewEncoder())
	require.NoError(t, err)
	require.Len(t, values(t, out), 2)

	counts := diag.DispatchCount(store, root)
	require.Equal(t, 0, counts[graph.KindElementWise], "chain must absorb into the reduce, not materialize on its own")
	require.Equal(t, 1, counts[graph.KindReduce])
}

// Open Question 2: an elementwise node whose chain collapses to zero
// dispatches (because its producer is itself not absorbable and the walk
// finds no elementwise ancestry) returns the input unchanged rather than
// erroring. Exercised directly against a bare leaf.
func TestResolveEmptyFusionDegeneracyReturnsInputUnchanged(t *testing.T) {
	device := softwaregpu.New()
	store := graph.New()
	in := leafTensor(t, device, store, []uint32{2}, []float32{7, 8})

	out, err := resolve(context.Background(), in, store, device, softwaregpu.NewEncoder(), newTestTraceID(), false)
	require.NoError(t, err)
	require.Equal(t, []float32{7, 8}, values(t, out))
}

// Fusion invariance: Resolve (fused) and ResolveUnfused (F2 disabled,
// every chain materialized standalone) must agree on the numeric result
// even though their dispatch counts differ.
func TestFusionInvarianceMatchesUnfusedResult(t *testing.T) {
	device := softwaregpu.New()
	store := graph.New()
	in := leafTensor(t, device, store, []uint32{3, 2}, []float32{1, 2, 3, 4, 5, 6})
	exped, err := store.InsertElementWise(graph.ElementWise{Input: in, Fn: graph.Exp()})
	require.NoError(t, err)
	plusOne, err := store.InsertElementWise(graph.ElementWise{Input: exped, Fn: graph.AddConst(1.0)})
	require.NoError(t, err)
	root, err := store.InsertReduce(graph.Reduce{Input: plusOne, Axis: 0, Fn: graph.Sum()})
	require.NoError(t, err)

	fused, err := Resolve(context.Background(), root, store, device, softwaregpu.NewEncoder())
	require.NoError(t, err)
	unfused, err := ResolveUnfused(context.Background(), root, store, device, softwaregpu.NewEncoder())
	require.NoError(t, err)

	if diff := cmp.Diff(values(t, unfused), values(t, fused), floatApprox); diff != "" {
		t.Errorf("fused and unfused results diverge (-unfused +fused):\n%s", diff)
	}

	fusedCounts := diag.DispatchCount(store, root)
	require.Equal(t, 0, fusedCounts[graph.KindElementWise])
}

// S1: a standalone elementwise node over a multi-axis shape, exercising
// the dense (contiguous) codegen path end to end.
func TestResolveStandaloneElementWiseDense(t *testing.T) {
	device := softwaregpu.New()
	store := graph.New()
	in := leafTensor(t, device, store, []uint32{3, 2, 2}, []float32{1, 2, 1, 2, 3, 4, 3, 4, 5, 6, 5, 6})
	root, err := store.InsertElementWise(graph.ElementWise{Input: in, Fn: graph.AddConst(1.0)})
	require.NoError(t, err)

	out, err := Resolve(context.Background(), root, store, device, softwaregpu.NewEncoder())
	require.NoError(t, err)
	require.Equal(t, []float32{2, 3, 2, 3, 4, 5, 4, 5, 6, 7, 6, 7}, values(t, out))
}

// S3: a MapLayout (slice) feeding an elementwise node exercises the
// strided codegen path; MapLayout itself never dispatches.
func TestResolveMapLayoutFeedsStridedElementWise(t *testing.T) {
	device := softwaregpu.New()
	store := graph.New()
	in := leafTensor(t, device, store, []uint32{3, 2}, []float32{1, 2, 3, 4, 5, 6})
	sliced, err := store.InsertMapLayout(graph.MapLayout{
		Input: in,
		Op:    graph.LayoutTransform{Start: []uint32{0, 0}, End: []uint32{3, 1}},
	})
	require.NoError(t, err)
	root, err := store.InsertElementWise(graph.ElementWise{Input: sliced, Fn: graph.AddConst(1.0)})
	require.NoError(t, err)

	out, err := Resolve(context.Background(), root, store, device, softwaregpu.NewEncoder())
	require.NoError(t, err)
	require.Equal(t, []float32{2, 4, 6}, values(t, out))

	counts := diag.DispatchCount(store, root)
	require.Equal(t, 0, counts[graph.KindMapLayout], "MapLayout never dispatches")
}

// S4: a single-axis tensor filled 10.0, +1.0, must resolve to exactly
// one dispatch total regardless of element count.
func TestResolveLargeElementWiseSingleDispatch(t *testing.T) {
	device := softwaregpu.New()
	store := graph.New()
	in := filledTensor(t, device, store, []uint32{16777216}, 10.0)
	root, err := store.InsertElementWise(graph.ElementWise{Input: in, Fn: graph.AddConst(1.0)})
	require.NoError(t, err)

	out, err := Resolve(context.Background(), root, store, device, softwaregpu.NewEncoder())
	require.NoError(t, err)

	result := values(t, out)
	require.Len(t, result, 16777216)
	require.Equal(t, float32(11.0), result[0])
	require.Equal(t, float32(11.0), result[len(result)-1])

	counts := diag.DispatchCount(store, root)
	total := 0
	for _, c := range counts {
		total += c
	}
	require.Equal(t, 1, total, "S4 must resolve to exactly one dispatch total")
}

// S5: exp(x) over shape [3,2] must match host math.Exp within the
// fusion-invariance tolerance.
func TestResolveExpMatchesHostMath(t *testing.T) {
	device := softwaregpu.New()
	store := graph.New()
	input := []float32{1, 2, 3, 4, 5, 6}
	in := leafTensor(t, device, store, []uint32{3, 2}, input)
	root, err := store.InsertElementWise(graph.ElementWise{Input: in, Fn: graph.Exp()})
	require.NoError(t, err)

	out, err := Resolve(context.Background(), root, store, device, softwaregpu.NewEncoder())
	require.NoError(t, err)

	want := make([]float32, len(input))
	for i, v := range input {
		want[i] = float32(math.Exp(float64(v)))
	}
	if diff := cmp.Diff(want, values(t, out), floatApprox); diff != "" {
		t.Errorf("exp(x) diverges from math.Exp (-want +got):\n%s", diff)
	}
}
