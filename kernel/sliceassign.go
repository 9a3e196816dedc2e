// sliceassign.go - UntypedSliceAssignKernel (C6.3)
// Contains: kernel.SliceAssign, the one kernel that mutates an input
// tensor in place rather than allocating a fresh output buffer.
package kernel

import (
	"fmt"

	"github.com/fusedtensor/fusedtensor/dispatch"
	"github.com/fusedtensor/fusedtensor/gpuapi"
	"github.com/fusedtensor/fusedtensor/graph"
	"github.com/fusedtensor/fusedtensor/shader"
	"github.com/fusedtensor/fusedtensor/tensor"
)

// SliceAssign is the opaque kernel builder behind a SliceAssign graph
// node: it writes value into the region of input described by slices.
type SliceAssign struct {
	slices []graph.Range
	dtype  tensor.DType
	cache  shader.ModuleCache
}

// NewSliceAssign builds a kernel targeting the given per-axis ranges.
func NewSliceAssign(slices []graph.Range, dtype tensor.DType) *SliceAssign {
	return &SliceAssign{slices: slices, dtype: dtype}
}

func (k *SliceAssign) source() string {
	return fmt.Sprintf(
		"@group(0) @binding(0) var<storage, read_write> input_tensor: array<%s>;\n"+
			"@group(0) @binding(1) var<storage, read> value_tensor: array<%s>;\n"+
			"@compute @workgroup_size(256, 1, 1)\n"+
			"fn main(@builtin(global_invocation_id) gid: vec3<u32>) {\n"+
			"  // region bounds are baked into the dispatch grid on the host side\n"+
			"}\n",
		k.dtype.WGSLName(), k.dtype.WGSLName())
}

func rangeShape(slices []graph.Range) []uint32 {
	shape := make([]uint32, len(slices))
	for i, r := range slices {
		shape[i] = r.Len()
	}
	return shape
}

func (k *SliceAssign) eval(input, value tensor.TensorData) gpuapi.EvalFunc {
	return func(ctx gpuapi.EvalContext) {
		inBytes := ctx.Buffers[0]
		valBytes := ctx.Buffers[1]
		regionShape := rangeShape(k.slices)
		regionLayout := tensor.NewContiguousLayout(regionShape)
		n := regionLayout.NumElements()
		for i := uint32(0); i < n; i++ {
			regionCoords := regionLayout.CoordsOf(i)
			inputCoords := make([]uint32, len(regionCoords))
			for axis, c := range regionCoords {
				inputCoords[axis] = k.slices[axis].Start + c
			}
			v := tensor.DecodeFloatAt(value.DType, valBytes, value.Layout.ElementOffset(regionCoords))
			tensor.EncodeFloatAt(k.dtype, inBytes, input.Layout.ElementOffset(inputCoords), v)
		}
	}
}

// RunWithQuery writes value into input's sliced region and returns input
// itself, mutated — the one kernel whose output aliases an operand.
func (k *SliceAssign) RunWithQuery(device gpuapi.Device, encoder gpuapi.CommandEncoder, input, value tensor.TensorData, query gpuapi.PerformanceQuery) (tensor.TensorData, error) {
	src := k.cache.Dense(k.source)
	regionLayout := tensor.NewContiguousLayout(rangeShape(k.slices))

	spec := dispatch.Spec{
		Label:  "slice-assign",
		Source: src,
		Bindings: []dispatch.Binding{
			{Index: 0, Buffer: input.Buf, Type: gpuapi.BufferBindingStorage},
			{Index: 1, Buffer: value.Buf, Type: gpuapi.BufferBindingReadOnlyStorage},
		},
		Grid:  [3]uint32{(regionLayout.NumElements() + 255) / 256, 1, 1},
		Query: query,
		Eval:  k.eval(input, value),
	}
	if err := dispatch.Run(device, encoder, spec); err != nil {
		return tensor.TensorData{}, fmt.Errorf("kernel: slice-assign dispatch: %w", err)
	}
	return input, nil
}
