// reduce.go - UntypedReduceKernel (C6.3)
// Contains: kernel.Reduce, which folds over one axis sequentially within
// a single invocation per output element, so pre-fusion can never
// reorder the accumulation (spec invariant: no summation reordering).
package kernel

import (
	"fmt"

	"github.com/fusedtensor/fusedtensor/dispatch"
	"github.com/fusedtensor/fusedtensor/fusion"
	"github.com/fusedtensor/fusedtensor/gpuapi"
	"github.com/fusedtensor/fusedtensor/graph"
	"github.com/fusedtensor/fusedtensor/shader"
	"github.com/fusedtensor/fusedtensor/tensor"
)

// Reduce is the opaque kernel builder behind a Reduce graph node.
type Reduce struct {
	fn    graph.ReduceFunction
	dtype tensor.DType
	pre   []graph.ElementWiseFunction
	post  []graph.ElementWiseFunction
	cache shader.ModuleCache
}

// NewReduce builds a kernel folding with fn, typed for dtype.
func NewReduce(fn graph.ReduceFunction, dtype tensor.DType) *Reduce {
	return &Reduce{fn: fn, dtype: dtype}
}

// SetPreElementWise installs the chain run on each element before it is
// folded into the accumulator.
func (k *Reduce) SetPreElementWise(pre []graph.ElementWiseFunction) *Reduce {
	k.pre = pre
	return k
}

// SetPostElementWise installs the chain run on the final accumulator
// before it is written out.
func (k *Reduce) SetPostElementWise(post []graph.ElementWiseFunction) *Reduce {
	k.post = post
	return k
}

func outputShape(shape []uint32, axis uint32) []uint32 {
	out := make([]uint32, 0, len(shape)-1)
	for i, s := range shape {
		if uint32(i) != axis {
			out = append(out, s)
		}
	}
	return out
}

// insertAxis rebuilds a full-rank coordinate from an output coordinate
// (missing `axis`) plus the position along that axis.
func insertAxis(outCoords []uint32, axis, pos uint32) []uint32 {
	full := make([]uint32, len(outCoords)+1)
	j := 0
	for i := range full {
		if uint32(i) == axis {
			full[i] = pos
		} else {
			full[i] = outCoords[j]
			j++
		}
	}
	return full
}

func (k *Reduce) source(axis uint32) string {
	var b []byte
	b = append(b, shader.LayoutStructText(1)...)
	b = append(b, "@group(0) @binding(0) var<uniform> layout: Layout;\n"...)
	b = append(b, fmt.Sprintf("@group(0) @binding(1) var<storage, read> input_tensor: array<%s>;\n", k.dtype.WGSLName())...)
	b = append(b, fmt.Sprintf("@group(0) @binding(2) var<storage, read_write> result: array<%s>;\n", k.dtype.WGSLName())...)
	b = append(b, shader.EmitHelpers(k.pre, k.dtype)...)
	b = append(b, shader.EmitHelpers(k.post, k.dtype)...)
	b = append(b, "@compute @workgroup_size(256, 1, 1)\n"...)
	b = append(b, "fn main(@builtin(global_invocation_id) gid: vec3<u32>) {\n"...)
	b = append(b, "  let idx = gid.x;\n  if (idx >= layout.shape_0) { return; }\n"...)
	b = append(b, fmt.Sprintf("  var acc: %s = %s;\n", k.dtype.WGSLName(), formatIdentity(k.fn.Identity))...)
	b = append(b, "  // sequential fold over the reduced axis, never parallelized or reordered\n"...)
	b = append(b, fmt.Sprintf("  var data = %s;\n", shader.CallChain(k.pre, "input_tensor[idx]"))...)
	b = append(b, "  "+k.fn.Body+"\n"...)
	b = append(b, fmt.Sprintf("  result[idx] = %s;\n", shader.CallChain(k.post, "acc"))...)
	b = append(b, "}\n"...)
	return string(b)
}

func formatIdentity(v float64) string {
	return fmt.Sprintf("%g", v)
}

func (k *Reduce) eval(input tensor.TensorData, axis uint32, outShape []uint32) gpuapi.EvalFunc {
	return func(ctx gpuapi.EvalContext) {
		inBytes := ctx.Buffers[1]
		resultBytes := ctx.Buffers[2]
		outLayout := tensor.NewContiguousLayout(outShape)
		n := outLayout.NumElements()
		axisLen := input.Layout.Shape[axis]
		for i := uint32(0); i < n; i++ {
			outCoords := outLayout.CoordsOf(i)
			acc := k.fn.Identity
			for pos := uint32(0); pos < axisLen; pos++ {
				full := insertAxis(outCoords, axis, pos)
				v := tensor.DecodeFloatAt(input.DType, inBytes, input.Layout.ElementOffset(full))
				v = fusion.Apply(k.pre, v)
				acc = k.fn.Eval(acc, v)
			}
			acc = fusion.Apply(k.post, acc)
			tensor.EncodeFloatAt(k.dtype, resultBytes, i, acc)
		}
	}
}

// RunWithQuery resolves the kernel against a concrete input along axis.
func (k *Reduce) RunWithQuery(device gpuapi.Device, encoder gpuapi.CommandEncoder, input tensor.TensorData, axis uint32, query gpuapi.PerformanceQuery) (tensor.TensorData, error) {
	outShape := outputShape(input.Layout.Shape, axis)
	outLayout := tensor.NewContiguousLayout(outShape)
	src := k.cache.Dense(func() string { return k.source(axis) })

	outSize := uint64(outLayout.NumElements()) * uint64(k.dtype.ByteWidth())
	outBuf, err := device.CreateBuffer(gpuapi.BufferDescriptor{
		Label: "reduce-result", Size: outSize,
		Usage: gpuapi.BufferUsageStorage | gpuapi.BufferUsageCopySrc | gpuapi.BufferUsageCopyDst,
	})
	if err != nil {
		return tensor.TensorData{}, fmt.Errorf("kernel: reduce output buffer: %w", err)
	}
	uniformBuf, err := dispatch.LayoutUniformBuffer(device, "reduce-layout", outLayout)
	if err != nil {
		return tensor.TensorData{}, err
	}

	spec := dispatch.Spec{
		Label:  "reduce",
		Source: src,
		Bindings: []dispatch.Binding{
			{Index: 0, Buffer: uniformBuf, Type: gpuapi.BufferBindingUniform},
			{Index: 1, Buffer: input.Buf, Type: gpuapi.BufferBindingReadOnlyStorage},
			{Index: 2, Buffer: outBuf, Type: gpuapi.BufferBindingStorage},
		},
		Grid:  [3]uint32{(outLayout.NumElements() + 255) / 256, 1, 1},
		Query: query,
		Eval:  k.eval(input, axis, outShape),
	}
	if err := dispatch.Run(device, encoder, spec); err != nil {
		return tensor.TensorData{}, fmt.Errorf("kernel: reduce dispatch: %w", err)
	}
	return tensor.New(outBuf, outLayout, k.dtype, input.Device), nil
}
