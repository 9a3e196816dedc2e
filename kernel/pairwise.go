// pairwise.go - UntypedPairWiseKernel (C6.3)
// Contains: kernel.PairWise, which emits a single shader combining up to
// three spliced elementwise stages (pre-first, pre-second, post) around
// one binary function.
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

// PairWise is the opaque kernel builder behind a PairWise graph node.
// Sibling to Reduce, MatMul, Resize, and SliceAssign: each is an external
// collaborator the resolver calls with resolved operands and static
// parameters.
type PairWise struct {
	fn        graph.BinaryFunction
	dtype     tensor.DType
	preFirst  []graph.ElementWiseFunction
	preSecond []graph.ElementWiseFunction
	post      []graph.ElementWiseFunction
	cache     shader.ModuleCache
}

// NewPairWise builds a kernel around fn, typed for dtype.
func NewPairWise(fn graph.BinaryFunction, dtype tensor.DType) *PairWise {
	return &PairWise{fn: fn, dtype: dtype}
}

// SetPreElementWise installs the two operands' pre-stage chains: pre[0]
// runs on First before fn, pre[1] runs on Second before fn.
func (k *PairWise) SetPreElementWise(pre [2][]graph.ElementWiseFunction) *PairWise {
	k.preFirst, k.preSecond = pre[0], pre[1]
	return k
}

// SetPostElementWise installs the chain run on fn's result before it is
// written out.
func (k *PairWise) SetPostElementWise(post []graph.ElementWiseFunction) *PairWise {
	k.post = post
	return k
}

func (k *PairWise) source() string {
	var b []byte
	b = append(b, shader.LayoutStructText(1)...)
	b = append(b, "@group(0) @binding(0) var<uniform> layout: Layout;\n"...)
	b = append(b, fmt.Sprintf("@group(0) @binding(1) var<storage, read> first: array<%s>;\n", k.dtype.WGSLName())...)
	b = append(b, fmt.Sprintf("@group(0) @binding(2) var<storage, read> second: array<%s>;\n", k.dtype.WGSLName())...)
	b = append(b, fmt.Sprintf("@group(0) @binding(3) var<storage, read_write> result: array<%s>;\n", k.dtype.WGSLName())...)
	b = append(b, shader.EmitHelpers(k.preFirst, k.dtype)...)
	b = append(b, shader.EmitHelpers(k.preSecond, k.dtype)...)
	b = append(b, shader.EmitHelpers(k.post, k.dtype)...)
	b = append(b, "@compute @workgroup_size(256, 1, 1)\n"...)
	b = append(b, "fn main(@builtin(global_invocation_id) gid: vec3<u32>) {\n"...)
	b = append(b, "  let idx = gid.x;\n  if (idx >= layout.shape_0) { return; }\n"...)
	b = append(b, fmt.Sprintf("  var a = %s;\n", shader.CallChain(k.preFirst, "first[idx]"))...)
	b = append(b, fmt.Sprintf("  var b = %s;\n", shader.CallChain(k.preSecond, "second[idx]"))...)
	b = append(b, "  var data: "+k.dtype.WGSLName()+";\n  "+k.fn.Body+"\n"...)
	b = append(b, fmt.Sprintf("  result[idx] = %s;\n", shader.CallChain(k.post, "data"))...)
	b = append(b, "}\n"...)
	return string(b)
}

func (k *PairWise) eval(first, second tensor.TensorData, outLayout tensor.Layout) gpuapi.EvalFunc {
	return func(ctx gpuapi.EvalContext) {
		firstBytes := ctx.Buffers[1]
		secondBytes := ctx.Buffers[2]
		resultBytes := ctx.Buffers[3]
		n := outLayout.NumElements()
		for i := uint32(0); i < n; i++ {
			coords := outLayout.CoordsOf(i)
			a := tensor.DecodeFloatAt(first.DType, firstBytes, first.Layout.ElementOffset(coords))
			b := tensor.DecodeFloatAt(second.DType, secondBytes, second.Layout.ElementOffset(coords))
			a = fusion.Apply(k.preFirst, a)
			b = fusion.Apply(k.preSecond, b)
			combined := k.fn.Eval(a, b)
			combined = fusion.Apply(k.post, combined)
			tensor.EncodeFloatAt(k.dtype, resultBytes, i, combined)
		}
	}
}

// RunWithQuery resolves the kernel against concrete operands: builds (or
// reuses the cached) shader source, allocates the output buffer, and
// records the dispatch onto encoder.
func (k *PairWise) RunWithQuery(device gpuapi.Device, encoder gpuapi.CommandEncoder, first, second tensor.TensorData, query gpuapi.PerformanceQuery) (tensor.TensorData, error) {
	outLayout := tensor.NewContiguousLayout(first.Layout.Shape)
	src := k.cache.Dense(k.source)

	outSize := uint64(outLayout.NumElements()) * uint64(k.dtype.ByteWidth())
	outBuf, err := device.CreateBuffer(gpuapi.BufferDescriptor{
		Label: "pairwise-result", Size: outSize,
		Usage: gpuapi.BufferUsageStorage | gpuapi.BufferUsageCopySrc | gpuapi.BufferUsageCopyDst,
	})
	if err != nil {
		return tensor.TensorData{}, fmt.Errorf("kernel: pairwise output buffer: %w", err)
	}
	uniformBuf, err := dispatch.LayoutUniformBuffer(device, "pairwise-layout", outLayout)
	if err != nil {
		return tensor.TensorData{}, err
	}

	spec := dispatch.Spec{
		Label:  "pairwise",
		Source: src,
		Bindings: []dispatch.Binding{
			{Index: 0, Buffer: uniformBuf, Type: gpuapi.BufferBindingUniform},
			{Index: 1, Buffer: first.Buf, Type: gpuapi.BufferBindingReadOnlyStorage},
			{Index: 2, Buffer: second.Buf, Type: gpuapi.BufferBindingReadOnlyStorage},
			{Index: 3, Buffer: outBuf, Type: gpuapi.BufferBindingStorage},
		},
		Grid:  [3]uint32{(outLayout.NumElements() + 255) / 256, 1, 1},
		Query: query,
		Eval:  k.eval(first, second, outLayout),
	}
	if err := dispatch.Run(device, encoder, spec); err != nil {
		return tensor.TensorData{}, fmt.Errorf("kernel: pairwise dispatch: %w", err)
	}
	return tensor.New(outBuf, outLayout, k.dtype, first.Device), nil
}
