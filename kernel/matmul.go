// matmul.go - UntypedMatMul (C6.3)
// Contains: kernel.MatMul, a rank-2 tiled shader contracting First's last
// axis against Second's first axis.
package kernel

import (
	"fmt"

	"github.com/fusedtensor/fusedtensor/dispatch"
	"github.com/fusedtensor/fusedtensor/gpuapi"
	"github.com/fusedtensor/fusedtensor/shader"
	"github.com/fusedtensor/fusedtensor/tensor"
)

// MatMul is the opaque kernel builder behind a MatMul graph node.
type MatMul struct {
	dtype tensor.DType
	cache shader.ModuleCache
}

// NewMatMul builds a kernel typed for dtype.
func NewMatMul(dtype tensor.DType) *MatMul {
	return &MatMul{dtype: dtype}
}

func (k *MatMul) source() string {
	t := k.dtype.WGSLName()
	return fmt.Sprintf(
		"struct Dims { m: u32, n: u32, p: u32 }\n"+
			"@group(0) @binding(0) var<uniform> dims: Dims;\n"+
			"@group(0) @binding(1) var<storage, read> first: array<%s>;\n"+
			"@group(0) @binding(2) var<storage, read> second: array<%s>;\n"+
			"@group(0) @binding(3) var<storage, read_write> result: array<%s>;\n"+
			"@compute @workgroup_size(16, 16, 1)\n"+
			"fn main(@builtin(global_invocation_id) gid: vec3<u32>) {\n"+
			"  let row = gid.y;\n  let col = gid.x;\n"+
			"  if (row >= dims.m || col >= dims.p) { return; }\n"+
			"  var acc: %s = %s;\n"+
			"  for (var k: u32 = 0u; k < dims.n; k = k + 1u) {\n"+
			"    acc = acc + first[row * dims.n + k] * second[k * dims.p + col];\n"+
			"  }\n"+
			"  result[row * dims.p + col] = acc;\n"+
			"}\n",
		t, t, t, t, zeroLiteral(k.dtype))
}

func zeroLiteral(dtype tensor.DType) string {
	if dtype == tensor.I32 {
		return "0"
	}
	return "0.0"
}

func (k *MatMul) eval(first, second tensor.TensorData, m, n, p uint32) gpuapi.EvalFunc {
	return func(ctx gpuapi.EvalContext) {
		firstBytes := ctx.Buffers[1]
		secondBytes := ctx.Buffers[2]
		resultBytes := ctx.Buffers[3]
		for row := uint32(0); row < m; row++ {
			for col := uint32(0); col < p; col++ {
				var acc float64
				for k2 := uint32(0); k2 < n; k2++ {
					a := tensor.DecodeFloatAt(first.DType, firstBytes, first.Layout.ElementOffset([]uint32{row, k2}))
					b := tensor.DecodeFloatAt(second.DType, secondBytes, second.Layout.ElementOffset([]uint32{k2, col}))
					acc += a * b
				}
				tensor.EncodeFloatAt(k.dtype, resultBytes, row*p+col, acc)
			}
		}
	}
}

// RunWithQuery contracts first's last axis against second's first axis.
func (k *MatMul) RunWithQuery(device gpuapi.Device, encoder gpuapi.CommandEncoder, first, second tensor.TensorData, query gpuapi.PerformanceQuery) (tensor.TensorData, error) {
	m, n, p := first.Layout.Shape[0], first.Layout.Shape[1], second.Layout.Shape[1]
	outLayout := tensor.NewContiguousLayout([]uint32{m, p})
	src := k.cache.Dense(k.source)

	outSize := uint64(outLayout.NumElements()) * uint64(k.dtype.ByteWidth())
	outBuf, err := device.CreateBuffer(gpuapi.BufferDescriptor{
		Label: "matmul-result", Size: outSize,
		Usage: gpuapi.BufferUsageStorage | gpuapi.BufferUsageCopySrc | gpuapi.BufferUsageCopyDst,
	})
	if err != nil {
		return tensor.TensorData{}, fmt.Errorf("kernel: matmul output buffer: %w", err)
	}
	dims := make([]byte, 12)
	putDimsU32(dims, 0, m)
	putDimsU32(dims, 4, n)
	putDimsU32(dims, 8, p)
	dimsBuf, err := device.CreateBuffer(gpuapi.BufferDescriptor{
		Label: "matmul-dims", Size: 16,
		Usage: gpuapi.BufferUsageUniform | gpuapi.BufferUsageCopyDst, Contents: append(dims, 0, 0, 0, 0),
	})
	if err != nil {
		return tensor.TensorData{}, fmt.Errorf("kernel: matmul dims buffer: %w", err)
	}

	spec := dispatch.Spec{
		Label:  "matmul",
		Source: src,
		Bindings: []dispatch.Binding{
			{Index: 0, Buffer: dimsBuf, Type: gpuapi.BufferBindingUniform},
			{Index: 1, Buffer: first.Buf, Type: gpuapi.BufferBindingReadOnlyStorage},
			{Index: 2, Buffer: second.Buf, Type: gpuapi.BufferBindingReadOnlyStorage},
			{Index: 3, Buffer: outBuf, Type: gpuapi.BufferBindingStorage},
		},
		Grid:  [3]uint32{(p + 15) / 16, (m + 15) / 16, 1},
		Query: query,
		Eval:  k.eval(first, second, m, n, p),
	}
	if err := dispatch.Run(device, encoder, spec); err != nil {
		return tensor.TensorData{}, fmt.Errorf("kernel: matmul dispatch: %w", err)
	}
	return tensor.New(outBuf, outLayout, k.dtype, first.Device), nil
}

func putDimsU32(b []byte, offset int, v uint32) {
	b[offset+0] = byte(v)
	b[offset+1] = byte(v >> 8)
	b[offset+2] = byte(v >> 16)
	b[offset+3] = byte(v >> 24)
}
