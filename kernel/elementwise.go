// elementwise.go - the standalone elementwise kernel (F2's "materialize P"
// branch): runs a collapsed elementwise chain over an already-realized
// tensor, via the dense/strided entry-point module C4 emits.
package kernel

import (
	"fmt"

	"github.com/fusedtensor/fusedtensor/dispatch"
	"github.com/fusedtensor/fusedtensor/envconfig"
	"github.com/fusedtensor/fusedtensor/fusion"
	"github.com/fusedtensor/fusedtensor/gpuapi"
	"github.com/fusedtensor/fusedtensor/graph"
	"github.com/fusedtensor/fusedtensor/shader"
	"github.com/fusedtensor/fusedtensor/tensor"
)

// ElementWise is the standalone kernel builder used when a collapsed
// elementwise chain's producer cannot absorb it and must instead be
// materialized first.
type ElementWise struct {
	cache shader.ModuleCache
}

// NewElementWise builds a fresh standalone elementwise kernel instance.
func NewElementWise() *ElementWise {
	return &ElementWise{}
}

func evalChainEntryPoint(chain []graph.ElementWiseFunction, dtype tensor.DType, layout tensor.Layout) gpuapi.EvalFunc {
	return func(ctx gpuapi.EvalContext) {
		data := ctx.Buffers[1]
		n := layout.NumElements()
		for i := uint32(0); i < n; i++ {
			coords := layout.CoordsOf(i)
			off := layout.ElementOffset(coords)
			v := tensor.DecodeFloatAt(dtype, data, off)
			v = fusion.Apply(chain, v)
			tensor.EncodeFloatAt(dtype, data, off, v)
		}
	}
}

// Run addresses input's buffer in place and runs chain over it there; an
// empty chain is a no-op and input is returned unchanged without a
// dispatch. Both the dense and strided paths read and write the same
// storage buffer through input.Layout, so a non-contiguous (sliced)
// input is mutated at its real offsets rather than copied into a fresh
// contiguous buffer first.
func (k *ElementWise) Run(device gpuapi.Device, encoder gpuapi.CommandEncoder, chain []graph.ElementWiseFunction, input tensor.TensorData, query gpuapi.PerformanceQuery) (tensor.TensorData, error) {
	if len(chain) == 0 {
		return input, nil
	}

	opts := shader.Options{
		Functions:  chain,
		DType:      input.DType,
		Contiguous: input.Layout.IsContiguous(),
		Layout:     input.Layout,
		Tile:       uint32(envconfig.TileSize()),
	}
	var src string
	if opts.Contiguous {
		src = k.cache.Dense(func() string { return shader.EmitEntryPoint(opts) })
	} else {
		src = k.cache.Strided(func() string { return shader.EmitEntryPoint(opts) })
	}

	uniformBuf, err := dispatch.LayoutUniformBuffer(device, "elementwise-layout", input.Layout)
	if err != nil {
		return tensor.TensorData{}, err
	}

	x, y, z := shader.DispatchGrid(opts)
	spec := dispatch.Spec{
		Label:  "elementwise",
		Source: src,
		Bindings: []dispatch.Binding{
			{Index: 0, Buffer: uniformBuf, Type: gpuapi.BufferBindingUniform},
			{Index: 1, Buffer: input.Buf, Type: gpuapi.BufferBindingStorage},
		},
		Grid:  [3]uint32{x, y, z},
		Query: query,
		Eval:  evalChainEntryPoint(chain, input.DType, input.Layout),
	}

	if err := dispatch.Run(device, encoder, spec); err != nil {
		return tensor.TensorData{}, fmt.Errorf("kernel: elementwise dispatch: %w", err)
	}
	return tensor.New(input.Buf, input.Layout, input.DType, input.Device), nil
}
