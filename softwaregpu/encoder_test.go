package softwaregpu

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fusedtensor/fusedtensor/gpuapi"
)

func TestComputePassRunsEvalWithBoundBuffersAndGrid(t *testing.T) {
	device := New()

	var gotGrid [3]uint32
	var gotData []byte
	module, err := device.CreateShaderModule(gpuapi.ShaderModuleDescriptor{
		Label: "double",
		Eval: func(ctx gpuapi.EvalContext) {
			gotGrid = ctx.Grid
			data := ctx.Buffers[1]
			for i := range data {
				data[i] *= 2
			}
			gotData = data
		},
	})
	require.NoError(t, err)

	layout, err := device.CreateBindGroupLayout(gpuapi.BindGroupLayoutDescriptor{})
	require.NoError(t, err)
	pipelineLayout, err := device.CreatePipelineLayout(gpuapi.PipelineLayoutDescriptor{BindGroupLayouts: []gpuapi.BindGroupLayout{layout}})
	require.NoError(t, err)
	pipeline, err := device.CreateComputePipeline(gpuapi.ComputePipelineDescriptor{Module: module, Layout: pipelineLayout})
	require.NoError(t, err)

	buf, err := device.CreateBuffer(gpuapi.BufferDescriptor{Contents: []byte{1, 2, 3}})
	require.NoError(t, err)
	bindGroup, err := device.CreateBindGroup(gpuapi.BindGroupDescriptor{
		Entries: []gpuapi.BindGroupEntry{{Binding: 1, Buffer: buf}},
	})
	require.NoError(t, err)

	encoder := NewEncoder()
	pass := encoder.BeginComputePass(gpuapi.ComputePassDescriptor{})
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, bindGroup)
	pass.DispatchWorkgroups(2, 1, 1)
	pass.End()

	require.Equal(t, [3]uint32{2, 1, 1}, gotGrid)
	require.Equal(t, []byte{2, 4, 6}, gotData)
	require.Equal(t, []byte{2, 4, 6}, buf.(*Buffer).Bytes(), "eval must mutate the buffer's real backing bytes, not a copy")
}

func TestComputePassEndPanicsWithoutPipelineOrBindGroup(t *testing.T) {
	encoder := NewEncoder()
	pass := encoder.BeginComputePass(gpuapi.ComputePassDescriptor{})
	require.Panics(t, pass.End)
}
