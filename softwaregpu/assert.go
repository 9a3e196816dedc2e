package softwaregpu

import "github.com/fusedtensor/fusedtensor/gpuapi"

var (
	_ gpuapi.Device          = (*Device)(nil)
	_ gpuapi.Buffer          = (*Buffer)(nil)
	_ gpuapi.ShaderModule    = (*shaderModule)(nil)
	_ gpuapi.BindGroupLayout = (*bindGroupLayout)(nil)
	_ gpuapi.PipelineLayout  = (*pipelineLayout)(nil)
	_ gpuapi.ComputePipeline = (*computePipeline)(nil)
	_ gpuapi.BindGroup       = (*bindGroup)(nil)
	_ gpuapi.CommandEncoder  = (*Encoder)(nil)
	_ gpuapi.ComputePass     = (*pass)(nil)
	_ gpuapi.Queue           = queue{}
)
