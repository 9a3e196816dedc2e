package gpuapi

// Buffer is an opaque handle to a GPU-visible buffer.
type Buffer interface {
	Size() uint64
}

// ShaderModule is an opaque handle to a compiled shader module.
type ShaderModule interface{}

// BindGroupLayout is an opaque handle to a bind-group layout.
type BindGroupLayout interface{}

// BindGroup is an opaque handle to an instantiated bind group.
type BindGroup interface{}

// PipelineLayout is an opaque handle to a pipeline layout.
type PipelineLayout interface{}

// ComputePipeline is an opaque handle to a compiled compute pipeline.
type ComputePipeline interface{}

// ComputePass is the recording interface for a single compute pass within
// a command encoder.
type ComputePass interface {
	SetPipeline(p ComputePipeline)
	SetBindGroup(group uint32, bg BindGroup)
	DispatchWorkgroups(x, y, z uint32)
	End()
}

// CommandEncoder accumulates compute passes to be submitted as a unit. The
// resolver appends passes to one encoder per realize call; submission is
// the caller's responsibility.
type CommandEncoder interface {
	BeginComputePass(desc ComputePassDescriptor) ComputePass
}

// Queue uploads buffer contents. Submission of recorded command buffers
// is not part of this interface.
type Queue interface {
	WriteBuffer(buf Buffer, offset uint64, data []byte)
}

// Device creates the GPU resources a kernel needs: buffers, shader
// modules, pipeline layouts, compute pipelines, and bind groups. Device
// and queue bring-up (instance/adapter selection, surface configuration)
// are external collaborators; only resource-creation calls the dispatch
// wrapper needs are modeled here.
type Device interface {
	CreateBuffer(desc BufferDescriptor) (Buffer, error)
	CreateShaderModule(desc ShaderModuleDescriptor) (ShaderModule, error)
	CreateBindGroupLayout(desc BindGroupLayoutDescriptor) (BindGroupLayout, error)
	CreatePipelineLayout(desc PipelineLayoutDescriptor) (PipelineLayout, error)
	CreateComputePipeline(desc ComputePipelineDescriptor) (ComputePipeline, error)
	CreateBindGroup(desc BindGroupDescriptor) (BindGroup, error)
	Queue() Queue
}
