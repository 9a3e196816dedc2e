// Package gpuapi is the contract this engine needs from a general-purpose
// GPU compute API: buffer creation, shader-module compilation, compute
// pipelines, bind groups, and command-encoder recording. Device and queue
// bring-up, buffer allocation policy, and host readback are external
// collaborators and are not implemented here — only the shapes of the
// calls the dispatch wrapper (package dispatch) must make.
package gpuapi

// BufferUsage is a bitmask describing how a buffer will be bound.
type BufferUsage uint32

const (
	BufferUsageUniform BufferUsage = 1 << iota
	BufferUsageStorage
	BufferUsageCopySrc
	BufferUsageCopyDst
)

// ShaderStage identifies which pipeline stages a binding is visible to.
// The engine only ever records compute work, but the bitmask mirrors the
// GPU API's own (compute | vertex | fragment) shape.
type ShaderStage uint32

const (
	ShaderStageCompute ShaderStage = 1 << iota
	ShaderStageVertex
	ShaderStageFragment
)

// BufferBindingType distinguishes uniform from (read-only) storage
// bindings in a bind-group-layout entry.
type BufferBindingType int

const (
	BufferBindingUniform BufferBindingType = iota
	BufferBindingStorage
	BufferBindingReadOnlyStorage
)

// BindGroupLayoutEntry describes one binding slot at group 0.
type BindGroupLayoutEntry struct {
	Binding    uint32
	Visibility ShaderStage
	BufferType BufferBindingType
}

// BindGroupLayoutDescriptor is the group-0 layout a kernel binds: the
// standalone elementwise kernel uses two entries (uniform, storage);
// pairwise, reduce, and matmul kernels list more storage entries.
type BindGroupLayoutDescriptor struct {
	Label   string
	Entries []BindGroupLayoutEntry
}

// BufferDescriptor describes a buffer to allocate.
type BufferDescriptor struct {
	Label    string
	Size     uint64
	Usage    BufferUsage
	Contents []byte // non-nil for create-with-contents (e.g. the layout uniform)
}

// ShaderModuleDescriptor carries the generated shader source text, plus an
// optional reference CPU evaluator real GPU backends ignore and a
// software Device executes instead (see EvalFunc).
type ShaderModuleDescriptor struct {
	Label  string
	Source string
	Eval   EvalFunc
}

// PipelineLayoutDescriptor references the bind-group layouts a pipeline
// uses, in group order.
type PipelineLayoutDescriptor struct {
	Label            string
	BindGroupLayouts []BindGroupLayout
}

// ComputePipelineDescriptor binds a shader module to an entry point.
type ComputePipelineDescriptor struct {
	Label      string
	Layout     PipelineLayout
	Module     ShaderModule
	EntryPoint string
}

// BindGroupEntry binds a resource to a binding slot.
type BindGroupEntry struct {
	Binding uint32
	Buffer  Buffer
}

// BindGroupDescriptor instantiates a bind group against a layout.
type BindGroupDescriptor struct {
	Label   string
	Layout  BindGroupLayout
	Entries []BindGroupEntry
}

// TimestampWrites names the performance-query buffer to record begin/end
// timestamps into, when a PerformanceQuery is supplied to a dispatch.
type TimestampWrites struct {
	QuerySet          PerformanceQuery
	BeginningOfPassIx uint32
	EndOfPassIx       uint32
}

// ComputePassDescriptor optionally attaches timestamp writes to a pass.
type ComputePassDescriptor struct {
	Label           string
	TimestampWrites *TimestampWrites
}

// PerformanceQuery is an external performance-query facility, threaded
// through as an opaque handle so the dispatch wrapper can annotate and
// resolve it without knowing its implementation.
type PerformanceQuery interface {
	Resolve(encoder CommandEncoder)
}
