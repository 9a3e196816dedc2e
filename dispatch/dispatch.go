// Package dispatch is the wrapper (C5) that turns a generated shader
// module and a set of bound buffers into a recorded compute pass: build
// pipeline, upload the layout uniform, record the pass, optionally
// resolve a performance query. Every Run call walks the same state
// machine: Idle -> BuildPipeline -> UploadUniform -> RecordPass ->
// QueryResolve(optional) -> Idle. Any step failing is fatal for that
// resolve and the error propagates to the caller unchanged in shape
// (package resolve wraps it with context).
package dispatch

import (
	"fmt"

	"github.com/fusedtensor/fusedtensor/gpuapi"
	"github.com/fusedtensor/fusedtensor/tensor"
)

// Binding is one resource bound at group 0 for a dispatch.
type Binding struct {
	Index  uint32
	Buffer gpuapi.Buffer
	Type   gpuapi.BufferBindingType
}

// Spec describes everything one compute dispatch needs: the generated
// source, the bindings it reads/writes, and the workgroup grid C4
// computed for it.
type Spec struct {
	Label      string
	Source     string
	EntryPoint string
	Bindings   []Binding
	Grid       [3]uint32
	Query      gpuapi.PerformanceQuery
	// Eval is the reference CPU evaluator a software Device runs instead
	// of interpreting Source. Real GPU backends ignore it.
	Eval gpuapi.EvalFunc
}

// LayoutUniformBuffer allocates and uploads a layout's packed u32 words
// as a uniform buffer, padded to the GPU API's 16-byte alignment. This is
// the UploadUniform step of the state machine, pulled out so every kernel
// builder shares the same padding logic.
func LayoutUniformBuffer(device gpuapi.Device, label string, layout tensor.Layout) (gpuapi.Buffer, error) {
	words := layout.UniformWords()
	data := make([]byte, len(words)*4)
	for i, w := range words {
		data[i*4+0] = byte(w)
		data[i*4+1] = byte(w >> 8)
		data[i*4+2] = byte(w >> 16)
		data[i*4+3] = byte(w >> 24)
	}
	if pad := len(data) % 16; pad != 0 {
		data = append(data, make([]byte, 16-pad)...)
	}
	buf, err := device.CreateBuffer(gpuapi.BufferDescriptor{
		Label:    label,
		Size:     uint64(len(data)),
		Usage:    gpuapi.BufferUsageUniform | gpuapi.BufferUsageCopyDst,
		Contents: data,
	})
	if err != nil {
		return nil, fmt.Errorf("dispatch: upload layout uniform: %w", err)
	}
	return buf, nil
}

// Run executes the state machine for a single dispatch: build the
// pipeline from spec.Source, build a bind group over spec.Bindings,
// record a compute pass dispatching spec.Grid, and resolve spec.Query if
// present.
func Run(device gpuapi.Device, encoder gpuapi.CommandEncoder, spec Spec) error {
	// BuildPipeline
	module, err := device.CreateShaderModule(gpuapi.ShaderModuleDescriptor{Label: spec.Label, Source: spec.Source, Eval: spec.Eval})
	if err != nil {
		return fmt.Errorf("dispatch: compile shader %q: %w", spec.Label, err)
	}

	layoutEntries := make([]gpuapi.BindGroupLayoutEntry, len(spec.Bindings))
	for i, b := range spec.Bindings {
		layoutEntries[i] = gpuapi.BindGroupLayoutEntry{
			Binding:    b.Index,
			Visibility: gpuapi.ShaderStageCompute,
			BufferType: b.Type,
		}
	}
	bgLayout, err := device.CreateBindGroupLayout(gpuapi.BindGroupLayoutDescriptor{Label: spec.Label, Entries: layoutEntries})
	if err != nil {
		return fmt.Errorf("dispatch: bind group layout %q: %w", spec.Label, err)
	}
	pipelineLayout, err := device.CreatePipelineLayout(gpuapi.PipelineLayoutDescriptor{
		Label:            spec.Label,
		BindGroupLayouts: []gpuapi.BindGroupLayout{bgLayout},
	})
	if err != nil {
		return fmt.Errorf("dispatch: pipeline layout %q: %w", spec.Label, err)
	}
	entryPoint := spec.EntryPoint
	if entryPoint == "" {
		entryPoint = "main"
	}
	pipeline, err := device.CreateComputePipeline(gpuapi.ComputePipelineDescriptor{
		Label:      spec.Label,
		Layout:     pipelineLayout,
		Module:     module,
		EntryPoint: entryPoint,
	})
	if err != nil {
		return fmt.Errorf("dispatch: compute pipeline %q: %w", spec.Label, err)
	}

	// UploadUniform already happened when the caller built spec.Bindings
	// (buffers created with Contents are uploaded at creation); this step
	// is folded into bind-group construction below.

	entries := make([]gpuapi.BindGroupEntry, len(spec.Bindings))
	for i, b := range spec.Bindings {
		entries[i] = gpuapi.BindGroupEntry{Binding: b.Index, Buffer: b.Buffer}
	}
	bindGroup, err := device.CreateBindGroup(gpuapi.BindGroupDescriptor{Label: spec.Label, Layout: bgLayout, Entries: entries})
	if err != nil {
		return fmt.Errorf("dispatch: bind group %q: %w", spec.Label, err)
	}

	// RecordPass
	passDesc := gpuapi.ComputePassDescriptor{Label: spec.Label}
	if spec.Query != nil {
		passDesc.TimestampWrites = &gpuapi.TimestampWrites{QuerySet: spec.Query, BeginningOfPassIx: 0, EndOfPassIx: 1}
	}
	pass := encoder.BeginComputePass(passDesc)
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, bindGroup)
	pass.DispatchWorkgroups(spec.Grid[0], spec.Grid[1], spec.Grid[2])
	pass.End()

	// QueryResolve (optional)
	if spec.Query != nil {
		spec.Query.Resolve(encoder)
	}
	return nil
}
