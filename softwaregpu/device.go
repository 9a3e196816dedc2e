// Package softwaregpu is an in-process, CPU-only implementation of
// gpuapi used by tests and the demo CLI. It does not parse the generated
// shader text — that would be a WGSL compiler, out of scope here.
// Instead it runs the gpuapi.EvalFunc every shader module carries
// alongside its source, mirroring the "CPU path mirrors the GPU shader
// algorithm" pattern used to verify GPU-backed code without real
// hardware. softwaregpu is a reference evaluator, not a GPU simulator.
package softwaregpu

import (
	"fmt"

	"github.com/fusedtensor/fusedtensor/gpuapi"
)

// Buffer is a plain byte slice standing in for device memory.
type Buffer struct {
	data []byte
}

func (b *Buffer) Size() uint64 { return uint64(len(b.data)) }

// Bytes exposes the live backing slice, for tests and for readback.
func (b *Buffer) Bytes() []byte { return b.data }

type shaderModule struct {
	label string
	eval  gpuapi.EvalFunc
}

type bindGroupLayout struct{ entries []gpuapi.BindGroupLayoutEntry }
type pipelineLayout struct{ layouts []gpuapi.BindGroupLayout }
type computePipeline struct {
	module     *shaderModule
	entryPoint string
}
type bindGroup struct{ entries []gpuapi.BindGroupEntry }

// Device is a CPU-backed gpuapi.Device.
type Device struct{}

// New returns a fresh software device. There is no persistent state
// shared across devices; every buffer/pipeline it creates is independent.
func New() *Device { return &Device{} }

func (d *Device) CreateBuffer(desc gpuapi.BufferDescriptor) (gpuapi.Buffer, error) {
	size := desc.Size
	if uint64(len(desc.Contents)) > size {
		size = uint64(len(desc.Contents))
	}
	buf := &Buffer{data: make([]byte, size)}
	copy(buf.data, desc.Contents)
	return buf, nil
}

func (d *Device) CreateShaderModule(desc gpuapi.ShaderModuleDescriptor) (gpuapi.ShaderModule, error) {
	if desc.Eval == nil {
		return nil, fmt.Errorf("softwaregpu: shader module %q has no reference evaluator", desc.Label)
	}
	return &shaderModule{label: desc.Label, eval: desc.Eval}, nil
}

func (d *Device) CreateBindGroupLayout(desc gpuapi.BindGroupLayoutDescriptor) (gpuapi.BindGroupLayout, error) {
	return &bindGroupLayout{entries: desc.Entries}, nil
}

func (d *Device) CreatePipelineLayout(desc gpuapi.PipelineLayoutDescriptor) (gpuapi.PipelineLayout, error) {
	return &pipelineLayout{layouts: desc.BindGroupLayouts}, nil
}

func (d *Device) CreateComputePipeline(desc gpuapi.ComputePipelineDescriptor) (gpuapi.ComputePipeline, error) {
	mod, ok := desc.Module.(*shaderModule)
	if !ok {
		return nil, fmt.Errorf("softwaregpu: foreign shader module %T", desc.Module)
	}
	return &computePipeline{module: mod, entryPoint: desc.EntryPoint}, nil
}

func (d *Device) CreateBindGroup(desc gpuapi.BindGroupDescriptor) (gpuapi.BindGroup, error) {
	return &bindGroup{entries: desc.Entries}, nil
}

func (d *Device) Queue() gpuapi.Queue { return queue{} }

type queue struct{}

func (queue) WriteBuffer(buf gpuapi.Buffer, offset uint64, data []byte) {
	sb, ok := buf.(*Buffer)
	if !ok {
		panic("softwaregpu: foreign buffer type")
	}
	copy(sb.data[offset:], data)
}
