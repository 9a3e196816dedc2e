package softwaregpu

import "github.com/fusedtensor/fusedtensor/gpuapi"

// Encoder records compute passes; since there is no real device queue to
// submit to, each pass's evaluator runs synchronously at End(), which is
// observably equivalent to running at submit time because nothing reads
// the mutated buffers before then.
type Encoder struct{}

// NewEncoder returns a fresh command encoder.
func NewEncoder() *Encoder { return &Encoder{} }

func (e *Encoder) BeginComputePass(desc gpuapi.ComputePassDescriptor) gpuapi.ComputePass {
	pass := &pass{}
	if desc.TimestampWrites != nil {
		pass.query = desc.TimestampWrites.QuerySet
	}
	return pass
}

type pass struct {
	pipeline  *computePipeline
	bindGroup *bindGroup
	grid      [3]uint32
	query     gpuapi.PerformanceQuery
}

func (p *pass) SetPipeline(pl gpuapi.ComputePipeline) {
	cp, ok := pl.(*computePipeline)
	if !ok {
		panic("softwaregpu: foreign pipeline type")
	}
	p.pipeline = cp
}

func (p *pass) SetBindGroup(group uint32, bg gpuapi.BindGroup) {
	b, ok := bg.(*bindGroup)
	if !ok {
		panic("softwaregpu: foreign bind group type")
	}
	p.bindGroup = b
}

func (p *pass) DispatchWorkgroups(x, y, z uint32) {
	p.grid = [3]uint32{x, y, z}
}

func (p *pass) End() {
	if p.pipeline == nil || p.bindGroup == nil {
		panic("softwaregpu: End called without a pipeline and bind group set")
	}
	buffers := make(map[uint32][]byte, len(p.bindGroup.entries))
	for _, entry := range p.bindGroup.entries {
		sb, ok := entry.Buffer.(*Buffer)
		if !ok {
			panic("softwaregpu: foreign buffer type in bind group")
		}
		buffers[entry.Binding] = sb.data
	}
	p.pipeline.module.eval(gpuapi.EvalContext{Buffers: buffers, Grid: p.grid})
}
