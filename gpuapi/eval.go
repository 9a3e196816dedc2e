package gpuapi

// EvalContext is passed to an EvalFunc: the raw bytes backing each bound
// buffer, indexed by the same binding number used to build the bind
// group, plus the dispatch grid a real backend would have launched. A
// software Device implementation supplies slices that alias its own
// buffer storage, so an EvalFunc mutates them in place exactly as the
// generated shader text would mutate the bound storage buffer.
type EvalContext struct {
	Buffers map[uint32][]byte
	Grid    [3]uint32
}

// EvalFunc is an optional reference CPU implementation a shader module
// carries alongside its generated source text. Real GPU backends ignore
// it entirely; a software (CPU) Device executes it in place of compiling
// and running the shader source, since this engine does not ship a WGSL
// interpreter.
type EvalFunc func(EvalContext)
