package dispatch

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fusedtensor/fusedtensor/gpuapi"
	"github.com/fusedtensor/fusedtensor/softwaregpu"
	"github.com/fusedtensor/fusedtensor/tensor"
)

func TestLayoutUniformBufferPacksOffsetShapeStridesPadded(t *testing.T) {
	device := softwaregpu.New()
	layout := tensor.NewContiguousLayout([]uint32{3, 2})

	buf, err := LayoutUniformBuffer(device, "test-layout", layout)
	require.NoError(t, err)

	// offset(1) + shape(2) + strides(2) = 5 words = 20 bytes, padded to 32.
	require.Equal(t, uint64(32), buf.Size())

	sb := buf.(*softwaregpu.Buffer).Bytes()
	require.Equal(t, uint32(0), littleEndianU32(sb[0:4]), "offset")
	require.Equal(t, uint32(3), littleEndianU32(sb[4:8]), "shape[0]")
	require.Equal(t, uint32(2), littleEndianU32(sb[8:12]), "shape[1]")
}

func littleEndianU32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func TestRunInvokesEvalWithGridAndBindings(t *testing.T) {
	device := softwaregpu.New()
	encoder := softwaregpu.NewEncoder()

	in, err := device.CreateBuffer(gpuapi.BufferDescriptor{Contents: []byte{1, 2, 3, 4}})
	require.NoError(t, err)

	var sawGrid [3]uint32
	err = Run(device, encoder, Spec{
		Label:      "inc",
		Source:     "// placeholder: correctness carried by Eval",
		EntryPoint: "main",
		Bindings: []Binding{
			{Index: 1, Buffer: in, Type: gpuapi.BufferBindingStorage},
		},
		Grid: [3]uint32{4, 1, 1},
		Eval: func(ctx gpuapi.EvalContext) {
			sawGrid = ctx.Grid
			data := ctx.Buffers[1]
			for i := range data {
				data[i]++
			}
		},
	})
	require.NoError(t, err)

	require.Equal(t, [3]uint32{4, 1, 1}, sawGrid)
	require.Equal(t, []byte{2, 3, 4, 5}, in.(*softwaregpu.Buffer).Bytes())
}

// entryPointRecorder remembers the entry point of the last compute
// pipeline it was asked to create.
type entryPointRecorder struct {
	*softwaregpu.Device
	entryPoint string
}

func (d *entryPointRecorder) CreateComputePipeline(desc gpuapi.ComputePipelineDescriptor) (gpuapi.ComputePipeline, error) {
	d.entryPoint = desc.EntryPoint
	return d.Device.CreateComputePipeline(desc)
}

func TestRunDefaultsEntryPointToMain(t *testing.T) {
	device := &entryPointRecorder{Device: softwaregpu.New()}
	encoder := softwaregpu.NewEncoder()

	var ran bool
	err := Run(device, encoder, Spec{
		Label: "no-entry-point",
		Eval:  func(gpuapi.EvalContext) { ran = true },
	})
	require.NoError(t, err)
	require.True(t, ran)
	require.Equal(t, "main", device.entryPoint)
}

type resolvingQuery struct{ resolved bool }

func (q *resolvingQuery) Resolve(gpuapi.CommandEncoder) { q.resolved = true }

func TestRunResolvesQueryWhenPresent(t *testing.T) {
	device := softwaregpu.New()
	encoder := softwaregpu.NewEncoder()
	query := &resolvingQuery{}

	err := Run(device, encoder, Spec{
		Label: "with-query",
		Eval:  func(gpuapi.EvalContext) {},
		Query: query,
	})
	require.NoError(t, err)
	require.True(t, query.resolved)
}
