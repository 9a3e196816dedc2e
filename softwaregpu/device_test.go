package softwaregpu

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fusedtensor/fusedtensor/gpuapi"
)

func TestCreateBufferCopiesContents(t *testing.T) {
	device := New()
	buf, err := device.CreateBuffer(gpuapi.BufferDescriptor{
		Size:     8,
		Usage:    gpuapi.BufferUsageStorage,
		Contents: []byte{1, 2, 3, 4},
	})
	require.NoError(t, err)
	sb := buf.(*Buffer)
	require.Equal(t, uint64(8), sb.Size())
	require.Equal(t, []byte{1, 2, 3, 4, 0, 0, 0, 0}, sb.Bytes())
}

func TestCreateBufferGrowsToFitContentsLargerThanSize(t *testing.T) {
	device := New()
	buf, err := device.CreateBuffer(gpuapi.BufferDescriptor{
		Size:     2,
		Contents: []byte{1, 2, 3, 4, 5},
	})
	require.NoError(t, err)
	require.Equal(t, uint64(5), buf.(*Buffer).Size())
}

func TestCreateShaderModuleRejectsMissingEval(t *testing.T) {
	device := New()
	_, err := device.CreateShaderModule(gpuapi.ShaderModuleDescriptor{Label: "no-eval"})
	require.Error(t, err)
}

func TestQueueWriteBufferMutatesInPlace(t *testing.T) {
	device := New()
	buf, err := device.CreateBuffer(gpuapi.BufferDescriptor{Size: 4})
	require.NoError(t, err)

	device.Queue().WriteBuffer(buf, 1, []byte{9, 9})
	require.Equal(t, []byte{0, 9, 9, 0}, buf.(*Buffer).Bytes())
}

func TestCreateComputePipelineRejectsForeignModule(t *testing.T) {
	device := New()
	_, err := device.CreateComputePipeline(gpuapi.ComputePipelineDescriptor{Module: foreignModule{}})
	require.Error(t, err)
}

type foreignModule struct{}
