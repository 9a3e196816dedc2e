// tensor.go - the realized-tensor handle
// Contains: TensorData, the leaf record C1 stores and every resolver
// kind-specific path ultimately produces or passes through.
package tensor

import (
	"log/slog"

	"github.com/fusedtensor/fusedtensor/gpuapi"
)

// TensorData is a handle to a realized tensor: a GPU buffer plus the
// layout and dtype needed to interpret it, and the device it lives on.
// Cloning a TensorData is cheap: it copies the buffer reference and
// layout, never the bytes.
type TensorData struct {
	Buf    gpuapi.Buffer
	Layout Layout
	DType  DType
	Device gpuapi.Device
}

// New builds a TensorData wrapping an existing buffer and layout.
func New(buf gpuapi.Buffer, layout Layout, dtype DType, device gpuapi.Device) TensorData {
	return TensorData{Buf: buf, Layout: layout, DType: dtype, Device: device}
}

// Datatype returns the element dtype, mirroring the `datatype()` accessor
// the opaque kernel builders call on their resolved operands.
func (t TensorData) Datatype() DType { return t.DType }

// LogValue renders a TensorData as a structured slog group, in the same
// shape the teacher's tensor types use for their own LogValue methods.
func (t TensorData) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("dtype", t.DType.String()),
		slog.Any("shape", t.Layout.Shape),
		slog.Bool("contiguous", t.Layout.IsContiguous()),
	)
}
