// layout.go - strided view metadata for a realized tensor
// Contains: Layout, its contiguity predicate, and the packed uniform
// wire format the dispatch wrapper uploads at group 0 binding 0.
package tensor

// MaxRank is the rank ceiling enforced throughout the engine. Violating
// it is a static-misuse error caught at graph-construction time, not here.
const MaxRank = 3

// Layout describes a (possibly non-contiguous) strided view over a
// buffer: an element offset plus per-axis shape and stride, both in
// elements (not bytes).
type Layout struct {
	Offset  uint32
	Shape   []uint32
	Strides []uint32
}

// Rank returns the number of axes, 1..MaxRank.
func (l Layout) Rank() int {
	return len(l.Shape)
}

// NumElements returns the product of the shape, i.e. the element count of
// the view (not the backing buffer, which may be larger).
func (l Layout) NumElements() uint32 {
	n := uint32(1)
	for _, s := range l.Shape {
		n *= s
	}
	return n
}

// IsContiguous reports whether this view visits its buffer in row-major
// order with no gaps, i.e. whether the dense shader path applies. A
// layout is contiguous iff its strides are exactly the row-major strides
// implied by its shape.
func (l Layout) IsContiguous() bool {
	expected := uint32(1)
	for i := l.Rank() - 1; i >= 0; i-- {
		if l.Strides[i] != expected {
			return false
		}
		expected *= l.Shape[i]
	}
	return true
}

// RowMajorStrides computes the dense strides for a given shape, used when
// constructing a freshly materialized (always-contiguous) tensor.
func RowMajorStrides(shape []uint32) []uint32 {
	strides := make([]uint32, len(shape))
	acc := uint32(1)
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= shape[i]
	}
	return strides
}

// NewContiguousLayout builds the layout of a freshly allocated, densely
// packed tensor of the given shape.
func NewContiguousLayout(shape []uint32) Layout {
	return Layout{
		Offset:  0,
		Shape:   append([]uint32(nil), shape...),
		Strides: RowMajorStrides(shape),
	}
}

// CoordsOf decodes a row-major element index (0..NumElements) into its
// per-axis coordinates. Used by softwaregpu's reference evaluators, which
// walk a logical index space and need each operand's physical offset.
func (l Layout) CoordsOf(index uint32) []uint32 {
	coords := make([]uint32, l.Rank())
	for i := l.Rank() - 1; i >= 0; i-- {
		coords[i] = index % l.Shape[i]
		index /= l.Shape[i]
	}
	return coords
}

// ElementOffset returns the physical element offset (not bytes) of the
// given per-axis coordinates under this layout.
func (l Layout) ElementOffset(coords []uint32) uint32 {
	off := l.Offset
	for i, c := range coords {
		off += c * l.Strides[i]
	}
	return off
}

// UniformWords packs this layout into the little-endian u32 sequence the
// dispatch wrapper uploads: offset, shape_0..shape_{r-1},
// stride_0..stride_{r-1}. Padding to the GPU API's 16-byte uniform
// alignment is the caller's responsibility (dispatch.LayoutUniformBuffer
// pads after this call).
func (l Layout) UniformWords() []uint32 {
	words := make([]uint32, 0, 1+2*l.Rank())
	words = append(words, l.Offset)
	words = append(words, l.Shape...)
	words = append(words, l.Strides...)
	return words
}
