// dtype.go - element datatypes and host<->device conversions
// Contains: DType, its WGSL-visible name, its byte width, and the
// host-side codecs used for the non-native float widths.
package tensor

import (
	"github.com/d4l3k/go-bfloat16"
	"github.com/x448/float16"
)

// DType is the element datatype of a tensor, matching the node dtype
// carried by every op record in the graph store.
type DType int

const (
	// F32 is the native Go float32 path.
	F32 DType = iota
	// F16 is IEEE-754 half precision; host-side conversion goes through
	// github.com/x448/float16.
	F16
	// BF16 is bfloat16; host-side conversion goes through
	// github.com/d4l3k/go-bfloat16.
	BF16
	// I32 is the exact-integer path; fusion invariance for I32 graphs is
	// required to be bit-identical, not just within tolerance.
	I32
)

// String implements fmt.Stringer for log output.
func (d DType) String() string {
	switch d {
	case F32:
		return "f32"
	case F16:
		return "f16"
	case BF16:
		return "bf16"
	case I32:
		return "i32"
	default:
		return "unknown"
	}
}

// WGSLName is the type name the emitted shader source uses, e.g. in
// `array<f32>` and the unary helper signature `fn unary_0(input: f32)`.
// bf16 has no native shading-language type; it is unpacked to f32 at the
// array-element boundary in the emitted module (see shader.dtypePragma).
func (d DType) WGSLName() string {
	switch d {
	case F32, BF16:
		return "f32"
	case F16:
		return "f16"
	case I32:
		return "i32"
	default:
		panic("tensor: unknown dtype")
	}
}

// RequiresFeaturePragma reports whether the emitted module needs an
// `enable ...;` feature pragma for this dtype.
func (d DType) RequiresFeaturePragma() bool {
	return d == F16
}

// ByteWidth is the in-buffer size of one element.
func (d DType) ByteWidth() int {
	switch d {
	case F32, I32:
		return 4
	case F16, BF16:
		return 2
	default:
		panic("tensor: unknown dtype")
	}
}

// EncodeFloats packs host float32 values into the wire representation for
// this dtype. F32/I32 pass through as native little-endian words; F16/BF16
// are narrowed with their respective codecs.
func EncodeFloats(dtype DType, values []float32) []byte {
	out := make([]byte, len(values)*dtype.ByteWidth())
	switch dtype {
	case F32:
		for i, v := range values {
			putU32(out[i*4:], float32bits(v))
		}
	case I32:
		for i, v := range values {
			putU32(out[i*4:], uint32(int32(v)))
		}
	case F16:
		for i, v := range values {
			h := float16.Fromfloat32(v)
			putU16(out[i*2:], uint16(h))
		}
	case BF16:
		packed := bfloat16.EncodeFloat32(values)
		copy(out, packed)
	default:
		panic("tensor: unknown dtype")
	}
	return out
}

// DecodeFloatAt reads the single element at the given element offset
// (not byte offset). Used by reference evaluators walking a strided
// layout one coordinate at a time rather than decoding a whole buffer.
func DecodeFloatAt(dtype DType, data []byte, elemOffset uint32) float64 {
	w := dtype.ByteWidth()
	start := int(elemOffset) * w
	return float64(DecodeFloats(dtype, data[start:start+w])[0])
}

// EncodeFloatAt writes a single element at the given element offset.
func EncodeFloatAt(dtype DType, data []byte, elemOffset uint32, value float64) {
	w := dtype.ByteWidth()
	start := int(elemOffset) * w
	copy(data[start:start+w], EncodeFloats(dtype, []float32{float32(value)}))
}

// DecodeFloats unpacks the wire representation for this dtype back to
// host float32 values.
func DecodeFloats(dtype DType, data []byte) []float32 {
	n := len(data) / dtype.ByteWidth()
	out := make([]float32, n)
	switch dtype {
	case F32:
		for i := range out {
			out[i] = float32frombits(getU32(data[i*4:]))
		}
	case I32:
		for i := range out {
			out[i] = float32(int32(getU32(data[i*4:])))
		}
	case F16:
		for i := range out {
			out[i] = float16.Float16(getU16(data[i*2:])).Float32()
		}
	case BF16:
		out = bfloat16.DecodeFloat32(data)
	default:
		panic("tensor: unknown dtype")
	}
	return out
}
