// record.go - the eight op record shapes a Store holds
// Contains: one struct per Kind, immutable once inserted.
package graph

import "github.com/fusedtensor/fusedtensor/tensor"

// ElementWise applies Fn to Input, producing a tensor of identical shape
// and dtype.
type ElementWise struct {
	Input Key
	Fn    ElementWiseFunction
}

// PairWise applies Fn to First and Second, which must share shape and
// dtype; the output shares both.
type PairWise struct {
	First  Key
	Second Key
	Fn     BinaryFunction
}

// MatMul contracts First's last axis against Second's first axis. Both
// operands are rank 2 and share dtype.
type MatMul struct {
	First  Key
	Second Key
}

// Reduce folds Input along Axis with Fn, decreasing rank by 1; dtype is
// preserved.
type Reduce struct {
	Input Key
	Axis  uint32
	Fn    ReduceFunction
}

// MapLayout applies Op to Input's layout, producing a (possibly
// non-contiguous) view over the same buffer. Never emits a compute pass.
type MapLayout struct {
	Input Key
	Op    LayoutTransform
}

// Resize pads or truncates Input to NewShape; FillShape names the
// sub-region to zero/initialize when growing. No pre-elementwise fusion
// ever applies to a Resize (Open Question 3).
type Resize struct {
	Input     Key
	NewShape  []uint32
	FillShape []uint32
}

// SliceAssign writes Value into the region of Input described by Slices,
// in place. It is the one op that mutates an input tensor.
type SliceAssign struct {
	Input  Key
	Value  Key
	Slices []Range
}

// Tensor is a leaf record: an already-realized buffer, never itself
// resolved further.
type Tensor struct {
	Data tensor.TensorData
}
