// key.go - the tagged compute key
// Contains: Kind and Key. The per-kind id counters a Store allocates
// keys from live in store.go.
package graph

import "fmt"

// Kind discriminates the eight node kinds a Key can reference.
type Kind int

const (
	KindElementWise Kind = iota
	KindPairWise
	KindMatMul
	KindReduce
	KindMapLayout
	KindResize
	KindSliceAssign
	KindTensor
)

func (k Kind) String() string {
	switch k {
	case KindElementWise:
		return "ElementWise"
	case KindPairWise:
		return "PairWise"
	case KindMatMul:
		return "MatMul"
	case KindReduce:
		return "Reduce"
	case KindMapLayout:
		return "MapLayout"
	case KindResize:
		return "Resize"
	case KindSliceAssign:
		return "SliceAssign"
	case KindTensor:
		return "Tensor"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Key is a tagged handle into a Store: a kind plus a kind-local id. Keys
// are values with structural equality; they never own storage, and a Key
// by itself says nothing about whether its record still exists.
type Key struct {
	Kind Kind
	ID   uint64
}

func (k Key) String() string {
	return fmt.Sprintf("%s#%d", k.Kind, k.ID)
}
