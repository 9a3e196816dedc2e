// store.go - the graph store (C1)
// Contains: Store, the sole owner of op records, and the per-kind
// metadata table Insert uses to validate rank and dtype agreement
// without re-walking the graph on every call.
package graph

import (
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/fusedtensor/fusedtensor/tensor"
)

// meta is the (dtype, rank) pair a Store remembers for every inserted
// key, computed once at insert time from the record and its referenced
// inputs' own meta.
type meta struct {
	DType tensor.DType
	Rank  int
}

// Store is a per-kind mapping id -> record, using an order-preserving map
// so diagnostic traversal matches insertion order. It is the only owner
// of op records; Insert never deduplicates (no common-subexpression
// elimination).
type Store struct {
	elementWise *orderedmap.OrderedMap[uint64, ElementWise]
	pairWise    *orderedmap.OrderedMap[uint64, PairWise]
	matMul      *orderedmap.OrderedMap[uint64, MatMul]
	reduce      *orderedmap.OrderedMap[uint64, Reduce]
	mapLayout   *orderedmap.OrderedMap[uint64, MapLayout]
	resize      *orderedmap.OrderedMap[uint64, Resize]
	sliceAssign *orderedmap.OrderedMap[uint64, SliceAssign]
	tensorLeaf  *orderedmap.OrderedMap[uint64, Tensor]

	meta map[Key]meta
	next map[Kind]uint64
}

// New builds an empty Store.
func New() *Store {
	return &Store{
		elementWise: orderedmap.New[uint64, ElementWise](),
		pairWise:    orderedmap.New[uint64, PairWise](),
		matMul:      orderedmap.New[uint64, MatMul](),
		reduce:      orderedmap.New[uint64, Reduce](),
		mapLayout:   orderedmap.New[uint64, MapLayout](),
		resize:      orderedmap.New[uint64, Resize](),
		sliceAssign: orderedmap.New[uint64, SliceAssign](),
		tensorLeaf:  orderedmap.New[uint64, Tensor](),
		meta:        make(map[Key]meta),
		next:        make(map[Kind]uint64),
	}
}

func (s *Store) allocID(k Kind) uint64 {
	id := s.next[k]
	s.next[k] = id + 1
	return id
}

func (s *Store) metaOf(k Key) meta {
	m, ok := s.meta[k]
	if !ok {
		panic(fmt.Sprintf("graph: Get on absent key %s", k))
	}
	return m
}

// InsertTensor stores a leaf tensor record and returns its key.
func (s *Store) InsertTensor(r Tensor) Key {
	id := s.allocID(KindTensor)
	s.tensorLeaf.Set(id, r)
	key := Key{Kind: KindTensor, ID: id}
	s.meta[key] = meta{DType: r.Data.DType, Rank: r.Data.Layout.Rank()}
	return key
}

// InsertElementWise validates rank and stores an ElementWise record.
func (s *Store) InsertElementWise(r ElementWise) (Key, error) {
	in := s.metaOf(r.Input)
	if in.Rank > tensor.MaxRank {
		return Key{}, &ValidationError{Kind: KindElementWise, Reason: fmt.Sprintf("rank %d exceeds ceiling %d", in.Rank, tensor.MaxRank)}
	}
	id := s.allocID(KindElementWise)
	s.elementWise.Set(id, r)
	key := Key{Kind: KindElementWise, ID: id}
	s.meta[key] = in
	return key, nil
}

// InsertPairWise validates that First and Second share dtype and rank,
// and that the shared rank stays within the ceiling. Shapes are not
// compared.
func (s *Store) InsertPairWise(r PairWise) (Key, error) {
	first := s.metaOf(r.First)
	second := s.metaOf(r.Second)
	if first.DType != second.DType {
		return Key{}, &ValidationError{Kind: KindPairWise, Reason: fmt.Sprintf("dtype mismatch: first=%s second=%s", first.DType, second.DType)}
	}
	if first.Rank != second.Rank {
		return Key{}, &ValidationError{Kind: KindPairWise, Reason: fmt.Sprintf("rank mismatch: first=%d second=%d", first.Rank, second.Rank)}
	}
	if first.Rank > tensor.MaxRank {
		return Key{}, &ValidationError{Kind: KindPairWise, Reason: fmt.Sprintf("rank %d exceeds ceiling %d", first.Rank, tensor.MaxRank)}
	}
	id := s.allocID(KindPairWise)
	s.pairWise.Set(id, r)
	key := Key{Kind: KindPairWise, ID: id}
	s.meta[key] = first
	return key, nil
}

// InsertMatMul validates both operands are rank 2 and share dtype.
func (s *Store) InsertMatMul(r MatMul) (Key, error) {
	first := s.metaOf(r.First)
	second := s.metaOf(r.Second)
	if first.DType != second.DType {
		return Key{}, &ValidationError{Kind: KindMatMul, Reason: fmt.Sprintf("dtype mismatch: first=%s second=%s", first.DType, second.DType)}
	}
	if first.Rank != 2 || second.Rank != 2 {
		return Key{}, &ValidationError{Kind: KindMatMul, Reason: fmt.Sprintf("matmul requires rank 2 operands, got first=%d second=%d", first.Rank, second.Rank)}
	}
	id := s.allocID(KindMatMul)
	s.matMul.Set(id, r)
	key := Key{Kind: KindMatMul, ID: id}
	s.meta[key] = meta{DType: first.DType, Rank: 2}
	return key, nil
}

// InsertReduce validates the input's rank stays within the ceiling, Axis
// is within that rank, and the resulting rank (input rank - 1) stays at
// or above 1.
func (s *Store) InsertReduce(r Reduce) (Key, error) {
	in := s.metaOf(r.Input)
	if in.Rank > tensor.MaxRank {
		return Key{}, &ValidationError{Kind: KindReduce, Reason: fmt.Sprintf("rank %d exceeds ceiling %d", in.Rank, tensor.MaxRank)}
	}
	if int(r.Axis) >= in.Rank {
		return Key{}, &ValidationError{Kind: KindReduce, Reason: fmt.Sprintf("axis %d out of bounds for rank %d", r.Axis, in.Rank)}
	}
	outRank := in.Rank - 1
	if outRank < 1 {
		return Key{}, &ValidationError{Kind: KindReduce, Reason: "reduce would leave rank 0"}
	}
	id := s.allocID(KindReduce)
	s.reduce.Set(id, r)
	key := Key{Kind: KindReduce, ID: id}
	s.meta[key] = meta{DType: in.DType, Rank: outRank}
	return key, nil
}

// InsertMapLayout validates the input's rank stays within the ceiling and
// the transform's axis count against that rank. Rank and dtype are
// unchanged; only shape/stride metadata moves, and MapLayout never emits
// a compute pass.
func (s *Store) InsertMapLayout(r MapLayout) (Key, error) {
	in := s.metaOf(r.Input)
	if in.Rank > tensor.MaxRank {
		return Key{}, &ValidationError{Kind: KindMapLayout, Reason: fmt.Sprintf("rank %d exceeds ceiling %d", in.Rank, tensor.MaxRank)}
	}
	if len(r.Op.Start) > 0 && len(r.Op.Start) != in.Rank {
		return Key{}, &ValidationError{Kind: KindMapLayout, Reason: fmt.Sprintf("transform axis count %d does not match input rank %d", len(r.Op.Start), in.Rank)}
	}
	if r.Op.Permute != nil && len(r.Op.Permute) != in.Rank {
		return Key{}, &ValidationError{Kind: KindMapLayout, Reason: fmt.Sprintf("permute length %d does not match input rank %d", len(r.Op.Permute), in.Rank)}
	}
	id := s.allocID(KindMapLayout)
	s.mapLayout.Set(id, r)
	key := Key{Kind: KindMapLayout, ID: id}
	s.meta[key] = in
	return key, nil
}

// InsertResize validates the new rank stays within the ceiling.
func (s *Store) InsertResize(r Resize) (Key, error) {
	in := s.metaOf(r.Input)
	if len(r.NewShape) > tensor.MaxRank {
		return Key{}, &ValidationError{Kind: KindResize, Reason: fmt.Sprintf("new shape rank %d exceeds ceiling %d", len(r.NewShape), tensor.MaxRank)}
	}
	id := s.allocID(KindResize)
	s.resize.Set(id, r)
	key := Key{Kind: KindResize, ID: id}
	s.meta[key] = meta{DType: in.DType, Rank: len(r.NewShape)}
	return key, nil
}

// InsertSliceAssign validates that Input's rank stays within the ceiling,
// that Value shares Input's dtype, and that one Range is given per axis
// of Input.
func (s *Store) InsertSliceAssign(r SliceAssign) (Key, error) {
	in := s.metaOf(r.Input)
	val := s.metaOf(r.Value)
	if in.Rank > tensor.MaxRank {
		return Key{}, &ValidationError{Kind: KindSliceAssign, Reason: fmt.Sprintf("rank %d exceeds ceiling %d", in.Rank, tensor.MaxRank)}
	}
	if in.DType != val.DType {
		return Key{}, &ValidationError{Kind: KindSliceAssign, Reason: fmt.Sprintf("dtype mismatch: input=%s value=%s", in.DType, val.DType)}
	}
	if len(r.Slices) != in.Rank {
		return Key{}, &ValidationError{Kind: KindSliceAssign, Reason: fmt.Sprintf("slice count %d does not match input rank %d", len(r.Slices), in.Rank)}
	}
	id := s.allocID(KindSliceAssign)
	s.sliceAssign.Set(id, r)
	key := Key{Kind: KindSliceAssign, ID: id}
	s.meta[key] = in
	return key, nil
}

// DType returns the dtype remembered for a key at insert time.
func (s *Store) DType(k Key) tensor.DType { return s.metaOf(k).DType }

// Rank returns the rank remembered for a key at insert time.
func (s *Store) Rank(k Key) int { return s.metaOf(k).Rank }

// GetElementWise fetches an ElementWise record directly, typed.
func (s *Store) GetElementWise(k Key) ElementWise {
	v, ok := s.elementWise.Get(k.ID)
	if !ok {
		panic(fmt.Sprintf("graph: Get on absent key %s", k))
	}
	return v
}

// GetPairWise fetches a PairWise record directly, typed.
func (s *Store) GetPairWise(k Key) PairWise {
	v, ok := s.pairWise.Get(k.ID)
	if !ok {
		panic(fmt.Sprintf("graph: Get on absent key %s", k))
	}
	return v
}

// GetMatMul fetches a MatMul record directly, typed.
func (s *Store) GetMatMul(k Key) MatMul {
	v, ok := s.matMul.Get(k.ID)
	if !ok {
		panic(fmt.Sprintf("graph: Get on absent key %s", k))
	}
	return v
}

// GetReduce fetches a Reduce record directly, typed.
func (s *Store) GetReduce(k Key) Reduce {
	v, ok := s.reduce.Get(k.ID)
	if !ok {
		panic(fmt.Sprintf("graph: Get on absent key %s", k))
	}
	return v
}

// GetMapLayout fetches a MapLayout record directly, typed.
func (s *Store) GetMapLayout(k Key) MapLayout {
	v, ok := s.mapLayout.Get(k.ID)
	if !ok {
		panic(fmt.Sprintf("graph: Get on absent key %s", k))
	}
	return v
}

// GetResize fetches a Resize record directly, typed.
func (s *Store) GetResize(k Key) Resize {
	v, ok := s.resize.Get(k.ID)
	if !ok {
		panic(fmt.Sprintf("graph: Get on absent key %s", k))
	}
	return v
}

// GetSliceAssign fetches a SliceAssign record directly, typed.
func (s *Store) GetSliceAssign(k Key) SliceAssign {
	v, ok := s.sliceAssign.Get(k.ID)
	if !ok {
		panic(fmt.Sprintf("graph: Get on absent key %s", k))
	}
	return v
}

// GetTensor fetches a Tensor leaf record directly, typed.
func (s *Store) GetTensor(k Key) Tensor {
	v, ok := s.tensorLeaf.Get(k.ID)
	if !ok {
		panic(fmt.Sprintf("graph: Get on absent key %s", k))
	}
	return v
}

// Keys returns every key currently stored, grouped by kind in insertion
// order within each kind, for walks over the whole store rather than
// from a root.
func (s *Store) Keys() []Key {
	keys := make([]Key, 0, len(s.meta))
	for pair := s.elementWise.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, Key{Kind: KindElementWise, ID: pair.Key})
	}
	for pair := s.pairWise.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, Key{Kind: KindPairWise, ID: pair.Key})
	}
	for pair := s.matMul.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, Key{Kind: KindMatMul, ID: pair.Key})
	}
	for pair := s.reduce.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, Key{Kind: KindReduce, ID: pair.Key})
	}
	for pair := s.mapLayout.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, Key{Kind: KindMapLayout, ID: pair.Key})
	}
	for pair := s.resize.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, Key{Kind: KindResize, ID: pair.Key})
	}
	for pair := s.sliceAssign.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, Key{Kind: KindSliceAssign, ID: pair.Key})
	}
	for pair := s.tensorLeaf.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, Key{Kind: KindTensor, ID: pair.Key})
	}
	return keys
}
