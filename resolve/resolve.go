// Package resolve implements the resolver (C2): a post-order walk of a
// graph.Store turning a root Key into a realized tensor.TensorData,
// recording GPU work onto a caller-provided command encoder. Per-kind
// dispatch follows the fusion planner's (package fusion) decisions for
// ElementWise, PairWise, and Reduce; every other kind resolves its inputs
// then calls the matching opaque kernel builder (package kernel).
package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/fusedtensor/fusedtensor/diag"
	"github.com/fusedtensor/fusedtensor/fusion"
	"github.com/fusedtensor/fusedtensor/gpuapi"
	"github.com/fusedtensor/fusedtensor/graph"
	"github.com/fusedtensor/fusedtensor/kernel"
	"github.com/fusedtensor/fusedtensor/tensor"
)

// Resolve walks the graph rooted at root and returns its realized tensor,
// recording any GPU work onto encoder. PairWise, Reduce, MatMul, and
// Resize always write into a freshly allocated buffer; SliceAssign and
// the standalone elementwise kernel both address their input's buffer
// in place rather than allocating a copy.
func Resolve(ctx context.Context, root graph.Key, store *graph.Store, device gpuapi.Device, encoder gpuapi.CommandEncoder) (tensor.TensorData, error) {
	return resolveRoot(ctx, root, store, device, encoder, false)
}

// ResolveUnfused walks the same graph as Resolve but forces F2 off: every
// elementwise chain materializes through the standalone kernel rather than
// absorbing into its producer. Used by fusion-invariance tests to diff
// against Resolve's result; not meant for production use.
func ResolveUnfused(ctx context.Context, root graph.Key, store *graph.Store, device gpuapi.Device, encoder gpuapi.CommandEncoder) (tensor.TensorData, error) {
	return resolveRoot(ctx, root, store, device, encoder, true)
}

func resolveRoot(ctx context.Context, root graph.Key, store *graph.Store, device gpuapi.Device, encoder gpuapi.CommandEncoder, forceMaterialize bool) (tensor.TensorData, error) {
	traceID := uuid.New()
	slog.Debug("resolve: start", "trace_id", traceID, "root", root.String(), "force_materialize", forceMaterialize)
	if slog.Default().Enabled(ctx, slog.LevelDebug) {
		var dot strings.Builder
		if err := diag.Dump(&dot, store, root); err == nil {
			slog.Debug("resolve: graph", "trace_id", traceID, "dot", dot.String())
		}
	}
	result, err := resolve(ctx, root, store, device, encoder, traceID, forceMaterialize)
	if err != nil {
		slog.Error("resolve: failed", "trace_id", traceID, "root", root.String(), "error", err)
		return tensor.TensorData{}, err
	}
	slog.Debug("resolve: done", "trace_id", traceID, "root", root.String(), "result", result)
	return result, nil
}

func resolve(ctx context.Context, key graph.Key, store *graph.Store, device gpuapi.Device, encoder gpuapi.CommandEncoder, traceID uuid.UUID, forceMaterialize bool) (tensor.TensorData, error) {
	switch key.Kind {
	case graph.KindTensor:
		return store.GetTensor(key).Data, nil

	case graph.KindMapLayout:
		return resolveMapLayout(ctx, key, store, device, encoder, traceID, forceMaterialize)

	case graph.KindMatMul:
		return resolveMatMul(ctx, key, store, device, encoder, traceID, forceMaterialize)

	case graph.KindResize:
		return resolveResize(ctx, key, store, device, encoder, traceID, forceMaterialize)

	case graph.KindSliceAssign:
		return resolveSliceAssign(ctx, key, store, device, encoder, traceID, forceMaterialize)

	case graph.KindReduce:
		return resolveReduce(ctx, key, store, device, encoder, traceID, nil, forceMaterialize)

	case graph.KindPairWise:
		return resolvePairWise(ctx, key, store, device, encoder, traceID, nil, forceMaterialize)

	case graph.KindElementWise:
		return resolveElementWise(ctx, key, store, device, encoder, traceID, forceMaterialize)

	default:
		panic(fmt.Sprintf("resolve: unknown kind %v", key.Kind))
	}
}

// resolveElementWise implements F1 + F2: collapse the chain of
// elementwise nodes starting at key, then either absorb it into the
// producer's own kernel (Reduce, PairWise) or materialize the producer
// and run the chain as a standalone kernel over it. forceMaterialize
// disables absorption unconditionally, for ResolveUnfused.
func resolveElementWise(ctx context.Context, key graph.Key, store *graph.Store, device gpuapi.Device, encoder gpuapi.CommandEncoder, traceID uuid.UUID, forceMaterialize bool) (tensor.TensorData, error) {
	chain, producer := fusion.Walk(store, key)

	if !forceMaterialize && fusion.Absorbs(producer.Kind) {
		switch producer.Kind {
		case graph.KindReduce:
			return resolveReduce(ctx, producer, store, device, encoder, traceID, chain, forceMaterialize)
		case graph.KindPairWise:
			return resolvePairWise(ctx, producer, store, device, encoder, traceID, chain, forceMaterialize)
		}
	}

	materialized, err := resolve(ctx, producer, store, device, encoder, traceID, forceMaterialize)
	if err != nil {
		return tensor.TensorData{}, err
	}
	if len(chain) == 0 {
		slog.Debug("resolve: empty-fusion degeneracy, returning input unchanged", "trace_id", traceID, "key", key.String())
		return materialized, nil
	}
	out, err := kernel.NewElementWise().Run(device, encoder, chain, materialized, nil)
	if err != nil {
		return tensor.TensorData{}, fmt.Errorf("resolve: elementwise %s: %w", key, err)
	}
	return out, nil
}

// resolvePairWise resolves a PairWise node, pre-fusing each operand's
// own elementwise ancestry (F3) and absorbing post (the caller's
// collapsed post-chain, if this node was reached via resolveElementWise).
func resolvePairWise(ctx context.Context, key graph.Key, store *graph.Store, device gpuapi.Device, encoder gpuapi.CommandEncoder, traceID uuid.UUID, post []graph.ElementWiseFunction, forceMaterialize bool) (tensor.TensorData, error) {
	rec := store.GetPairWise(key)

	var preFirst, preSecond []graph.ElementWiseFunction
	firstProducer, secondProducer := rec.First, rec.Second
	if !forceMaterialize {
		preFirst, firstProducer = fusion.PreFuse(store, rec.First)
		preSecond, secondProducer = fusion.PreFuse(store, rec.Second)
	}

	first, err := resolve(ctx, firstProducer, store, device, encoder, traceID, forceMaterialize)
	if err != nil {
		return tensor.TensorData{}, err
	}
	second, err := resolve(ctx, secondProducer, store, device, encoder, traceID, forceMaterialize)
	if err != nil {
		return tensor.TensorData{}, err
	}

	// Open Question 1 (carried forward, not resolved): built with first's
	// dtype, safe only under the invariant that both operands share dtype.
	k := kernel.NewPairWise(rec.Fn, first.DType)
	k.SetPreElementWise([2][]graph.ElementWiseFunction{preFirst, preSecond})
	k.SetPostElementWise(post)

	out, err := k.RunWithQuery(device, encoder, first, second, nil)
	if err != nil {
		return tensor.TensorData{}, fmt.Errorf("resolve: pairwise %s: %w", key, err)
	}
	slog.Debug("resolve: pairwise dispatch", "trace_id", traceID, "key", key.String())
	return out, nil
}

func resolveReduce(ctx context.Context, key graph.Key, store *graph.Store, device gpuapi.Device, encoder gpuapi.CommandEncoder, traceID uuid.UUID, post []graph.ElementWiseFunction, forceMaterialize bool) (tensor.TensorData, error) {
	rec := store.GetReduce(key)

	var pre []graph.ElementWiseFunction
	producer := rec.Input
	if !forceMaterialize {
		pre, producer = fusion.PreFuse(store, rec.Input)
	}
	input, err := resolve(ctx, producer, store, device, encoder, traceID, forceMaterialize)
	if err != nil {
		return tensor.TensorData{}, err
	}

	k := kernel.NewReduce(rec.Fn, input.DType)
	k.SetPreElementWise(pre)
	k.SetPostElementWise(post)

	out, err := k.RunWithQuery(device, encoder, input, rec.Axis, nil)
	if err != nil {
		return tensor.TensorData{}, fmt.Errorf("resolve: reduce %s: %w", key, err)
	}
	slog.Debug("resolve: reduce dispatch", "trace_id", traceID, "key", key.String())
	return out, nil
}

func resolveMapLayout(ctx context.Context, key graph.Key, store *graph.Store, device gpuapi.Device, encoder gpuapi.CommandEncoder, traceID uuid.UUID, forceMaterialize bool) (tensor.TensorData, error) {
	rec := store.GetMapLayout(key)
	input, err := resolve(ctx, rec.Input, store, device, encoder, traceID, forceMaterialize)
	if err != nil {
		return tensor.TensorData{}, err
	}
	layout := applyLayoutTransform(input.Layout, rec.Op)
	return tensor.New(input.Buf, layout, input.DType, input.Device), nil
}

func applyLayoutTransform(layout tensor.Layout, op graph.LayoutTransform) tensor.Layout {
	result := layout
	if len(op.Start) > 0 {
		newShape := make([]uint32, len(layout.Shape))
		newOffset := layout.Offset
		for i := range layout.Shape {
			start, end := op.Start[i], op.End[i]
			newShape[i] = end - start
			newOffset += start * layout.Strides[i]
		}
		result = tensor.Layout{Offset: newOffset, Shape: newShape, Strides: append([]uint32(nil), layout.Strides...)}
	}
	if op.Permute != nil {
		shape := make([]uint32, len(op.Permute))
		strides := make([]uint32, len(op.Permute))
		for i, axis := range op.Permute {
			shape[i] = result.Shape[axis]
			strides[i] = result.Strides[axis]
		}
		result.Shape, result.Strides = shape, strides
	}
	return result
}

func resolveMatMul(ctx context.Context, key graph.Key, store *graph.Store, device gpuapi.Device, encoder gpuapi.CommandEncoder, traceID uuid.UUID, forceMaterialize bool) (tensor.TensorData, error) {
	rec := store.GetMatMul(key)
	first, err := resolve(ctx, rec.First, store, device, encoder, traceID, forceMaterialize)
	if err != nil {
		return tensor.TensorData{}, err
	}
	second, err := resolve(ctx, rec.Second, store, device, encoder, traceID, forceMaterialize)
	if err != nil {
		return tensor.TensorData{}, err
	}
	out, err := kernel.NewMatMul(first.DType).RunWithQuery(device, encoder, first, second, nil)
	if err != nil {
		return tensor.TensorData{}, fmt.Errorf("resolve: matmul %s: %w", key, err)
	}
	return out, nil
}

func resolveResize(ctx context.Context, key graph.Key, store *graph.Store, device gpuapi.Device, encoder gpuapi.CommandEncoder, traceID uuid.UUID, forceMaterialize bool) (tensor.TensorData, error) {
	rec := store.GetResize(key)
	input, err := resolve(ctx, rec.Input, store, device, encoder, traceID, forceMaterialize)
	if err != nil {
		return tensor.TensorData{}, err
	}
	out, err := kernel.NewResize(rec.NewShape, rec.FillShape, input.DType).RunWithQuery(device, encoder, input, nil)
	if err != nil {
		return tensor.TensorData{}, fmt.Errorf("resolve: resize %s: %w", key, err)
	}
	return out, nil
}

func resolveSliceAssign(ctx context.Context, key graph.Key, store *graph.Store, device gpuapi.Device, encoder gpuapi.CommandEncoder, traceID uuid.UUID, forceMaterialize bool) (tensor.TensorData, error) {
	rec := store.GetSliceAssign(key)
	input, err := resolve(ctx, rec.Input, store, device, encoder, traceID, forceMaterialize)
	if err != nil {
		return tensor.TensorData{}, err
	}
	value, err := resolve(ctx, rec.Value, store, device, encoder, traceID, forceMaterialize)
	if err != nil {
		return tensor.TensorData{}, err
	}
	out, err := kernel.NewSliceAssign(rec.Slices, input.DType).RunWithQuery(device, encoder, input, value, nil)
	if err != nil {
		return tensor.TensorData{}, fmt.Errorf("resolve: slice-assign %s: %w", key, err)
	}
	return out, nil
}
