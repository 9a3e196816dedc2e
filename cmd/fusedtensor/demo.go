package main

import (
	"fmt"
	"sort"

	"github.com/fusedtensor/fusedtensor/gpuapi"
	"github.com/fusedtensor/fusedtensor/graph"
	"github.com/fusedtensor/fusedtensor/tensor"
)

// demoGraph is one of the engine's literal worked examples: a graph store,
// the key to resolve, and a human label describing what it exercises.
type demoGraph struct {
	Name    string
	Store   *graph.Store
	Root    graph.Key
	Summary string
}

func leafTensor(device gpuapi.Device, store *graph.Store, shape []uint32, values []float32, dtype tensor.DType) graph.Key {
	layout := tensor.NewContiguousLayout(shape)
	buf, err := device.CreateBuffer(gpuapi.BufferDescriptor{
		Label:    "demo-leaf",
		Size:     uint64(len(values) * dtype.ByteWidth()),
		Usage:    gpuapi.BufferUsageStorage | gpuapi.BufferUsageCopySrc | gpuapi.BufferUsageCopyDst,
		Contents: tensor.EncodeFloats(dtype, values),
	})
	if err != nil {
		panic(fmt.Sprintf("cmd/fusedtensor: demo leaf buffer: %v", err))
	}
	return store.InsertTensor(graph.Tensor{Data: tensor.New(buf, layout, dtype, device)})
}

func filledTensor(device gpuapi.Device, store *graph.Store, shape []uint32, fill float32, dtype tensor.DType) graph.Key {
	n := uint32(1)
	for _, s := range shape {
		n *= s
	}
	values := make([]float32, n)
	for i := range values {
		values[i] = fill
	}
	return leafTensor(device, store, shape, values, dtype)
}

func mustElementWise(store *graph.Store, input graph.Key, fn graph.ElementWiseFunction) graph.Key {
	k, err := store.InsertElementWise(graph.ElementWise{Input: input, Fn: fn})
	if err != nil {
		panic(fmt.Sprintf("cmd/fusedtensor: demo graph: %v", err))
	}
	return k
}

func mustReduce(store *graph.Store, input graph.Key, axis uint32, fn graph.ReduceFunction) graph.Key {
	k, err := store.InsertReduce(graph.Reduce{Input: input, Axis: axis, Fn: fn})
	if err != nil {
		panic(fmt.Sprintf("cmd/fusedtensor: demo graph: %v", err))
	}
	return k
}

func mustMapLayout(store *graph.Store, input graph.Key, op graph.LayoutTransform) graph.Key {
	k, err := store.InsertMapLayout(graph.MapLayout{Input: input, Op: op})
	if err != nil {
		panic(fmt.Sprintf("cmd/fusedtensor: demo graph: %v", err))
	}
	return k
}

// buildDemoGraph builds one of the engine's named literal scenarios
// against device, for use both by the resolve subcommand and by bench's
// synthetic workload.
func buildDemoGraph(device gpuapi.Device, name string) (*demoGraph, error) {
	store := graph.New()

	switch name {
	case "s1":
		in := leafTensor(device, store, []uint32{3, 2, 2}, []float32{1, 2, 1, 2, 3, 4, 3, 4, 5, 6, 5, 6}, tensor.F32)
		root := mustElementWise(store, in, graph.AddConst(1.0))
		return &demoGraph{Name: name, Store: store, Root: root, Summary: "shape [3,2,2], x + 1.0"}, nil

	case "s2":
		in := leafTensor(device, store, []uint32{3, 2}, []float32{1, 2, 3, 4, 5, 6}, tensor.F32)
		plusOne := mustElementWise(store, in, graph.AddConst(1.0))
		root := mustElementWise(store, plusOne, graph.MulConst(2.0))
		return &demoGraph{Name: name, Store: store, Root: root, Summary: "shape [3,2], (x + 1.0) * 2.0, must fuse to one dispatch"}, nil

	case "s3":
		in := leafTensor(device, store, []uint32{3, 2}, []float32{1, 2, 3, 4, 5, 6}, tensor.F32)
		sliced := mustMapLayout(store, in, graph.LayoutTransform{Start: []uint32{0, 0}, End: []uint32{3, 1}})
		root := mustElementWise(store, sliced, graph.AddConst(1.0))
		return &demoGraph{Name: name, Store: store, Root: root, Summary: "shape [3,2] sliced to [0..3,0..1], +1.0, strided path"}, nil

	case "s4":
		in := filledTensor(device, store, []uint32{16777216}, 10.0, tensor.F32)
		root := mustElementWise(store, in, graph.AddConst(1.0))
		return &demoGraph{Name: name, Store: store, Root: root, Summary: "shape [16777216] filled 10.0, +1.0, exactly one dispatch"}, nil

	case "s5":
		in := leafTensor(device, store, []uint32{3, 2}, []float32{1, 2, 3, 4, 5, 6}, tensor.F32)
		root := mustElementWise(store, in, graph.Exp())
		return &demoGraph{Name: name, Store: store, Root: root, Summary: "shape [3,2], exp(x)"}, nil

	case "s6":
		in := leafTensor(device, store, []uint32{3, 2}, []float32{1, 2, 3, 4, 5, 6}, tensor.F32)
		exped := mustElementWise(store, in, graph.Exp())
		plusOne := mustElementWise(store, exped, graph.AddConst(1.0))
		root := mustReduce(store, plusOne, 0, graph.Sum())
		return &demoGraph{Name: name, Store: store, Root: root, Summary: "shape [3,2], sum(exp(x) + 1.0, axis=0), single reduce dispatch"}, nil

	default:
		return nil, unknownDemoError(name)
	}
}

// DemoNames lists the valid buildDemoGraph names, sorted, for usage text
// and for typo suggestions.
func DemoNames() []string {
	names := []string{"s1", "s2", "s3", "s4", "s5", "s6"}
	sort.Strings(names)
	return names
}
