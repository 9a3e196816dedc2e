// Package uniqueid provides the process-wide monotonic allocator that
// seeds every ElementWiseFunction's unique_id. Its only contract is
// uniqueness across the process; an atomic fetch-and-add satisfies that
// with no further coordination needed, since callers never need ids to
// be contiguous or to restart across processes.
package uniqueid

import "sync/atomic"

var counter uint64

// Next returns a fresh, process-wide unique id. Concurrent callers each
// get a distinct value; graph construction is not constrained to be
// single-threaded even though resolution is, so this stays atomic.
func Next() uint64 {
	return atomic.AddUint64(&counter, 1) - 1
}
