package catgo

import (
	"context"
	"fmt"
)

// storeHandle models the sum type design.md §9 calls for: Store{Owned(S),
// Borrowed(handle)}. Release dispatches on the variant: an array that
// wraps a caller-provided store (FromStore) never closes it.
type storeHandle struct {
	store Store
	owned bool
}

func (h storeHandle) release() error {
	if h.owned {
		return h.store.Close()
	}
	return nil
}

// Array is a chunked, blocked, compressed N-dimensional array: the
// descriptor of spec.md §4.3 plus the store handle and chunk cache it
// owns. The zero value is not usable; obtain one from a constructor in
// constructors.go.
type Array struct {
	ndim       int
	shape      Shape
	chunkshape Shape
	blockshape Shape
	derived    derivedShapes
	strides    strides
	typesize   int32

	handle storeHandle
	cache  chunkCache
}

// newArray validates ctx, computes all derived shapes and strides, and
// binds the array to store (owned or borrowed per owned).
func newArray(ctx Context, store Store, owned bool) (*Array, error) {
	if err := ctx.validate(); err != nil {
		return nil, err
	}
	a := &Array{
		ndim:       ctx.Ndim,
		shape:      ctx.Shape,
		chunkshape: ctx.Chunkshape,
		blockshape: ctx.Blockshape,
		typesize:   store.TypeSize(),
		handle:     storeHandle{store: store, owned: owned},
	}
	a.recompute()
	if err := a.checkInvariants(); err != nil {
		return nil, err
	}
	return a, nil
}

// recompute refreshes derived shapes and all six stride vectors from the
// three user shapes. Called after any operation that changes shape
// (resize, squeeze) so invariant 4 (every stride is the documented
// product of succeeding extents) keeps holding.
func (a *Array) recompute() {
	a.derived = deriveShapes(a.ndim, a.shape, a.chunkshape, a.blockshape)
	a.strides = computeStrides(a.ndim, a.shape, a.chunkshape, a.blockshape, a.derived)
}

// chunksPerAxis returns, for each axis, ceil(shape[i]/chunkshape[i]): the
// extent of the chunk grid.
func (a *Array) chunksPerAxis() Shape {
	var c Shape
	for i := 0; i < a.ndim; i++ {
		c[i] = ceilDiv(a.shape[i], a.chunkshape[i])
	}
	return c
}

func (a *Array) nchunksExpected() int64 {
	return product(a.chunksPerAxis(), a.ndim)
}

// checkInvariants verifies invariants 1-2 of spec.md §3 (ndim range and
// per-axis extents). Invariant 4 holds because recompute derives every
// stride, and invariant 5, the cache's own consistency, holds by
// construction of chunkCache; the stored chunk count (invariant 3) is not
// checked here.
func (a *Array) checkInvariants() error {
	if a.ndim < 1 || a.ndim > DMax {
		return newErr(InvalidShape, fmt.Sprintf("ndim %d out of range", a.ndim))
	}
	for i := 0; i < a.ndim; i++ {
		if a.shape[i] < 1 || a.chunkshape[i] < 1 || a.blockshape[i] > a.chunkshape[i] {
			return newErr(InvalidShape, fmt.Sprintf("invalid shape at axis %d", i))
		}
	}
	return nil
}

// Ndim returns the array's dimensionality.
func (a *Array) Ndim() int { return a.ndim }

// Shape returns the logical shape, valid for indices [0, Ndim()).
func (a *Array) Shape() Shape { return a.shape }

// Chunkshape returns the chunk shape, valid for indices [0, Ndim()).
func (a *Array) Chunkshape() Shape { return a.chunkshape }

// Blockshape returns the block shape, valid for indices [0, Ndim()).
func (a *Array) Blockshape() Shape { return a.blockshape }

// TypeSize returns the fixed per-item byte width.
func (a *Array) TypeSize() int32 { return a.typesize }

// NItems returns the total number of logical items (Π shape[i]).
func (a *Array) NItems() int64 { return a.derived.nitems }

// Store exposes the array's backing Store, e.g. to call ToFrame/Save
// through persistence.go, or for advanced callers that need direct
// access to the external collaborator.
func (a *Array) Store() Store { return a.handle.store }

// Phase reports the array's position in the empty/partial/full state
// machine of spec.md §4.7.
type Phase int

const (
	PhaseEmpty Phase = iota
	PhasePartial
	PhaseFull
)

func (p Phase) String() string {
	switch p {
	case PhaseEmpty:
		return "empty"
	case PhasePartial:
		return "partial"
	case PhaseFull:
		return "full"
	default:
		return "unknown"
	}
}

// CurrentPhase returns the array's current phase.
func (a *Array) CurrentPhase() Phase {
	n := a.handle.store.NChunks()
	switch {
	case n == 0:
		return PhaseEmpty
	case n < a.nchunksExpected():
		return PhasePartial
	default:
		return PhaseFull
	}
}

// DebugString returns a human-readable one-line summary of the array's
// ndim, shape, chunkshape, blockshape, typesize and phase, the Go equivalent of
// caterva_print_meta (there is no logging framework in scope for this to
// be wired into; it is a String()-style helper for callers and tests).
func (a *Array) DebugString() string {
	return fmt.Sprintf("Array{ndim=%d shape=%v chunkshape=%v blockshape=%v typesize=%d phase=%s}",
		a.ndim, a.shape[:a.ndim], a.chunkshape[:a.ndim], a.blockshape[:a.ndim], a.typesize, a.CurrentPhase())
}

// Release destroys the array, releasing its owned store (a no-op if the
// array was constructed over a caller-provided, borrowed store).
func (a *Array) Release(ctx context.Context) error {
	a.cache.invalidate()
	return a.handle.release()
}
