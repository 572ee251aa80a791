package catgo

import (
	"context"
	"fmt"
)

// streamTiles walks dst's own chunk grid and, for each chunk-sized tile
// (clipped to dst's shape), stages the corresponding region of src
// through a buffer: one ToBuffer call on src, one FromBuffer call on
// dst. This is the "planned sequence of C6 calls" spec.md §4.7 asks
// structural ops to be expressed as, and is what makes Copy/Slice
// retiling-invariant: src and dst may have completely different
// chunkshape/blockshape.
func streamTiles(ctx context.Context, src, dst *Array, srcOffset Shape) error {
	chunksPerAxis := dst.chunksPerAxis()
	var lo, hi Shape
	for i := 0; i < dst.ndim; i++ {
		hi[i] = chunksPerAxis[i] - 1
		if chunksPerAxis[i] == 0 {
			return nil
		}
	}
	od := newOdometer(dst.ndim, lo, hi)
	for od.more() {
		coord := od.coord
		var dstStart, dstStop Shape
		for i := 0; i < dst.ndim; i++ {
			s := coord[i] * dst.chunkshape[i]
			e := s + dst.chunkshape[i]
			if e > dst.shape[i] {
				e = dst.shape[i]
			}
			dstStart[i] = s
			dstStop[i] = e
		}
		var bufShape Shape
		nonEmpty := true
		for i := 0; i < dst.ndim; i++ {
			bufShape[i] = dstStop[i] - dstStart[i]
			if bufShape[i] <= 0 {
				nonEmpty = false
			}
		}
		if nonEmpty {
			var srcStart, srcStop Shape
			for i := 0; i < dst.ndim; i++ {
				srcStart[i] = srcOffset[i] + dstStart[i]
				srcStop[i] = srcOffset[i] + dstStop[i]
			}
			n := product(bufShape, dst.ndim) * int64(dst.typesize)
			buf := make([]byte, n)
			if err := src.ToBuffer(ctx, srcStart, srcStop, buf, bufShape); err != nil {
				return err
			}
			if err := dst.FromBuffer(ctx, buf, bufShape, dstStart, dstStop); err != nil {
				return err
			}
		}
		od.next()
	}
	return nil
}

// Copy makes a fresh array with newCtx's chunk/block shape but src's
// shape and ndim, and streams src into it in chunk-row-major order.
// to_buffer(Copy(A, ctx')) == to_buffer(A) regardless of chunkshape'/
// blockshape' (testable property 4), because every byte moves through
// the same region kernel on both ends.
func Copy(ctx context.Context, src *Array, newCtx Context) (*Array, error) {
	c := newCtx
	c.Ndim = src.ndim
	c.Shape = src.shape
	if c.Store.TypeSize == 0 {
		c.Store.TypeSize = src.typesize
	}
	dst, err := Empty(ctx, c)
	if err != nil {
		return nil, err
	}
	var zero Shape
	if err := streamTiles(ctx, src, dst, zero); err != nil {
		dst.Release(ctx)
		return nil, err
	}
	return dst, nil
}

// Slice extracts the region [start, stop) of src into a fresh array
// tiled per newCtx. Fails with OutOfBounds if the region is invalid.
func Slice(ctx context.Context, src *Array, start, stop Shape, newCtx Context) (*Array, error) {
	if err := src.validateRegion(start, stop); err != nil {
		return nil, err
	}
	c := newCtx
	c.Ndim = src.ndim
	var newShape Shape
	for i := 0; i < src.ndim; i++ {
		newShape[i] = stop[i] - start[i]
	}
	c.Shape = newShape
	if c.Store.TypeSize == 0 {
		c.Store.TypeSize = src.typesize
	}
	dst, err := Empty(ctx, c)
	if err != nil {
		return nil, err
	}
	if err := streamTiles(ctx, src, dst, start); err != nil {
		dst.Release(ctx)
		return nil, err
	}
	return dst, nil
}

// squeezeAxesValidated removes the axes flagged in remove, requiring
// each to have extent 1 (else NotSqueezable) and chunkshape 1 (else
// NotSqueezable: a chunkshape greater than 1 on a singleton axis means
// the stored chunk bytes are laid out assuming that axis is present, so
// dropping it without retiling would misinterpret every byte after it).
func (a *Array) squeezeAxesValidated(remove []bool) error {
	for i := 0; i < a.ndim; i++ {
		if !remove[i] {
			continue
		}
		if a.shape[i] != 1 {
			return newErr(NotSqueezable, fmt.Sprintf("axis %d has extent %d, cannot squeeze", i, a.shape[i]))
		}
		if a.chunkshape[i] != 1 {
			return newErr(NotSqueezable, fmt.Sprintf("axis %d has chunkshape %d != 1, cannot squeeze in place", i, a.chunkshape[i]))
		}
	}
	newNdim := 0
	var newShape, newChunk, newBlock Shape
	for i := 0; i < a.ndim; i++ {
		if remove[i] {
			continue
		}
		newShape[newNdim] = a.shape[i]
		newChunk[newNdim] = a.chunkshape[i]
		newBlock[newNdim] = a.blockshape[i]
		newNdim++
	}
	if newNdim == 0 {
		return newErr(NotSqueezable, "cannot squeeze every axis")
	}
	a.ndim = newNdim
	a.shape = newShape
	a.chunkshape = newChunk
	a.blockshape = newBlock
	a.recompute()
	a.cache.invalidate()
	return nil
}

// Squeeze removes every axis with extent 1. It fails with NotSqueezable,
// removing nothing, if any such axis has a chunkshape other than 1.
func (a *Array) Squeeze() error {
	remove := make([]bool, a.ndim)
	any := false
	for i := 0; i < a.ndim; i++ {
		if a.shape[i] == 1 {
			remove[i] = true
			any = true
		}
	}
	if !any {
		return nil
	}
	return a.squeezeAxesValidated(remove)
}

// SqueezeIndex removes the axes marked true in mask (which must have at
// least Ndim() entries); an axis marked for removal with extent > 1, or
// with a chunkshape other than 1, fails with NotSqueezable.
func (a *Array) SqueezeIndex(mask []bool) error {
	if len(mask) < a.ndim {
		return newErr(BadAxis, "mask shorter than ndim")
	}
	remove := make([]bool, a.ndim)
	copy(remove, mask[:a.ndim])
	any := false
	for _, v := range remove {
		if v {
			any = true
		}
	}
	if !any {
		return nil
	}
	return a.squeezeAxesValidated(remove)
}

// copySlab copies the sub-rectangle of src where axis spans
// [srcStart, srcStop) (other axes span their full shape) into dst at the
// same position on every other axis but starting at dstStart on axis.
func copySlab(ctx context.Context, src, dst *Array, axis int, srcStart, srcStop, dstStart int64) error {
	if srcStart >= srcStop {
		return nil
	}
	ndim := src.ndim
	var start, stop Shape
	for i := 0; i < ndim; i++ {
		if i == axis {
			start[i] = srcStart
			stop[i] = srcStop
		} else {
			start[i] = 0
			stop[i] = src.shape[i]
		}
	}
	var bufShape Shape
	for i := 0; i < ndim; i++ {
		bufShape[i] = stop[i] - start[i]
	}
	n := product(bufShape, ndim) * int64(src.typesize)
	buf := make([]byte, n)
	if err := src.ToBuffer(ctx, start, stop, buf, bufShape); err != nil {
		return err
	}
	var dStart, dStop Shape
	for i := 0; i < ndim; i++ {
		if i == axis {
			dStart[i] = dstStart
			dStop[i] = dstStart + (srcStop - srcStart)
		} else {
			dStart[i] = 0
			dStop[i] = dst.shape[i]
		}
	}
	return dst.FromBuffer(ctx, buf, bufShape, dStart, dStop)
}

// resizeAxis changes a.shape[axis] to newExtent, inserting (on grow) or
// removing (on shrink) items at position start on that axis, leaving
// every other axis untouched. It rebuilds the array's store: chunk/block
// shape is preserved, only the chunk grid along axis changes, per
// spec.md §4.7's decomposition into "adjust the chunk grid... rewrite
// boundary padding... update derived shapes and strides".
func (a *Array) resizeAxis(ctx context.Context, axis int, newExtent, start int64) error {
	old := a.shape[axis]
	if newExtent < 1 {
		return newErr(BadAxis, fmt.Sprintf("new extent %d for axis %d must be >= 1", newExtent, axis))
	}
	maxOS := old
	if newExtent > maxOS {
		maxOS = newExtent
	}
	if start < 0 || start > maxOS {
		return newErr(BadAxis, fmt.Sprintf("start %d for axis %d outside [0,%d]", start, axis, maxOS))
	}
	if newExtent == old {
		return nil
	}

	newShape := a.shape
	newShape[axis] = newExtent
	c := Context{Ndim: a.ndim, Shape: newShape, Chunkshape: a.chunkshape, Blockshape: a.blockshape}
	c.Store.TypeSize = a.typesize
	dst, err := Empty(ctx, c)
	if err != nil {
		return err
	}

	delta := newExtent - old
	if delta >= 0 {
		if err := copySlab(ctx, a, dst, axis, 0, start, 0); err != nil {
			dst.Release(ctx)
			return err
		}
		if err := copySlab(ctx, a, dst, axis, start, old, start+delta); err != nil {
			dst.Release(ctx)
			return err
		}
	} else {
		removeLen := -delta
		if err := copySlab(ctx, a, dst, axis, 0, start, 0); err != nil {
			dst.Release(ctx)
			return err
		}
		if err := copySlab(ctx, a, dst, axis, start+removeLen, old, start); err != nil {
			dst.Release(ctx)
			return err
		}
	}

	oldHandle := a.handle
	a.handle = dst.handle
	a.shape = dst.shape
	a.chunkshape = dst.chunkshape
	a.blockshape = dst.blockshape
	a.typesize = dst.typesize
	a.recompute()
	a.cache.invalidate()
	return oldHandle.release()
}

// Resize changes shape[i] to newShape[i] along every axis where it
// differs, applying each change at position start[i] of the existing
// axis. Multi-axis resizes are applied one axis at a time; since axes
// are independent in a row-major tiling this yields the same final
// content as a single combined pass, while reusing the same single-axis
// machinery append/insert/delete are built on.
func (a *Array) Resize(ctx context.Context, newShape, start Shape) error {
	for i := 0; i < a.ndim; i++ {
		if newShape[i] == a.shape[i] {
			continue
		}
		if err := a.resizeAxis(ctx, i, newShape[i], start[i]); err != nil {
			return err
		}
	}
	return nil
}

func (a *Array) insertAt(ctx context.Context, buf []byte, axis int, at int64) error {
	if axis < 0 || axis >= a.ndim {
		return newErr(BadAxis, fmt.Sprintf("axis %d out of range [0,%d)", axis, a.ndim))
	}
	other := int64(1)
	for i := 0; i < a.ndim; i++ {
		if i != axis {
			other *= a.shape[i]
		}
	}
	denom := other * int64(a.typesize)
	if denom == 0 || int64(len(buf))%denom != 0 {
		return newErr(BadBufferSize, fmt.Sprintf("buffer size %d not a multiple of %d", len(buf), denom))
	}
	k := int64(len(buf)) / denom
	newShape := a.shape
	newShape[axis] = a.shape[axis] + k
	var resizeStart Shape
	resizeStart[axis] = at
	if err := a.Resize(ctx, newShape, resizeStart); err != nil {
		return err
	}

	var start, stop Shape
	for i := 0; i < a.ndim; i++ {
		if i == axis {
			start[i] = at
			stop[i] = at + k
		} else {
			start[i] = 0
			stop[i] = a.shape[i]
		}
	}
	var bufShape Shape
	for i := 0; i < a.ndim; i++ {
		bufShape[i] = stop[i] - start[i]
	}
	return a.FromBuffer(ctx, buf, bufShape, start, stop)
}

// Append grows axis at its far end by the extent implied by len(buf) and
// writes buf into the newly allocated region.
func (a *Array) Append(ctx context.Context, buf []byte, axis int) error {
	if axis < 0 || axis >= a.ndim {
		return newErr(BadAxis, fmt.Sprintf("axis %d out of range [0,%d)", axis, a.ndim))
	}
	return a.insertAt(ctx, buf, axis, a.shape[axis])
}

// Insert grows axis at position at by the extent implied by len(buf) and
// writes buf into [at, at+k) on that axis.
func (a *Array) Insert(ctx context.Context, buf []byte, axis int, at int64) error {
	return a.insertAt(ctx, buf, axis, at)
}

// Delete shrinks axis, removing [at, at+length).
func (a *Array) Delete(ctx context.Context, axis int, at, length int64) error {
	if axis < 0 || axis >= a.ndim {
		return newErr(BadAxis, fmt.Sprintf("axis %d out of range [0,%d)", axis, a.ndim))
	}
	if length < 0 || at < 0 || at+length > a.shape[axis] {
		return newErr(BadAxis, fmt.Sprintf("delete range [%d,%d) invalid for axis %d of extent %d", at, at+length, axis, a.shape[axis]))
	}
	if length == 0 {
		return nil
	}
	newShape := a.shape
	newShape[axis] = a.shape[axis] - length
	var start Shape
	start[axis] = at
	return a.Resize(ctx, newShape, start)
}
