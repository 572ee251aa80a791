package catgo

import (
	"context"
	"fmt"
)

// copyRegion copies an ndim-dimensional sub-rectangle of extent `extent`
// from src (laid out with srcStrides, starting at srcOffset) to dst
// (laid out with dstStrides, starting at dstOffset). The innermost axis
// is always copied as one contiguous run, per spec.md §4.6 — safe here
// because every stride vector this package hands to copyRegion is
// row-major, so the last axis always has stride 1 on both sides. This
// generalizes zarr.Reader.copyND to also serve writes.
func copyRegion(dst []byte, dstStrides, dstOffset Shape, src []byte, srcStrides, srcOffset Shape, extent Shape, ndim, itemSize int) {
	startDst := CoordToOffset(dstOffset, dstStrides, ndim)
	startSrc := CoordToOffset(srcOffset, srcStrides, ndim)

	var walk func(dim int, dstIdx, srcIdx int64)
	walk = func(dim int, dstIdx, srcIdx int64) {
		if dim == ndim-1 {
			n := extent[dim]
			if n <= 0 {
				return
			}
			byteLen := n * int64(itemSize)
			dstStart := dstIdx * int64(itemSize)
			srcStart := srcIdx * int64(itemSize)
			copy(dst[dstStart:dstStart+byteLen], src[srcStart:srcStart+byteLen])
			return
		}
		for i := int64(0); i < extent[dim]; i++ {
			walk(dim+1, dstIdx+i*dstStrides[dim], srcIdx+i*srcStrides[dim])
		}
	}
	walk(0, startDst, startSrc)
}

func regionExtent(cr ChunkRegion, ndim int) Shape {
	var e Shape
	for i := 0; i < ndim; i++ {
		e[i] = cr.Stop[i] - cr.Start[i]
	}
	return e
}

func (a *Array) validateRegion(start, stop Shape) error {
	for i := 0; i < a.ndim; i++ {
		if start[i] < 0 || start[i] > stop[i] || stop[i] > a.shape[i] {
			return newErr(OutOfBounds, fmt.Sprintf("region out of bounds at axis %d: start=%d stop=%d shape=%d", i, start[i], stop[i], a.shape[i]))
		}
	}
	return nil
}

func (a *Array) validateBufShape(bufShape, start, stop Shape) error {
	for i := 0; i < a.ndim; i++ {
		if bufShape[i] != stop[i]-start[i] {
			return newErr(BadBufferSize, fmt.Sprintf("buf_shape[%d]=%d must equal stop-start=%d", i, bufShape[i], stop[i]-start[i]))
		}
	}
	return nil
}

func (a *Array) validateBufSize(buf []byte, bufShape Shape) error {
	want := product(bufShape, a.ndim) * int64(a.typesize)
	if int64(len(buf)) != want {
		return newErr(BadBufferSize, fmt.Sprintf("buffer size %d != expected %d", len(buf), want))
	}
	return nil
}

// ToBuffer writes the contents of the logical hyper-rectangle
// [start, stop) into buf, laid out in row-major order over bufShape,
// where bufShape[i] == stop[i]-start[i]. Coordinates at or beyond
// shape[i] are never read this way (C1 always clips to shape); a region
// that falls entirely within one chunk may be served from the chunk
// cache and never touches the store.
func (a *Array) ToBuffer(ctx context.Context, start, stop Shape, buf []byte, bufShape Shape) error {
	if err := a.validateRegion(start, stop); err != nil {
		return err
	}
	if err := a.validateBufShape(bufShape, start, stop); err != nil {
		return err
	}
	if err := a.validateBufSize(buf, bufShape); err != nil {
		return err
	}

	bufStrides := computeRowMajorStrides(bufShape, a.ndim)
	chunksPerAxis := a.chunksPerAxis()
	chunkNBytes := a.derived.chunknitems * int64(a.typesize)

	return RegionCover(a.ndim, a.chunkshape, chunksPerAxis, start, stop, func(cr ChunkRegion) error {
		chunkBuf, present, err := a.cache.get(ctx, a.handle.store, cr.ChunkIndex)
		if err != nil {
			return wrapErr(StoreError, "to_buffer: read chunk", err)
		}
		if !present {
			chunkBuf = make([]byte, chunkNBytes)
		}

		var dstOffset Shape
		for i := 0; i < a.ndim; i++ {
			absStart := cr.ChunkCoord[i]*a.chunkshape[i] + cr.Start[i]
			dstOffset[i] = absStart - start[i]
		}
		copyRegion(buf, bufStrides, dstOffset, chunkBuf, a.strides.itemChunk, cr.Start, regionExtent(cr, a.ndim), a.ndim, int(a.typesize))
		return nil
	})
}

// loadOrInitChunk returns a private, mutable copy of chunk k's current
// payload (existed=true), gap-filling any missing chunks strictly before
// k with zero payload so the store's chunk sequence stays contiguous, or
// a fresh zero-filled payload for k itself (existed=false) when k has
// never been written. The store's append-only chunk sequence (spec.md
// §6) means a write that targets a chunk past the current end always
// implicitly materializes every chunk between, exactly as a Blosc2
// super-chunk requires sequential appends.
func (a *Array) loadOrInitChunk(ctx context.Context, k int64) (buf []byte, existed bool, err error) {
	chunkNBytes := a.derived.chunknitems * int64(a.typesize)
	n := a.handle.store.NChunks()
	if k < n {
		cur, ok, err := a.cache.get(ctx, a.handle.store, k)
		if err != nil {
			return nil, false, wrapErr(StoreError, "read chunk for modify", err)
		}
		if !ok {
			cur = make([]byte, chunkNBytes)
		}
		return append([]byte(nil), cur...), true, nil
	}

	zero := make([]byte, chunkNBytes)
	for i := n; i < k; i++ {
		if _, err := a.handle.store.AppendChunk(ctx, zero); err != nil {
			return nil, false, wrapErr(StoreError, "gap-fill chunk", err)
		}
	}
	a.cache.invalidate()
	return make([]byte, chunkNBytes), false, nil
}

// FromBuffer writes buf (row-major over bufShape) into the logical
// region [start, stop). Bytes outside shape but inside extshape are
// preserved if the chunk already existed, or set to zero if the chunk is
// being materialized for the first time (spec.md §4.6 padding rule). A
// write to a single chunk either fully lands or leaves it unchanged.
func (a *Array) FromBuffer(ctx context.Context, buf []byte, bufShape Shape, start, stop Shape) error {
	if err := a.validateRegion(start, stop); err != nil {
		return err
	}
	if err := a.validateBufShape(bufShape, start, stop); err != nil {
		return err
	}
	if err := a.validateBufSize(buf, bufShape); err != nil {
		return err
	}

	bufStrides := computeRowMajorStrides(bufShape, a.ndim)
	chunksPerAxis := a.chunksPerAxis()

	return RegionCover(a.ndim, a.chunkshape, chunksPerAxis, start, stop, func(cr ChunkRegion) error {
		chunkBuf, existed, err := a.loadOrInitChunk(ctx, cr.ChunkIndex)
		if err != nil {
			return err
		}

		var srcOffset Shape
		for i := 0; i < a.ndim; i++ {
			absStart := cr.ChunkCoord[i]*a.chunkshape[i] + cr.Start[i]
			srcOffset[i] = absStart - start[i]
		}
		copyRegion(chunkBuf, a.strides.itemChunk, cr.Start, buf, bufStrides, srcOffset, regionExtent(cr, a.ndim), a.ndim, int(a.typesize))

		a.cache.invalidate()
		if existed {
			if err := a.handle.store.ReplaceChunk(ctx, cr.ChunkIndex, chunkBuf); err != nil {
				return wrapErr(StoreError, "from_buffer: replace chunk", err)
			}
			return nil
		}
		k, err := a.handle.store.AppendChunk(ctx, chunkBuf)
		if err != nil {
			return wrapErr(StoreError, "from_buffer: append chunk", err)
		}
		if k != cr.ChunkIndex {
			return wrapErr(StoreError, "from_buffer: chunk index mismatch", fmt.Errorf("store appended %d, expected %d", k, cr.ChunkIndex))
		}
		return nil
	})
}
