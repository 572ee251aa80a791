package catgo

import (
	"context"
	"fmt"
)

// buildStoreParams merges the engine's own shape-descriptor metalayer
// into the caller's StoreParams, ready to hand to newMemStore or
// createBlobStore.
func buildStoreParams(c Context) (StoreParams, error) {
	meta, err := SerializeMeta(c.metaDescriptor())
	if err != nil {
		return StoreParams{}, err
	}
	sp := c.Store
	sp.ChunkNItems = c.chunkNItems()
	merged := make(map[string][]byte, len(sp.Metalayers)+1)
	for k, v := range sp.Metalayers {
		merged[k] = v
	}
	merged[MetaLayerName] = meta
	sp.Metalayers = merged
	return sp, nil
}

func newStoreForContext(ctx context.Context, c Context) (Store, error) {
	sp, err := buildStoreParams(c)
	if err != nil {
		return nil, err
	}
	if sp.Path == "" {
		return newMemStore(sp)
	}
	return createBlobStore(ctx, sp.Path, sp)
}

// fillAllChunks appends nchunksExpected() chunks to store, each the
// caller-supplied payload (which must be exactly chunknitems*typesize
// bytes), used by Uninit/Zeros/Filled to materialize the whole chunk
// grid up front.
func fillAllChunks(ctx context.Context, store Store, n int64, payload []byte) error {
	for i := int64(0); i < n; i++ {
		if _, err := store.AppendChunk(ctx, payload); err != nil {
			return err
		}
	}
	return nil
}

// Uninit creates an array with every chunk allocated but with
// implementation-defined content (spec.md §9 Open Question (b): never
// unsafe, but no particular byte pattern is promised). This
// implementation zero-fills, since Go offers no way to hand back
// genuinely uninitialized memory safely.
func Uninit(ctx context.Context, c Context) (*Array, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	store, err := newStoreForContext(ctx, c)
	if err != nil {
		return nil, err
	}
	a, err := newArray(c, store, true)
	if err != nil {
		store.Close()
		return nil, err
	}
	payload := make([]byte, c.chunkNItems()*int64(c.Store.TypeSize))
	if err := fillAllChunks(ctx, store, a.nchunksExpected(), payload); err != nil {
		a.Release(ctx)
		return nil, wrapErr(StoreError, "uninit: materialize chunks", err)
	}
	return a, nil
}

// Empty creates an array with no chunks stored; the store reports zero
// chunks until the first write.
func Empty(ctx context.Context, c Context) (*Array, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	store, err := newStoreForContext(ctx, c)
	if err != nil {
		return nil, err
	}
	return newArray(c, store, true)
}

// Zeros creates an array whose chunks are pre-allocated with all-zero
// payload.
func Zeros(ctx context.Context, c Context) (*Array, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	store, err := newStoreForContext(ctx, c)
	if err != nil {
		return nil, err
	}
	a, err := newArray(c, store, true)
	if err != nil {
		store.Close()
		return nil, err
	}
	payload := make([]byte, c.chunkNItems()*int64(c.Store.TypeSize))
	if err := fillAllChunks(ctx, store, a.nchunksExpected(), payload); err != nil {
		a.Release(ctx)
		return nil, wrapErr(StoreError, "zeros: materialize chunks", err)
	}
	return a, nil
}

// Filled creates an array whose chunks are pre-allocated with
// fillValue (exactly TypeSize bytes) repeated chunknitems times.
func Filled(ctx context.Context, c Context, fillValue []byte) (*Array, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	if int32(len(fillValue)) != c.Store.TypeSize {
		return nil, newErr(BadBufferSize, fmt.Sprintf("fill_value must be exactly %d bytes, got %d", c.Store.TypeSize, len(fillValue)))
	}
	store, err := newStoreForContext(ctx, c)
	if err != nil {
		return nil, err
	}
	a, err := newArray(c, store, true)
	if err != nil {
		store.Close()
		return nil, err
	}
	chunkNItems := c.chunkNItems()
	payload := make([]byte, 0, chunkNItems*int64(c.Store.TypeSize))
	for i := int64(0); i < chunkNItems; i++ {
		payload = append(payload, fillValue...)
	}
	if err := fillAllChunks(ctx, store, a.nchunksExpected(), payload); err != nil {
		a.Release(ctx)
		return nil, wrapErr(StoreError, "filled: materialize chunks", err)
	}
	return a, nil
}

// FromBuffer creates an array and copies b into it in row-major order
// through the region I/O kernel (C6). len(b) must equal
// nitems*typesize.
func FromBuffer(ctx context.Context, c Context, b []byte) (*Array, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	want := product(c.Shape, c.Ndim) * int64(c.Store.TypeSize)
	if int64(len(b)) != want {
		return nil, newErr(BadBufferSize, fmt.Sprintf("from_buffer: want %d bytes, got %d", want, len(b)))
	}
	store, err := newStoreForContext(ctx, c)
	if err != nil {
		return nil, err
	}
	a, err := newArray(c, store, true)
	if err != nil {
		store.Close()
		return nil, err
	}
	var start Shape
	if err := a.FromBuffer(ctx, b, a.shape, start, a.shape); err != nil {
		a.Release(ctx)
		return nil, err
	}
	return a, nil
}

// FromStore wraps an existing compressed store whose first metalayer
// decodes to a valid shape descriptor. The caller retains ownership of
// store; Release on the returned Array will not close it. If store
// implements ChunkShaper, its reported chunk size is cross-checked
// against the descriptor's own chunkshape, catching a store that was
// tampered with or paired with the wrong manifest.
func FromStore(ctx context.Context, store Store) (*Array, error) {
	raw, ok, err := store.MetalayerGet(ctx, MetaLayerName)
	if err != nil {
		return nil, wrapErr(StoreError, "from_store: read shape metalayer", err)
	}
	if !ok {
		return nil, newErr(NotCaterva, "store lacks the catgo shape metalayer")
	}
	desc, err := DeserializeMeta(raw)
	if err != nil {
		return nil, err
	}
	if shaper, ok := store.(ChunkShaper); ok {
		want := product(desc.Chunkshape, desc.Ndim)
		if got := shaper.ChunkNItems(); got != want {
			return nil, newErr(NotCaterva, fmt.Sprintf("store chunk size %d does not match descriptor chunkshape product %d", got, want))
		}
	}
	c := Context{Ndim: desc.Ndim, Shape: desc.Shape, Chunkshape: desc.Chunkshape, Blockshape: desc.Blockshape}
	c.Store.TypeSize = store.TypeSize()
	return newArray(c, store, false)
}

// FromFrame interprets bytes as a serialized compressed store (the
// frame format ToFrame produces). When copy is false the array
// borrows bytes; when true it duplicates into an owned store.
func FromFrame(ctx context.Context, bytes []byte, copy bool) (*Array, error) {
	m, err := decodeFrame(bytes, copy)
	if err != nil {
		return nil, err
	}
	return FromStore(ctx, m)
}

// Open loads a persisted store from a URL-style path (e.g.
// "file:///tmp/x.catgo", "s3://bucket/key"), as accepted by
// gocloud.dev/blob.OpenBucket.
func Open(ctx context.Context, path string) (*Array, error) {
	store, err := openBlobStore(ctx, path)
	if err != nil {
		return nil, err
	}
	a, err := FromStore(ctx, store)
	if err != nil {
		store.Close()
		return nil, err
	}
	a.handle.owned = true
	return a, nil
}
