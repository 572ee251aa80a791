package catgo

import "context"

// chunkCache is the single-slot, write-through, read-side cache from
// spec.md §4.4. Modeled as a tagged variant (empty, or loaded with a
// chunk index and buffer) per the design notes, rather than a sentinel
// index, so writers can call invalidate uniformly regardless of state.
type chunkCache struct {
	loaded bool
	index  int64
	buf    []byte
}

func (c *chunkCache) invalidate() {
	c.loaded = false
	c.buf = nil
}

// get returns the decompressed payload of chunk k, either from the cache
// or by decompressing it from the store (and caching the result). ok is
// false if the chunk has never been written; in that case buf is nil and
// the caller is responsible for supplying default content.
func (c *chunkCache) get(ctx context.Context, store Store, k int64) (buf []byte, ok bool, err error) {
	if c.loaded && c.index == k {
		return c.buf, true, nil
	}
	raw, present, err := store.ReadChunk(ctx, k)
	if err != nil {
		return nil, false, err
	}
	if !present {
		c.invalidate()
		return nil, false, nil
	}
	c.loaded = true
	c.index = k
	c.buf = raw
	return raw, true, nil
}
