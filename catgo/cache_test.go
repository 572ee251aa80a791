package catgo

import (
	"context"
	"testing"
)

// TestCacheTransparency is testable property 9: results of any read
// sequence are identical whether or not the cache happens to already
// hold the requested chunk.
func TestCacheTransparency(t *testing.T) {
	ctx := context.Background()
	sp := StoreParams{TypeSize: 4, ChunkNItems: 4}
	store, err := newMemStore(sp)
	if err != nil {
		t.Fatalf("newMemStore: %v", err)
	}
	defer store.Close()

	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	if _, err := store.AppendChunk(ctx, payload); err != nil {
		t.Fatalf("AppendChunk: %v", err)
	}

	var warm chunkCache
	buf1, ok1, err := warm.get(ctx, store, 0)
	if err != nil || !ok1 {
		t.Fatalf("first get: buf=%v ok=%v err=%v", buf1, ok1, err)
	}
	buf2, ok2, err := warm.get(ctx, store, 0)
	if err != nil || !ok2 {
		t.Fatalf("second (cached) get: buf=%v ok=%v err=%v", buf2, ok2, err)
	}

	var cold chunkCache
	cold.invalidate()
	buf3, ok3, err := cold.get(ctx, store, 0)
	if err != nil || !ok3 {
		t.Fatalf("cold get: buf=%v ok=%v err=%v", buf3, ok3, err)
	}

	for i := range payload {
		if buf1[i] != buf2[i] || buf2[i] != buf3[i] {
			t.Fatalf("byte %d diverges across cache states: %d %d %d", i, buf1[i], buf2[i], buf3[i])
		}
	}
}

func TestCacheGetMissingChunk(t *testing.T) {
	ctx := context.Background()
	sp := StoreParams{TypeSize: 4, ChunkNItems: 4}
	store, err := newMemStore(sp)
	if err != nil {
		t.Fatalf("newMemStore: %v", err)
	}
	defer store.Close()

	var c chunkCache
	buf, ok, err := c.get(ctx, store, 5)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for a chunk that was never written")
	}
	if buf != nil {
		t.Fatalf("expected nil buf for a missing chunk, got %v", buf)
	}
}

func TestCacheInvalidateClearsSlot(t *testing.T) {
	ctx := context.Background()
	sp := StoreParams{TypeSize: 4, ChunkNItems: 2}
	store, err := newMemStore(sp)
	if err != nil {
		t.Fatalf("newMemStore: %v", err)
	}
	defer store.Close()
	if _, err := store.AppendChunk(ctx, []byte{1, 2, 3, 4, 5, 6, 7, 8}); err != nil {
		t.Fatalf("AppendChunk: %v", err)
	}

	var c chunkCache
	if _, _, err := c.get(ctx, store, 0); err != nil {
		t.Fatalf("get: %v", err)
	}
	if !c.loaded {
		t.Fatal("expected cache to be loaded after a successful get")
	}
	c.invalidate()
	if c.loaded || c.buf != nil {
		t.Fatal("expected invalidate to clear the cache slot")
	}
}
