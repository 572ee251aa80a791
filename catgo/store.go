package catgo

import "context"

// Store is the external compressed-store collaborator (spec.md §6): a
// black box providing append/replace/read of fixed-size raw chunks, a
// per-element type size, an attached metalayer catalog, and optional
// persistence to a URL-style path. The core never inspects chunk bytes
// beyond copying them; compression, on-disk layout and block codec
// details are entirely the store's responsibility.
//
// Implementations must be safe to call only from a single goroutine at a
// time per Store value (spec.md §5: single-threaded per array).
type Store interface {
	// TypeSize returns the fixed per-item byte width.
	TypeSize() int32
	// NChunks returns the number of chunks currently stored.
	NChunks() int64
	// AppendChunk compresses and appends a new chunk, returning its index.
	AppendChunk(ctx context.Context, raw []byte) (int64, error)
	// ReplaceChunk compresses and overwrites the chunk at index k, which
	// must already exist.
	ReplaceChunk(ctx context.Context, k int64, raw []byte) error
	// ReadChunk decompresses and returns the raw bytes of chunk k. If
	// chunk k has never been written, it returns a nil buffer and
	// ok=false; the caller supplies default content.
	ReadChunk(ctx context.Context, k int64) (raw []byte, ok bool, err error)
	// MetalayerAdd attaches a named byte blob to the store. It fails if
	// the store's metalayer budget (StoreMaxMetalayers) is exhausted.
	MetalayerAdd(ctx context.Context, name string, data []byte) error
	// MetalayerGet retrieves a previously attached metalayer.
	MetalayerGet(ctx context.Context, name string) (data []byte, ok bool, err error)
	// ToContiguousFrame serializes the entire store (chunks + metalayers)
	// into a single contiguous buffer suitable for FromFrame.
	ToContiguousFrame(ctx context.Context) ([]byte, error)
	// Save copies every chunk and metalayer into a new store rooted at
	// path, preserving metalayers (including the shape descriptor).
	Save(ctx context.Context, path string) error
	// Close releases any resources the store owns (file handles, network
	// connections). Array.Release does not call it for a store wrapped
	// with FromStore, which the caller still owns.
	Close() error
}

// ChunkShaper is implemented by stores whose chunk size is fixed up
// front and can be reported back. FromStore type-asserts to this
// interface to cross-check a wrapped store's chunk size against the
// shape descriptor it claims to hold.
type ChunkShaper interface {
	ChunkNItems() int64
}

// StoreParams configures construction of a fresh Store (C5 constructors).
type StoreParams struct {
	// TypeSize is the fixed per-item byte width.
	TypeSize int32
	// ChunkNItems is the number of items per chunk (chunknitems), used to
	// size chunks the store must materialize on demand.
	ChunkNItems int64
	// Path, if non-empty, is a URL-style path (as accepted by
	// gocloud.dev/blob.OpenBucket, e.g. "file:///tmp/x", "mem://") at
	// which the store persists itself. If empty, the store is a
	// transient in-process (anonymous sparse) store.
	Path string
	// Codec selects the compression codec new chunks are written with.
	// Defaults to ZstdCodec when nil.
	Codec Codec
	// Metalayers are user-supplied metalayers to attach at creation time,
	// in addition to the engine's own shape descriptor. Bounded by
	// MaxMetalayers.
	Metalayers map[string][]byte
}

func (p StoreParams) codec() Codec {
	if p.Codec != nil {
		return p.Codec
	}
	return ZstdCodec{}
}
