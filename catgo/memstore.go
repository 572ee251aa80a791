package catgo

import (
	"context"
	"fmt"
)

// memStore is an in-process, anonymous (non-persisted) store: the
// equivalent of Caterva's in-memory sparse super-chunk. It backs every
// constructor invoked with an empty StoreParams.Path.
type memStore struct {
	typesize    int32
	chunkNItems int64
	codec       Codec
	chunks      map[int64][]byte // compressed payloads, keyed by chunk index
	nchunks     int64
	metalayers  map[string][]byte
}

func newMemStore(p StoreParams) (*memStore, error) {
	// p.Metalayers already includes the engine's own reserved shape
	// descriptor by the time it reaches here (see buildStoreParams), so
	// the budget to check against is the store's full StoreMaxMetalayers,
	// not Context.validate's pre-merge MaxMetalayers bound.
	if len(p.Metalayers) > StoreMaxMetalayers {
		return nil, newErr(InvalidShape, fmt.Sprintf("too many metalayers: %d > %d", len(p.Metalayers), StoreMaxMetalayers))
	}
	m := &memStore{
		typesize:    p.TypeSize,
		chunkNItems: p.ChunkNItems,
		codec:       p.codec(),
		chunks:      make(map[int64][]byte),
		metalayers:  make(map[string][]byte, len(p.Metalayers)+1),
	}
	for k, v := range p.Metalayers {
		m.metalayers[k] = append([]byte(nil), v...)
	}
	return m, nil
}

func (m *memStore) TypeSize() int32     { return m.typesize }
func (m *memStore) NChunks() int64      { return m.nchunks }
func (m *memStore) ChunkNItems() int64  { return m.chunkNItems }

func (m *memStore) AppendChunk(_ context.Context, raw []byte) (int64, error) {
	enc, err := m.codec.Encode(raw)
	if err != nil {
		return 0, wrapErr(StoreError, "append chunk", err)
	}
	k := m.nchunks
	m.chunks[k] = enc
	m.nchunks++
	return k, nil
}

func (m *memStore) ReplaceChunk(_ context.Context, k int64, raw []byte) error {
	if k < 0 || k >= m.nchunks {
		return newErr(StoreError, fmt.Sprintf("replace chunk: index %d out of range [0,%d)", k, m.nchunks))
	}
	enc, err := m.codec.Encode(raw)
	if err != nil {
		return wrapErr(StoreError, "replace chunk", err)
	}
	m.chunks[k] = enc
	return nil
}

func (m *memStore) ReadChunk(_ context.Context, k int64) ([]byte, bool, error) {
	if k < 0 || k >= m.nchunks {
		return nil, false, nil
	}
	enc, present := m.chunks[k]
	if !present {
		return nil, false, nil
	}
	raw, err := m.codec.Decode(enc)
	if err != nil {
		return nil, false, wrapErr(StoreError, "read chunk", err)
	}
	return raw, true, nil
}

func (m *memStore) MetalayerAdd(_ context.Context, name string, data []byte) error {
	if _, exists := m.metalayers[name]; !exists && len(m.metalayers) >= StoreMaxMetalayers {
		return newErr(StoreError, "metalayer budget exhausted")
	}
	m.metalayers[name] = append([]byte(nil), data...)
	return nil
}

func (m *memStore) MetalayerGet(_ context.Context, name string) ([]byte, bool, error) {
	v, ok := m.metalayers[name]
	return v, ok, nil
}

// ToContiguousFrame serializes the store in the frame layout of
// encodeFrame (frame.go): a minimal self-describing container, analogous
// to Caterva's cframe, carrying enough for decodeFrame (used by
// FromFrame) to reconstruct a memStore exactly.
func (m *memStore) ToContiguousFrame(_ context.Context) ([]byte, error) {
	return encodeFrame(m)
}

func (m *memStore) Save(ctx context.Context, path string) error {
	bs, err := createBlobStore(ctx, path, StoreParams{
		TypeSize:    m.typesize,
		ChunkNItems: m.chunkNItems,
		Codec:       m.codec,
		Metalayers:  m.metalayers,
	})
	if err != nil {
		return err
	}
	defer bs.Close()
	for k := int64(0); k < m.nchunks; k++ {
		raw, ok, err := m.ReadChunk(ctx, k)
		if err != nil {
			return err
		}
		if !ok {
			raw = make([]byte, m.chunkNItems*int64(m.typesize))
		}
		if _, err := bs.AppendChunk(ctx, raw); err != nil {
			return err
		}
	}
	return nil
}

func (m *memStore) Close() error { return nil }
