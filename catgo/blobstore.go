package catgo

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"
)

// blobStore backs Open/Save/FromStore with any gocloud.dev/blob driver
// reachable by a URL-style path ("file:///...", "mem://", "s3://...",
// "gs://...", "azblob://..."), the way zarr.NewReader/zarr.NewDataset
// open a bucket and read a ".zarray"-style metadata key from it.
type blobStore struct {
	bucket      *blob.Bucket
	typesize    int32
	chunkNItems int64
	codec       Codec
	nchunks     int64
}

const manifestKey = "catgo.manifest"

func chunkKey(k int64) string { return fmt.Sprintf("chunk.%d", k) }
func metaKey(name string) string { return "meta." + name }

// createBlobStore opens (creating if necessary) the bucket at path and
// writes a fresh manifest plus any caller-supplied metalayers.
func createBlobStore(ctx context.Context, path string, p StoreParams) (*blobStore, error) {
	bucket, err := blob.OpenBucket(ctx, path)
	if err != nil {
		return nil, wrapErr(StoreError, "open bucket "+path, err)
	}
	bs := &blobStore{
		bucket:      bucket,
		typesize:    p.TypeSize,
		chunkNItems: p.ChunkNItems,
		codec:       p.codec(),
		nchunks:     0,
	}
	// p.Metalayers already includes the engine's own reserved shape
	// descriptor by the time it reaches here (see buildStoreParams), so
	// the budget to check against is the store's full StoreMaxMetalayers,
	// not Context.validate's pre-merge MaxMetalayers bound.
	if len(p.Metalayers) > StoreMaxMetalayers {
		bucket.Close()
		return nil, newErr(InvalidShape, fmt.Sprintf("too many metalayers: %d > %d", len(p.Metalayers), StoreMaxMetalayers))
	}
	for name, data := range p.Metalayers {
		if err := bs.MetalayerAdd(ctx, name, data); err != nil {
			bucket.Close()
			return nil, err
		}
	}
	if err := bs.writeManifest(ctx); err != nil {
		bucket.Close()
		return nil, err
	}
	return bs, nil
}

// openBlobStore opens an existing bucket at path and reads back its
// manifest. It returns a NotCaterva error if the manifest is absent or
// malformed, mirroring caterva_open's validation of the shape metalayer.
func openBlobStore(ctx context.Context, path string) (*blobStore, error) {
	bucket, err := blob.OpenBucket(ctx, path)
	if err != nil {
		return nil, wrapErr(StoreError, "open bucket "+path, err)
	}
	bs := &blobStore{bucket: bucket, codec: ZstdCodec{}}
	if err := bs.readManifest(ctx); err != nil {
		bucket.Close()
		return nil, err
	}
	return bs, nil
}

func (bs *blobStore) writeManifest(ctx context.Context) error {
	var buf bytes.Buffer
	buf.Write(frameMagic[:])
	buf.WriteByte(frameVersion)
	var scratch [8]byte
	binary.BigEndian.PutUint32(scratch[:4], uint32(bs.typesize))
	buf.Write(scratch[:4])
	binary.BigEndian.PutUint64(scratch[:8], uint64(bs.chunkNItems))
	buf.Write(scratch[:8])
	writeBytes(&buf, []byte(bs.codec.Name()))
	binary.BigEndian.PutUint64(scratch[:8], uint64(bs.nchunks))
	buf.Write(scratch[:8])

	if err := bs.bucket.WriteAll(ctx, manifestKey, buf.Bytes(), nil); err != nil {
		return wrapErr(StoreError, "write manifest", err)
	}
	return nil
}

func (bs *blobStore) readManifest(ctx context.Context) error {
	data, err := bs.bucket.ReadAll(ctx, manifestKey)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return newErr(NotCaterva, "bucket has no catgo manifest")
		}
		return wrapErr(StoreError, "read manifest", err)
	}
	if len(data) < 5 || !bytes.Equal(data[:4], frameMagic[:]) {
		return newErr(NotCaterva, "manifest has bad magic")
	}
	if data[4] != frameVersion {
		return newErr(NotCaterva, fmt.Sprintf("unsupported manifest version %d", data[4]))
	}
	rest := data[5:]
	if len(rest) < 12 {
		return newErr(NotCaterva, "manifest truncated")
	}
	bs.typesize = int32(binary.BigEndian.Uint32(rest[:4]))
	rest = rest[4:]
	bs.chunkNItems = int64(binary.BigEndian.Uint64(rest[:8]))
	rest = rest[8:]

	codecName, rest, err2 := readBytes(rest)
	if err2 != nil {
		return err2
	}
	codec, err2 := codecByName(string(codecName))
	if err2 != nil {
		return err2
	}
	bs.codec = codec

	if len(rest) < 8 {
		return newErr(NotCaterva, "manifest truncated reading nchunks")
	}
	bs.nchunks = int64(binary.BigEndian.Uint64(rest[:8]))
	return nil
}

func (bs *blobStore) TypeSize() int32    { return bs.typesize }
func (bs *blobStore) NChunks() int64     { return bs.nchunks }
func (bs *blobStore) ChunkNItems() int64 { return bs.chunkNItems }

func (bs *blobStore) AppendChunk(ctx context.Context, raw []byte) (int64, error) {
	enc, err := bs.codec.Encode(raw)
	if err != nil {
		return 0, wrapErr(StoreError, "append chunk", err)
	}
	k := bs.nchunks
	if err := bs.bucket.WriteAll(ctx, chunkKey(k), enc, nil); err != nil {
		return 0, wrapErr(StoreError, "write chunk", err)
	}
	bs.nchunks++
	if err := bs.writeManifest(ctx); err != nil {
		return 0, err
	}
	return k, nil
}

func (bs *blobStore) ReplaceChunk(ctx context.Context, k int64, raw []byte) error {
	if k < 0 || k >= bs.nchunks {
		return newErr(StoreError, fmt.Sprintf("replace chunk: index %d out of range [0,%d)", k, bs.nchunks))
	}
	enc, err := bs.codec.Encode(raw)
	if err != nil {
		return wrapErr(StoreError, "replace chunk", err)
	}
	if err := bs.bucket.WriteAll(ctx, chunkKey(k), enc, nil); err != nil {
		return wrapErr(StoreError, "write chunk", err)
	}
	return nil
}

func (bs *blobStore) ReadChunk(ctx context.Context, k int64) ([]byte, bool, error) {
	if k < 0 || k >= bs.nchunks {
		return nil, false, nil
	}
	enc, err := bs.bucket.ReadAll(ctx, chunkKey(k))
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, false, nil
		}
		return nil, false, wrapErr(StoreError, "read chunk", err)
	}
	raw, err := bs.codec.Decode(enc)
	if err != nil {
		return nil, false, wrapErr(StoreError, "decode chunk", err)
	}
	return raw, true, nil
}

func (bs *blobStore) MetalayerAdd(ctx context.Context, name string, data []byte) error {
	if _, exists, err := bs.MetalayerGet(ctx, name); err != nil {
		return err
	} else if !exists {
		existing, err := bs.listMetalayers(ctx)
		if err != nil {
			return err
		}
		if len(existing) >= StoreMaxMetalayers {
			return newErr(StoreError, "metalayer budget exhausted")
		}
	}
	if err := bs.bucket.WriteAll(ctx, metaKey(name), data, nil); err != nil {
		return wrapErr(StoreError, "write metalayer "+name, err)
	}
	return nil
}

func (bs *blobStore) MetalayerGet(ctx context.Context, name string) ([]byte, bool, error) {
	data, err := bs.bucket.ReadAll(ctx, metaKey(name))
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, false, nil
		}
		return nil, false, wrapErr(StoreError, "read metalayer "+name, err)
	}
	return data, true, nil
}

func (bs *blobStore) ToContiguousFrame(ctx context.Context) ([]byte, error) {
	snap, err := bs.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return encodeFrame(snap)
}

// Save copies every chunk and metalayer into a fresh store at path.
func (bs *blobStore) Save(ctx context.Context, path string) error {
	metas, err := bs.listMetalayers(ctx)
	if err != nil {
		return err
	}
	dst, err := createBlobStore(ctx, path, StoreParams{
		TypeSize:    bs.typesize,
		ChunkNItems: bs.chunkNItems,
		Codec:       bs.codec,
		Metalayers:  metas,
	})
	if err != nil {
		return err
	}
	defer dst.Close()
	for k := int64(0); k < bs.nchunks; k++ {
		raw, ok, err := bs.ReadChunk(ctx, k)
		if err != nil {
			return err
		}
		if !ok {
			raw = make([]byte, bs.chunkNItems*int64(bs.typesize))
		}
		if _, err := dst.AppendChunk(ctx, raw); err != nil {
			return err
		}
	}
	return nil
}

func (bs *blobStore) Close() error {
	return bs.bucket.Close()
}

// snapshot materializes the full contents of the bucket-backed store into
// an in-process memStore, used by ToContiguousFrame.
func (bs *blobStore) snapshot(ctx context.Context) (*memStore, error) {
	metas, err := bs.listMetalayers(ctx)
	if err != nil {
		return nil, err
	}
	m, err := newMemStore(StoreParams{
		TypeSize:    bs.typesize,
		ChunkNItems: bs.chunkNItems,
		Codec:       bs.codec,
		Metalayers:  metas,
	})
	if err != nil {
		return nil, err
	}
	for k := int64(0); k < bs.nchunks; k++ {
		raw, ok, err := bs.ReadChunk(ctx, k)
		if err != nil {
			return nil, err
		}
		if !ok {
			raw = make([]byte, bs.chunkNItems*int64(bs.typesize))
		}
		if _, err := m.AppendChunk(ctx, raw); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// listMetalayers enumerates every metalayer attached to the bucket: the
// engine's own reserved MetaLayerName (read directly, since it is always
// present once the store is created) plus whatever else bucket.List turns
// up under the "meta." key prefix.
func (bs *blobStore) listMetalayers(ctx context.Context) (map[string][]byte, error) {
	out := make(map[string][]byte)
	if data, ok, err := bs.MetalayerGet(ctx, MetaLayerName); err != nil {
		return nil, err
	} else if ok {
		out[MetaLayerName] = data
	}
	iter := bs.bucket.List(&blob.ListOptions{Prefix: "meta."})
	for {
		obj, err := iter.Next(ctx)
		if err != nil {
			break
		}
		name := obj.Key[len("meta."):]
		if _, already := out[name]; already {
			continue
		}
		if data, ok, err := bs.MetalayerGet(ctx, name); err == nil && ok {
			out[name] = data
		}
	}
	return out, nil
}
