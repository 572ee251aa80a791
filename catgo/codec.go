package catgo

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"

	blosc "github.com/mrjoshuak/go-blosc"
	"github.com/klauspost/compress/zstd"
)

// Codec compresses and decompresses chunk payloads before they reach the
// Store's persistence layer. The core treats chunk bytes as opaque; the
// codec is entirely a property of the store the array is bound to.
type Codec interface {
	Name() string
	Encode(raw []byte) ([]byte, error)
	Decode(compressed []byte) ([]byte, error)
}

// ZstdCodec compresses chunks with zstd, the default codec (mirroring the
// "zstd" branch of the teacher's chunk decompression dispatch).
type ZstdCodec struct{ Level zstd.EncoderLevel }

func (ZstdCodec) Name() string { return "zstd" }

func (c ZstdCodec) Encode(raw []byte) ([]byte, error) {
	level := c.Level
	if level == 0 {
		level = zstd.SpeedDefault
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
	if err != nil {
		return nil, fmt.Errorf("zstd: new encoder: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(raw, make([]byte, 0, len(raw))), nil
}

func (ZstdCodec) Decode(compressed []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd: new decoder: %w", err)
	}
	defer dec.Close()
	out, err := dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd: decode: %w", err)
	}
	return out, nil
}

// BloscCodec compresses chunks with Blosc, the codec the system this
// spec models (Caterva, a Blosc2 layer) is named after.
type BloscCodec struct {
	Typesize int
	Clevel   int
}

func (BloscCodec) Name() string { return "blosc" }

func (c BloscCodec) Encode(raw []byte) ([]byte, error) {
	typesize := c.Typesize
	if typesize == 0 {
		typesize = 1
	}
	clevel := c.Clevel
	if clevel == 0 {
		clevel = 5
	}
	out, err := blosc.Compress(clevel, typesize, raw)
	if err != nil {
		return nil, fmt.Errorf("blosc: compress: %w", err)
	}
	return out, nil
}

func (BloscCodec) Decode(compressed []byte) ([]byte, error) {
	out, err := blosc.Decompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("blosc: decompress: %w", err)
	}
	return out, nil
}

// ZlibCodec compresses chunks with stdlib zlib: the zero-extra-dependency
// fallback, matching the teacher's "zlib"/"gzip" branch.
type ZlibCodec struct{ Level int }

func (ZlibCodec) Name() string { return "zlib" }

func (c ZlibCodec) Encode(raw []byte) ([]byte, error) {
	level := c.Level
	if level == 0 {
		level = zlib.DefaultCompression
	}
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("zlib: new writer: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		w.Close()
		return nil, fmt.Errorf("zlib: write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("zlib: close: %w", err)
	}
	return buf.Bytes(), nil
}

func (ZlibCodec) Decode(compressed []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("zlib: new reader: %w", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("zlib: read: %w", err)
	}
	return out, nil
}
