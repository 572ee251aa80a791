package catgo

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

var frameMagic = [4]byte{'C', 'A', 'T', 'G'}

const frameVersion = 1

func codecByName(name string) (Codec, error) {
	switch name {
	case "zstd":
		return ZstdCodec{}, nil
	case "blosc":
		return BloscCodec{}, nil
	case "zlib":
		return ZlibCodec{}, nil
	default:
		return nil, newErr(NotCaterva, fmt.Sprintf("unknown codec %q in frame", name))
	}
}

func writeBytes(buf *bytes.Buffer, b []byte) {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(b)))
	buf.Write(lenBuf[:])
	buf.Write(b)
}

func readBytes(b []byte) (data []byte, rest []byte, err error) {
	if len(b) < 4 {
		return nil, nil, newErr(NotCaterva, "frame truncated reading length")
	}
	n := binary.BigEndian.Uint32(b[:4])
	b = b[4:]
	if uint64(len(b)) < uint64(n) {
		return nil, nil, newErr(NotCaterva, "frame truncated reading payload")
	}
	return b[:n], b[n:], nil
}

// encodeFrame serializes a memStore into a self-contained contiguous
// buffer: magic | version | typesize | chunkNItems | codec name |
// nchunks | chunk payloads (already codec-compressed) | metalayer count |
// metalayer name/value pairs. This is catgo's equivalent of Caterva's
// cframe (caterva_to_cframe / caterva_from_cframe).
func encodeFrame(m *memStore) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(frameMagic[:])
	buf.WriteByte(frameVersion)

	var scratch [8]byte
	binary.BigEndian.PutUint32(scratch[:4], uint32(m.typesize))
	buf.Write(scratch[:4])
	binary.BigEndian.PutUint64(scratch[:8], uint64(m.chunkNItems))
	buf.Write(scratch[:8])
	writeBytes(&buf, []byte(m.codec.Name()))

	binary.BigEndian.PutUint64(scratch[:8], uint64(m.nchunks))
	buf.Write(scratch[:8])
	for k := int64(0); k < m.nchunks; k++ {
		writeBytes(&buf, m.chunks[k])
	}

	binary.BigEndian.PutUint32(scratch[:4], uint32(len(m.metalayers)))
	buf.Write(scratch[:4])
	for name, data := range m.metalayers {
		writeBytes(&buf, []byte(name))
		writeBytes(&buf, data)
	}
	return buf.Bytes(), nil
}

// decodeFrame is the exact inverse of encodeFrame. copyData controls whether
// the chunk/metalayer payloads are duplicated (true) or aliased into b
// (false); aliasing is only safe while the caller keeps b alive, matching
// caterva_from_cframe's copy flag.
func decodeFrame(b []byte, copyData bool) (*memStore, error) {
	if len(b) < 5 || !bytes.Equal(b[:4], frameMagic[:]) {
		return nil, newErr(NotCaterva, "not a catgo frame: bad magic")
	}
	if b[4] != frameVersion {
		return nil, newErr(NotCaterva, fmt.Sprintf("unsupported frame version %d", b[4]))
	}
	rest := b[5:]

	if len(rest) < 12 {
		return nil, newErr(NotCaterva, "frame truncated reading header")
	}
	typesize := int32(binary.BigEndian.Uint32(rest[:4]))
	rest = rest[4:]
	chunkNItems := int64(binary.BigEndian.Uint64(rest[:8]))
	rest = rest[8:]

	codecNameB, rest2, err := readBytes(rest)
	if err != nil {
		return nil, err
	}
	rest = rest2
	codec, err := codecByName(string(codecNameB))
	if err != nil {
		return nil, err
	}

	if len(rest) < 8 {
		return nil, newErr(NotCaterva, "frame truncated reading chunk count")
	}
	nchunks := int64(binary.BigEndian.Uint64(rest[:8]))
	rest = rest[8:]

	m := &memStore{
		typesize:    typesize,
		chunkNItems: chunkNItems,
		codec:       codec,
		chunks:      make(map[int64][]byte, nchunks),
		metalayers:  make(map[string][]byte),
	}
	dup := func(src []byte) []byte {
		if !copyData {
			return src
		}
		return append([]byte(nil), src...)
	}

	for k := int64(0); k < nchunks; k++ {
		var payload []byte
		payload, rest, err = readBytes(rest)
		if err != nil {
			return nil, err
		}
		m.chunks[k] = dup(payload)
	}
	m.nchunks = nchunks

	if len(rest) < 4 {
		return nil, newErr(NotCaterva, "frame truncated reading metalayer count")
	}
	nmeta := binary.BigEndian.Uint32(rest[:4])
	rest = rest[4:]
	for i := uint32(0); i < nmeta; i++ {
		var nameB, dataB []byte
		nameB, rest, err = readBytes(rest)
		if err != nil {
			return nil, err
		}
		dataB, rest, err = readBytes(rest)
		if err != nil {
			return nil, err
		}
		m.metalayers[string(nameB)] = dup(dataB)
	}

	return m, nil
}
