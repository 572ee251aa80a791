package catgo

import (
	"encoding/binary"
	"fmt"
)

// MetaVersion is the current format version for the serialized shape
// descriptor. It must never exceed 127 (the top bit is reserved).
const MetaVersion = 0

// Descriptor is the subset of array state that round-trips through the
// meta codec: enough to reconstruct shape/chunkshape/blockshape (and
// hence every derived shape and stride) from a persisted container.
type Descriptor struct {
	Ndim       int
	Shape      Shape
	Chunkshape Shape
	Blockshape Shape
}

// SerializeMeta encodes d as: version byte | ndim byte | uvarint-encoded
// shape[0:ndim] | chunkshape[0:ndim] | blockshape[0:ndim]. Shape entries
// may use the full 64-bit range; chunkshape/blockshape are bounded to
// 32 bits (spec.md §6) but are encoded with the same uvarint scheme for
// simplicity, since uvarint is already self-delimiting and minimal for
// small values.
func SerializeMeta(d Descriptor) ([]byte, error) {
	if d.Ndim < 1 || d.Ndim > DMax {
		return nil, newErr(InvalidShape, fmt.Sprintf("ndim %d out of range [1,%d]", d.Ndim, DMax))
	}
	buf := make([]byte, 0, 2+d.Ndim*3*binary.MaxVarintLen64)
	buf = append(buf, MetaVersion, byte(d.Ndim))

	var tmp [binary.MaxVarintLen64]byte
	putVec := func(v Shape) {
		for i := 0; i < d.Ndim; i++ {
			n := binary.PutUvarint(tmp[:], uint64(v[i]))
			buf = append(buf, tmp[:n]...)
		}
	}
	putVec(d.Shape)
	putVec(d.Chunkshape)
	putVec(d.Blockshape)
	return buf, nil
}

// DeserializeMeta is the exact inverse of SerializeMeta. It fails cleanly
// (returning a NotCaterva error) on truncated input or an incompatible
// version byte.
func DeserializeMeta(b []byte) (Descriptor, error) {
	var d Descriptor
	if len(b) < 2 {
		return d, newErr(NotCaterva, "meta descriptor truncated: need at least 2 bytes")
	}
	version := b[0]
	if version > 127 || version != MetaVersion {
		return d, newErr(NotCaterva, fmt.Sprintf("incompatible meta version %d", version))
	}
	ndim := int(b[1])
	if ndim < 1 || ndim > DMax {
		return d, newErr(NotCaterva, fmt.Sprintf("ndim %d out of range [1,%d]", ndim, DMax))
	}
	d.Ndim = ndim

	rest := b[2:]
	readVec := func() (Shape, error) {
		var v Shape
		for i := 0; i < ndim; i++ {
			val, n := binary.Uvarint(rest)
			if n <= 0 {
				return v, newErr(NotCaterva, "meta descriptor truncated while reading a shape vector")
			}
			v[i] = int64(val)
			rest = rest[n:]
		}
		return v, nil
	}

	var err error
	if d.Shape, err = readVec(); err != nil {
		return Descriptor{}, err
	}
	if d.Chunkshape, err = readVec(); err != nil {
		return Descriptor{}, err
	}
	if d.Blockshape, err = readVec(); err != nil {
		return Descriptor{}, err
	}
	return d, nil
}
