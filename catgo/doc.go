// Package catgo implements chunked, blocked, compressed N-dimensional
// arrays: a two-level tiling of a logical array into chunks (the unit of
// compression and persistence) and blocks (the inner tile inside a chunk),
// plus the operations to build, read, modify, slice, resize and persist
// such arrays.
//
// The package is deliberately split along the same lines as its reference
// design: index algebra (strides.go), a compact meta descriptor codec
// (meta.go), an external compressed-store abstraction (store.go,
// memstore.go, blobstore.go, codec.go), a single-slot chunk cache
// (cache.go), the array descriptor and its constructors (array.go,
// context.go, constructors.go), the region I/O kernel that is the sole
// path for user bytes into or out of chunks (io.go), structural
// operations layered on top of it (structural.go, orthogonal.go), and
// persistence glue (persistence.go).
package catgo

// DMax is the maximum number of dimensions an array may have.
const DMax = 8

// StoreMaxMetalayers bounds the number of metalayer slots a store exposes.
// The engine reserves one of them for its own shape descriptor, so callers
// may attach at most MaxMetalayers of their own.
const StoreMaxMetalayers = 16

// MaxMetalayers is the number of user-supplied metalayers a Context may
// carry, after reserving one slot for the engine's own shape descriptor.
const MaxMetalayers = StoreMaxMetalayers - 1

// MetaLayerName is the reserved metalayer name under which the serialized
// shape descriptor (see meta.go) is stored.
const MetaLayerName = "catgo"
