package catgo

import "fmt"

// Context is a construction context (spec.md §3 "Lifecycle"): the input
// to exactly one constructor call. It is a plain value — Go has no
// destructor to mirror caterva_free_ctx, so there is nothing to release
// explicitly; the zero value is simply discarded by the caller once the
// constructor returns.
type Context struct {
	Ndim       int
	Shape      Shape
	Chunkshape Shape
	Blockshape Shape
	Store      StoreParams
}

// validate checks invariants 1-2 of spec.md §3 against the context's
// shape vectors (invariants 3-4, about stored chunk counts and strides,
// only become checkable once a store exists).
func (c Context) validate() error {
	if c.Ndim < 1 || c.Ndim > DMax {
		return newErr(InvalidShape, fmt.Sprintf("ndim %d out of range [1,%d]", c.Ndim, DMax))
	}
	for i := 0; i < c.Ndim; i++ {
		if c.Shape[i] < 1 {
			return newErr(InvalidShape, fmt.Sprintf("shape[%d]=%d must be >= 1", i, c.Shape[i]))
		}
		if c.Chunkshape[i] < 1 {
			return newErr(InvalidShape, fmt.Sprintf("chunkshape[%d]=%d must be >= 1", i, c.Chunkshape[i]))
		}
		if c.Blockshape[i] < 1 || c.Blockshape[i] > c.Chunkshape[i] {
			return newErr(InvalidShape, fmt.Sprintf("blockshape[%d]=%d must be in [1,chunkshape[%d]=%d]", i, c.Blockshape[i], i, c.Chunkshape[i]))
		}
	}
	if len(c.Store.Metalayers) > MaxMetalayers {
		return newErr(InvalidShape, fmt.Sprintf("too many metalayers: %d > %d", len(c.Store.Metalayers), MaxMetalayers))
	}
	return nil
}

func (c Context) chunkNItems() int64 {
	return product(c.Chunkshape, c.Ndim)
}

// metaDescriptor builds the shape descriptor this context would install
// as the engine's reserved metalayer.
func (c Context) metaDescriptor() Descriptor {
	return Descriptor{Ndim: c.Ndim, Shape: c.Shape, Chunkshape: c.Chunkshape, Blockshape: c.Blockshape}
}
