package catgo_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/blosc2/catgo/catgo"
	"github.com/stretchr/testify/require"
)

// TestMaxUserMetalayersIsAccepted guards against the metalayer-budget
// double-accounting bug: Context.validate enforces MaxMetalayers
// user-supplied metalayers (reserving one slot for the engine's own
// shape descriptor), so exactly that many must be accepted by every
// constructor, not rejected after the engine's metalayer is merged in.
func TestMaxUserMetalayersIsAccepted(t *testing.T) {
	ctx := context.Background()
	metalayers := make(map[string][]byte, catgo.MaxMetalayers)
	for i := 0; i < catgo.MaxMetalayers; i++ {
		metalayers[fmt.Sprintf("user%d", i)] = []byte{byte(i)}
	}
	c := catgo.Context{Ndim: 1, Shape: catgo.Shape{4}, Chunkshape: catgo.Shape{4}, Blockshape: catgo.Shape{2}}
	c.Store.TypeSize = 4
	c.Store.Metalayers = metalayers

	a, err := catgo.Empty(ctx, c)
	require.NoError(t, err)
	defer a.Release(ctx)
}

func TestTooManyUserMetalayersIsRejected(t *testing.T) {
	ctx := context.Background()
	metalayers := make(map[string][]byte, catgo.MaxMetalayers+1)
	for i := 0; i < catgo.MaxMetalayers+1; i++ {
		metalayers[fmt.Sprintf("user%d", i)] = []byte{byte(i)}
	}
	c := catgo.Context{Ndim: 1, Shape: catgo.Shape{4}, Chunkshape: catgo.Shape{4}, Blockshape: catgo.Shape{2}}
	c.Store.TypeSize = 4
	c.Store.Metalayers = metalayers

	_, err := catgo.Empty(ctx, c)
	require.Error(t, err)
	kind, ok := catgo.KindOf(err)
	require.True(t, ok)
	require.Equal(t, catgo.InvalidShape, kind)
}

// TestFromStoreAcceptsMatchingChunkShaper exercises ChunkShaper's real
// call site: FromStore cross-checks a wrapped store's reported chunk
// size (via the ChunkShaper capability) against the shape descriptor it
// carries, and must accept a store built by this package's own
// constructors.
func TestFromStoreAcceptsMatchingChunkShaper(t *testing.T) {
	ctx := context.Background()
	c := catgo.Context{Ndim: 1, Shape: catgo.Shape{8}, Chunkshape: catgo.Shape{4}, Blockshape: catgo.Shape{2}}
	c.Store.TypeSize = 4
	a, err := catgo.Zeros(ctx, c)
	require.NoError(t, err)
	defer a.Release(ctx)

	_, err = catgo.FromStore(ctx, a.Store())
	require.NoError(t, err)
}
