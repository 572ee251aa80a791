package catgo_test

import (
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/blosc2/catgo/catgo"
	"github.com/stretchr/testify/require"
)

func float64Buf(values []float64) []byte {
	buf := make([]byte, len(values)*8)
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[i*8:(i+1)*8], math.Float64bits(v))
	}
	return buf
}

func float64At(buf []byte, i int) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8 : (i+1)*8]))
}

// TestFromBufferToBufferRoundTrip is S1: 2D round-trip of a 10x10 float64
// array tiled (4,4)/(2,2).
func TestFromBufferToBufferRoundTrip(t *testing.T) {
	ctx := context.Background()
	data := make([]float64, 100)
	for i := range data {
		data[i] = float64(i)
	}
	buf := float64Buf(data)

	c := catgo.Context{
		Ndim:       2,
		Shape:      catgo.Shape{10, 10},
		Chunkshape: catgo.Shape{4, 4},
		Blockshape: catgo.Shape{2, 2},
	}
	c.Store.TypeSize = 8

	a, err := catgo.FromBuffer(ctx, c, buf)
	require.NoError(t, err)
	defer a.Release(ctx)

	out := make([]byte, len(buf))
	require.NoError(t, a.ToBuffer(ctx, catgo.Shape{0, 0}, catgo.Shape{10, 10}, out, catgo.Shape{10, 10}))
	require.Equal(t, buf, out)
}

// TestRoundTripArbitraryBuffer is testable property 1 over the whole
// array, exercised at a few different tile shapes (including shapes that
// are not a multiple of the chunk shape).
func TestRoundTripArbitraryBuffer(t *testing.T) {
	ctx := context.Background()
	for _, tc := range []struct {
		shape, chunk, block catgo.Shape
		ndim                int
	}{
		{catgo.Shape{7, 5}, catgo.Shape{3, 2}, catgo.Shape{1, 1}, 2},
		{catgo.Shape{6, 6, 6}, catgo.Shape{4, 4, 4}, catgo.Shape{2, 2, 2}, 3},
		{catgo.Shape{13}, catgo.Shape{5}, catgo.Shape{5}, 1},
	} {
		c := catgo.Context{Ndim: tc.ndim, Shape: tc.shape, Chunkshape: tc.chunk, Blockshape: tc.block}
		c.Store.TypeSize = 4
		n := int64(1)
		for i := 0; i < tc.ndim; i++ {
			n *= tc.shape[i]
		}
		buf := make([]byte, n*4)
		for i := range buf {
			buf[i] = byte(i)
		}
		a, err := catgo.FromBuffer(ctx, c, buf)
		require.NoError(t, err)
		out := make([]byte, len(buf))
		require.NoError(t, a.ToBuffer(ctx, catgo.Shape{}, tc.shape, out, tc.shape))
		require.Equal(t, buf, out)
		require.NoError(t, a.Release(ctx))
	}
}

func TestCurrentPhase(t *testing.T) {
	ctx := context.Background()
	c := catgo.Context{Ndim: 2, Shape: catgo.Shape{8, 8}, Chunkshape: catgo.Shape{4, 4}, Blockshape: catgo.Shape{2, 2}}
	c.Store.TypeSize = 4

	a, err := catgo.Empty(ctx, c)
	require.NoError(t, err)
	defer a.Release(ctx)
	require.Equal(t, catgo.PhaseEmpty, a.CurrentPhase())

	buf := make([]byte, 4*4*4)
	require.NoError(t, a.FromBuffer(ctx, buf, catgo.Shape{4, 4}, catgo.Shape{0, 0}, catgo.Shape{4, 4}))
	require.Equal(t, catgo.PhasePartial, a.CurrentPhase())

	full, err := catgo.Zeros(ctx, c)
	require.NoError(t, err)
	defer full.Release(ctx)
	require.Equal(t, catgo.PhaseFull, full.CurrentPhase())
}

func TestFilledConstructor(t *testing.T) {
	ctx := context.Background()
	c := catgo.Context{Ndim: 2, Shape: catgo.Shape{4, 4}, Chunkshape: catgo.Shape{2, 2}, Blockshape: catgo.Shape{1, 1}}
	c.Store.TypeSize = 4
	fill := []byte{1, 2, 3, 4}
	a, err := catgo.Filled(ctx, c, fill)
	require.NoError(t, err)
	defer a.Release(ctx)

	out := make([]byte, 16*4)
	require.NoError(t, a.ToBuffer(ctx, catgo.Shape{0, 0}, catgo.Shape{4, 4}, out, catgo.Shape{4, 4}))
	for i := 0; i < 16; i++ {
		require.Equal(t, fill, out[i*4:(i+1)*4])
	}
}

func TestFromBufferRejectsWrongSize(t *testing.T) {
	ctx := context.Background()
	c := catgo.Context{Ndim: 1, Shape: catgo.Shape{10}, Chunkshape: catgo.Shape{4}, Blockshape: catgo.Shape{2}}
	c.Store.TypeSize = 4
	_, err := catgo.FromBuffer(ctx, c, make([]byte, 10))
	require.Error(t, err)
	kind, ok := catgo.KindOf(err)
	require.True(t, ok)
	require.Equal(t, catgo.BadBufferSize, kind)
}

func TestContextValidateRejectsBlockLargerThanChunk(t *testing.T) {
	ctx := context.Background()
	c := catgo.Context{Ndim: 1, Shape: catgo.Shape{10}, Chunkshape: catgo.Shape{4}, Blockshape: catgo.Shape{5}}
	c.Store.TypeSize = 4
	_, err := catgo.Empty(ctx, c)
	require.Error(t, err)
	kind, ok := catgo.KindOf(err)
	require.True(t, ok)
	require.Equal(t, catgo.InvalidShape, kind)
}

// TestPaddingInvisibility is testable property 8: writing only part of a
// chunk's padded region must not disturb bytes read back outside that
// write.
func TestPaddingInvisibility(t *testing.T) {
	ctx := context.Background()
	c := catgo.Context{Ndim: 1, Shape: catgo.Shape{10}, Chunkshape: catgo.Shape{4}, Blockshape: catgo.Shape{2}}
	c.Store.TypeSize = 4

	a, err := catgo.Zeros(ctx, c)
	require.NoError(t, err)
	defer a.Release(ctx)

	write := []byte{9, 9, 9, 9}
	require.NoError(t, a.FromBuffer(ctx, write, catgo.Shape{1}, catgo.Shape{2}, catgo.Shape{3}))

	out := make([]byte, 10*4)
	require.NoError(t, a.ToBuffer(ctx, catgo.Shape{0}, catgo.Shape{10}, out, catgo.Shape{10}))
	for i := 0; i < 10; i++ {
		got := out[i*4 : (i+1)*4]
		if i == 2 {
			require.Equal(t, write, got)
		} else {
			require.Equal(t, []byte{0, 0, 0, 0}, got)
		}
	}
}
