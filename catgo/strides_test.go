package catgo

import "testing"

func TestCeilDiv(t *testing.T) {
	tests := []struct{ a, b, want int64 }{
		{10, 4, 3},
		{8, 4, 2},
		{1, 4, 1},
		{0, 4, 0},
		{100, 10, 10},
	}
	for _, tt := range tests {
		if got := ceilDiv(tt.a, tt.b); got != tt.want {
			t.Errorf("ceilDiv(%d,%d) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestComputeRowMajorStrides(t *testing.T) {
	shape := Shape{2, 3, 4}
	strides := computeRowMajorStrides(shape, 3)
	want := Shape{12, 4, 1}
	if strides != want {
		t.Errorf("strides = %v, want %v", strides[:3], want[:3])
	}
}

func TestCoordToOffsetRoundTrip(t *testing.T) {
	shape := Shape{5, 7}
	strides := computeRowMajorStrides(shape, 2)
	for i := int64(0); i < 5; i++ {
		for j := int64(0); j < 7; j++ {
			coord := Shape{i, j}
			off := CoordToOffset(coord, strides, 2)
			back := OffsetToCoord(off, shape, 2)
			if back[0] != i || back[1] != j {
				t.Fatalf("round trip failed for (%d,%d): got %v", i, j, back[:2])
			}
		}
	}
}

func TestRegionCoverZeroWidthIsNoOp(t *testing.T) {
	ndim := 2
	chunkshape := Shape{4, 4}
	chunksPerAxis := Shape{3, 3}
	start := Shape{2, 2}
	stop := Shape{2, 5}
	calls := 0
	if err := RegionCover(ndim, chunkshape, chunksPerAxis, start, stop, func(ChunkRegion) error {
		calls++
		return nil
	}); err != nil {
		t.Fatalf("RegionCover returned error: %v", err)
	}
	if calls != 0 {
		t.Errorf("expected no callback invocations for a zero-width region, got %d", calls)
	}
}

func TestRegionCoverCoversWholeArray(t *testing.T) {
	ndim := 2
	chunkshape := Shape{4, 4}
	shape := Shape{10, 10}
	chunksPerAxis := Shape{ceilDiv(shape[0], chunkshape[0]), ceilDiv(shape[1], chunkshape[1])}
	start := Shape{0, 0}
	stop := shape

	covered := make(map[int64]int64)
	err := RegionCover(ndim, chunkshape, chunksPerAxis, start, stop, func(cr ChunkRegion) error {
		extent := int64(1)
		for i := 0; i < ndim; i++ {
			extent *= cr.Stop[i] - cr.Start[i]
		}
		covered[cr.ChunkIndex] += extent
		return nil
	})
	if err != nil {
		t.Fatalf("RegionCover returned error: %v", err)
	}
	var total int64
	for _, n := range covered {
		total += n
	}
	if total != 100 {
		t.Errorf("expected 100 items covered across all chunks, got %d", total)
	}
}

func TestOdometerEnumeratesInRowMajorOrder(t *testing.T) {
	lo := Shape{0, 0}
	hi := Shape{1, 2}
	od := newOdometer(2, lo, hi)
	var got [][2]int64
	for od.more() {
		got = append(got, [2]int64{od.coord[0], od.coord[1]})
		od.next()
	}
	want := [][2]int64{{0, 0}, {0, 1}, {0, 2}, {1, 0}, {1, 1}, {1, 2}}
	if len(got) != len(want) {
		t.Fatalf("got %d coords, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("coord %d = %v, want %v", i, got[i], want[i])
		}
	}
}
