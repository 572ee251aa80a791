package catgo

import "context"

// Save persists the array's backing store to a URL-style destination
// (e.g. "file:///tmp/x.catgo", "s3://bucket/key"), delegating to the
// store's own Save, which in turn goes through gocloud.dev/blob.
func (a *Array) Save(ctx context.Context, path string) error {
	return a.handle.store.Save(ctx, path)
}

// ToFrame serializes the array's backing store into a single
// self-contained byte slice in the engine's contiguous frame format
// (the Go analogue of blosc2's cframe), suitable for round-tripping
// through FromFrame.
func (a *Array) ToFrame(ctx context.Context) ([]byte, error) {
	return a.handle.store.ToContiguousFrame(ctx)
}
