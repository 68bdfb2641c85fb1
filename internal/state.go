package internal

import (
	"context"
	"image"
)

// FrameSource is the decoder contract. The image returned by CurrentImage is owned by the source and mutated
// in place; the caller must only read it, and must call release as soon as it is done.
type FrameSource interface {
	// IsReady reports whether enough data was decoded to display a frame.
	IsReady() bool
	// CurrentImage borrows the current frame. It gives up (ok == false) when ctx is done before the frame can
	// be read (e.g. the decoder is writing it), so the render goroutine never blocks on the decoder.
	CurrentImage(ctx context.Context) (img *image.RGBA, release func(), ok bool)
	// Err returns the terminal decode failure, or nil while the source is healthy.
	Err() error
}

// Canvas is the interface implemented by the GPU and software backends.
// Note that the implementation knows nothing about presentation modes: it draws what it is asked to.
type Canvas interface {
	// Upload copies frame into the shared video texture. Called at most once per tick.
	Upload(frame *image.RGBA)
	// Clear fills the viewport with the background color.
	Clear(viewport image.Rectangle)
	// DrawSurface draws s, textured with its material, as seen by cam inside viewport.
	DrawSurface(s Surface, m *RegionMaterial, cam Camera, viewport image.Rectangle)
}

// TickInfo summarizes what a single render tick did.
type TickInfo struct {
	Events   int         // Queued events applied before drawing
	Ready    bool        // The frame source had current data
	Uploaded bool        // The shared texture was refreshed
	Skipped  error       // ErrDecodeNotReady when the refresh was skipped this tick
	Drawn    []SurfaceID // Surfaces drawn (once per eye while in a VR session)
	Warning  error       // Decode failure surfaced to the caller; the last good frame is kept
}
