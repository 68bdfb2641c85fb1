// Package source provides the frame sources that feed the player: a still SBS image and a GStreamer video
// pipeline. Both share one in-place RGBA frame that the render goroutine borrows without blocking.
package source

import (
	"context"
	"github.com/pkg/errors"
	"github.com/subchen/go-trylock/v2"
	"image"
	"image/draw"
	"sync"
	"sync/atomic"
)

// Buffer is the current frame handle owned by a source. The decoder overwrites it in place; readers borrow it
// with CurrentImage and must release it before the next write can proceed.
type Buffer struct {
	lock  trylock.TryLocker
	img   *image.RGBA
	ready atomic.Bool
	seq   atomic.Uint64

	errLock sync.RWMutex
	err     error
}

// NewBuffer returns an empty (not ready) buffer.
func NewBuffer() *Buffer {
	return &Buffer{lock: trylock.New()}
}

// Write replaces the frame with the tightly packed RGBA pixels pix of a width x height image.
// It blocks until every borrowed read is released.
func (b *Buffer) Write(width, height int, pix []byte) error {
	if width <= 0 || height <= 0 || len(pix) < width*height*4 {
		return errors.Errorf("source: bad frame %dx%d (%d bytes)", width, height, len(pix))
	}
	b.lock.Lock()
	if b.img == nil || b.img.Rect.Dx() != width || b.img.Rect.Dy() != height {
		b.img = image.NewRGBA(image.Rect(0, 0, width, height))
	}
	copy(b.img.Pix, pix[:width*height*4])
	b.lock.Unlock()
	b.published()
	return nil
}

// WriteImage replaces the frame with a copy of src.
func (b *Buffer) WriteImage(src image.Image) {
	bounds := src.Bounds()
	b.lock.Lock()
	if b.img == nil || b.img.Rect.Size() != bounds.Size() {
		b.img = image.NewRGBA(image.Rectangle{Max: bounds.Size()})
	}
	draw.Draw(b.img, b.img.Rect, src, bounds.Min, draw.Src)
	b.lock.Unlock()
	b.published()
}

func (b *Buffer) published() {
	b.seq.Add(1)
	b.ready.Store(true)
	b.errLock.Lock()
	b.err = nil // A new frame means the source recovered
	b.errLock.Unlock()
}

// IsReady reports whether at least one frame was written.
func (b *Buffer) IsReady() bool {
	return b.ready.Load()
}

// Seq is the number of frames written so far.
func (b *Buffer) Seq() uint64 {
	return b.seq.Load()
}

// CurrentImage borrows the frame for reading. It gives up when ctx is done before the writer releases it.
func (b *Buffer) CurrentImage(ctx context.Context) (*image.RGBA, func(), bool) {
	if !b.IsReady() {
		return nil, nil, false
	}
	if !b.lock.RTryLock(ctx) {
		return nil, nil, false
	}
	return b.img, b.lock.RUnlock, true
}

// Fail records a terminal failure. The last frame stays readable.
func (b *Buffer) Fail(err error) {
	b.errLock.Lock()
	b.err = err
	b.errLock.Unlock()
}

// Err returns the terminal failure, if any.
func (b *Buffer) Err() error {
	b.errLock.RLock()
	defer b.errLock.RUnlock()
	return b.err
}
