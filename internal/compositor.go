package internal

import (
	"context"
	"github.com/barkimedes/go-deepcopy"
	"github.com/pkg/errors"
	"image"
	"log"
	"sync"
	"time"
)

// DefaultEyeSeparation is the distance between the eye cameras while a VR session is active (world units).
const DefaultEyeSeparation = 0.064

// Compositor drives one render tick: it applies queued events, refreshes the shared texture and draws the
// visible surfaces. Everything but Snapshot, Mode and Events must run on the render goroutine.
type Compositor struct {
	source FrameSource
	layout *StereoLayout
	modes  *ModeController
	events *EventQueue

	camera        Camera
	output        image.Point
	EyeSeparation float64
	ReadTimeout   time.Duration // Maximum wait for the decoder to release the frame

	lastWarning error

	snapshotLock sync.RWMutex
	snapshot     *LayoutSnapshot
}

// NewCompositor builds the layout, loads the initial mode from store and sizes the output.
func NewCompositor(source FrameSource, store ModeStore, events *EventQueue, width, height int) *Compositor {
	layout := NewStereoLayout(&VideoTexture{})
	c := &Compositor{
		source:        source,
		layout:        layout,
		modes:         NewModeController(layout, store),
		events:        events,
		camera:        NewCamera(width, height),
		output:        image.Pt(width, height),
		EyeSeparation: DefaultEyeSeparation,
		ReadTimeout:   time.Millisecond,
	}
	c.publish()
	return c
}

// Modes returns the mode controller.
func (c *Compositor) Modes() *ModeController {
	return c.modes
}

// Layout returns the live layout (render goroutine only).
func (c *Compositor) Layout() *StereoLayout {
	return c.layout
}

// Events returns the queue drained at the start of every tick.
func (c *Compositor) Events() *EventQueue {
	return c.events
}

// Camera returns the main camera.
func (c *Compositor) Camera() Camera {
	return c.camera
}

// OutputSize is the size of the output buffer.
func (c *Compositor) OutputSize() image.Point {
	return c.output
}

// SetFovY changes the vertical field of view (degrees) of the main camera.
func (c *Compositor) SetFovY(degrees float64) {
	c.camera.FovY = degrees
}

// Resize recomputes the projection and output buffer size. Mode and visibility are untouched.
func (c *Compositor) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.camera.Resize(width, height)
	c.output = image.Pt(width, height)
}

// ProcessEvents applies every queued event, in arrival order, and returns how many were applied.
func (c *Compositor) ProcessEvents() int {
	evs := c.events.Drain()
	for _, ev := range evs {
		switch ev.Kind {
		case EventToggle:
			c.modes.Toggle()
		case EventSessionStart:
			c.modes.OnSessionStart(ev.Session)
		case EventSessionEnd:
			c.modes.OnSessionEnd(ev.Session)
		case EventResize:
			c.Resize(ev.Width, ev.Height)
		}
	}
	if len(evs) > 0 {
		c.publish()
	}
	return len(evs)
}

// Tick runs a full render tick on canvas. It never fails: decode problems degrade to the last good frame.
func (c *Compositor) Tick(canvas Canvas) TickInfo {
	var info TickInfo
	info.Events = c.ProcessEvents()

	// Refresh
	tex := c.layout.Texture()
	info.Ready = c.source.IsReady()
	if info.Ready {
		tex.MarkForUpdate()
	} else {
		info.Skipped = ErrDecodeNotReady
	}
	if err := c.source.Err(); err != nil {
		info.Warning = errors.Wrap(ErrDecodeFailed, err.Error())
		if c.lastWarning == nil || c.lastWarning.Error() != err.Error() {
			log.Println("[Compositor] keeping last frame:", info.Warning)
		}
	}
	c.lastWarning = c.source.Err()
	if tex.NeedsUpdate {
		info.Uploaded = c.upload(canvas, tex)
	}

	// Draw
	full := image.Rectangle{Max: c.output}
	canvas.Clear(full)
	if tex.Version == 0 {
		return info // Nothing decoded yet
	}
	visible := c.layout.Visible()
	if c.modes.InSession() {
		left, right := c.camera.Eyes(c.EyeSeparation)
		mid := full.Min.X + full.Dx()/2
		info.Drawn = c.draw(canvas, visible, left, image.Rect(full.Min.X, full.Min.Y, mid, full.Max.Y), info.Drawn)
		info.Drawn = c.draw(canvas, visible, right, image.Rect(mid, full.Min.Y, full.Max.X, full.Max.Y), info.Drawn)
	} else {
		info.Drawn = c.draw(canvas, visible, c.camera, full, info.Drawn)
	}
	return info
}

func (c *Compositor) upload(canvas Canvas, tex *VideoTexture) bool {
	ctx, cancel := context.WithTimeout(context.Background(), c.ReadTimeout)
	defer cancel()
	img, release, ok := c.source.CurrentImage(ctx)
	if !ok {
		tex.NeedsUpdate = false // Decoder busy: keep the previous frame, retry next tick
		return false
	}
	defer release()
	canvas.Upload(img)
	tex.Uploaded(image.Rectangle{Max: img.Bounds().Size()}) // Canvases store the frame at the origin
	return true
}

func (c *Compositor) draw(canvas Canvas, visible []Surface, cam Camera, viewport image.Rectangle, drawn []SurfaceID) []SurfaceID {
	for _, s := range visible {
		canvas.DrawSurface(s, c.layout.Material(s.ID), cam, viewport)
		drawn = append(drawn, s.ID)
	}
	return drawn
}

func (c *Compositor) publish() {
	snap := c.layout.Snapshot()
	c.snapshotLock.Lock()
	c.snapshot = snap
	c.snapshotLock.Unlock()
}

// Snapshot returns a private copy of the layout as of the last applied event. Safe from any goroutine.
func (c *Compositor) Snapshot() *LayoutSnapshot {
	c.snapshotLock.RLock()
	defer c.snapshotLock.RUnlock()
	return deepcopy.MustAnything(c.snapshot).(*LayoutSnapshot)
}

// Close detaches the event sources and flushes the pending settings write.
func (c *Compositor) Close() {
	c.events.Close()
	c.modes.Close()
}
