package player

import (
	"github.com/Yeicor/sbs-player/internal"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"image"
	"image/png"
	"os"
)

// Mode is the active presentation mode.
type Mode = internal.Mode

// The presentation modes, in toggle order.
const (
	Normal      = internal.Normal
	NonStereoVR = internal.NonStereoVR
	StereoVR    = internal.StereoVR
)

// FrameSource is implemented by the packages under source/.
type FrameSource = internal.FrameSource

// SettingsStore is implemented by the stores in settings/.
type SettingsStore = internal.ModeStore

// LayoutSnapshot is a copy of the surfaces and their visibility.
type LayoutSnapshot = internal.LayoutSnapshot

// ParseMode parses a persisted mode value ("normal", "nonStereoVR" or "stereoVR").
func ParseMode(s string) (Mode, error) {
	return internal.ParseMode(s)
}

// Mode returns the current presentation mode. Safe from any goroutine.
func (p *Player) Mode() Mode {
	return p.compositor.Modes().Mode()
}

// Subscribe calls fn on the render goroutine after every mode transition.
func (p *Player) Subscribe(fn func(Mode)) {
	p.compositor.Modes().Subscribe(fn)
}

// Toggle queues a mode toggle, applied before the next frame is drawn.
func (p *Player) Toggle() {
	p.events.Toggle()
}

// SessionStart notifies the player that the host entered a VR session. It returns the session id to pass to
// SessionEnd.
func (p *Player) SessionStart() uuid.UUID {
	return p.events.SessionStart()
}

// SessionEnd notifies the player that the host left the VR session id.
func (p *Player) SessionEnd(id uuid.UUID) {
	p.events.SessionEnd(id)
}

// Layout returns a copy of the surfaces as of the last applied event. Safe from any goroutine.
func (p *Player) Layout() *LayoutSnapshot {
	return p.compositor.Snapshot()
}

// RenderImage renders one frame of the current mode with the software rasterizer, without a window.
// It must not be called while Run is active.
func (p *Player) RenderImage(width, height int) *image.RGBA {
	canvas := newSoftwareCanvas(p.background)
	p.events.Resize(width, height)
	p.compositor.Tick(canvas)
	return canvas.Image()
}

// SavePNG writes RenderImage(width, height) to path.
func (p *Player) SavePNG(path string, width, height int) error {
	img := p.RenderImage(width, height)
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "player: create snapshot")
	}
	if err = png.Encode(f, img); err != nil {
		_ = f.Close()
		return errors.Wrap(err, "player: encode snapshot")
	}
	return errors.Wrap(f.Close(), "player: write snapshot")
}
