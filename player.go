// Package player plays a side-by-side (SBS) stereoscopic video in one of three presentation modes (normal,
// cropped non-stereo VR and stereo VR) and switches between them live, without interrupting playback.
package player

import (
	"context"
	"github.com/Yeicor/sbs-player/internal"
	"github.com/Yeicor/sbs-player/source"
	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/pkg/errors"
	"image/color"
	"log"
	"net"
	"os"
	"os/signal"
	"sync"
	"time"
)

// Player is the public API: it owns the frame source, the compositor and the window.
type Player struct {
	source     internal.FrameSource
	compositor *internal.Compositor
	events     *internal.EventQueue

	// CONFIGURATION
	store         internal.ModeStore
	title         string
	windowSize    [2]int
	background    color.RGBA
	hud           bool
	watchFiles    []string
	readTimeout   time.Duration
	eyeSeparation float64
	fovY          float64
	remoteAddr    string
	remoteSecret  []byte

	// RUNTIME
	ctx       context.Context
	cancel    func()
	done      chan os.Signal
	canvas    *ebitenCanvas
	listener  net.Listener
	closeOnce sync.Once

	uiLock          sync.RWMutex // Guards the fields below (HUD state, written by the render goroutine)
	screenSize      [2]int
	lastTick        internal.TickInfo
	emulatedSession uuid.UUID
}

// Option configures a Player.
type Option func(p *Player)

// NewPlayer builds a player for src. The initial mode is loaded from the configured settings store.
func NewPlayer(src FrameSource, opts ...Option) *Player {
	p := &Player{
		source:        src,
		events:        &internal.EventQueue{},
		title:         "SBS player",
		windowSize:    [2]int{1280, 720},
		background:    color.RGBA{A: 255},
		hud:           true,
		readTimeout:   time.Millisecond,
		eyeSeparation: internal.DefaultEyeSeparation,
		done:          make(chan os.Signal, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.compositor = internal.NewCompositor(src, p.store, p.events, p.windowSize[0], p.windowSize[1])
	p.compositor.EyeSeparation = p.eyeSeparation
	p.compositor.ReadTimeout = p.readTimeout
	if p.fovY > 0 {
		p.compositor.SetFovY(p.fovY)
	}
	p.canvas = newEbitenCanvas(p.background)
	log.Println("[SBSPlayer] starting in", p.compositor.Modes().Mode().Label(), "mode")
	return p
}

//-----------------------------------------------------------------------------
// CONFIGURATION
//-----------------------------------------------------------------------------

// OptMSettings persists the presentation mode in store (nil disables persistence).
func OptMSettings(store SettingsStore) Option {
	return func(p *Player) {
		p.store = store
	}
}

// OptMWindow sets the window title and initial size.
func OptMWindow(title string, width, height int) Option {
	return func(p *Player) {
		p.title = title
		if width > 0 && height > 0 {
			p.windowSize = [2]int{width, height}
		}
	}
}

// OptMBackground sets the color shown around the surfaces.
func OptMBackground(c color.RGBA) Option {
	return func(p *Player) {
		p.background = c
	}
}

// OptMHUD shows or hides the help overlay (toggled at runtime with H).
func OptMHUD(show bool) Option {
	return func(p *Player) {
		p.hud = show
	}
}

// OptMWatchFiles reloads the frame source whenever one of the files changes (for sources that support it).
func OptMWatchFiles(files []string) Option {
	return func(p *Player) {
		p.watchFiles = files
	}
}

// OptMReadTimeout bounds how long a render tick waits for the decoder to release the frame.
func OptMReadTimeout(d time.Duration) Option {
	return func(p *Player) {
		p.readTimeout = d
	}
}

// OptVEyeSeparation sets the distance between the eye cameras during a VR session.
func OptVEyeSeparation(separation float64) Option {
	return func(p *Player) {
		p.eyeSeparation = separation
	}
}

// OptVFov sets the vertical field of view of the camera, in degrees.
func OptVFov(degrees float64) Option {
	return func(p *Player) {
		p.fovY = degrees
	}
}

// OptRServe exposes the player over net/rpc on addr (see RemoteClient).
// A non-empty secret requires every call to carry an HS256 token signed with it.
func OptRServe(addr string, secret []byte) Option {
	return func(p *Player) {
		p.remoteAddr = addr
		p.remoteSecret = secret
	}
}

//-----------------------------------------------------------------------------
// LIFECYCLE
//-----------------------------------------------------------------------------

// Run opens the window and blocks until it is closed, a termination signal arrives or a remote shutdown is
// requested. Resources are released before returning.
func (p *Player) Run() error {
	defer p.Close()
	signal.Notify(p.done, signals()...)
	defer signal.Stop(p.done)
	go func() {
		select {
		case s := <-p.done:
			log.Println("[SBSPlayer] received", s, "- shutting down")
			p.cancel()
		case <-p.ctx.Done():
		}
	}()

	if p.remoteAddr != "" {
		if err := p.serveRemote(); err != nil {
			return err
		}
	}
	if len(p.watchFiles) > 0 {
		if r, ok := p.source.(source.Reloader); ok {
			if err := source.Watch(p.ctx, p.watchFiles, 200*time.Millisecond, func(string) { r.Reload() }); err != nil {
				log.Println("[SBSPlayer] hot reload disabled:", err)
			}
		} else {
			log.Println("[SBSPlayer] hot reload disabled: the frame source can not reload")
		}
	}

	ebiten.SetWindowTitle(p.title)
	ebiten.SetWindowSize(p.windowSize[0], p.windowSize[1])
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetRunnableOnUnfocused(true)
	return errors.Wrap(ebiten.RunGame(playerEbitenGame{p}), "player: render loop")
}

func (p *Player) serveRemote() error {
	l, err := net.Listen("tcp", p.remoteAddr)
	if err != nil {
		return errors.Wrapf(err, "player: remote listen on %s", p.remoteAddr)
	}
	p.listener = l
	server := internal.NewPlayerService(p.compositor, p.remoteSecret, p.done)
	go server.Accept(l) // Returns when the listener is closed
	log.Println("[Remote] listening on", l.Addr())
	return nil
}

// Close stops the render loop, detaches every event source, flushes the settings and releases the video
// texture and the frame source together. It is safe to call more than once.
func (p *Player) Close() {
	p.closeOnce.Do(func() {
		p.cancel()
		p.compositor.Close()
		if p.listener != nil {
			_ = p.listener.Close()
		}
		p.canvas.dispose()
		if c, ok := p.source.(interface{ Close() }); ok {
			c.Close()
		}
		log.Println("[SBSPlayer] closed")
	})
}
