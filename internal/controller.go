package internal

import (
	"context"
	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"log"
	"sync"
	"time"
)

// ModeStore is the settings store contract: persistence medium and durability are up to the implementation.
type ModeStore interface {
	// LoadMode returns the persisted mode value, or "" if there is none.
	LoadMode() (string, error)
	// WriteMode persists the mode value.
	WriteMode(mode string) error
}

// ModeController owns the presentation mode. Toggle, OnSessionStart and OnSessionEnd must only be called from
// the render goroutine (between draws); Mode and Subscribe are safe from any goroutine.
type ModeController struct {
	layout *StereoLayout
	store  ModeStore

	modeLock  sync.RWMutex
	mode      Mode
	observers []func(Mode)

	session   uuid.UUID // Render goroutine only
	inSession bool

	writes     chan Mode // Latest pending write (capacity 1)
	writerDone chan struct{}
	closeOnce  sync.Once
}

// NewModeController loads the initial mode from store (Normal if absent or invalid) and applies it to layout.
// A nil store disables persistence.
func NewModeController(layout *StereoLayout, store ModeStore) *ModeController {
	c := &ModeController{
		layout:     layout,
		store:      store,
		mode:       loadInitialMode(store),
		writes:     make(chan Mode, 1),
		writerDone: make(chan struct{}),
	}
	layout.Apply(c.mode)
	go c.writer()
	return c
}

func loadInitialMode(store ModeStore) Mode {
	if store == nil {
		return Normal
	}
	raw, err := store.LoadMode()
	if err != nil {
		log.Println("[ModeController] could not load settings, starting in", Normal, "mode:", err)
		return Normal
	}
	if raw == "" {
		return Normal
	}
	m, err := ParseMode(raw)
	if err != nil {
		log.Println("[ModeController] starting in", Normal, "mode:", err)
	}
	return m
}

// Mode returns the current presentation mode.
func (c *ModeController) Mode() Mode {
	c.modeLock.RLock()
	defer c.modeLock.RUnlock()
	return c.mode
}

// Subscribe registers fn to be called (on the render goroutine) after every mode transition.
func (c *ModeController) Subscribe(fn func(Mode)) {
	c.modeLock.Lock()
	c.observers = append(c.observers, fn)
	c.modeLock.Unlock()
}

// Toggle advances Normal -> NonStereoVR -> StereoVR -> Normal, applies and persists the new mode.
func (c *ModeController) Toggle() Mode {
	c.modeLock.Lock()
	next := c.mode.Next()
	c.layout.Apply(next)
	c.mode = next
	observers := c.observers
	c.modeLock.Unlock()

	log.Println("[ModeController]", next.Label(), "mode active")
	c.persist(next)
	for _, fn := range observers {
		fn(next)
	}
	return next
}

// OnSessionStart re-applies the current mode after the backend entered a VR session.
func (c *ModeController) OnSessionStart(id uuid.UUID) {
	c.session, c.inSession = id, true
	c.reapply()
	log.Println("[ModeController] VR session started:", id)
}

// OnSessionEnd re-applies the current mode after the backend left a VR session.
func (c *ModeController) OnSessionEnd(id uuid.UUID) {
	if c.inSession && id != uuid.Nil && id != c.session {
		log.Println("[ModeController] end of unknown VR session", id, "(current:", c.session, ")")
	}
	c.session, c.inSession = uuid.Nil, false
	c.reapply()
	log.Println("[ModeController] VR session ended:", id)
}

// InSession reports whether a VR session is active.
func (c *ModeController) InSession() bool {
	return c.inSession
}

func (c *ModeController) reapply() {
	c.modeLock.RLock()
	c.layout.Apply(c.mode)
	c.modeLock.RUnlock()
}

// persist hands m to the writer goroutine without blocking, replacing any write still pending.
func (c *ModeController) persist(m Mode) {
	if c.store == nil {
		return
	}
	for {
		select {
		case c.writes <- m:
			return
		default:
		}
		select {
		case <-c.writes: // Superseded
		default:
		}
	}
}

func (c *ModeController) writer() {
	defer close(c.writerDone)
	for m := range c.writes {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = 50 * time.Millisecond
		_, err := backoff.Retry(context.Background(), func() (struct{}, error) {
			return struct{}{}, c.store.WriteMode(m.String())
		}, backoff.WithBackOff(b), backoff.WithMaxTries(3))
		if err != nil {
			log.Println("[ModeController] ignoring:", errors.Wrapf(ErrPersistenceWriteFailed, "%s: %v", m, err))
		}
	}
}

// Close flushes the pending settings write and stops the writer goroutine. Toggle must not be called afterwards.
func (c *ModeController) Close() {
	c.closeOnce.Do(func() {
		close(c.writes)
		<-c.writerDone
	})
}
