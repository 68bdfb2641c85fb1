package internal

import "github.com/pkg/errors"

var (
	// ErrDecodeNotReady means no frame has reached the displayable threshold yet (retry next tick).
	ErrDecodeNotReady = errors.New("decode: no current frame")
	// ErrDecodeFailed means the frame source stopped for good. The last good frame stays on screen.
	ErrDecodeFailed = errors.New("decode: failed")
	// ErrPersistenceWriteFailed is logged and ignored by the mode controller.
	ErrPersistenceWriteFailed = errors.New("settings: write failed")
	// ErrInvalidPersistedMode makes the mode controller start in Normal.
	ErrInvalidPersistedMode = errors.New("settings: invalid persisted mode")
)
