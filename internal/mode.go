package internal

import (
	"github.com/pkg/errors"
	"strconv"
)

// Mode is the active presentation mode. The zero value is Normal.
type Mode int

const (
	Normal      Mode = iota // Full SBS frame on a single plane
	NonStereoVR             // Right eye only, centered
	StereoVR                // Both eyes, side by side
	modeCount
)

// Modes lists every presentation mode in toggle order.
var Modes = [...]Mode{Normal, NonStereoVR, StereoVR}

var modeNames = [modeCount]string{"normal", "nonStereoVR", "stereoVR"}

var modeLabels = [modeCount]string{"Normal", "Non-Stereo", "Stereo VR"}

// String returns the persisted form of the mode.
func (m Mode) String() string {
	if !m.Valid() {
		return "Mode(" + strconv.Itoa(int(m)) + ")"
	}
	return modeNames[m]
}

// Label is the short text shown on the mode indicator.
func (m Mode) Label() string {
	if !m.Valid() {
		return m.String()
	}
	return modeLabels[m]
}

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	return m >= Normal && m < modeCount
}

// Next returns the following mode in the fixed toggle cycle.
func (m Mode) Next() Mode {
	if !m.Valid() {
		return Normal
	}
	return (m + 1) % modeCount
}

// ParseMode parses a persisted mode value.
func ParseMode(s string) (Mode, error) {
	for i, name := range modeNames {
		if s == name {
			return Mode(i), nil
		}
	}
	return Normal, errors.Wrapf(ErrInvalidPersistedMode, "%q", s)
}
