// Package settings persists the player's presentation mode, either as a JSON file in the user's data directory
// or in a SQLite key/value table.
package settings

import (
	"os"
	"path/filepath"
)

// AppName is used for the data directory name.
const AppName = "sbs-player"

// Persisted mode values, shared with the player.
const (
	ModeNormal      = "normal"
	ModeNonStereoVR = "nonStereoVR"
	ModeStereoVR    = "stereoVR"
)

// Settings is the persisted player state.
type Settings struct {
	Mode string `json:"mode,omitempty"`
	// StereoOn is the legacy on/off stereo flag. It is kept in sync with Mode on every write and only read
	// when Mode is missing.
	StereoOn bool `json:"stereoOn"`
}

// ForMode returns the settings persisted for mode.
func ForMode(mode string) Settings {
	return Settings{Mode: mode, StereoOn: mode == ModeStereoVR}
}

// ResolvedMode returns the mode to start in, migrating the legacy flag. "" means no preference.
func (s Settings) ResolvedMode() string {
	if s.Mode != "" {
		return s.Mode
	}
	if s.StereoOn {
		return ModeStereoVR
	}
	return ""
}

// DataDir returns the per-user data directory: $XDG_DATA_HOME/sbs-player when set, otherwise the OS config dir.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, AppName)
	}
	return "." + AppName
}

// DefaultPath is the default JSON settings file.
func DefaultPath() string {
	return filepath.Join(DataDir(), "settings.json")
}
