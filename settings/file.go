package settings

import (
	"encoding/json"
	"github.com/pkg/errors"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps the settings in a JSON file. Keys it does not know about are preserved on write.
type FileStore struct {
	path string
	lock sync.Mutex
}

// NewFileStore returns a store backed by the file at path (created on first write).
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path is the backing file.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the settings. A missing file yields the zero Settings.
func (s *FileStore) Load() (Settings, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	var res Settings
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return res, nil
		}
		return res, errors.Wrapf(err, "settings: read %s", s.path)
	}
	if err = json.Unmarshal(data, &res); err != nil {
		return Settings{}, errors.Wrapf(err, "settings: parse %s", s.path)
	}
	return res, nil
}

// Save merges st into the file, replacing it atomically.
func (s *FileStore) Save(st Settings) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrap(err, "settings: create directory")
	}
	base := map[string]json.RawMessage{}
	if existing, err := os.ReadFile(s.path); err == nil {
		var tmp map[string]json.RawMessage
		if err = json.Unmarshal(existing, &tmp); err == nil {
			base = tmp
		} else {
			log.Println("[Settings] overwriting unreadable", s.path, "-", err)
		}
	}
	update, err := json.Marshal(st)
	if err != nil {
		return errors.Wrap(err, "settings: encode")
	}
	var fields map[string]json.RawMessage
	if err = json.Unmarshal(update, &fields); err != nil {
		return errors.Wrap(err, "settings: encode")
	}
	for k, v := range fields {
		base[k] = v
	}
	data, err := json.MarshalIndent(base, "", "  ")
	if err != nil {
		return errors.Wrap(err, "settings: encode")
	}
	tmp := s.path + ".tmp"
	if err = os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrapf(err, "settings: write %s", tmp)
	}
	return errors.Wrap(os.Rename(tmp, s.path), "settings: replace")
}

// LoadMode implements the player's settings store.
func (s *FileStore) LoadMode() (string, error) {
	st, err := s.Load()
	if err != nil {
		return "", err
	}
	return st.ResolvedMode(), nil
}

// WriteMode implements the player's settings store.
func (s *FileStore) WriteMode(mode string) error {
	return s.Save(ForMode(mode))
}
