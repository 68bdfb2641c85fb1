package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

type modeStore interface {
	LoadMode() (string, error)
	WriteMode(mode string) error
}

func testModeRoundTrip(t *testing.T, s modeStore) {
	if m, err := s.LoadMode(); err != nil || m != "" {
		t.Fatalf("expected no preference in an empty store, but got %q (%v)", m, err)
	}
	for _, mode := range []string{ModeNonStereoVR, ModeStereoVR, ModeNormal} {
		if err := s.WriteMode(mode); err != nil {
			t.Fatal(err)
		}
		if m, err := s.LoadMode(); err != nil || m != mode {
			t.Fatalf("expected %q, but got %q (%v)", mode, m, err)
		}
	}
}

func TestResolvedMode(t *testing.T) {
	cases := []struct {
		in       Settings
		expected string
	}{
		{Settings{}, ""},
		{Settings{StereoOn: true}, ModeStereoVR},
		{Settings{Mode: ModeNonStereoVR, StereoOn: true}, ModeNonStereoVR},
		{Settings{Mode: ModeNormal}, ModeNormal},
	}
	for _, c := range cases {
		if got := c.in.ResolvedMode(); got != c.expected {
			t.Fatalf("%+v: expected %q, but got %q", c.in, c.expected, got)
		}
	}
	if !ForMode(ModeStereoVR).StereoOn || ForMode(ModeNonStereoVR).StereoOn {
		t.Fatal("expected the legacy flag to be on only in stereo mode")
	}
}

func TestFileStore(t *testing.T) {
	testModeRoundTrip(t, NewFileStore(filepath.Join(t.TempDir(), "nested", "settings.json")))
}

func TestFileStoreLegacyAndForeignKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte(`{"stereoOn": true, "volume": 0.5}`), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewFileStore(path)
	if m, err := s.LoadMode(); err != nil || m != ModeStereoVR {
		t.Fatalf("expected the legacy flag to migrate to %q, but got %q (%v)", ModeStereoVR, m, err)
	}
	if err := s.WriteMode(ModeNormal); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]interface{}
	if err = json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if raw["mode"] != ModeNormal || raw["stereoOn"] != false || raw["volume"] != 0.5 {
		t.Fatalf("expected mode, synced legacy flag and foreign keys, but got %v", raw)
	}
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte(`{"mode":`), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewFileStore(path)
	if _, err := s.LoadMode(); err == nil {
		t.Fatal("expected a parse error")
	}
	if err := s.WriteMode(ModeNonStereoVR); err != nil {
		t.Fatal(err)
	}
	if m, err := s.LoadMode(); err != nil || m != ModeNonStereoVR {
		t.Fatalf("expected the file to be rewritten, but got %q (%v)", m, err)
	}
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	testModeRoundTrip(t, s)
	st, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if st.Mode != ModeNormal || st.StereoOn {
		t.Fatalf("expected the last write, but got %+v", st)
	}
}

func TestSQLiteStoreLegacy(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "settings.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if _, err = s.db.Exec(`INSERT INTO settings (key, value) VALUES ('stereoOn', 'true')`); err != nil {
		t.Fatal(err)
	}
	if m, err := s.LoadMode(); err != nil || m != ModeStereoVR {
		t.Fatalf("expected the legacy flag to migrate to %q, but got %q (%v)", ModeStereoVR, m, err)
	}
}
