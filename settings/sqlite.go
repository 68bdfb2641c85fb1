package settings

import (
	"database/sql"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
	"strconv"
)

const (
	keyMode     = "mode"
	keyStereoOn = "stereoOn"
)

// SQLiteStore keeps the settings in a key/value table of a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path. ":memory:" is supported.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "settings: open database")
	}
	db.SetMaxOpenConns(1) // Single writer; also keeps ":memory:" on one connection
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`)
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "settings: create table")
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load reads the settings. Missing keys keep their zero value.
func (s *SQLiteStore) Load() (Settings, error) {
	var res Settings
	rows, err := s.db.Query(`SELECT key, value FROM settings WHERE key IN (?, ?)`, keyMode, keyStereoOn)
	if err != nil {
		return res, errors.Wrap(err, "settings: query")
	}
	defer rows.Close()
	for rows.Next() {
		var k, v string
		if err = rows.Scan(&k, &v); err != nil {
			return Settings{}, errors.Wrap(err, "settings: scan")
		}
		switch k {
		case keyMode:
			res.Mode = v
		case keyStereoOn:
			if res.StereoOn, err = strconv.ParseBool(v); err != nil {
				return Settings{}, errors.Wrapf(err, "settings: bad %s value", keyStereoOn)
			}
		}
	}
	return res, errors.Wrap(rows.Err(), "settings: query")
}

// Save writes st in a single transaction.
func (s *SQLiteStore) Save(st Settings) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "settings: begin")
	}
	const upsert = `INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	for _, kv := range [][2]string{{keyMode, st.Mode}, {keyStereoOn, strconv.FormatBool(st.StereoOn)}} {
		if _, err = tx.Exec(upsert, kv[0], kv[1]); err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "settings: write %s", kv[0])
		}
	}
	return errors.Wrap(tx.Commit(), "settings: commit")
}

// LoadMode implements the player's settings store.
func (s *SQLiteStore) LoadMode() (string, error) {
	st, err := s.Load()
	if err != nil {
		return "", err
	}
	return st.ResolvedMode(), nil
}

// WriteMode implements the player's settings store.
func (s *SQLiteStore) WriteMode(mode string) error {
	return s.Save(ForMode(mode))
}
