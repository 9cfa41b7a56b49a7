package profile

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dougsko/rigd/pkg/hardware"
	"github.com/dougsko/rigd/pkg/logging"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a named profile does not exist
var ErrNotFound = errors.New("profile not found")

const profileColumns = `name, model, transport, hostname, net_port, port_path, baud_rate,
	data_bits, stop_bits, parity, flow_control, poll_interval, rit_offset, xit_offset,
	cw_key, get_freq, get_mode, get_vfo, get_ptt, get_power, get_rit, get_xit,
	get_keyspeed, keyspeed_sync`

// SQLiteStore persists profiles and the current selection in SQLite.
// The selected profile is cached so Current never touches the database.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string

	mu      sync.RWMutex
	current Profile
}

// NewSQLiteStore opens (creating if needed) the profile database at dbPath
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	store := &SQLiteStore{dbPath: dbPath}

	if err := store.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize profile store: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initialize() error {
	if s.dbPath == "" {
		s.dbPath = "./rigd.db"
	}

	if err := os.MkdirAll(filepath.Dir(s.dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", s.dbPath+"?_busy_timeout=10000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	if err := s.createTables(); err != nil {
		db.Close()
		return fmt.Errorf("failed to create tables: %w", err)
	}

	if err := s.loadCurrent(); err != nil {
		db.Close()
		return err
	}

	logging.Infof("profile", "Profile store initialized: %s", s.dbPath)
	return nil
}

func (s *SQLiteStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS profiles (
		name TEXT PRIMARY KEY,
		model INTEGER NOT NULL DEFAULT 0,
		transport TEXT NOT NULL DEFAULT 'serial',
		hostname TEXT NOT NULL DEFAULT '',
		net_port INTEGER NOT NULL DEFAULT 0,
		port_path TEXT NOT NULL DEFAULT '',
		baud_rate INTEGER NOT NULL DEFAULT 0,
		data_bits INTEGER NOT NULL DEFAULT 0,
		stop_bits INTEGER NOT NULL DEFAULT 0,
		parity TEXT NOT NULL DEFAULT '',
		flow_control TEXT NOT NULL DEFAULT '',
		poll_interval INTEGER NOT NULL DEFAULT 0,
		rit_offset REAL NOT NULL DEFAULT 0.0,
		xit_offset REAL NOT NULL DEFAULT 0.0,
		cw_key TEXT NOT NULL DEFAULT '',
		get_freq BOOLEAN NOT NULL DEFAULT FALSE,
		get_mode BOOLEAN NOT NULL DEFAULT FALSE,
		get_vfo BOOLEAN NOT NULL DEFAULT FALSE,
		get_ptt BOOLEAN NOT NULL DEFAULT FALSE,
		get_power BOOLEAN NOT NULL DEFAULT FALSE,
		get_rit BOOLEAN NOT NULL DEFAULT FALSE,
		get_xit BOOLEAN NOT NULL DEFAULT FALSE,
		get_keyspeed BOOLEAN NOT NULL DEFAULT FALSE,
		keyspeed_sync BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS selection (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		profile_name TEXT,
		FOREIGN KEY (profile_name) REFERENCES profiles(name) ON DELETE SET NULL
	);

	INSERT OR IGNORE INTO selection (id, profile_name) VALUES (1, NULL);
	`

	_, err := s.db.Exec(schema)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProfile(row rowScanner) (Profile, error) {
	var p Profile
	var model int
	var transport string
	err := row.Scan(&p.Name, &model, &transport, &p.Hostname, &p.NetPort, &p.PortPath,
		&p.BaudRate, &p.DataBits, &p.StopBits, &p.Parity, &p.FlowControl, &p.PollInterval,
		&p.RITOffset, &p.XITOffset, &p.AssignedCWKey, &p.GetFreqInfo, &p.GetModeInfo,
		&p.GetVFOInfo, &p.GetPTTInfo, &p.GetPWRInfo, &p.GetRITInfo, &p.GetXITInfo,
		&p.GetKeySpeed, &p.KeySpeedSync)
	if err != nil {
		return Profile{}, err
	}
	p.Model = hardware.Model(model)
	p.Transport = hardware.Transport(transport)
	return p, nil
}

func (s *SQLiteStore) loadCurrent() error {
	row := s.db.QueryRow(`SELECT ` + profileColumns + ` FROM profiles
		WHERE name = (SELECT profile_name FROM selection WHERE id = 1)`)

	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		p = Profile{}
	} else if err != nil {
		return fmt.Errorf("failed to load selected profile: %w", err)
	}

	s.mu.Lock()
	s.current = p
	s.mu.Unlock()
	return nil
}

// Current returns the selected profile, the zero Profile if none is selected
func (s *SQLiteStore) Current() Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Save inserts or replaces a profile. Saving the selected profile
// changes what Current returns.
func (s *SQLiteStore) Save(p Profile) error {
	if p.Name == "" {
		return fmt.Errorf("profile name is required")
	}

	_, err := s.db.Exec(`INSERT INTO profiles (`+profileColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			model = excluded.model, transport = excluded.transport,
			hostname = excluded.hostname, net_port = excluded.net_port,
			port_path = excluded.port_path, baud_rate = excluded.baud_rate,
			data_bits = excluded.data_bits, stop_bits = excluded.stop_bits,
			parity = excluded.parity, flow_control = excluded.flow_control,
			poll_interval = excluded.poll_interval,
			rit_offset = excluded.rit_offset, xit_offset = excluded.xit_offset,
			cw_key = excluded.cw_key, get_freq = excluded.get_freq,
			get_mode = excluded.get_mode, get_vfo = excluded.get_vfo,
			get_ptt = excluded.get_ptt, get_power = excluded.get_power,
			get_rit = excluded.get_rit, get_xit = excluded.get_xit,
			get_keyspeed = excluded.get_keyspeed, keyspeed_sync = excluded.keyspeed_sync,
			updated_at = CURRENT_TIMESTAMP`,
		p.Name, int(p.Model), string(p.Transport), p.Hostname, p.NetPort, p.PortPath,
		p.BaudRate, p.DataBits, p.StopBits, p.Parity, p.FlowControl, p.PollInterval,
		p.RITOffset, p.XITOffset, p.AssignedCWKey, p.GetFreqInfo, p.GetModeInfo,
		p.GetVFOInfo, p.GetPTTInfo, p.GetPWRInfo, p.GetRITInfo, p.GetXITInfo,
		p.GetKeySpeed, p.KeySpeedSync)
	if err != nil {
		return fmt.Errorf("failed to save profile %q: %w", p.Name, err)
	}

	return s.loadCurrent()
}

// Get returns the named profile
func (s *SQLiteStore) Get(name string) (Profile, error) {
	row := s.db.QueryRow(`SELECT `+profileColumns+` FROM profiles WHERE name = ?`, name)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return Profile{}, fmt.Errorf("failed to get profile %q: %w", name, err)
	}
	return p, nil
}

// List returns all stored profiles ordered by name
func (s *SQLiteStore) List() ([]Profile, error) {
	rows, err := s.db.Query(`SELECT ` + profileColumns + ` FROM profiles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// Select makes the named profile current. An empty name clears the
// selection.
func (s *SQLiteStore) Select(name string) error {
	if name != "" {
		if _, err := s.Get(name); err != nil {
			return err
		}
	}

	var value interface{}
	if name != "" {
		value = name
	}
	if _, err := s.db.Exec(`UPDATE selection SET profile_name = ? WHERE id = 1`, value); err != nil {
		return fmt.Errorf("failed to select profile %q: %w", name, err)
	}

	return s.loadCurrent()
}

// Delete removes the named profile. Deleting the selected profile
// clears the selection.
func (s *SQLiteStore) Delete(name string) error {
	res, err := s.db.Exec(`DELETE FROM profiles WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete profile %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	return s.loadCurrent()
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
