// Package store persists tournament mappools, account credentials, and OAuth
// tokens in a local SQLite database.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("store: not found")

// Store wraps one SQLite database. It is safe for concurrent use; database/sql
// serializes access to the underlying connection pool.
type Store struct {
	db *sql.DB
}

// migrations are applied in order; PRAGMA user_version records how many have
// run. Append only.
var migrations = []string{
	`
	CREATE TABLE IF NOT EXISTS user_credentials (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS mappools (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS beatmap_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		mappool_id INTEGER NOT NULL,
		beatmap_id INTEGER NOT NULL,
		artist TEXT NOT NULL,
		title TEXT NOT NULL,
		difficulty TEXT NOT NULL,
		mapper TEXT NOT NULL,
		mod_combination TEXT,
		category TEXT,
		created_at TEXT NOT NULL,
		FOREIGN KEY (mappool_id) REFERENCES mappools (id) ON DELETE CASCADE
	);
	`,
	`
	CREATE TABLE IF NOT EXISTS oauth_tokens (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		irc_username TEXT NOT NULL UNIQUE,
		access_token TEXT NOT NULL,
		refresh_token TEXT NOT NULL,
		expires_in INTEGER NOT NULL,
		expires_at TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`,
}

// Open opens (creating if necessary) the database at path, sets WAL mode and
// a busy timeout, and applies any pending migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", path, err)
	}
	// WAL mode for concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	// cascade deletes from mappools to beatmap_entries need this per-connection
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	for i := version; i < len(migrations); i++ {
		if _, err := s.db.Exec(migrations[i]); err != nil {
			return fmt.Errorf("applying migration %d: %w", i+1, err)
		}
		if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version=%d", i+1)); err != nil {
			return fmt.Errorf("recording schema version %d: %w", i+1, err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Mappool is a named collection of tournament beatmaps.
type Mappool struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BeatmapEntry is one beatmap in a mappool, with the mod combination and
// category ("NM1", "HD2", "TB", ...) it was picked for.
type BeatmapEntry struct {
	ID             int64
	MappoolID      int64
	BeatmapID      int64
	Artist         string
	Title          string
	Difficulty     string
	Mapper         string
	ModCombination string
	Category       string
	CreatedAt      time.Time
}

// Credentials is a saved account login.
type Credentials struct {
	Username string
	Password string
}

// Token is a saved OAuth token, keyed by the IRC username it belongs to.
type Token struct {
	IRCUsername  string
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
	ExpiresAt    time.Time
}

const timeLayout = time.RFC3339

// CreateMappool inserts a new mappool and returns it with its assigned id.
func (s *Store) CreateMappool(name, description string) (Mappool, error) {
	now := time.Now().UTC()
	res, err := s.db.Exec(
		"INSERT INTO mappools (name, description, created_at, updated_at) VALUES (?, ?, ?, ?)",
		name, description, now.Format(timeLayout), now.Format(timeLayout),
	)
	if err != nil {
		return Mappool{}, fmt.Errorf("inserting mappool: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Mappool{}, fmt.Errorf("inserting mappool: %w", err)
	}
	return Mappool{ID: id, Name: name, Description: description, CreatedAt: now, UpdatedAt: now}, nil
}

// Mappools returns all mappools, newest first.
func (s *Store) Mappools() ([]Mappool, error) {
	rows, err := s.db.Query(
		"SELECT id, name, COALESCE(description, ''), created_at, updated_at FROM mappools ORDER BY id DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("listing mappools: %w", err)
	}
	defer rows.Close()

	var pools []Mappool
	for rows.Next() {
		var p Mappool
		var created, updated string
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &created, &updated); err != nil {
			return nil, fmt.Errorf("scanning mappool: %w", err)
		}
		p.CreatedAt, _ = time.Parse(timeLayout, created)
		p.UpdatedAt, _ = time.Parse(timeLayout, updated)
		pools = append(pools, p)
	}
	return pools, rows.Err()
}

// DeleteMappool removes a mappool and, via the foreign key cascade, its
// beatmap entries.
func (s *Store) DeleteMappool(id int64) error {
	res, err := s.db.Exec("DELETE FROM mappools WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting mappool %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddBeatmap appends a beatmap entry to a mappool.
func (s *Store) AddBeatmap(e BeatmapEntry) (BeatmapEntry, error) {
	now := time.Now().UTC()
	res, err := s.db.Exec(
		`INSERT INTO beatmap_entries
		(mappool_id, beatmap_id, artist, title, difficulty, mapper, mod_combination, category, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.MappoolID, e.BeatmapID, e.Artist, e.Title, e.Difficulty, e.Mapper,
		e.ModCombination, e.Category, now.Format(timeLayout),
	)
	if err != nil {
		return BeatmapEntry{}, fmt.Errorf("inserting beatmap entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return BeatmapEntry{}, fmt.Errorf("inserting beatmap entry: %w", err)
	}
	e.ID = id
	e.CreatedAt = now
	return e, nil
}

// Beatmaps returns a mappool's entries in insertion order.
func (s *Store) Beatmaps(mappoolID int64) ([]BeatmapEntry, error) {
	rows, err := s.db.Query(
		`SELECT id, mappool_id, beatmap_id, artist, title, difficulty, mapper,
		COALESCE(mod_combination, ''), COALESCE(category, ''), created_at
		FROM beatmap_entries WHERE mappool_id = ? ORDER BY id`,
		mappoolID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing beatmaps for mappool %d: %w", mappoolID, err)
	}
	defer rows.Close()

	var entries []BeatmapEntry
	for rows.Next() {
		var e BeatmapEntry
		var created string
		if err := rows.Scan(&e.ID, &e.MappoolID, &e.BeatmapID, &e.Artist, &e.Title,
			&e.Difficulty, &e.Mapper, &e.ModCombination, &e.Category, &created); err != nil {
			return nil, fmt.Errorf("scanning beatmap entry: %w", err)
		}
		e.CreatedAt, _ = time.Parse(timeLayout, created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// RemoveBeatmap deletes one beatmap entry.
func (s *Store) RemoveBeatmap(id int64) error {
	res, err := s.db.Exec("DELETE FROM beatmap_entries WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting beatmap entry %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveCredentials upserts the login for username.
func (s *Store) SaveCredentials(username, password string) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.Exec(
		`INSERT INTO user_credentials (username, password, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET password = excluded.password, updated_at = excluded.updated_at`,
		username, password, now, now,
	)
	if err != nil {
		return fmt.Errorf("saving credentials for %s: %w", username, err)
	}
	return nil
}

// Credentials returns the saved login for username.
func (s *Store) Credentials(username string) (Credentials, error) {
	var c Credentials
	err := s.db.QueryRow(
		"SELECT username, password FROM user_credentials WHERE username = ?", username,
	).Scan(&c.Username, &c.Password)
	if errors.Is(err, sql.ErrNoRows) {
		return Credentials{}, ErrNotFound
	}
	if err != nil {
		return Credentials{}, fmt.Errorf("loading credentials for %s: %w", username, err)
	}
	return c, nil
}

// DeleteCredentials removes the saved login for username.
func (s *Store) DeleteCredentials(username string) error {
	res, err := s.db.Exec("DELETE FROM user_credentials WHERE username = ?", username)
	if err != nil {
		return fmt.Errorf("deleting credentials for %s: %w", username, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveToken upserts the OAuth token for t.IRCUsername.
func (s *Store) SaveToken(t Token) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.Exec(
		`INSERT INTO oauth_tokens (irc_username, access_token, refresh_token, expires_in, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(irc_username) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_in = excluded.expires_in,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at`,
		t.IRCUsername, t.AccessToken, t.RefreshToken, t.ExpiresIn,
		t.ExpiresAt.UTC().Format(timeLayout), now, now,
	)
	if err != nil {
		return fmt.Errorf("saving token for %s: %w", t.IRCUsername, err)
	}
	return nil
}

// Token returns the saved OAuth token for ircUsername.
func (s *Store) Token(ircUsername string) (Token, error) {
	var t Token
	var expiresAt string
	err := s.db.QueryRow(
		`SELECT irc_username, access_token, refresh_token, expires_in, expires_at
		FROM oauth_tokens WHERE irc_username = ?`, ircUsername,
	).Scan(&t.IRCUsername, &t.AccessToken, &t.RefreshToken, &t.ExpiresIn, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Token{}, ErrNotFound
	}
	if err != nil {
		return Token{}, fmt.Errorf("loading token for %s: %w", ircUsername, err)
	}
	t.ExpiresAt, _ = time.Parse(timeLayout, expiresAt)
	return t, nil
}
