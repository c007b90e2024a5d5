// Package store persists computed manifests keyed by checkpoint height.
//
// Each record carries the manifest version, the externally trusted root
// hash, and the zstd-compressed encoded manifest. Compression applies only
// at rest: wire bytes and every hash are computed over the uncompressed
// encoding. Which heights to keep is the caller's decision; the store only
// offers point deletes.
package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"github.com/kk-code-lab/statesync/internal/manifest"
)

// ErrNotFound is returned when no record exists at the requested height.
var ErrNotFound = errors.New("store: manifest not found")

// Record is the stored metadata of one manifest.
type Record struct {
	Height    uint64
	Version   manifest.Version
	RootHash  [32]byte
	CreatedAt time.Time
}

// Store wraps the SQLite manifest registry.
type Store struct {
	db  *sql.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// Open opens or creates the registry database at the given path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("store: db path required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	store := &Store{db: db, enc: enc, dec: dec}
	if err := store.applyPragmas(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	s.enc.Close()
	s.dec.Close()
	return s.db.Close()
}

func (s *Store) applyPragmas(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA synchronous=FULL"); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		return err
	}
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	applied_at TEXT NOT NULL
)`); err != nil {
		return err
	}

	var version int
	if err = tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version); err != nil {
		return err
	}
	if version < 1 {
		if _, err = tx.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS manifests (
	height INTEGER PRIMARY KEY,
	version INTEGER NOT NULL,
	root_hash BLOB NOT NULL,
	encoded BLOB NOT NULL,
	created_at TEXT NOT NULL
)`); err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, "INSERT INTO schema_migrations(version, applied_at) VALUES(1, ?)", time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Put records a manifest at the given height, replacing any previous record.
func (s *Store) Put(ctx context.Context, height uint64, m *manifest.Manifest) error {
	root, err := manifest.RootHash(m)
	if err != nil {
		return err
	}
	encoded, err := manifest.EncodeManifest(m)
	if err != nil {
		return err
	}
	compressed := s.enc.EncodeAll(encoded, nil)
	_, err = s.db.ExecContext(ctx, `
INSERT INTO manifests(height, version, root_hash, encoded, created_at)
VALUES(?, ?, ?, ?, ?)
ON CONFLICT(height) DO UPDATE SET
	version = excluded.version,
	root_hash = excluded.root_hash,
	encoded = excluded.encoded,
	created_at = excluded.created_at`,
		int64(height), uint32(m.Version), root[:], compressed,
		time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

// Get loads the manifest and record stored at the given height.
func (s *Store) Get(ctx context.Context, height uint64) (*manifest.Manifest, *Record, error) {
	var versionRaw uint32
	var rootRaw, compressed []byte
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT version, root_hash, encoded, created_at FROM manifests WHERE height = ?",
		int64(height)).Scan(&versionRaw, &rootRaw, &compressed, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	record := &Record{Height: height}
	record.Version, err = manifest.VersionFromU32(versionRaw)
	if err != nil {
		return nil, nil, err
	}
	if len(rootRaw) != 32 {
		return nil, nil, errors.New("store: corrupt root hash")
	}
	copy(record.RootHash[:], rootRaw)
	if record.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, nil, err
	}

	encoded, err := s.dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, nil, err
	}
	m, err := manifest.DecodeManifest(encoded)
	if err != nil {
		return nil, nil, err
	}
	return m, record, nil
}

// Heights lists all stored heights in ascending order.
func (s *Store) Heights(ctx context.Context) ([]uint64, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT height FROM manifests ORDER BY height")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var heights []uint64
	for rows.Next() {
		var h int64
		if err := rows.Scan(&h); err != nil {
			return nil, err
		}
		heights = append(heights, uint64(h))
	}
	return heights, rows.Err()
}

// Latest returns the highest stored height. ok is false when the store is
// empty.
func (s *Store) Latest(ctx context.Context) (height uint64, ok bool, err error) {
	var h sql.NullInt64
	if err := s.db.QueryRowContext(ctx, "SELECT MAX(height) FROM manifests").Scan(&h); err != nil {
		return 0, false, err
	}
	if !h.Valid {
		return 0, false, nil
	}
	return uint64(h.Int64), true, nil
}

// Delete removes the record at the given height, if present.
func (s *Store) Delete(ctx context.Context, height uint64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM manifests WHERE height = ?", int64(height))
	return err
}
