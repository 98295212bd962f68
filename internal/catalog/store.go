package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/jtdct/sonora/internal/catalogerr"
)

// Store is the transactional session over the catalog database (spec
// §4.1): shared (read) and exclusive (read/write) transactions, plus
// bulk cursors for the whole-catalog scans the scan and similarity
// engines need.
type Store struct {
	db *sql.DB
	// writeMu serialises exclusive transactions so "single-writer" is
	// an actual program invariant, not just a sqlite file-lock accident.
	writeMu sync.Mutex
}

// NewStore wraps an already-migrated *sql.DB.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// WithRead runs fn inside a shared (read-only) transaction.
func (s *Store) WithRead(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return catalogerr.Fatal("catalog.WithRead", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return catalogerr.Fatal("catalog.WithRead", err)
	}
	return nil
}

// WithWrite runs fn inside an exclusive (read/write) transaction.
// Exclusive transactions are serialised against each other so every
// multi-row invariant in spec §3 is enforced inside a single
// transaction boundary, never split across two.
func (s *Store) WithWrite(ctx context.Context, fn func(*sql.Tx) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return catalogerr.Fatal("catalog.WithWrite", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return catalogerr.Fatal("catalog.WithWrite", err)
	}
	return nil
}

// DB exposes the underlying handle for callers (migrations, settings
// merge) that need raw access outside the transaction helpers.
func (s *Store) DB() *sql.DB { return s.db }

// TrackPath pairs a Track's id, path, and last-write-time, the minimal
// projection the scan engine's first pass needs.
type TrackPath struct {
	ID            int64
	Path          string
	LastWriteTime sql.NullTime
}

// IterateTrackPaths streams every cataloged track's (id, path, mtime)
// without materialising the whole catalog in memory.
func (s *Store) IterateTrackPaths(ctx context.Context, tx *sql.Tx, fn func(TrackPath) error) error {
	rows, err := tx.QueryContext(ctx, `SELECT id, path, last_write_time FROM tracks`)
	if err != nil {
		return fmt.Errorf("iterate track paths: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tp TrackPath
		if err := rows.Scan(&tp.ID, &tp.Path, &tp.LastWriteTime); err != nil {
			return fmt.Errorf("scan track path: %w", err)
		}
		if err := fn(tp); err != nil {
			return err
		}
	}
	return rows.Err()
}

// IterateReleases streams every cataloged release.
func (s *Store) IterateReleases(ctx context.Context, tx *sql.Tx, fn func(Release) error) error {
	rows, err := tx.QueryContext(ctx, `SELECT id, name, mbid, disc_total FROM releases`)
	if err != nil {
		return fmt.Errorf("iterate releases: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r Release
		if err := rows.Scan(&r.ID, &r.Name, &r.MBID, &r.DiscTotal); err != nil {
			return fmt.Errorf("scan release: %w", err)
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	return rows.Err()
}

// TrackFeatures pairs a track id with its raw feature JSON.
type TrackFeatures struct {
	TrackID int64
	JSON    string
}

// IterateTracksWithFeatures streams every (track id, features json)
// pair, the input to similarity-engine training.
func (s *Store) IterateTracksWithFeatures(ctx context.Context, tx *sql.Tx, fn func(TrackFeatures) error) error {
	rows, err := tx.QueryContext(ctx, `SELECT track_id, json FROM features`)
	if err != nil {
		return fmt.Errorf("iterate tracks with features: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tf TrackFeatures
		if err := rows.Scan(&tf.TrackID, &tf.JSON); err != nil {
			return fmt.Errorf("scan track features: %w", err)
		}
		if err := fn(tf); err != nil {
			return err
		}
	}
	return rows.Err()
}

// OrphanArtistIDs returns every artist id with no remaining track
// reference.
func (s *Store) OrphanArtistIDs(ctx context.Context, tx *sql.Tx) ([]int64, error) {
	return queryIDs(ctx, tx, `SELECT a.id FROM artists a
		LEFT JOIN track_artists ta ON ta.artist_id = a.id
		WHERE ta.artist_id IS NULL`)
}

// OrphanReleaseIDs returns every release id with no remaining track
// reference.
func (s *Store) OrphanReleaseIDs(ctx context.Context, tx *sql.Tx) ([]int64, error) {
	return queryIDs(ctx, tx, `SELECT r.id FROM releases r
		LEFT JOIN tracks t ON t.release_id = r.id
		WHERE t.id IS NULL`)
}

// OrphanClusterIDs returns every cluster id with no remaining track
// reference.
func (s *Store) OrphanClusterIDs(ctx context.Context, tx *sql.Tx) ([]int64, error) {
	return queryIDs(ctx, tx, `SELECT c.id FROM clusters c
		LEFT JOIN track_clusters tc ON tc.cluster_id = c.id
		WHERE tc.cluster_id IS NULL`)
}

func queryIDs(ctx context.Context, tx *sql.Tx, query string) ([]int64, error) {
	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteOrphanArtists removes the given artist ids.
func (s *Store) DeleteOrphanArtists(ctx context.Context, tx *sql.Tx, ids []int64) error {
	return deleteByIDs(ctx, tx, "artists", ids)
}

// DeleteOrphanReleases removes the given release ids.
func (s *Store) DeleteOrphanReleases(ctx context.Context, tx *sql.Tx, ids []int64) error {
	return deleteByIDs(ctx, tx, "releases", ids)
}

// DeleteOrphanClusters removes the given cluster ids.
func (s *Store) DeleteOrphanClusters(ctx context.Context, tx *sql.Tx, ids []int64) error {
	return deleteByIDs(ctx, tx, "clusters", ids)
}

func deleteByIDs(ctx context.Context, tx *sql.Tx, table string, ids []int64) error {
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", table), id); err != nil {
			return fmt.Errorf("delete orphan %s %d: %w", table, id, err)
		}
	}
	return nil
}
