package catalog

import (
	"context"
	"database/sql"
	"fmt"
)

// FindArtistByMBID returns the artist row with the given MBID, or
// sql.ErrNoRows if none exists.
func (s *Store) FindArtistByMBID(ctx context.Context, tx *sql.Tx, mbid string) (Artist, error) {
	var a Artist
	err := tx.QueryRowContext(ctx,
		`SELECT id, name, mbid FROM artists WHERE mbid = ?`, mbid,
	).Scan(&a.ID, &a.Name, &a.MBID)
	return a, err
}

// FindArtistByName returns the first artist row with the given name
// and no MBID (spec §3 invariant 3: name-only matches only pair with
// name-only rows).
func (s *Store) FindArtistByName(ctx context.Context, tx *sql.Tx, name string) (Artist, error) {
	var a Artist
	err := tx.QueryRowContext(ctx,
		`SELECT id, name, mbid FROM artists WHERE name = ? AND mbid IS NULL LIMIT 1`, name,
	).Scan(&a.ID, &a.Name, &a.MBID)
	return a, err
}

// CreateArtist inserts a new artist row.
func (s *Store) CreateArtist(ctx context.Context, tx *sql.Tx, name string, mbid *string) (int64, error) {
	res, err := tx.ExecContext(ctx, `INSERT INTO artists (name, mbid) VALUES (?, ?)`, name, mbid)
	if err != nil {
		return 0, fmt.Errorf("create artist: %w", err)
	}
	return res.LastInsertId()
}

// ResolveArtist implements the MBID-first, name-second resolution rule
// of spec §3 invariant 3 / §4.7 step 3: if mbid is set, find-or-create
// by MBID; otherwise find-or-create by name among MBID-less rows.
func (s *Store) ResolveArtist(ctx context.Context, tx *sql.Tx, name string, mbid *string) (int64, error) {
	if mbid != nil && *mbid != "" {
		a, err := s.FindArtistByMBID(ctx, tx, *mbid)
		if err == nil {
			return a.ID, nil
		}
		if err != sql.ErrNoRows {
			return 0, fmt.Errorf("resolve artist by mbid: %w", err)
		}
		return s.CreateArtist(ctx, tx, name, mbid)
	}

	a, err := s.FindArtistByName(ctx, tx, name)
	if err == nil {
		return a.ID, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("resolve artist by name: %w", err)
	}
	return s.CreateArtist(ctx, tx, name, nil)
}

// GetArtist loads a single artist by id.
func (s *Store) GetArtist(ctx context.Context, tx *sql.Tx, id int64) (Artist, error) {
	var a Artist
	err := tx.QueryRowContext(ctx,
		`SELECT id, name, mbid FROM artists WHERE id = ?`, id,
	).Scan(&a.ID, &a.Name, &a.MBID)
	return a, err
}

// ListArtistsPage is a clamped offset+size catalog page (spec §4.9).
func (s *Store) ListArtistsPage(ctx context.Context, tx *sql.Tx, offset, size int) ([]Artist, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, name, mbid FROM artists ORDER BY name LIMIT ? OFFSET ?`, size, offset)
	if err != nil {
		return nil, fmt.Errorf("list artists page: %w", err)
	}
	defer rows.Close()

	var out []Artist
	for rows.Next() {
		var a Artist
		if err := rows.Scan(&a.ID, &a.Name, &a.MBID); err != nil {
			return nil, fmt.Errorf("scan artist: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListTrackArtists returns the artists credited on a track, in credit
// order.
func (s *Store) ListTrackArtists(ctx context.Context, tx *sql.Tx, trackID int64) ([]Artist, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT a.id, a.name, a.mbid FROM artists a
		JOIN track_artists ta ON ta.artist_id = a.id
		WHERE ta.track_id = ? ORDER BY ta.position`, trackID)
	if err != nil {
		return nil, fmt.Errorf("list track artists: %w", err)
	}
	defer rows.Close()

	var out []Artist
	for rows.Next() {
		var a Artist
		if err := rows.Scan(&a.ID, &a.Name, &a.MBID); err != nil {
			return nil, fmt.Errorf("scan artist: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// SetTrackArtists replaces the ordered set of artists credited on a
// track.
func (s *Store) SetTrackArtists(ctx context.Context, tx *sql.Tx, trackID int64, artistIDs []int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM track_artists WHERE track_id = ?`, trackID); err != nil {
		return fmt.Errorf("clear track artists: %w", err)
	}
	for i, artistID := range artistIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO track_artists (track_id, artist_id, position) VALUES (?, ?, ?)`,
			trackID, artistID, i); err != nil {
			return fmt.Errorf("link track artist: %w", err)
		}
	}
	return nil
}
