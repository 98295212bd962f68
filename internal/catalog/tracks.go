package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// FindTrackByPath returns the track row at the given absolute path, or
// sql.ErrNoRows if none is catalogued there (spec §3 invariant 1: at
// most one Track per absolute path).
func (s *Store) FindTrackByPath(ctx context.Context, tx *sql.Tx, path string) (Track, error) {
	var t Track
	err := tx.QueryRowContext(ctx, `
		SELECT id, path, last_write_time, checksum, name, duration_seconds,
		       track_number, track_total, disc_number, disc_total,
		       release_date, original_date, mbid, acoustic_brainz_id,
		       cover_source, added_time, release_id
		FROM tracks WHERE path = ?`, path,
	).Scan(&t.ID, &t.Path, &t.LastWriteTime, &t.Checksum, &t.Name, &t.DurationSeconds,
		&t.TrackNumber, &t.TrackTotal, &t.DiscNumber, &t.DiscTotal,
		&t.ReleaseDate, &t.OriginalDate, &t.MBID, &t.AcousticBrainzID,
		&t.CoverSource, &t.AddedTime, &t.ReleaseID)
	return t, err
}

// UpsertTrack inserts a new track row, or updates an existing one at
// the same path in place, preserving its id and added-time. Returns
// whether a new row was created.
func (s *Store) UpsertTrack(ctx context.Context, tx *sql.Tx, t *Track) (created bool, err error) {
	existing, err := s.FindTrackByPath(ctx, tx, t.Path)
	switch err {
	case nil:
		t.ID = existing.ID
		t.AddedTime = existing.AddedTime
		_, execErr := tx.ExecContext(ctx, `
			UPDATE tracks SET last_write_time=?, checksum=?, name=?, duration_seconds=?,
			       track_number=?, track_total=?, disc_number=?, disc_total=?,
			       release_date=?, original_date=?, mbid=?, acoustic_brainz_id=?,
			       cover_source=?, release_id=?
			WHERE id = ?`,
			t.LastWriteTime, t.Checksum, t.Name, t.DurationSeconds,
			t.TrackNumber, t.TrackTotal, t.DiscNumber, t.DiscTotal,
			t.ReleaseDate, t.OriginalDate, t.MBID, t.AcousticBrainzID,
			t.CoverSource, t.ReleaseID, t.ID)
		if execErr != nil {
			return false, fmt.Errorf("update track: %w", execErr)
		}
		return false, nil

	case sql.ErrNoRows:
		if t.AddedTime.IsZero() {
			t.AddedTime = time.Now().UTC()
		}
		res, execErr := tx.ExecContext(ctx, `
			INSERT INTO tracks (path, last_write_time, checksum, name, duration_seconds,
			       track_number, track_total, disc_number, disc_total,
			       release_date, original_date, mbid, acoustic_brainz_id,
			       cover_source, added_time, release_id)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			t.Path, t.LastWriteTime, t.Checksum, t.Name, t.DurationSeconds,
			t.TrackNumber, t.TrackTotal, t.DiscNumber, t.DiscTotal,
			t.ReleaseDate, t.OriginalDate, t.MBID, t.AcousticBrainzID,
			t.CoverSource, t.AddedTime, t.ReleaseID)
		if execErr != nil {
			return false, fmt.Errorf("insert track: %w", execErr)
		}
		id, idErr := res.LastInsertId()
		if idErr != nil {
			return false, fmt.Errorf("insert track id: %w", idErr)
		}
		t.ID = id
		return true, nil

	default:
		return false, fmt.Errorf("find track by path: %w", err)
	}
}

// DeleteTrack removes a track and (via ON DELETE CASCADE) its join
// rows and Features row.
func (s *Store) DeleteTrack(ctx context.Context, tx *sql.Tx, id int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM tracks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete track %d: %w", id, err)
	}
	return nil
}

// GetTrack loads a single track by id.
func (s *Store) GetTrack(ctx context.Context, tx *sql.Tx, id int64) (Track, error) {
	var t Track
	err := tx.QueryRowContext(ctx, `
		SELECT id, path, last_write_time, checksum, name, duration_seconds,
		       track_number, track_total, disc_number, disc_total,
		       release_date, original_date, mbid, acoustic_brainz_id,
		       cover_source, added_time, release_id
		FROM tracks WHERE id = ?`, id,
	).Scan(&t.ID, &t.Path, &t.LastWriteTime, &t.Checksum, &t.Name, &t.DurationSeconds,
		&t.TrackNumber, &t.TrackTotal, &t.DiscNumber, &t.DiscTotal,
		&t.ReleaseDate, &t.OriginalDate, &t.MBID, &t.AcousticBrainzID,
		&t.CoverSource, &t.AddedTime, &t.ReleaseID)
	return t, err
}

// ListTracksByRelease returns every track belonging to a release,
// ordered by disc then track number — the delivery supervisor's
// download/{release} and /{artist} paths walk this to build a ZIP
// entry set.
func (s *Store) ListTracksByRelease(ctx context.Context, tx *sql.Tx, releaseID int64) ([]Track, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, path, last_write_time, checksum, name, duration_seconds,
		       track_number, track_total, disc_number, disc_total,
		       release_date, original_date, mbid, acoustic_brainz_id,
		       cover_source, added_time, release_id
		FROM tracks WHERE release_id = ?
		ORDER BY disc_number, track_number`, releaseID)
	if err != nil {
		return nil, fmt.Errorf("list tracks by release: %w", err)
	}
	defer rows.Close()

	var out []Track
	for rows.Next() {
		var t Track
		if err := rows.Scan(&t.ID, &t.Path, &t.LastWriteTime, &t.Checksum, &t.Name, &t.DurationSeconds,
			&t.TrackNumber, &t.TrackTotal, &t.DiscNumber, &t.DiscTotal,
			&t.ReleaseDate, &t.OriginalDate, &t.MBID, &t.AcousticBrainzID,
			&t.CoverSource, &t.AddedTime, &t.ReleaseID); err != nil {
			return nil, fmt.Errorf("scan track: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListTracksByArtist returns every track crediting the given artist.
func (s *Store) ListTracksByArtist(ctx context.Context, tx *sql.Tx, artistID int64) ([]Track, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT t.id, t.path, t.last_write_time, t.checksum, t.name, t.duration_seconds,
		       t.track_number, t.track_total, t.disc_number, t.disc_total,
		       t.release_date, t.original_date, t.mbid, t.acoustic_brainz_id,
		       t.cover_source, t.added_time, t.release_id
		FROM tracks t
		JOIN track_artists ta ON ta.track_id = t.id
		WHERE ta.artist_id = ?
		ORDER BY t.disc_number, t.track_number`, artistID)
	if err != nil {
		return nil, fmt.Errorf("list tracks by artist: %w", err)
	}
	defer rows.Close()

	var out []Track
	for rows.Next() {
		var t Track
		if err := rows.Scan(&t.ID, &t.Path, &t.LastWriteTime, &t.Checksum, &t.Name, &t.DurationSeconds,
			&t.TrackNumber, &t.TrackTotal, &t.DiscNumber, &t.DiscTotal,
			&t.ReleaseDate, &t.OriginalDate, &t.MBID, &t.AcousticBrainzID,
			&t.CoverSource, &t.AddedTime, &t.ReleaseID); err != nil {
			return nil, fmt.Errorf("scan track: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListTracksPage is a clamped offset+size catalog page, the shape every
// delivery-supervisor catalog operation shares (spec §4.9).
func (s *Store) ListTracksPage(ctx context.Context, tx *sql.Tx, offset, size int) ([]Track, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, path, last_write_time, checksum, name, duration_seconds,
		       track_number, track_total, disc_number, disc_total,
		       release_date, original_date, mbid, acoustic_brainz_id,
		       cover_source, added_time, release_id
		FROM tracks ORDER BY id LIMIT ? OFFSET ?`, size, offset)
	if err != nil {
		return nil, fmt.Errorf("list tracks page: %w", err)
	}
	defer rows.Close()

	var out []Track
	for rows.Next() {
		var t Track
		if err := rows.Scan(&t.ID, &t.Path, &t.LastWriteTime, &t.Checksum, &t.Name, &t.DurationSeconds,
			&t.TrackNumber, &t.TrackTotal, &t.DiscNumber, &t.DiscTotal,
			&t.ReleaseDate, &t.OriginalDate, &t.MBID, &t.AcousticBrainzID,
			&t.CoverSource, &t.AddedTime, &t.ReleaseID); err != nil {
			return nil, fmt.Errorf("scan track: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
