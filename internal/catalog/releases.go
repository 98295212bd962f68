package catalog

import (
	"context"
	"database/sql"
	"fmt"
)

// FindReleaseByMBID returns the release row with the given MBID.
func (s *Store) FindReleaseByMBID(ctx context.Context, tx *sql.Tx, mbid string) (Release, error) {
	var r Release
	err := tx.QueryRowContext(ctx,
		`SELECT id, name, mbid, disc_total FROM releases WHERE mbid = ?`, mbid,
	).Scan(&r.ID, &r.Name, &r.MBID, &r.DiscTotal)
	return r, err
}

// FindReleaseByName returns the first MBID-less release row with the
// given name.
func (s *Store) FindReleaseByName(ctx context.Context, tx *sql.Tx, name string) (Release, error) {
	var r Release
	err := tx.QueryRowContext(ctx,
		`SELECT id, name, mbid, disc_total FROM releases WHERE name = ? AND mbid IS NULL LIMIT 1`, name,
	).Scan(&r.ID, &r.Name, &r.MBID, &r.DiscTotal)
	return r, err
}

// CreateRelease inserts a new release row.
func (s *Store) CreateRelease(ctx context.Context, tx *sql.Tx, name string, mbid *string, discTotal *int) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO releases (name, mbid, disc_total) VALUES (?, ?, ?)`, name, mbid, discTotal)
	if err != nil {
		return 0, fmt.Errorf("create release: %w", err)
	}
	return res.LastInsertId()
}

// ResolveRelease is the release analogue of ResolveArtist: MBID-first,
// name-second, creating lazily on first reference.
func (s *Store) ResolveRelease(ctx context.Context, tx *sql.Tx, name string, mbid *string, discTotal *int) (int64, error) {
	if mbid != nil && *mbid != "" {
		r, err := s.FindReleaseByMBID(ctx, tx, *mbid)
		if err == nil {
			return r.ID, nil
		}
		if err != sql.ErrNoRows {
			return 0, fmt.Errorf("resolve release by mbid: %w", err)
		}
		return s.CreateRelease(ctx, tx, name, mbid, discTotal)
	}

	r, err := s.FindReleaseByName(ctx, tx, name)
	if err == nil {
		return r.ID, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("resolve release by name: %w", err)
	}
	return s.CreateRelease(ctx, tx, name, nil, discTotal)
}

// GetRelease loads a single release by id.
func (s *Store) GetRelease(ctx context.Context, tx *sql.Tx, id int64) (Release, error) {
	var r Release
	err := tx.QueryRowContext(ctx,
		`SELECT id, name, mbid, disc_total FROM releases WHERE id = ?`, id,
	).Scan(&r.ID, &r.Name, &r.MBID, &r.DiscTotal)
	return r, err
}

// ListReleasesPage is a clamped offset+size catalog page (spec §4.9).
func (s *Store) ListReleasesPage(ctx context.Context, tx *sql.Tx, offset, size int) ([]Release, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, name, mbid, disc_total FROM releases ORDER BY name LIMIT ? OFFSET ?`, size, offset)
	if err != nil {
		return nil, fmt.Errorf("list releases page: %w", err)
	}
	defer rows.Close()

	var out []Release
	for rows.Next() {
		var r Release
		if err := rows.Scan(&r.ID, &r.Name, &r.MBID, &r.DiscTotal); err != nil {
			return nil, fmt.Errorf("scan release: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
