package catalog

import (
	"context"
	"database/sql"
	"fmt"
)

// FindFeaturesByMBID looks up an existing Features row by MusicBrainz
// recording id, independent of which track currently carries that MBID.
// Supplemented feature (SPEC_FULL §5): re-importing a recording at a
// new path re-uses its previously-fetched feature vector instead of
// hitting the feature service again.
func (s *Store) FindFeaturesByMBID(ctx context.Context, tx *sql.Tx, mbid string) (Features, error) {
	var f Features
	err := tx.QueryRowContext(ctx,
		`SELECT id, track_id, mbid, json FROM features WHERE mbid = ? LIMIT 1`, mbid,
	).Scan(&f.ID, &f.TrackID, &f.MBID, &f.JSON)
	return f, err
}

// FindFeaturesByTrack returns the Features row attached to a track, if
// any.
func (s *Store) FindFeaturesByTrack(ctx context.Context, tx *sql.Tx, trackID int64) (Features, error) {
	var f Features
	err := tx.QueryRowContext(ctx,
		`SELECT id, track_id, mbid, json FROM features WHERE track_id = ?`, trackID,
	).Scan(&f.ID, &f.TrackID, &f.MBID, &f.JSON)
	return f, err
}

// UpsertFeatures stores the feature-service response for a track,
// keyed by the track's MBID.
func (s *Store) UpsertFeatures(ctx context.Context, tx *sql.Tx, trackID int64, mbid, json string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO features (track_id, mbid, json) VALUES (?, ?, ?)
		ON CONFLICT (track_id) DO UPDATE SET mbid = excluded.mbid, json = excluded.json`,
		trackID, mbid, json)
	if err != nil {
		return fmt.Errorf("upsert features for track %d: %w", trackID, err)
	}
	return nil
}

// ListEnabledFeatureTypes returns the FeatureTypes the similarity
// engine should train on, in a stable declared order (spec §4.8.1: the
// "fixed order declared in SimilaritySettings").
func (s *Store) ListEnabledFeatureTypes(ctx context.Context, tx *sql.Tx) ([]FeatureType, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, name, dimensions, weight, enabled FROM feature_types WHERE enabled = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list enabled feature types: %w", err)
	}
	defer rows.Close()

	var out []FeatureType
	for rows.Next() {
		var ft FeatureType
		if err := rows.Scan(&ft.ID, &ft.Name, &ft.Dimensions, &ft.Weight, &ft.Enabled); err != nil {
			return nil, fmt.Errorf("scan feature type: %w", err)
		}
		out = append(out, ft)
	}
	return out, rows.Err()
}

// GetSimilaritySettings loads the singleton similarity settings row.
func (s *Store) GetSimilaritySettings(ctx context.Context, tx *sql.Tx) (SimilaritySettings, error) {
	var ss SimilaritySettings
	err := tx.QueryRowContext(ctx,
		`SELECT id, scan_version FROM similarity_settings WHERE id = 1`,
	).Scan(&ss.ID, &ss.ScanVersion)
	return ss, err
}

// BumpFeatureScanVersion increments the monotonic scan-version counter,
// signalling that the similarity cache and any Features rows computed
// under the old feature-type configuration must be treated as stale
// (spec §3, §4.8.2 invalidation triggers).
func (s *Store) BumpFeatureScanVersion(ctx context.Context, tx *sql.Tx) (int64, error) {
	if _, err := tx.ExecContext(ctx,
		`UPDATE similarity_settings SET scan_version = scan_version + 1 WHERE id = 1`); err != nil {
		return 0, fmt.Errorf("bump scan version: %w", err)
	}
	ss, err := s.GetSimilaritySettings(ctx, tx)
	if err != nil {
		return 0, err
	}
	return ss.ScanVersion, nil
}
