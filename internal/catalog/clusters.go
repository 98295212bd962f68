package catalog

import (
	"context"
	"database/sql"
	"fmt"
)

// ListEnabledClusterTypes returns every ClusterType whose "enabled" flag
// is set, the taxonomy the tag parser matches tag keys against.
func (s *Store) ListEnabledClusterTypes(ctx context.Context, tx *sql.Tx) ([]ClusterType, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id, name, enabled FROM cluster_types WHERE enabled = 1`)
	if err != nil {
		return nil, fmt.Errorf("list enabled cluster types: %w", err)
	}
	defer rows.Close()

	var out []ClusterType
	for rows.Next() {
		var ct ClusterType
		if err := rows.Scan(&ct.ID, &ct.Name, &ct.Enabled); err != nil {
			return nil, fmt.Errorf("scan cluster type: %w", err)
		}
		out = append(out, ct)
	}
	return out, rows.Err()
}

// ResolveCluster finds or creates the Cluster row for (clusterTypeID,
// value).
func (s *Store) ResolveCluster(ctx context.Context, tx *sql.Tx, clusterTypeID int64, value string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM clusters WHERE cluster_type_id = ? AND value = ?`, clusterTypeID, value,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("find cluster: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO clusters (cluster_type_id, value) VALUES (?, ?)`, clusterTypeID, value)
	if err != nil {
		return 0, fmt.Errorf("create cluster: %w", err)
	}
	return res.LastInsertId()
}

// ListTrackClusters returns the clusters tagging a track.
func (s *Store) ListTrackClusters(ctx context.Context, tx *sql.Tx, trackID int64) ([]Cluster, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT c.id, c.cluster_type_id, c.value FROM clusters c
		JOIN track_clusters tc ON tc.cluster_id = c.id
		WHERE tc.track_id = ?`, trackID)
	if err != nil {
		return nil, fmt.Errorf("list track clusters: %w", err)
	}
	defer rows.Close()

	var out []Cluster
	for rows.Next() {
		var c Cluster
		if err := rows.Scan(&c.ID, &c.ClusterTypeID, &c.Value); err != nil {
			return nil, fmt.Errorf("scan cluster: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SetTrackClusters replaces the set of clusters tagging a track.
func (s *Store) SetTrackClusters(ctx context.Context, tx *sql.Tx, trackID int64, clusterIDs []int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM track_clusters WHERE track_id = ?`, trackID); err != nil {
		return fmt.Errorf("clear track clusters: %w", err)
	}
	for _, clusterID := range clusterIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO track_clusters (track_id, cluster_id) VALUES (?, ?)`, trackID, clusterID); err != nil {
			return fmt.Errorf("link track cluster: %w", err)
		}
	}
	return nil
}
