package catalog

import (
	"context"
	"database/sql"
	"fmt"
)

// ListMediaRoots returns every watched directory (spec §3 MediaRoot).
func (s *Store) ListMediaRoots(ctx context.Context, tx *sql.Tx) ([]MediaRoot, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id, path, type FROM media_roots ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list media roots: %w", err)
	}
	defer rows.Close()

	var out []MediaRoot
	for rows.Next() {
		var r MediaRoot
		if err := rows.Scan(&r.ID, &r.Path, &r.Type); err != nil {
			return nil, fmt.Errorf("scan media root: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CreateMediaRoot inserts a new watched directory (spec §3 invariant 1:
// at most one MediaRoot per path).
func (s *Store) CreateMediaRoot(ctx context.Context, tx *sql.Tx, path string, rootType RootType) (int64, error) {
	res, err := tx.ExecContext(ctx, `INSERT INTO media_roots (path, type) VALUES (?, ?)`, path, rootType)
	if err != nil {
		return 0, fmt.Errorf("create media root: %w", err)
	}
	return res.LastInsertId()
}

// DeleteMediaRoot removes a watched directory.
func (s *Store) DeleteMediaRoot(ctx context.Context, tx *sql.Tx, id int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM media_roots WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete media root %d: %w", id, err)
	}
	return nil
}
