package scan

import (
	"context"
	"database/sql"
	"log"
)

// orphanSweep deletes every Artist, Release, and Cluster row with no
// remaining Track reference, each kind in its own write transaction
// (spec §4.7 Orphan sweep). It checks for cancellation between
// transactions, never mid-transaction.
func (e *Engine) orphanSweep(ctx context.Context) (changed, cancelled bool) {
	if ctx.Err() != nil {
		return false, true
	}
	artistsRemoved, err := e.sweepArtists(ctx)
	if err != nil {
		log.Printf("scan: sweep artists: %v", err)
	}
	changed = changed || artistsRemoved > 0

	if ctx.Err() != nil {
		return changed, true
	}
	releasesRemoved, err := e.sweepReleases(ctx)
	if err != nil {
		log.Printf("scan: sweep releases: %v", err)
	}
	changed = changed || releasesRemoved > 0

	if ctx.Err() != nil {
		return changed, true
	}
	clustersRemoved, err := e.sweepClusters(ctx)
	if err != nil {
		log.Printf("scan: sweep clusters: %v", err)
	}
	changed = changed || clustersRemoved > 0

	return changed, ctx.Err() != nil
}

func (e *Engine) sweepArtists(ctx context.Context) (int, error) {
	var ids []int64
	if err := e.store.WithRead(ctx, func(tx *sql.Tx) error {
		i, err := e.store.OrphanArtistIDs(ctx, tx)
		ids = i
		return err
	}); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	err := e.store.WithWrite(ctx, func(tx *sql.Tx) error {
		return e.store.DeleteOrphanArtists(ctx, tx, ids)
	})
	return len(ids), err
}

func (e *Engine) sweepReleases(ctx context.Context) (int, error) {
	var ids []int64
	if err := e.store.WithRead(ctx, func(tx *sql.Tx) error {
		i, err := e.store.OrphanReleaseIDs(ctx, tx)
		ids = i
		return err
	}); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	err := e.store.WithWrite(ctx, func(tx *sql.Tx) error {
		return e.store.DeleteOrphanReleases(ctx, tx, ids)
	})
	return len(ids), err
}

func (e *Engine) sweepClusters(ctx context.Context) (int, error) {
	var ids []int64
	if err := e.store.WithRead(ctx, func(tx *sql.Tx) error {
		i, err := e.store.OrphanClusterIDs(ctx, tx)
		ids = i
		return err
	}); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	err := e.store.WithWrite(ctx, func(tx *sql.Tx) error {
		return e.store.DeleteOrphanClusters(ctx, tx, ids)
	})
	return len(ids), err
}
