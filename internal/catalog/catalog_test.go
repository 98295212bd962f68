package catalog

import (
	"context"
	"database/sql"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := Connect(":memory:")
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return NewStore(db)
}

func mbid(s string) *string { return &s }

func TestResolveArtistMBIDMergesDuplicates(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var id1, id2 int64
	err := s.WithWrite(ctx, func(tx *sql.Tx) error {
		var err error
		id1, err = s.ResolveArtist(ctx, tx, "A", mbid("uuid-1"))
		if err != nil {
			return err
		}
		id2, err = s.ResolveArtist(ctx, tx, "A", mbid("uuid-1"))
		return err
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("two resolves of the same MBID produced different artists: %d != %d", id1, id2)
	}
}

func TestResolveArtistNameOnlyDoesNotMergeWithMBID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var withMBID, nameOnly int64
	err := s.WithWrite(ctx, func(tx *sql.Tx) error {
		var err error
		withMBID, err = s.ResolveArtist(ctx, tx, "A", mbid("uuid-1"))
		if err != nil {
			return err
		}
		nameOnly, err = s.ResolveArtist(ctx, tx, "A", nil)
		return err
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if withMBID == nameOnly {
		t.Fatal("a name-only match must not merge into an MBID-bound artist (spec §3 invariant 3)")
	}
}

func insertTrack(t *testing.T, s *Store, ctx context.Context, path string, artistIDs []int64, releaseID *int64) int64 {
	t.Helper()
	var trackID int64
	err := s.WithWrite(ctx, func(tx *sql.Tx) error {
		track := Track{
			Path:            path,
			LastWriteTime:   time.Now().UTC(),
			Name:            "T",
			DurationSeconds: 10,
			ReleaseID:       releaseID,
		}
		if _, err := s.UpsertTrack(ctx, tx, &track); err != nil {
			return err
		}
		trackID = track.ID
		return s.SetTrackArtists(ctx, tx, track.ID, artistIDs)
	})
	if err != nil {
		t.Fatalf("insert track %s: %v", path, err)
	}
	return trackID
}

func TestOrphanSweepRemovesArtistWithNoRemainingTrack(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var artistID int64
	if err := s.WithWrite(ctx, func(tx *sql.Tx) error {
		var err error
		artistID, err = s.ResolveArtist(ctx, tx, "A", nil)
		return err
	}); err != nil {
		t.Fatalf("resolve artist: %v", err)
	}

	trackID := insertTrack(t, s, ctx, "/m/a.flac", []int64{artistID}, nil)

	// Still referenced: must not be an orphan.
	var orphans []int64
	if err := s.WithRead(ctx, func(tx *sql.Tx) error {
		ids, err := s.OrphanArtistIDs(ctx, tx)
		orphans = ids
		return err
	}); err != nil {
		t.Fatalf("orphan query: %v", err)
	}
	if len(orphans) != 0 {
		t.Fatalf("artist still referenced by a track should not be an orphan, got %v", orphans)
	}

	// Delete the track; the artist should now show up as an orphan.
	if err := s.WithWrite(ctx, func(tx *sql.Tx) error {
		return s.DeleteTrack(ctx, tx, trackID)
	}); err != nil {
		t.Fatalf("delete track: %v", err)
	}

	if err := s.WithRead(ctx, func(tx *sql.Tx) error {
		ids, err := s.OrphanArtistIDs(ctx, tx)
		orphans = ids
		return err
	}); err != nil {
		t.Fatalf("orphan query: %v", err)
	}
	if len(orphans) != 1 || orphans[0] != artistID {
		t.Fatalf("expected artist %d to be the sole orphan, got %v", artistID, orphans)
	}

	if err := s.WithWrite(ctx, func(tx *sql.Tx) error {
		return s.DeleteOrphanArtists(ctx, tx, orphans)
	}); err != nil {
		t.Fatalf("delete orphans: %v", err)
	}

	if err := s.WithRead(ctx, func(tx *sql.Tx) error {
		_, err := s.GetArtist(ctx, tx, artistID)
		return err
	}); err != sql.ErrNoRows {
		t.Fatalf("expected artist to be gone after orphan sweep, got err=%v", err)
	}
}

func TestOrphanSweepLeavesSharedArtistAlone(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var artistID int64
	if err := s.WithWrite(ctx, func(tx *sql.Tx) error {
		var err error
		artistID, err = s.ResolveArtist(ctx, tx, "A", nil)
		return err
	}); err != nil {
		t.Fatalf("resolve artist: %v", err)
	}

	track1 := insertTrack(t, s, ctx, "/m/a.flac", []int64{artistID}, nil)
	insertTrack(t, s, ctx, "/m/b.flac", []int64{artistID}, nil)

	if err := s.WithWrite(ctx, func(tx *sql.Tx) error {
		return s.DeleteTrack(ctx, tx, track1)
	}); err != nil {
		t.Fatalf("delete track: %v", err)
	}

	var orphans []int64
	if err := s.WithRead(ctx, func(tx *sql.Tx) error {
		ids, err := s.OrphanArtistIDs(ctx, tx)
		orphans = ids
		return err
	}); err != nil {
		t.Fatalf("orphan query: %v", err)
	}
	if len(orphans) != 0 {
		t.Fatalf("artist still referenced by track b.flac must not be an orphan, got %v", orphans)
	}
}

func TestUpsertTrackPreservesIDAndAddedTimeOnUpdate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var firstID int64
	var firstAdded time.Time
	err := s.WithWrite(ctx, func(tx *sql.Tx) error {
		track := Track{Path: "/m/a.flac", LastWriteTime: time.Unix(1000, 0).UTC(), Name: "T", DurationSeconds: 5}
		created, err := s.UpsertTrack(ctx, tx, &track)
		if err != nil {
			return err
		}
		if !created {
			t.Fatal("expected first upsert to create a new row")
		}
		firstID = track.ID
		firstAdded = track.AddedTime
		return nil
	})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	err = s.WithWrite(ctx, func(tx *sql.Tx) error {
		track := Track{Path: "/m/a.flac", LastWriteTime: time.Unix(2000, 0).UTC(), Name: "T2", DurationSeconds: 5}
		created, err := s.UpsertTrack(ctx, tx, &track)
		if err != nil {
			return err
		}
		if created {
			t.Fatal("expected second upsert at the same path to update, not create")
		}
		if track.ID != firstID {
			t.Fatalf("updated track changed id: %d != %d", track.ID, firstID)
		}
		if !track.AddedTime.Equal(firstAdded) {
			t.Fatalf("updated track changed added-time: %v != %v", track.AddedTime, firstAdded)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
}
