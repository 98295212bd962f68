package delivery

import (
	"context"
	"database/sql"

	"github.com/jtdct/sonora/internal/catalog"
)

// ListTracks is the paginated `tracks` catalog list endpoint (spec
// §4.9 Catalog operations): a shared transaction, a clamped page, and
// rows handed back for the caller's marshaller.
func (s *Supervisor) ListTracks(ctx context.Context, offset, size int) ([]catalog.Track, error) {
	size = s.ClampPage(size)
	var out []catalog.Track
	err := s.store.WithRead(ctx, func(tx *sql.Tx) error {
		tracks, err := s.store.ListTracksPage(ctx, tx, offset, size)
		out = tracks
		return err
	})
	return out, err
}

// ListReleases is the paginated `releases` catalog list endpoint.
func (s *Supervisor) ListReleases(ctx context.Context, offset, size int) ([]catalog.Release, error) {
	size = s.ClampPage(size)
	var out []catalog.Release
	err := s.store.WithRead(ctx, func(tx *sql.Tx) error {
		releases, err := s.store.ListReleasesPage(ctx, tx, offset, size)
		out = releases
		return err
	})
	return out, err
}

// ListArtists is the paginated `artists` catalog list endpoint.
func (s *Supervisor) ListArtists(ctx context.Context, offset, size int) ([]catalog.Artist, error) {
	size = s.ClampPage(size)
	var out []catalog.Artist
	err := s.store.WithRead(ctx, func(tx *sql.Tx) error {
		artists, err := s.store.ListArtistsPage(ctx, tx, offset, size)
		out = artists
		return err
	})
	return out, err
}
