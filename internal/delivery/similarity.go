package delivery

import "github.com/jtdct/sonora/internal/similarity"

// SimilarTracks implements `similar_tracks` (spec §4.8.3) against
// whichever searcher is currently published; a nil or not-yet-built
// searcher yields an empty result rather than an error, since the
// similarity engine is cache-backed and may simply not have trained
// yet.
func (s *Supervisor) SimilarTracks(ids []int64, max int) []int64 {
	return s.similarQuery(similarity.KindTrack, ids, max)
}

// SimilarReleases implements `similar_releases`.
func (s *Supervisor) SimilarReleases(ids []int64, max int) []int64 {
	return s.similarQuery(similarity.KindRelease, ids, max)
}

// SimilarArtists implements `similar_artists`.
func (s *Supervisor) SimilarArtists(ids []int64, max int) []int64 {
	return s.similarQuery(similarity.KindArtist, ids, max)
}

func (s *Supervisor) similarQuery(kind similarity.EntityKind, ids []int64, max int) []int64 {
	if s.similarity == nil {
		return nil
	}
	searcher := s.similarity.Searcher()
	if searcher == nil {
		return nil
	}
	return searcher.Similar(kind, ids, max)
}
