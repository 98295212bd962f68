package similarity

import (
	"math/rand"
	"testing"
)

func testSearcherForRoundTrip() *Searcher {
	rng := rand.New(rand.NewSource(42))
	net := NewNetwork(2, 3, rng)
	return &Searcher{
		Network:         net,
		Normalizer:      Normalizer{Min: []float64{0, 0, 0}, Max: []float64{1, 1, 1}},
		Specs:           []FeatureSpec{{Name: "rhythm", Dimensions: 2, Weight: 1}, {Name: "timbre", Dimensions: 1, Weight: 2}},
		MedianNeighDist: 0.42,
		TrackPositions:  map[int64][]Pos{1: {{X: 0, Y: 0}}, 2: {{X: 1, Y: 1}, {X: 0, Y: 1}}},
		ReleasePositions: map[int64][]Pos{
			10: {{X: 0, Y: 0}},
		},
		ArtistPositions: map[int64][]Pos{
			100: {{X: 1, Y: 1}},
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := testSearcherForRoundTrip()
	if err := s.Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, ok := Load(dir, s.Specs)
	if !ok {
		t.Fatal("Load: expected ok=true")
	}
	if loaded.Network.Side != s.Network.Side || loaded.Network.Dim != s.Network.Dim {
		t.Fatalf("grid mismatch: got side=%d dim=%d, want side=%d dim=%d",
			loaded.Network.Side, loaded.Network.Dim, s.Network.Side, s.Network.Dim)
	}
	if loaded.MedianNeighDist != s.MedianNeighDist {
		t.Fatalf("MedianNeighDist = %v, want %v", loaded.MedianNeighDist, s.MedianNeighDist)
	}
	if len(loaded.TrackPositions[2]) != 2 {
		t.Fatalf("TrackPositions[2] = %v, want 2 positions", loaded.TrackPositions[2])
	}
}

func TestSaveLoadSaveIsFixedPoint(t *testing.T) {
	dir := t.TempDir()
	s := testSearcherForRoundTrip()
	if err := s.Save(dir); err != nil {
		t.Fatalf("first Save: %v", err)
	}

	first, ok := Load(dir, s.Specs)
	if !ok {
		t.Fatal("first Load: expected ok=true")
	}
	if err := first.Save(dir); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	second, ok := Load(dir, s.Specs)
	if !ok {
		t.Fatal("second Load: expected ok=true")
	}

	for id, positions := range first.TrackPositions {
		if len(second.TrackPositions[id]) != len(positions) {
			t.Fatalf("track %d positions changed across reserialization", id)
		}
	}
	if first.MedianNeighDist != second.MedianNeighDist {
		t.Fatal("MedianNeighDist changed across reserialization")
	}
}

func TestLoadRejectsMismatchedSpecsAndDeletesCache(t *testing.T) {
	dir := t.TempDir()
	s := testSearcherForRoundTrip()
	if err := s.Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}

	differentSpecs := []FeatureSpec{{Name: "other", Dimensions: 9, Weight: 1}}
	if _, ok := Load(dir, differentSpecs); ok {
		t.Fatal("Load with mismatched specs should return ok=false")
	}

	// The stale cache file must be gone so the next Retrain starts clean.
	if _, ok := Load(dir, s.Specs); ok {
		t.Fatal("cache file should have been deleted after the mismatch")
	}
}
