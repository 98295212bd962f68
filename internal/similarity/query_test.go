package similarity

import "testing"

// buildTestSearcher places tracks {1,2,3} at the same grid position and
// track 4 at an adjacent one, mirroring spec §8 scenario 6.
func buildTestSearcher() *Searcher {
	net := &Network{Side: 2, Dim: 1, refs: [][]float64{
		{0.0}, // (0,0)
		{0.9}, // (1,0)
		{0.1}, // (0,1)
		{1.0}, // (1,1)
	}}
	return &Searcher{
		Network:         net,
		Specs:           []FeatureSpec{{Name: "f", Dimensions: 1, Weight: 1}},
		MedianNeighDist: 0.1,
		TrackPositions: map[int64][]Pos{
			1: {{X: 0, Y: 0}},
			2: {{X: 0, Y: 0}},
			3: {{X: 0, Y: 0}},
			4: {{X: 0, Y: 1}},
		},
	}
}

func TestSimilarTracksWithinSamePosition(t *testing.T) {
	s := buildTestSearcher()
	got := s.Similar(KindTrack, []int64{1}, 2)
	if len(got) != 2 {
		t.Fatalf("Similar = %v, want 2 results", got)
	}
	seen := map[int64]bool{}
	for _, id := range got {
		seen[id] = true
	}
	if !seen[2] || !seen[3] {
		t.Fatalf("Similar = %v, want {2,3}", got)
	}
}

func TestSimilarMaxZeroReturnsEmptyNoExpansion(t *testing.T) {
	s := buildTestSearcher()
	got := s.Similar(KindTrack, []int64{1}, 0)
	if len(got) != 0 {
		t.Fatalf("Similar(max=0) = %v, want empty", got)
	}
}

func TestSimilarExcludesInputsAndExpandsWhenExhausted(t *testing.T) {
	s := buildTestSearcher()
	// All of {1,2,3} occupy (0,0); with nothing else there, the search
	// must expand to the neighbouring position (0,1), which holds track 4,
	// and never return an input id.
	got := s.Similar(KindTrack, []int64{1, 2, 3}, 1)
	if len(got) > 1 {
		t.Fatalf("Similar(max=1) returned %d results, want at most 1", len(got))
	}
	if len(got) != 1 || got[0] != 4 {
		t.Fatalf("Similar did not expand to the neighbouring position: got %v, want [4]", got)
	}
	for _, id := range got {
		if id == 1 || id == 2 || id == 3 {
			t.Fatalf("Similar must not return an input id, got %v", got)
		}
	}
}

func TestSimilarUnknownEntityReturnsEmpty(t *testing.T) {
	s := buildTestSearcher()
	got := s.Similar(KindTrack, []int64{999}, 5)
	if len(got) != 0 {
		t.Fatalf("Similar for unknown id = %v, want empty", got)
	}
}
