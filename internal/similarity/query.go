package similarity

// EntityKind distinguishes which position-set map a query reads from.
type EntityKind int

const (
	KindTrack EntityKind = iota
	KindRelease
	KindArtist
)

func (s *Searcher) positionsFor(kind EntityKind, id int64) ([]Pos, bool) {
	var m map[int64][]Pos
	switch kind {
	case KindTrack:
		m = s.TrackPositions
	case KindRelease:
		m = s.ReleasePositions
	case KindArtist:
		m = s.ArtistPositions
	}
	p, ok := m[id]
	return p, ok
}

func (s *Searcher) allIDsAt(kind EntityKind, positions map[Pos]bool) []int64 {
	var m map[int64][]Pos
	switch kind {
	case KindTrack:
		m = s.TrackPositions
	case KindRelease:
		m = s.ReleasePositions
	case KindArtist:
		m = s.ArtistPositions
	}
	var out []int64
	for id, ps := range m {
		for _, p := range ps {
			if positions[p] {
				out = append(out, id)
				break
			}
		}
	}
	return out
}

// Similar implements spec §4.8.3's similar_tracks/similar_releases/
// similar_artists uniformly: both the query's inputs and its results
// are entities of `kind`. max==0 returns an empty result and performs
// no expansion (spec §8 boundary behaviour).
func (s *Searcher) Similar(kind EntityKind, ids []int64, max int) []int64 {
	if max <= 0 || s == nil {
		return nil
	}

	excluded := map[int64]bool{}
	positionSet := map[Pos]bool{}
	for _, id := range ids {
		excluded[id] = true
		positions, ok := s.positionsFor(kind, id)
		if !ok {
			continue
		}
		for _, p := range positions {
			positionSet[p] = true
		}
	}
	if len(positionSet) == 0 {
		return nil
	}

	rng := rngForQuery()
	var result []int64

	for {
		candidates := s.allIDsAt(kind, positionSet)
		var fresh []int64
		for _, c := range candidates {
			if excluded[c] {
				continue
			}
			fresh = append(fresh, c)
		}
		rng.Shuffle(len(fresh), func(a, b int) { fresh[a], fresh[b] = fresh[b], fresh[a] })

		for _, c := range fresh {
			if len(result) >= max {
				break
			}
			result = append(result, c)
			excluded[c] = true
		}
		if len(result) >= max {
			break
		}

		next, ok := s.expandPositionSet(positionSet)
		if !ok {
			break
		}
		positionSet[next] = true
	}

	return result
}

// expandPositionSet implements spec §4.8.3 step 4's position-set
// expansion rule: among all 4-neighbours of any position already in
// the set, pick the one whose weighted distance to its nearest in-set
// position is smallest and below medianNeighDist*0.75. No qualifying
// neighbour means expansion stops.
func (s *Searcher) expandPositionSet(positionSet map[Pos]bool) (Pos, bool) {
	threshold := s.MedianNeighDist * 0.75

	var best Pos
	bestDist := -1.0
	found := false

	for p := range positionSet {
		for _, n := range s.Network.Neighbours4(p) {
			if positionSet[n] {
				continue
			}
			d := s.nearestInSetDistance(n, positionSet)
			if d < threshold && (!found || d < bestDist) {
				best = n
				bestDist = d
				found = true
			}
		}
	}
	return best, found
}

func (s *Searcher) nearestInSetDistance(candidate Pos, positionSet map[Pos]bool) float64 {
	weights := Weights(s.Specs)
	candidateRef := s.Network.RefAt(candidate)
	best := -1.0
	for p := range positionSet {
		d := weightedSquaredDistance(candidateRef, s.Network.RefAt(p), weights)
		if best < 0 || d < best {
			best = d
		}
	}
	return best
}
