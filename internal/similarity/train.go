package similarity

import (
	"context"
	"database/sql"
	"math"
	"math/rand"
	"sort"

	"github.com/jtdct/sonora/internal/catalog"
)

// Sample is one track's raw (pre-normalisation) feature vector, keyed
// by track id, the unit spec §4.8.1's training loop consumes.
type Sample struct {
	TrackID int64
	Vector  []float64
}

// ProgressFunc reports one completed training iteration out of total.
type ProgressFunc func(iteration, total int)

// Cancelled is polled between iterations and between per-track
// classifications (spec §5 Cancellation): "no partial searcher is
// published on cancellation."
type Cancelled func() bool

// TrainResult is everything a completed training run produces, ready
// to be wrapped into a Searcher and persisted.
type TrainResult struct {
	Network        *Network
	Normalizer     Normalizer
	Specs          []FeatureSpec
	MedianNeighDist float64
	TrackPositions map[int64][]Pos
}

// Train runs the full spec §4.8.1 pipeline: drop shape-mismatched
// samples (already filtered out by the caller via BuildVector), fit a
// normaliser, build a Side x Side network, and iterate the SOM update
// rule for `iterations` epochs. The second return value is true if
// cancellation interrupted the run — no searcher should be published.
func Train(ctx context.Context, samples []Sample, specs []FeatureSpec, iterations int, rng *rand.Rand, progress ProgressFunc, cancelled Cancelled) (*TrainResult, bool, error) {
	if len(samples) == 0 {
		return nil, false, nil
	}
	weights := Weights(specs)

	raw := make([][]float64, len(samples))
	for i, s := range samples {
		raw[i] = s.Vector
	}
	norm := ComputeNormalizer(raw)

	vectors := make([][]float64, len(samples))
	for i, s := range samples {
		vectors[i] = norm.Apply(s.Vector)
	}

	n := len(samples)
	side := int(math.Ceil(math.Sqrt(float64(n) / 2)))
	if side < 1 {
		side = 1
	}
	net := NewNetwork(side, TotalDimensions(specs), rng)

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}

	if iterations < 1 {
		iterations = 1
	}
	for i := 0; i < iterations; i++ {
		if cancelled != nil && cancelled() {
			return nil, true, nil
		}
		rng.Shuffle(len(order), func(a, b int) { order[a], order[b] = order[b], order[a] })

		alpha := math.Exp(-float64(i+1) / float64(iterations))
		sigma := math.Exp(-float64(i+1) / float64(iterations))

		for _, idx := range order {
			v := vectors[idx]
			bmu := net.BMU(v, weights)
			net.update(v, bmu, alpha, sigma)
		}
		if progress != nil {
			progress(i+1, iterations)
		}
	}

	medianDist := medianAdjacentDistance(net, weights)

	trackPositions := make(map[int64][]Pos, n)
	for i, s := range samples {
		if cancelled != nil && cancelled() {
			return nil, true, nil
		}
		trackPositions[s.TrackID] = quantize(net, vectors[i], weights, medianDist)
	}

	return &TrainResult{
		Network:         net,
		Normalizer:      norm,
		Specs:           specs,
		MedianNeighDist: medianDist,
		TrackPositions:  trackPositions,
	}, false, nil
}

// quantize assigns a sample to every grid position whose distance to
// the sample is within one median-neighbour-distance of the best match
// (spec §4.8.1 step 6: "a track may map to multiple positions if the
// tie/threshold rule places it within the median-distance neighbourhood
// of more than one").
func quantize(net *Network, v, weights []float64, medianDist float64) []Pos {
	positions := net.Positions()
	dists := make([]float64, len(positions))
	best := math.Inf(1)
	for i, p := range positions {
		d := net.DistanceTo(v, p, weights)
		dists[i] = d
		if d < best {
			best = d
		}
	}
	var out []Pos
	for i, p := range positions {
		if dists[i] <= best+medianDist {
			out = append(out, p)
		}
	}
	return out
}

// medianAdjacentDistance computes the median weighted distance between
// every pair of 4-neighbour-adjacent reference vectors (spec §4.8.1
// step 7), stored as the neighbourhood-expansion threshold querying
// compares against.
func medianAdjacentDistance(net *Network, weights []float64) float64 {
	var dists []float64
	for _, p := range net.Positions() {
		for _, q := range net.Neighbours4(p) {
			if q.Y*net.Side+q.X <= p.Y*net.Side+p.X {
				continue // count each undirected edge once
			}
			dists = append(dists, weightedSquaredDistance(net.RefAt(p), net.RefAt(q), weights))
		}
	}
	if len(dists) == 0 {
		return 0
	}
	sort.Float64s(dists)
	mid := len(dists) / 2
	if len(dists)%2 == 1 {
		return dists[mid]
	}
	return (dists[mid-1] + dists[mid]) / 2
}

// CollectSamples gathers every catalogued track's feature vector that
// matches the current enabled FeatureType configuration, dropping
// shape-mismatched rows per spec §3 invariant 4. It also returns the
// track->release and track->artist id maps training needs to derive
// release/artist positions.
func CollectSamples(ctx context.Context, store *catalog.Store, specs []FeatureSpec) (samples []Sample, trackRelease map[int64]int64, trackArtists map[int64][]int64, err error) {
	trackRelease = map[int64]int64{}
	trackArtists = map[int64][]int64{}

	err = store.WithRead(ctx, func(tx *sql.Tx) error {
		return store.IterateTracksWithFeatures(ctx, tx, func(tf catalog.TrackFeatures) error {
			vec, ok := BuildVector(tf.JSON, specs)
			if !ok {
				return nil // spec §3 invariant 4: skip, keep the row for later reprocessing
			}
			samples = append(samples, Sample{TrackID: tf.TrackID, Vector: vec})

			track, trackErr := store.GetTrack(ctx, tx, tf.TrackID)
			if trackErr != nil {
				return nil
			}
			if track.ReleaseID != nil {
				trackRelease[tf.TrackID] = *track.ReleaseID
			}
			artists, artErr := store.ListTrackArtists(ctx, tx, tf.TrackID)
			if artErr == nil {
				ids := make([]int64, len(artists))
				for i, a := range artists {
					ids[i] = a.ID
				}
				trackArtists[tf.TrackID] = ids
			}
			return nil
		})
	})
	return
}
