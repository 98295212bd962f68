package similarity

import (
	"math/rand"
	"testing"
)

func TestTrainProducesPositionForEverySample(t *testing.T) {
	specs := []FeatureSpec{{Name: "f", Dimensions: 2, Weight: 1}}
	samples := []Sample{
		{TrackID: 1, Vector: []float64{0, 0}},
		{TrackID: 2, Vector: []float64{1, 1}},
		{TrackID: 3, Vector: []float64{0.5, 0.5}},
		{TrackID: 4, Vector: []float64{1, 0}},
	}
	rng := rand.New(rand.NewSource(7))

	result, cancelled, err := Train(nil, samples, specs, 2, rng, nil, nil)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if cancelled {
		t.Fatal("Train reported cancelled with no cancellation func")
	}
	for _, s := range samples {
		if _, ok := result.TrackPositions[s.TrackID]; !ok {
			t.Fatalf("no position recorded for track %d", s.TrackID)
		}
	}
	wantSide := 2 // ceil(sqrt(4/2)) == 2
	if result.Network.Side != wantSide {
		t.Fatalf("Side = %d, want %d", result.Network.Side, wantSide)
	}
}

func TestTrainHonoursCancellationBetweenIterations(t *testing.T) {
	specs := []FeatureSpec{{Name: "f", Dimensions: 1, Weight: 1}}
	samples := []Sample{{TrackID: 1, Vector: []float64{0}}, {TrackID: 2, Vector: []float64{1}}}
	rng := rand.New(rand.NewSource(1))

	calls := 0
	cancelled := func() bool {
		calls++
		return calls > 1
	}

	result, wasCancelled, err := Train(nil, samples, specs, 10, rng, nil, cancelled)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if !wasCancelled {
		t.Fatal("expected cancellation to stop training")
	}
	if result != nil {
		t.Fatal("a cancelled run must not return a TrainResult")
	}
}

func TestTrainEmptySamplesIsNoop(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	result, cancelled, err := Train(nil, nil, nil, 5, rng, nil, nil)
	if err != nil || cancelled || result != nil {
		t.Fatalf("Train(empty) = %+v, %v, %v; want nil, false, nil", result, cancelled, err)
	}
}
