package similarity

import (
	"math/rand"
	"testing"
)

func TestNetworkBMUPicksClosestReference(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	n := NewNetwork(2, 2, rng)
	n.refs[0] = []float64{0, 0}
	n.refs[1] = []float64{1, 0}
	n.refs[2] = []float64{0, 1}
	n.refs[3] = []float64{1, 1}

	weights := []float64{1, 1}
	got := n.BMU([]float64{0.9, 0.9}, weights)
	if got != (Pos{X: 1, Y: 1}) {
		t.Fatalf("BMU = %+v, want (1,1)", got)
	}
}

func TestNeighbours4ClampsAtGridEdge(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	n := NewNetwork(3, 1, rng)
	got := n.Neighbours4(Pos{X: 0, Y: 0})
	if len(got) != 2 {
		t.Fatalf("corner neighbours = %d, want 2", len(got))
	}
	got = n.Neighbours4(Pos{X: 1, Y: 1})
	if len(got) != 4 {
		t.Fatalf("centre neighbours = %d, want 4", len(got))
	}
}

func TestUpdateMovesReferenceTowardSample(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	n := NewNetwork(1, 2, rng)
	n.refs[0] = []float64{0, 0}
	before := append([]float64{}, n.refs[0]...)
	n.update([]float64{1, 1}, Pos{X: 0, Y: 0}, 0.5, 1.0)
	if n.refs[0][0] <= before[0] || n.refs[0][1] <= before[1] {
		t.Fatalf("update did not move reference toward sample: %v -> %v", before, n.refs[0])
	}
}
