package similarity

import (
	"math"
	"math/rand"
)

// Pos is a grid coordinate of one reference vector.
type Pos struct {
	X, Y int
}

// Network is the self-organising map's grid of reference vectors (spec
// §4.8.1 step 3): Side*Side cells, each holding a vector of Dim
// components.
type Network struct {
	Side int
	Dim  int
	refs [][]float64 // len == Side*Side, row-major (y*Side+x)
}

// NewNetwork builds a Side x Side network over Dim-dimensional vectors,
// seeding every reference vector with values independently uniform on
// [0,1] (spec §4.8.1 step 4).
func NewNetwork(side, dim int, rng *rand.Rand) *Network {
	n := &Network{Side: side, Dim: dim, refs: make([][]float64, side*side)}
	for i := range n.refs {
		v := make([]float64, dim)
		for j := range v {
			v[j] = rng.Float64()
		}
		n.refs[i] = v
	}
	return n
}

func (n *Network) index(p Pos) int { return p.Y*n.Side + p.X }

// RefAt returns the reference vector at p.
func (n *Network) RefAt(p Pos) []float64 { return n.refs[n.index(p)] }

// Positions returns every grid cell in row-major order.
func (n *Network) Positions() []Pos {
	out := make([]Pos, 0, n.Side*n.Side)
	for y := 0; y < n.Side; y++ {
		for x := 0; x < n.Side; x++ {
			out = append(out, Pos{X: x, Y: y})
		}
	}
	return out
}

// BMU returns the reference vector position minimising the weighted
// squared-Euclidean distance to v (spec's "best matching unit").
func (n *Network) BMU(v, weights []float64) Pos {
	best := Pos{}
	bestDist := math.Inf(1)
	for y := 0; y < n.Side; y++ {
		for x := 0; x < n.Side; x++ {
			d := weightedSquaredDistance(v, n.refs[y*n.Side+x], weights)
			if d < bestDist {
				bestDist = d
				best = Pos{X: x, Y: y}
			}
		}
	}
	return best
}

// DistanceTo returns the weighted squared-Euclidean distance between v
// and the reference vector at p.
func (n *Network) DistanceTo(v []float64, p Pos, weights []float64) float64 {
	return weightedSquaredDistance(v, n.RefAt(p), weights)
}

// GridDistanceSquared is the squared Euclidean distance between two
// grid positions (not feature-space distance), used by the training
// neighbourhood function phi.
func GridDistanceSquared(a, b Pos) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return dx*dx + dy*dy
}

// Neighbours4 returns the up-to-4 grid-adjacent positions of p
// (spec's "4-neighbours" adjacency), clamped to the grid — no
// wraparound.
func (n *Network) Neighbours4(p Pos) []Pos {
	candidates := []Pos{
		{X: p.X - 1, Y: p.Y},
		{X: p.X + 1, Y: p.Y},
		{X: p.X, Y: p.Y - 1},
		{X: p.X, Y: p.Y + 1},
	}
	out := make([]Pos, 0, 4)
	for _, c := range candidates {
		if c.X >= 0 && c.X < n.Side && c.Y >= 0 && c.Y < n.Side {
			out = append(out, c)
		}
	}
	return out
}

// update nudges every reference vector toward sample, weighted by the
// training neighbourhood function centred on bmu (spec §4.8.1 step 5):
//
//	ref <- ref + alpha(i)*phi(d, i)*(sample - ref)
func (n *Network) update(sample []float64, bmu Pos, alpha, sigma float64) {
	for y := 0; y < n.Side; y++ {
		for x := 0; x < n.Side; x++ {
			p := Pos{X: x, Y: y}
			d2 := GridDistanceSquared(p, bmu)
			phi := math.Exp(-d2 / (2 * sigma * sigma))
			ref := n.refs[y*n.Side+x]
			for k := range ref {
				ref[k] += alpha * phi * (sample[k] - ref[k])
			}
		}
	}
}
