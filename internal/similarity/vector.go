// Package similarity implements the self-organising map that quantises
// tracks, releases, and artists to grid positions and answers
// "most similar to X" queries (spec §4.8). The network itself is a
// from-scratch numerical routine (no library in the retrieval pack
// implements a SOM — see DESIGN.md); its persistence and query shape
// follow the cache-backed, hot-swappable instance design of spec §9.
package similarity

import (
	"encoding/json"

	"github.com/jtdct/sonora/internal/catalog"
)

// FeatureSpec is the subset of catalog.FeatureType the vector builder
// and trainer need, in the fixed enabled order spec §4.8.1 requires.
type FeatureSpec struct {
	Name       string
	Dimensions int
	Weight     float64
}

func specsFromFeatureTypes(fts []catalog.FeatureType) []FeatureSpec {
	out := make([]FeatureSpec, len(fts))
	for i, ft := range fts {
		out[i] = FeatureSpec{Name: ft.Name, Dimensions: ft.Dimensions, Weight: ft.Weight}
	}
	return out
}

// TotalDimensions sums the declared dimension counts of specs, the
// length every concatenated sample vector must have.
func TotalDimensions(specs []FeatureSpec) int {
	n := 0
	for _, s := range specs {
		n += s.Dimensions
	}
	return n
}

// Weights expands each FeatureSpec's nominal weight across its
// dimensions, dividing by the dimension count so a FeatureType
// contributes its nominal weight regardless of dimensionality (spec
// §4.8.1 Inputs).
func Weights(specs []FeatureSpec) []float64 {
	out := make([]float64, 0, TotalDimensions(specs))
	for _, s := range specs {
		if s.Dimensions <= 0 {
			continue
		}
		w := s.Weight / float64(s.Dimensions)
		for i := 0; i < s.Dimensions; i++ {
			out = append(out, w)
		}
	}
	return out
}

// BuildVector extracts and concatenates, in specs order, the named
// numeric sub-vectors a Features blob carries for each enabled
// FeatureType. It reports ok=false if any FeatureType is absent or its
// array length doesn't match the declared dimension count (spec §3
// invariant 4: such tracks are "silently skipped by training and retain
// their Features row for later reprocessing").
func BuildVector(featuresJSON string, specs []FeatureSpec) (vec []float64, ok bool) {
	var bag map[string]json.RawMessage
	if err := json.Unmarshal([]byte(featuresJSON), &bag); err != nil {
		return nil, false
	}

	out := make([]float64, 0, TotalDimensions(specs))
	for _, spec := range specs {
		raw, present := bag[spec.Name]
		if !present {
			return nil, false
		}
		var nums []float64
		if err := json.Unmarshal(raw, &nums); err != nil {
			return nil, false
		}
		if len(nums) != spec.Dimensions {
			return nil, false
		}
		out = append(out, nums...)
	}
	return out, true
}

// weightedSquaredDistance is the weighted squared-Euclidean distance
// spec §4.8.1 step 5 and §4.8.3 use for BMU search and neighbourhood
// comparison.
func weightedSquaredDistance(a, b, weights []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += weights[i] * d * d
	}
	return sum
}
