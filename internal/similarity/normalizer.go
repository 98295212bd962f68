package similarity

// Normalizer rescales each vector dimension independently to [0,1]
// using the min/max observed across the training set (spec §4.8.1
// step 2).
type Normalizer struct {
	Min []float64
	Max []float64
}

// ComputeNormalizer fits a Normalizer over samples, all of which must
// share the same dimensionality.
func ComputeNormalizer(samples [][]float64) Normalizer {
	if len(samples) == 0 {
		return Normalizer{}
	}
	dim := len(samples[0])
	min := make([]float64, dim)
	max := make([]float64, dim)
	copy(min, samples[0])
	copy(max, samples[0])

	for _, s := range samples[1:] {
		for i, v := range s {
			if v < min[i] {
				min[i] = v
			}
			if v > max[i] {
				max[i] = v
			}
		}
	}
	return Normalizer{Min: min, Max: max}
}

// Apply returns a copy of v rescaled to [0,1] per dimension; v itself
// is left unchanged. A degenerate
// dimension (max == min) maps to 0 rather than dividing by zero.
func (n Normalizer) Apply(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		span := n.Max[i] - n.Min[i]
		if span <= 0 {
			out[i] = 0
			continue
		}
		out[i] = (x - n.Min[i]) / span
	}
	return out
}
