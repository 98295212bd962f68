package similarity

import "testing"

func TestBuildVectorOrdersBySpecAndConcatenates(t *testing.T) {
	specs := []FeatureSpec{
		{Name: "rhythm", Dimensions: 2, Weight: 1},
		{Name: "timbre", Dimensions: 3, Weight: 2},
	}
	json := `{"timbre":[1,2,3],"rhythm":[4,5]}`
	vec, ok := BuildVector(json, specs)
	if !ok {
		t.Fatal("expected ok=true")
	}
	want := []float64{4, 5, 1, 2, 3}
	if len(vec) != len(want) {
		t.Fatalf("len(vec) = %d, want %d", len(vec), len(want))
	}
	for i := range want {
		if vec[i] != want[i] {
			t.Fatalf("vec[%d] = %v, want %v", i, vec[i], want[i])
		}
	}
}

func TestBuildVectorRejectsDimensionMismatch(t *testing.T) {
	specs := []FeatureSpec{{Name: "rhythm", Dimensions: 2, Weight: 1}}
	if _, ok := BuildVector(`{"rhythm":[1,2,3]}`, specs); ok {
		t.Fatal("expected ok=false on dimension mismatch")
	}
}

func TestBuildVectorRejectsMissingFeatureType(t *testing.T) {
	specs := []FeatureSpec{{Name: "rhythm", Dimensions: 2, Weight: 1}}
	if _, ok := BuildVector(`{"other":[1,2]}`, specs); ok {
		t.Fatal("expected ok=false on missing feature type")
	}
}

func TestWeightsDividesByDimensionCount(t *testing.T) {
	specs := []FeatureSpec{
		{Name: "a", Dimensions: 2, Weight: 1.0},
		{Name: "b", Dimensions: 4, Weight: 2.0},
	}
	w := Weights(specs)
	want := []float64{0.5, 0.5, 0.5, 0.5, 0.5, 0.5}
	if len(w) != len(want) {
		t.Fatalf("len(w) = %d, want %d", len(w), len(want))
	}
	for i := range want {
		if w[i] != want[i] {
			t.Fatalf("w[%d] = %v, want %v", i, w[i], want[i])
		}
	}
}
