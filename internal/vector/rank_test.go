package vector

import (
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name   string
		a, b   []float32
		want   float64
		wantOK bool
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1, true},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0, true},
		{"opposite", []float32{1, 0}, []float32{-2, 0}, -1, true},
		{"scale invariant", []float32{1, 1}, []float32{5, 5}, 1, true},
		{"zero norm", []float32{0, 0}, []float32{1, 0}, 0, false},
		{"dimension mismatch", []float32{1, 0}, []float32{1, 0, 0}, 0, false},
		{"empty", nil, nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Cosine(tt.a, tt.b)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Cosine = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCosine_BoundsAndSelfSimilarity(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		a := randomVector(r, 16)
		b := randomVector(r, 16)
		sim, ok := Cosine(a, b)
		if !ok {
			continue
		}
		if sim < -1 || sim > 1 {
			t.Fatalf("cosine out of bounds: %v", sim)
		}
		self, _ := Cosine(a, a)
		if math.Abs(self-1) > 1e-6 {
			t.Fatalf("self similarity = %v", self)
		}
	}
}

func randomVector(r *rand.Rand, n int) []float32 {
	v := make([]float32, n)
	for i := range v {
		v[i] = float32(r.NormFloat64())
	}
	return v
}

func TestRank_Scenario(t *testing.T) {
	got := Rank([]float32{1, 0}, []Candidate{
		{ID: "B", Vector: []float32{0, 1}},
		{ID: "A", Vector: []float32{1, 0}},
	})
	want := []Match{{ID: "A", Similarity: 1}, {ID: "B", Similarity: 0}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Rank mismatch (-want +got):\n%s", diff)
	}
}

func TestRank_ExcludesIncomparable(t *testing.T) {
	got := Rank([]float32{1, 0}, []Candidate{
		{ID: "zero", Vector: []float32{0, 0}},
		{ID: "short", Vector: []float32{1}},
		{ID: "ok", Vector: []float32{0.5, 0.5}},
	})
	if len(got) != 1 || got[0].ID != "ok" {
		t.Errorf("got %+v", got)
	}
	if got := Rank([]float32{0, 0}, []Candidate{{ID: "a", Vector: []float32{1, 0}}}); len(got) != 0 {
		t.Errorf("zero query should match nothing, got %+v", got)
	}
}

func TestRank_OrderedAndStable(t *testing.T) {
	candidates := []Candidate{
		{ID: "first", Vector: []float32{1, 1}},
		{ID: "low", Vector: []float32{-1, 0}},
		{ID: "second", Vector: []float32{1, 1}},
		{ID: "near", Vector: []float32{1, 0.9}},
	}
	got := Rank([]float32{1, 1}, candidates)
	for i := 1; i < len(got); i++ {
		if got[i].Similarity > got[i-1].Similarity {
			t.Fatalf("not non-increasing at %d: %+v", i, got)
		}
	}
	if got[0].ID != "first" || got[1].ID != "second" {
		t.Errorf("ties should keep input order, got %+v", got)
	}
	if got[len(got)-1].ID != "low" {
		t.Errorf("last = %s, want low", got[len(got)-1].ID)
	}
}

func TestTopK(t *testing.T) {
	m := []Match{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	if len(TopK(m, 2)) != 2 {
		t.Error("TopK(2) should return 2")
	}
	if len(TopK(m, 10)) != 3 {
		t.Error("TopK larger than input returns all")
	}
	if TopK(m, 0) != nil {
		t.Error("TopK(0) returns nil")
	}
}
