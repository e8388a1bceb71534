package vectorizer

import "sort"

// Vector is a sparse view of a fixed-length feature vector. Indices are
// ascending and every index is < Dim. Absent indices are zero.
type Vector struct {
	Dim     int
	Indices []int
	Values  []float64
}

// NNZ returns the number of stored entries.
func (v Vector) NNZ() int {
	return len(v.Indices)
}

// IsZero reports whether every component is zero.
func (v Vector) IsZero() bool {
	for _, x := range v.Values {
		if x != 0 {
			return false
		}
	}
	return true
}

// At returns component i.
func (v Vector) At(i int) float64 {
	j := sort.SearchInts(v.Indices, i)
	if j < len(v.Indices) && v.Indices[j] == i {
		return v.Values[j]
	}
	return 0
}

// Dense materializes the full vector.
func (v Vector) Dense() []float64 {
	out := make([]float64, v.Dim)
	for j, i := range v.Indices {
		out[i] = v.Values[j]
	}
	return out
}

type byIndex Vector

func (b byIndex) Len() int           { return len(b.Indices) }
func (b byIndex) Less(i, j int) bool { return b.Indices[i] < b.Indices[j] }
func (b byIndex) Swap(i, j int) {
	b.Indices[i], b.Indices[j] = b.Indices[j], b.Indices[i]
	b.Values[i], b.Values[j] = b.Values[j], b.Values[i]
}

func (v *Vector) sortIndices() {
	sort.Sort(byIndex(*v))
}
