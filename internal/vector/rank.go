package vector

import "sort"

// Candidate is a stored vector with its owner's ID.
type Candidate struct {
	ID     string
	Vector []float32
}

// Match is a ranked candidate.
type Match struct {
	ID         string
	Similarity float64
}

// Rank scores every candidate against query and returns matches in
// descending similarity. Equal scores keep their input order. Candidates that
// cannot be compared (zero norm or different dimension) are left out, and a
// zero-norm query yields no matches.
func Rank(query []float32, candidates []Candidate) []Match {
	matches := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		sim, ok := Cosine(query, c.Vector)
		if !ok {
			continue
		}
		matches = append(matches, Match{ID: c.ID, Similarity: sim})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	return matches
}

// TopK returns at most k matches. k <= 0 returns none.
func TopK(matches []Match, k int) []Match {
	if k <= 0 {
		return nil
	}
	if len(matches) > k {
		return matches[:k]
	}
	return matches
}
