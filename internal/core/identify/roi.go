// Package identify ranks improvement candidates by return on
// investment so the scheduler works on the most valuable opportunity
// first. Pure functions, no side effects.
package identify

import "sort"

// Candidate is a potential improvement scored on a 1-10 impact/effort
// scale by whatever detector produced it.
type Candidate struct {
	Area        string
	Metric      string
	Description string
	Impact      int
	Effort      int
}

// ROI returns impact divided by effort. Zero or negative effort yields
// zero rather than a division blow-up.
func ROI(c Candidate) float64 {
	if c.Effort <= 0 {
		return 0
	}
	return float64(c.Impact) / float64(c.Effort)
}

// Rank orders candidates best-first by ROI. Ties keep their original
// relative order so detector ordering remains meaningful.
func Rank(candidates []Candidate) []Candidate {
	ranked := make([]Candidate, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ROI(ranked[i]) > ROI(ranked[j])
	})
	return ranked
}
