package rank

import "sort"

// Default fusion weights. They favor the semantic signal and are not
// required to sum to 1, though the defaults do.
const (
	DefaultSemanticWeight = 0.7
	DefaultKeywordWeight  = 0.3

	// DefaultTopK is the number of results returned when the caller does
	// not ask for a specific count.
	DefaultTopK = 5
)

// Weights configures the linear fusion of the two normalized score lists.
type Weights struct {
	Semantic float64
	Keyword  float64
}

// DefaultWeights returns the 0.7/0.3 semantic/keyword split.
func DefaultWeights() Weights {
	return Weights{Semantic: DefaultSemanticWeight, Keyword: DefaultKeywordWeight}
}

// Ranked is one fused entry. Index refers back to the corpus position the
// score lists were built from.
type Ranked struct {
	Index    int
	Score    float64
	Semantic float64 // normalized semantic component
	Keyword  float64 // normalized keyword component
}

// MinMaxNormalize scales scores to [0,1]. A constant list (including a
// single-element list) maps every value to 0.5. The input is not modified.
func MinMaxNormalize(scores []float64) []float64 {
	if len(scores) == 0 {
		return nil
	}

	min, max := scores[0], scores[0]
	for _, s := range scores[1:] {
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}

	out := make([]float64, len(scores))
	if max == min {
		for i := range out {
			out[i] = 0.5
		}
		return out
	}

	for i, s := range scores {
		out[i] = (s - min) / (max - min)
	}
	return out
}

// Fuse normalizes both score lists independently, combines them with the
// given weights, and returns the top-K entries sorted descending by fused
// score. Ties keep original corpus order (first-seen wins) so results are
// deterministic for equal scores. The lists must be equally long and aligned
// to the same corpus; topK <= 0 selects DefaultTopK.
func Fuse(semantic, keyword []float64, w Weights, topK int) []Ranked {
	if len(semantic) != len(keyword) || len(semantic) == 0 {
		return nil
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	normSem := MinMaxNormalize(semantic)
	normKey := MinMaxNormalize(keyword)

	ranked := make([]Ranked, len(normSem))
	for i := range normSem {
		ranked[i] = Ranked{
			Index:    i,
			Score:    w.Semantic*normSem[i] + w.Keyword*normKey[i],
			Semantic: normSem[i],
			Keyword:  normKey[i],
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if topK < len(ranked) {
		ranked = ranked[:topK]
	}
	return ranked
}
