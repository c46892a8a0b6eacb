package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultdrive/docsearch-mcp/internal/bm25"
)

func TestMinMaxNormalize(t *testing.T) {
	t.Run("non-constant list spans 0 to 1", func(t *testing.T) {
		out := MinMaxNormalize([]float64{2, 8, 5})
		assert.Equal(t, 0.0, out[0])
		assert.Equal(t, 1.0, out[1])
		assert.InDelta(t, 0.5, out[2], 1e-9)
	})

	t.Run("constant list maps to 0.5", func(t *testing.T) {
		out := MinMaxNormalize([]float64{3, 3, 3})
		assert.Equal(t, []float64{0.5, 0.5, 0.5}, out)
	})

	t.Run("single element maps to 0.5", func(t *testing.T) {
		assert.Equal(t, []float64{0.5}, MinMaxNormalize([]float64{42}))
	})

	t.Run("empty list", func(t *testing.T) {
		assert.Nil(t, MinMaxNormalize(nil))
	})

	t.Run("input not mutated", func(t *testing.T) {
		in := []float64{1, 2}
		MinMaxNormalize(in)
		assert.Equal(t, []float64{1, 2}, in)
	})
}

func TestFuse_WeightedCombination(t *testing.T) {
	semantic := []float64{0.0, 1.0}
	keyword := []float64{1.0, 0.0}

	ranked := Fuse(semantic, keyword, DefaultWeights(), 2)
	require.Len(t, ranked, 2)

	// 0.7 weight on semantic puts document 1 first.
	assert.Equal(t, 1, ranked[0].Index)
	assert.InDelta(t, 0.7, ranked[0].Score, 1e-9)
	assert.InDelta(t, 0.3, ranked[1].Score, 1e-9)
}

func TestFuse_StableTieBreak(t *testing.T) {
	// All fused scores equal: original corpus order must be preserved.
	semantic := []float64{0.5, 0.5, 0.5}
	keyword := []float64{0.5, 0.5, 0.5}

	ranked := Fuse(semantic, keyword, DefaultWeights(), 3)
	require.Len(t, ranked, 3)
	assert.Equal(t, 0, ranked[0].Index)
	assert.Equal(t, 1, ranked[1].Index)
	assert.Equal(t, 2, ranked[2].Index)
}

func TestFuse_TopKTruncation(t *testing.T) {
	semantic := []float64{0.9, 0.1, 0.5, 0.7}
	keyword := []float64{0.2, 0.3, 0.4, 0.1}

	ranked := Fuse(semantic, keyword, DefaultWeights(), 2)
	assert.Len(t, ranked, 2)

	// topK <= 0 selects the default.
	all := Fuse(semantic, keyword, DefaultWeights(), 0)
	assert.Len(t, all, 4) // corpus smaller than DefaultTopK
}

func TestFuse_MismatchedLists(t *testing.T) {
	assert.Nil(t, Fuse([]float64{1}, []float64{1, 2}, DefaultWeights(), 5))
	assert.Nil(t, Fuse(nil, nil, DefaultWeights(), 5))
}

func TestFuse_Monotonic(t *testing.T) {
	semantic := []float64{0.2, 0.4, 0.6}
	keyword := []float64{0.1, 0.5, 0.3}

	base := Fuse(semantic, keyword, DefaultWeights(), 3)
	var baseScore float64
	for _, r := range base {
		if r.Index == 1 {
			baseScore = r.Score
		}
	}

	// Raising document 1's raw semantic score (keeping it inside the
	// existing min/max range) never decreases its fused score.
	semantic[1] = 0.55
	bumped := Fuse(semantic, keyword, DefaultWeights(), 3)
	for _, r := range bumped {
		if r.Index == 1 {
			assert.GreaterOrEqual(t, r.Score, baseScore)
		}
	}
}

func TestFuse_AppleBananaScenario(t *testing.T) {
	// Corpus: "apple pie recipe", "banana split dessert",
	// "apple banana smoothie"; query "apple banana". Chunk 3 carries both
	// lexical hits and the highest semantic score, so it ranks first;
	// chunks 1 and 2 tie on both signals and keep corpus order.
	texts := []string{"apple pie recipe", "banana split dessert", "apple banana smoothie"}
	semantic := []float64{0.2, 0.2, 0.9}

	idx := bm25.NewIndex(texts, bm25.DefaultParams())
	keyword := make([]float64, len(texts))
	for i, ds := range idx.Score("apple banana") {
		keyword[i] = ds.Score
	}

	ranked := Fuse(semantic, keyword, DefaultWeights(), 3)
	require.Len(t, ranked, 3)
	assert.Equal(t, 2, ranked[0].Index, "chunk 3 ranks first")
	assert.Equal(t, 0, ranked[1].Index, "chunk 1 before chunk 2 on tie")
	assert.Equal(t, 1, ranked[2].Index)
}
