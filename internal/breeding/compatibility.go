package breeding

import (
	"phytogen/internal/genotype"
	"phytogen/internal/model"
)

// compatibilityScore computes the 0.5 + 0.2*[distance in (0.2,0.8)] +
// 0.3*traitSimilarity gate score, clamped to [0,1], cached per unordered
// strain-id pair.
func (e *Engine) compatibilityScore(a, b model.Genotype) float64 {
	key := pairKey(a.StrainID, b.StrainID)
	if score, ok := e.compat.Get(key); ok {
		return score
	}

	score := 0.5
	distance := genotype.GeneticDistance(a, b)
	if distance > 0.2 && distance < 0.8 {
		score += 0.2
	}
	score += 0.3 * genotype.TraitSimilarity(a, b)
	score = clamp01(score)

	e.compat.Put(key, score)
	return score
}

// ClearCompatibilityCache drops all cached pair scores.
func (e *Engine) ClearCompatibilityCache() {
	e.compat.Clear()
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
