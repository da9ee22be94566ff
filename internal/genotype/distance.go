package genotype

import (
	"math"

	"phytogen/internal/model"
)

// GeneticDistance is the normalized fraction of non-shared genes across both
// parents' gene sets: 1 - shared/totalDistinct. Genotypes without alleles
// contribute no information, so the neutral 0.5 is returned.
func GeneticDistance(a, b model.Genotype) float64 {
	if len(a.Alleles) == 0 || len(b.Alleles) == 0 {
		return 0.5
	}
	shared := 0
	total := len(a.Alleles)
	for geneID := range b.Alleles {
		if _, ok := a.Alleles[geneID]; ok {
			shared++
		} else {
			total++
		}
	}
	return 1 - float64(shared)/float64(total)
}

// TraitSimilarity is the mean over matched trait names of
// 1 - |delta expressed value|/2, or the neutral 0.5 when the genotypes share
// no named traits.
func TraitSimilarity(a, b model.Genotype) float64 {
	if len(a.Traits) == 0 || len(b.Traits) == 0 {
		return 0.5
	}
	byName := make(map[string]float64, len(a.Traits))
	for _, t := range a.Traits {
		byName[t.Name] = t.ExpressedValue
	}
	sum := 0.0
	matched := 0
	for _, t := range b.Traits {
		v, ok := byName[t.Name]
		if !ok {
			continue
		}
		sum += 1 - math.Abs(t.ExpressedValue-v)/2
		matched++
	}
	if matched == 0 {
		return 0.5
	}
	return sum / float64(matched)
}

// SharesAncestor reports whether the two genotypes have a common parent or
// one is a direct parent of the other.
func SharesAncestor(a, b model.Genotype) bool {
	for _, p := range a.ParentIDs {
		if p == b.ID {
			return true
		}
		for _, q := range b.ParentIDs {
			if p == q {
				return true
			}
		}
	}
	for _, q := range b.ParentIDs {
		if q == a.ID {
			return true
		}
	}
	return false
}

// GeneticDiversity measures within-genotype allele spread: the mean absolute
// expression difference across heterozygous gene pairs, in [0,1].
func GeneticDiversity(g model.Genotype) float64 {
	if len(g.Alleles) == 0 {
		return 0
	}
	sum := 0.0
	pairs := 0
	for _, set := range g.Alleles {
		if len(set) < 2 {
			continue
		}
		sum += math.Abs(set[0].Expression - set[1].Expression)
		pairs++
	}
	if pairs == 0 {
		return 0
	}
	return sum / float64(pairs)
}
