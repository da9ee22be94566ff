package genotype

import (
	"phytogen/internal/model"
)

// CloneAllele returns a deep copy of an allele. The copy keeps the source id;
// callers that inherit an allele into a new genotype should use
// CloneAlleleWithNewID so ownership never aliases across genotypes.
func CloneAllele(a model.Allele) model.Allele {
	out := a
	if a.Color != nil {
		c := *a.Color
		out.Color = &c
	}
	if a.StrainWeights != nil {
		out.StrainWeights = make(map[string]float64, len(a.StrainWeights))
		for k, v := range a.StrainWeights {
			out.StrainWeights[k] = v
		}
	}
	out.Mutations = append([]model.MutationEvent(nil), a.Mutations...)
	return out
}

// CloneAlleleWithNewID deep-copies an allele under a fresh identity while
// preserving all numeric, color, and provenance fields.
func CloneAlleleWithNewID(a model.Allele) model.Allele {
	out := CloneAllele(a)
	out.ID = model.NewID()
	return out
}

// CloneGenotype returns a deep copy of a genotype, including every allele,
// trait, parent reference, and epigenetic entry.
func CloneGenotype(g model.Genotype) model.Genotype {
	out := g
	out.ParentIDs = append([]string(nil), g.ParentIDs...)
	out.Traits = append([]model.GeneticTrait(nil), g.Traits...)
	if g.Alleles != nil {
		out.Alleles = make(map[string][]model.Allele, len(g.Alleles))
		for geneID, set := range g.Alleles {
			copied := make([]model.Allele, 0, len(set))
			for _, a := range set {
				copied = append(copied, CloneAllele(a))
			}
			out.Alleles[geneID] = copied
		}
	}
	if g.Epigenetics != nil {
		out.Epigenetics = make(map[string]float64, len(g.Epigenetics))
		for k, v := range g.Epigenetics {
			out.Epigenetics[k] = v
		}
	}
	return out
}
