package breeding

import (
	"time"

	"phytogen/internal/genotype"
	"phytogen/internal/model"
)

// Clamp bounds for offspring trait expressed values after hybrid-vigor or
// inbreeding adjustment.
const (
	traitFloor = 0.1
	traitCeil  = 2.0
)

// generateOffspring forms one child: per gene present in either parent, one
// random allele from each carrier is cloned under a fresh id, with the
// expression fields of the new pair swapped at the crossover rate. Gene
// iteration rides map order, so there is no cross-gene ordering guarantee.
func (e *Engine) generateOffspring(a, b model.Genotype, traitMultiplier float64) (model.Genotype, error) {
	now := time.Now()
	child := model.Genotype{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: genotype.SupportedSchemaVersion,
			CodecVersion:  genotype.SupportedCodecVersion,
		},
		ID:         model.NewID(),
		Generation: maxInt(a.Generation, b.Generation) + 1,
		CreatedAt:  now,
		Origin:     model.OriginBred,
		ParentIDs:  []string{a.ID, b.ID},
		Alleles:    make(map[string][]model.Allele, len(a.Alleles)+len(b.Alleles)),
	}
	child.StrainID, child.StrainName = childStrain(a, b)

	for geneID := range a.Alleles {
		child.Alleles[geneID] = e.inheritGene(geneID, a, b)
	}
	for geneID := range b.Alleles {
		if _, done := child.Alleles[geneID]; !done {
			child.Alleles[geneID] = e.inheritGene(geneID, a, b)
		}
	}

	child.Traits = e.inheritTraits(a, b, traitMultiplier)

	if e.cfg.MutationEnabled {
		if err := e.mut.ApplyMutations(&child); err != nil {
			return model.Genotype{}, err
		}
	}
	return child, nil
}

// inheritGene builds the child's diploid allele set for one gene: one random
// allele from each parent that carries the gene, or the single available
// allele when only one parent does.
func (e *Engine) inheritGene(geneID string, a, b model.Genotype) []model.Allele {
	var picked []model.Allele
	if set := a.Alleles[geneID]; len(set) > 0 {
		picked = append(picked, genotype.CloneAlleleWithNewID(set[e.rng.Intn(len(set))]))
	}
	if set := b.Alleles[geneID]; len(set) > 0 {
		picked = append(picked, genotype.CloneAlleleWithNewID(set[e.rng.Intn(len(set))]))
	}

	// Segregation crossover swaps expression between the freshly created
	// pair.
	if len(picked) == 2 && e.rng.Float64() < e.cfg.CrossoverRate {
		picked[0].Expression, picked[1].Expression = picked[1].Expression, picked[0].Expression
	}
	return picked
}

// inheritTraits mid-parents every named trait from either parent, then
// applies the hybrid-vigor/inbreeding multiplier and the [0.1, 2.0] clamp.
func (e *Engine) inheritTraits(a, b model.Genotype, multiplier float64) []model.GeneticTrait {
	type acc struct {
		value     float64
		dominance float64
		n         int
	}
	merged := make(map[string]*acc)
	order := make([]string, 0, len(a.Traits)+len(b.Traits))
	for _, g := range []model.Genotype{a, b} {
		for _, t := range g.Traits {
			entry, ok := merged[t.Name]
			if !ok {
				entry = &acc{}
				merged[t.Name] = entry
				order = append(order, t.Name)
			}
			entry.value += t.ExpressedValue
			entry.dominance += t.Dominance
			entry.n++
		}
	}
	if len(order) == 0 {
		return nil
	}

	out := make([]model.GeneticTrait, 0, len(order))
	for _, name := range order {
		entry := merged[name]
		value := entry.value / float64(entry.n) * multiplier
		out = append(out, model.GeneticTrait{
			Name:           name,
			ExpressedValue: clampRange(value, traitFloor, traitCeil),
			Dominance:      entry.dominance / float64(entry.n),
		})
	}
	return out
}

// traitMultiplier classifies the pairing. Outcross (different strains and
// distance > 0.3) earns hybrid vigor scaled by distance; inbred pairs
// (distance < 0.2 or shared ancestry) take the inbreeding penalty.
func (e *Engine) traitMultiplier(a, b model.Genotype, distance float64) float64 {
	outcross := a.StrainID != b.StrainID && distance > 0.3
	inbred := distance < 0.2 || genotype.SharesAncestor(a, b)
	switch {
	case outcross:
		return 1 + (e.cfg.HybridVigorMultiplier-1)*distance
	case inbred:
		return e.cfg.InbreedingPenalty
	default:
		return 1
	}
}

// childStrain keeps the strain of same-strain crosses and derives a stable
// hybrid strain identity otherwise, so siblings of one cross share a strain.
func childStrain(a, b model.Genotype) (string, string) {
	if a.StrainID == b.StrainID {
		return a.StrainID, a.StrainName
	}
	if a.StrainID > b.StrainID {
		a, b = b, a
	}
	return a.StrainID + "+" + b.StrainID, a.StrainName + " x " + b.StrainName
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
