package genotype

import (
	"errors"
	"fmt"
	"time"

	"phytogen/internal/model"
)

const (
	SupportedSchemaVersion = 1
	SupportedCodecVersion  = 1
)

var (
	ErrNoAlleles      = errors.New("genotype has no alleles")
	ErrBadAlleleCount = errors.New("gene must carry 1 or 2 alleles")
	ErrFieldRange     = errors.New("allele field out of range")
	ErrBadGeneration  = errors.New("generation must be >= 1")
	ErrBadParentCount = errors.New("genotype may reference at most 2 parents")
)

// NewFounder builds a generation-1 genotype with no parents. Alleles and
// traits are deep-copied so the founder owns its state exclusively.
func NewFounder(strainID, strainName string, alleles map[string][]model.Allele, traits []model.GeneticTrait) (model.Genotype, error) {
	if len(alleles) == 0 {
		return model.Genotype{}, ErrNoAlleles
	}
	g := model.Genotype{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: SupportedSchemaVersion,
			CodecVersion:  SupportedCodecVersion,
		},
		ID:         model.NewID(),
		StrainID:   strainID,
		StrainName: strainName,
		Generation: 1,
		CreatedAt:  time.Now(),
		Origin:     model.OriginNatural,
		Alleles:    make(map[string][]model.Allele, len(alleles)),
		Traits:     append([]model.GeneticTrait(nil), traits...),
	}
	for geneID, set := range alleles {
		copied := make([]model.Allele, 0, len(set))
		for _, a := range set {
			c := CloneAllele(a)
			if c.ID == "" {
				c.ID = model.NewID()
			}
			if c.GeneID == "" {
				c.GeneID = geneID
			}
			if c.CreatedAt.IsZero() {
				c.CreatedAt = g.CreatedAt
			}
			if c.Origin == "" {
				c.Origin = string(model.OriginNatural)
			}
			copied = append(copied, c)
		}
		g.Alleles[geneID] = copied
	}
	if err := Validate(g); err != nil {
		return model.Genotype{}, err
	}
	return g, nil
}

// Validate checks the structural invariants of a genotype: diploid allele
// sets, unit-interval allele fields, generation and parent-count bounds.
func Validate(g model.Genotype) error {
	if g.Generation < 1 {
		return ErrBadGeneration
	}
	if len(g.ParentIDs) > 2 {
		return ErrBadParentCount
	}
	if len(g.Alleles) == 0 {
		return ErrNoAlleles
	}
	for geneID, set := range g.Alleles {
		if len(set) < 1 || len(set) > 2 {
			return fmt.Errorf("%w: gene %s has %d", ErrBadAlleleCount, geneID, len(set))
		}
		for _, a := range set {
			if !inUnit(a.Expression) || !inUnit(a.Dominance) || !inUnit(a.Stability) {
				return fmt.Errorf("%w: allele %s of gene %s", ErrFieldRange, a.ID, geneID)
			}
			if a.MutationRate < 0 || a.MutationRate > 1 {
				return fmt.Errorf("%w: allele %s mutation rate", ErrFieldRange, a.ID)
			}
		}
	}
	return nil
}

func inUnit(v float64) bool {
	return v >= 0 && v <= 1
}
