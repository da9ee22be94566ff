package model

// CategoryMap returns the named-trait map backing one category, allocating
// it on first use. Unknown categories land in the custom bucket.
func (p *Phenotype) CategoryMap(category TraitCategory) map[string]float64 {
	switch category {
	case CategoryMorphological:
		if p.Morphological == nil {
			p.Morphological = map[string]float64{}
		}
		return p.Morphological
	case CategoryColor:
		if p.Color == nil {
			p.Color = map[string]float64{}
		}
		return p.Color
	case CategoryGrowth:
		if p.Growth == nil {
			p.Growth = map[string]float64{}
		}
		return p.Growth
	case CategoryTolerance:
		if p.Tolerance == nil {
			p.Tolerance = map[string]float64{}
		}
		return p.Tolerance
	case CategoryBiochemical:
		if p.Biochemical == nil {
			p.Biochemical = map[string]float64{}
		}
		return p.Biochemical
	default:
		if p.Custom == nil {
			p.Custom = map[string]float64{}
		}
		return p.Custom
	}
}
