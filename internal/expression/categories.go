package expression

import (
	"strings"

	"phytogen/internal/model"
)

// Canonical phenotype trait names. Presentation collaborators address traits
// by these names inside each category map.
const (
	TraitLeafSize          = "leafSize"
	TraitStemThickness     = "stemThickness"
	TraitInternodeSpacing  = "internodeSpacing"
	TraitLeafDensity       = "leafDensity"
	TraitPlantHeight       = "plantHeight"
	TraitRootMass          = "rootMass"
	TraitLeafColor         = "leafColor"
	TraitBudColor          = "budColor"
	TraitPigmentIntensity  = "pigmentIntensity"
	TraitGrowthRate        = "growthRate"
	TraitYieldPotential    = "yieldPotential"
	TraitBudDensity        = "budDensity"
	TraitFloweringTime     = "floweringTime"
	TraitHeatTolerance     = "heatTolerance"
	TraitColdTolerance     = "coldTolerance"
	TraitDroughtTolerance  = "droughtTolerance"
	TraitHumidityTolerance = "humidityTolerance"
	TraitLightTolerance    = "lightTolerance"
	TraitCO2Tolerance      = "co2Tolerance"
	TraitDiseaseResistance = "diseaseResistance"
	TraitStressTolerance   = "stressTolerance"
	TraitPotency           = "potency"
	TraitTerpeneProfile    = "terpeneProfile"
	TraitResinProduction   = "resinProduction"
	TraitAromaIntensity    = "aromaIntensity"
)

type traitMapping struct {
	category model.TraitCategory
	trait    string
}

// categoryTable maps normalized gene ids and trait names to a category and
// canonical trait name. Lookups are case-insensitive and tolerate underscore,
// hyphen, and space variants ("growth_rate", "growthRate", "Growth Rate").
var categoryTable = map[string]traitMapping{
	"leafsize":          {model.CategoryMorphological, TraitLeafSize},
	"stemthickness":     {model.CategoryMorphological, TraitStemThickness},
	"internodespacing":  {model.CategoryMorphological, TraitInternodeSpacing},
	"leafdensity":       {model.CategoryMorphological, TraitLeafDensity},
	"plantheight":       {model.CategoryMorphological, TraitPlantHeight},
	"rootmass":          {model.CategoryMorphological, TraitRootMass},
	"leafcolor":         {model.CategoryColor, TraitLeafColor},
	"budcolor":          {model.CategoryColor, TraitBudColor},
	"pigmentintensity":  {model.CategoryColor, TraitPigmentIntensity},
	"growthrate":        {model.CategoryGrowth, TraitGrowthRate},
	"yieldpotential":    {model.CategoryGrowth, TraitYieldPotential},
	"buddensity":        {model.CategoryGrowth, TraitBudDensity},
	"floweringtime":     {model.CategoryGrowth, TraitFloweringTime},
	"heattolerance":     {model.CategoryTolerance, TraitHeatTolerance},
	"coldtolerance":     {model.CategoryTolerance, TraitColdTolerance},
	"droughttolerance":  {model.CategoryTolerance, TraitDroughtTolerance},
	"humiditytolerance": {model.CategoryTolerance, TraitHumidityTolerance},
	"lighttolerance":    {model.CategoryTolerance, TraitLightTolerance},
	"co2tolerance":      {model.CategoryTolerance, TraitCO2Tolerance},
	"diseaseresistance": {model.CategoryTolerance, TraitDiseaseResistance},
	"stresstolerance":   {model.CategoryTolerance, TraitStressTolerance},
	"potency":           {model.CategoryBiochemical, TraitPotency},
	"terpeneprofile":    {model.CategoryBiochemical, TraitTerpeneProfile},
	"resinproduction":   {model.CategoryBiochemical, TraitResinProduction},
	"aromaintensity":    {model.CategoryBiochemical, TraitAromaIntensity},
}

// lookupCategory resolves a gene id or trait name. Unmapped names return
// false and are ignored by the caller.
func lookupCategory(name string) (traitMapping, bool) {
	m, ok := categoryTable[normalizeName(name)]
	return m, ok
}

func normalizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch r {
		case '_', '-', ' ', '.':
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}
