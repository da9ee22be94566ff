package adaptation

import (
	"math"

	"phytogen/internal/model"
)

// Stress factor names recorded in stress events and history entries.
const (
	FactorTemperature = "temperature"
	FactorHumidity    = "humidity"
	FactorLight       = "light"
	FactorCO2         = "co2"
	FactorGeneral     = "general"
)

// Tolerance trait names written onto genotypes. Expression folds these into
// the tolerance category.
const (
	TraitHeatTolerance     = "heat_tolerance"
	TraitColdTolerance     = "cold_tolerance"
	TraitDroughtTolerance  = "drought_tolerance"
	TraitHumidityTolerance = "humidity_tolerance"
	TraitLightTolerance    = "light_tolerance"
	TraitCO2Tolerance      = "co2_tolerance"
	TraitStressTolerance   = "stress_tolerance"
)

type factorAdjustment struct {
	factor   string
	trait    string
	severity float64
}

// deviationAdjustments lists every factor currently outside its optimal
// band, paired with the tolerance trait it trains and a severity normalized
// by band width.
func deviationAdjustments(env *model.Environment) []factorAdjustment {
	var out []factorAdjustment
	if dev := env.TemperatureDeviation(); dev != 0 {
		trait := TraitHeatTolerance
		if dev < 0 {
			trait = TraitColdTolerance
		}
		out = append(out, factorAdjustment{
			factor:   FactorTemperature,
			trait:    trait,
			severity: severity(dev, model.OptimalTemperatureMax-model.OptimalTemperatureMin),
		})
	}
	if dev := env.HumidityDeviation(); dev != 0 {
		trait := TraitHumidityTolerance
		if dev < 0 {
			trait = TraitDroughtTolerance
		}
		out = append(out, factorAdjustment{
			factor:   FactorHumidity,
			trait:    trait,
			severity: severity(dev, model.OptimalHumidityMax-model.OptimalHumidityMin),
		})
	}
	if dev := env.LightDeviation(); dev != 0 {
		out = append(out, factorAdjustment{
			factor:   FactorLight,
			trait:    TraitLightTolerance,
			severity: severity(dev, model.OptimalLightMax-model.OptimalLightMin),
		})
	}
	if dev := env.CO2Deviation(); dev != 0 {
		out = append(out, factorAdjustment{
			factor:   FactorCO2,
			trait:    TraitCO2Tolerance,
			severity: severity(dev, model.OptimalCO2Max-model.OptimalCO2Min),
		})
	}
	return out
}

// dominantStressFactor picks the factor with the highest normalized
// deviation. Ties resolve in fixed priority order: temperature, humidity,
// light, CO2. All-zero deviations fall through to a general entry so stress
// from combined mild factors still registers.
func dominantStressFactor(env *model.Environment) factorAdjustment {
	adjs := deviationAdjustments(env)
	if len(adjs) == 0 {
		return factorAdjustment{factor: FactorGeneral, trait: TraitStressTolerance}
	}
	best := adjs[0]
	for _, adj := range adjs[1:] {
		if adj.severity > best.severity {
			best = adj
		}
	}
	return best
}

func severity(dev, bandWidth float64) float64 {
	return clamp01(math.Abs(dev) / bandWidth)
}
