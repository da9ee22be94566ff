package model

import "math"

// Optimal condition bands. Values inside a band carry no stress; deviation
// is measured from the nearest band edge.
const (
	OptimalTemperatureMin = 20.0
	OptimalTemperatureMax = 28.0
	OptimalHumidityMin    = 40.0
	OptimalHumidityMax    = 70.0
	OptimalLightMin       = 400.0
	OptimalLightMax       = 800.0
	OptimalCO2Min         = 350.0
	OptimalCO2Max         = 1200.0
)

// TemperatureDeviation is the distance outside the optimal temperature band,
// signed (negative below the band).
func (e Environment) TemperatureDeviation() float64 {
	return bandDeviation(e.Temperature, OptimalTemperatureMin, OptimalTemperatureMax)
}

// HumidityDeviation is the signed distance outside the optimal humidity band.
func (e Environment) HumidityDeviation() float64 {
	return bandDeviation(e.Humidity, OptimalHumidityMin, OptimalHumidityMax)
}

// LightDeviation is the signed distance outside the optimal light band.
func (e Environment) LightDeviation() float64 {
	return bandDeviation(e.Light, OptimalLightMin, OptimalLightMax)
}

// CO2Deviation is the signed distance outside the optimal CO2 band.
func (e Environment) CO2Deviation() float64 {
	return bandDeviation(e.CO2, OptimalCO2Min, OptimalCO2Max)
}

// StressLevel is the mean of per-factor clamp01(|deviation|/bandWidth) over
// temperature, humidity, light, and CO2, in [0,1].
func (e Environment) StressLevel() float64 {
	sum := clampUnit(math.Abs(e.TemperatureDeviation()) / (OptimalTemperatureMax - OptimalTemperatureMin))
	sum += clampUnit(math.Abs(e.HumidityDeviation()) / (OptimalHumidityMax - OptimalHumidityMin))
	sum += clampUnit(math.Abs(e.LightDeviation()) / (OptimalLightMax - OptimalLightMin))
	sum += clampUnit(math.Abs(e.CO2Deviation()) / (OptimalCO2Max - OptimalCO2Min))
	return sum / 4
}

// bandDeviation returns 0 inside [lo, hi], the positive overshoot above hi,
// or the negative undershoot below lo.
func bandDeviation(v, lo, hi float64) float64 {
	if v > hi {
		return v - hi
	}
	if v < lo {
		return v - lo
	}
	return 0
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
