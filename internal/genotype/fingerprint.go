package genotype

import (
	"fmt"

	"phytogen/internal/model"
)

// NoEnvironmentFingerprint keys cache entries computed without an
// environment snapshot.
const NoEnvironmentFingerprint = "none"

// EnvironmentFingerprint collapses an environment snapshot into a stable
// cache key. Values are rounded to fixed precision so snapshots that differ
// only by measurement noise share one key.
func EnvironmentFingerprint(env *model.Environment) string {
	if env == nil {
		return NoEnvironmentFingerprint
	}
	return fmt.Sprintf("t%.1f_h%.1f_l%.0f_c%.0f_p%.2f",
		env.Temperature, env.Humidity, env.Light, env.CO2, env.Health)
}
