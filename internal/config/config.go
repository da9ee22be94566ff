package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"phytogen/internal/adaptation"
	"phytogen/internal/breeding"
	"phytogen/internal/expression"
	"phytogen/internal/variation"
)

// Config aggregates per-engine tuning for one simulation session.
type Config struct {
	Variation  variation.Config  `yaml:"variation"`
	Breeding   breeding.Config   `yaml:"breeding"`
	Expression expression.Config `yaml:"expression"`
	Adaptation adaptation.Config `yaml:"adaptation"`
}

// Default returns a configuration with every engine's defaults.
func Default() *Config {
	return &Config{
		Variation:  variation.DefaultConfig(),
		Breeding:   breeding.DefaultConfig(),
		Expression: expression.DefaultConfig(),
		Adaptation: adaptation.DefaultConfig(),
	}
}

// Load reads a YAML file and overlays it on the defaults, so partial files
// only override the keys they name.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the engines would silently misbehave on.
func (c *Config) Validate() error {
	if c.Breeding.GenerationCeiling < 1 {
		return fmt.Errorf("breeding generation_ceiling must be >= 1, got %d", c.Breeding.GenerationCeiling)
	}
	if c.Breeding.CrossoverRate < 0 || c.Breeding.CrossoverRate > 1 {
		return fmt.Errorf("breeding crossover_rate must be in [0,1], got %v", c.Breeding.CrossoverRate)
	}
	if c.Breeding.HybridVigorMultiplier < 1 {
		return fmt.Errorf("breeding hybrid_vigor_multiplier must be >= 1, got %v", c.Breeding.HybridVigorMultiplier)
	}
	if c.Breeding.InbreedingPenalty <= 0 || c.Breeding.InbreedingPenalty > 1 {
		return fmt.Errorf("breeding inbreeding_penalty must be in (0,1], got %v", c.Breeding.InbreedingPenalty)
	}
	if c.Variation.VariationIntensity < 0 || c.Variation.VariationIntensity > 1 {
		return fmt.Errorf("variation variation_intensity must be in [0,1], got %v", c.Variation.VariationIntensity)
	}
	if c.Expression.CacheCap < 1 {
		return fmt.Errorf("expression cache_cap must be >= 1, got %d", c.Expression.CacheCap)
	}
	if c.Expression.EnvironmentalInfluence < 0 || c.Expression.EnvironmentalInfluence > 1 {
		return fmt.Errorf("expression environmental_influence must be in [0,1], got %v", c.Expression.EnvironmentalInfluence)
	}
	if c.Adaptation.BaseRate < 0 {
		return fmt.Errorf("adaptation base_rate must be >= 0, got %v", c.Adaptation.BaseRate)
	}
	if c.Adaptation.ApplyThreshold <= 0 || c.Adaptation.ApplyThreshold > 1 {
		return fmt.Errorf("adaptation apply_threshold must be in (0,1], got %v", c.Adaptation.ApplyThreshold)
	}
	if c.Adaptation.StressHistoryCap < 1 {
		return fmt.Errorf("adaptation stress_history_cap must be >= 1, got %d", c.Adaptation.StressHistoryCap)
	}
	return nil
}
