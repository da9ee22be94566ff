package expression

import (
	"errors"
	"math"
	"math/rand"
	"time"

	"phytogen/internal/cache"
	"phytogen/internal/genotype"
	"phytogen/internal/model"
)

var (
	ErrNilGenotype = errors.New("genotype is required")
	ErrNilRand     = errors.New("random source is required")
)

// Config tunes the expression engine.
type Config struct {
	// CacheCap bounds the phenotype cache; least-recently-used entries are
	// evicted past it.
	CacheCap int `yaml:"cache_cap"`
	// EnvironmentalInfluence scales every environmental response nudge.
	EnvironmentalInfluence float64 `yaml:"environmental_influence"`
	// PlasticityEnabled turns on stochastic phenotypic plasticity.
	PlasticityEnabled bool `yaml:"plasticity_enabled"`
	// PlasticityCoefficient scales plasticity magnitude.
	PlasticityCoefficient float64 `yaml:"plasticity_coefficient"`
	// InteractionsEnabled turns on the fixed trait-interaction rule set.
	InteractionsEnabled bool `yaml:"interactions_enabled"`
	// InteractionStrength scales every trait-interaction adjustment.
	InteractionStrength float64 `yaml:"interaction_strength"`
}

func DefaultConfig() Config {
	return Config{
		CacheCap:               4096,
		EnvironmentalInfluence: 0.3,
		PlasticityEnabled:      true,
		PlasticityCoefficient:  0.5,
		InteractionsEnabled:    true,
		InteractionStrength:    0.1,
	}
}

// Engine derives phenotypes from genotypes under optional environmental
// influence. Computed phenotypes are cached by (genotype id, environment
// fingerprint); a hit returns the original instance bit-for-bit.
type Engine struct {
	cfg   Config
	rng   *rand.Rand
	obs   model.Observer
	cache *cache.LRU[string, *model.Phenotype]

	hits   int
	misses int
}

func New(cfg Config, rng *rand.Rand, obs model.Observer) (*Engine, error) {
	if rng == nil {
		return nil, ErrNilRand
	}
	if cfg.CacheCap < 1 {
		return nil, errors.New("cache cap must be >= 1")
	}
	return &Engine{
		cfg:   cfg,
		rng:   rng,
		obs:   obs,
		cache: cache.New[string, *model.Phenotype](cfg.CacheCap),
	}, nil
}

// Express derives the observable trait set for a genotype, optionally under
// an environment snapshot. A nil genotype reports a failure and never caches.
func (e *Engine) Express(g *model.Genotype, env *model.Environment) (*model.Phenotype, error) {
	if g == nil {
		model.Emit(e.obs, model.Event{
			Kind:    "expression.failed",
			Detail:  "genotype is required",
			Failure: model.FailureInvalidInput,
		})
		return nil, ErrNilGenotype
	}

	key := g.ID + "|" + genotype.EnvironmentFingerprint(env)
	if cached, ok := e.cache.Get(key); ok {
		e.hits++
		return cached, nil
	}
	e.misses++

	p := e.compute(g, env)
	e.cache.Put(key, p)
	model.Emit(e.obs, model.Event{Kind: "expression.computed", GenotypeID: g.ID})
	return p, nil
}

// ClearCache drops every cached phenotype. This is the only invalidation
// path besides LRU capacity eviction.
func (e *Engine) ClearCache() {
	e.cache.Clear()
}

// CacheStats returns hit/miss counters for analytics.
func (e *Engine) CacheStats() (hits, misses int) {
	return e.hits, e.misses
}

func (e *Engine) compute(g *model.Genotype, env *model.Environment) *model.Phenotype {
	p := &model.Phenotype{
		GenotypeID:    g.ID,
		Morphological: map[string]float64{},
		Color:         map[string]float64{},
		Growth:        map[string]float64{},
		Tolerance:     map[string]float64{},
		Biochemical:   map[string]float64{},
		ComputedAt:    time.Now(),
	}
	if env != nil {
		snapshot := *env
		p.Environment = &snapshot
	}

	e.expressBase(g, p)
	if env != nil {
		e.applyEnvironment(p, *env)
		if e.cfg.PlasticityEnabled {
			e.applyPlasticity(g, p, *env)
		}
	}
	if e.cfg.InteractionsEnabled {
		e.applyInteractions(p)
	}
	e.computeAggregates(p)
	return p
}

// expressBase picks, per gene, the allele maximizing dominance*expression and
// folds genotype-level named traits into the same category maps. Unmapped
// names are ignored.
func (e *Engine) expressBase(g *model.Genotype, p *model.Phenotype) {
	for geneID, set := range g.Alleles {
		mapping, ok := lookupCategory(geneID)
		if !ok {
			continue
		}
		var best *model.Allele
		bestScore := -1.0
		for i := range set {
			score := set[i].Dominance * set[i].Expression
			if score > bestScore {
				bestScore = score
				best = &set[i]
			}
		}
		if best == nil {
			continue
		}
		p.CategoryMap(mapping.category)[mapping.trait] = best.Expression * (1 + best.Dominance)
	}
	for _, t := range g.Traits {
		mapping, ok := lookupCategory(t.Name)
		if !ok {
			continue
		}
		p.CategoryMap(mapping.category)[mapping.trait] = t.ExpressedValue
	}
}

// applyEnvironment runs the per-factor response functions. Each nudges
// specific category entries by normalized deviation times the environmental
// influence coefficient; only traits the genotype expresses are touched.
func (e *Engine) applyEnvironment(p *model.Phenotype, env model.Environment) {
	coef := e.cfg.EnvironmentalInfluence

	if dev := env.TemperatureDeviation(); dev > 0 {
		n := norm(dev, model.OptimalTemperatureMax-model.OptimalTemperatureMin)
		nudge(p.Morphological, TraitLeafSize, -n*coef)
		nudge(p.Morphological, TraitStemThickness, n*coef*0.5)
	} else if dev < 0 {
		n := norm(-dev, model.OptimalTemperatureMax-model.OptimalTemperatureMin)
		nudge(p.Growth, TraitGrowthRate, -n*coef)
		nudge(p.Growth, TraitFloweringTime, n*coef*0.5)
	}

	if dev := env.LightDeviation(); dev > 0 {
		n := norm(dev, model.OptimalLightMax-model.OptimalLightMin)
		nudge(p.Growth, TraitBudDensity, n*coef)
		nudge(p.Biochemical, TraitPotency, n*coef*0.5)
	} else if dev < 0 {
		n := norm(-dev, model.OptimalLightMax-model.OptimalLightMin)
		nudge(p.Morphological, TraitInternodeSpacing, n*coef)
		nudge(p.Morphological, TraitStemThickness, -n*coef*0.5)
	}

	if dev := env.HumidityDeviation(); dev > 0 {
		n := norm(dev, model.OptimalHumidityMax-model.OptimalHumidityMin)
		nudge(p.Tolerance, TraitDiseaseResistance, -n*coef)
		nudge(p.Morphological, TraitLeafDensity, n*coef*0.25)
	} else if dev < 0 {
		n := norm(-dev, model.OptimalHumidityMax-model.OptimalHumidityMin)
		nudge(p.Morphological, TraitLeafSize, -n*coef*0.5)
		nudge(p.Growth, TraitGrowthRate, -n*coef*0.5)
	}

	// Aggregate health proxy: poor health drags growth multiplicatively.
	if env.Health > 0 && env.Health < 0.7 {
		scale := 1 - (0.7-env.Health)*coef
		scaleEntry(p.Growth, TraitGrowthRate, scale)
		scaleEntry(p.Growth, TraitYieldPotential, scale)
	}
}

// applyPlasticity perturbs morphological traits (full magnitude) and growth
// traits (half magnitude) by symmetric random noise scaled by genetic
// diversity and environmental stress.
func (e *Engine) applyPlasticity(g *model.Genotype, p *model.Phenotype, env model.Environment) {
	magnitude := genotype.GeneticDiversity(*g) * env.StressLevel() * e.cfg.PlasticityCoefficient
	if magnitude == 0 {
		return
	}
	for name := range p.Morphological {
		nudge(p.Morphological, name, (e.rng.Float64()*2-1)*magnitude)
	}
	for name := range p.Growth {
		nudge(p.Growth, name, (e.rng.Float64()*2-1)*magnitude/2)
	}
}

// applyInteractions runs the fixed rule set: elevated growth rate reduces
// bud density, elevated leaf density reduces disease resistance, elevated
// stem thickness increases leaf size.
func (e *Engine) applyInteractions(p *model.Phenotype) {
	strength := e.cfg.InteractionStrength
	if v, ok := p.Growth[TraitGrowthRate]; ok && v > 1 {
		nudge(p.Growth, TraitBudDensity, -(v-1)*strength)
	}
	if v, ok := p.Morphological[TraitLeafDensity]; ok && v > 1 {
		nudge(p.Tolerance, TraitDiseaseResistance, -(v-1)*strength)
	}
	if v, ok := p.Morphological[TraitStemThickness]; ok && v > 1 {
		nudge(p.Morphological, TraitLeafSize, (v-1)*strength)
	}
}

func (e *Engine) computeAggregates(p *model.Phenotype) {
	p.OverallVigor = meanOf(p.Growth, 1.0, TraitGrowthRate, TraitYieldPotential)
	p.StressResistance = meanOf(p.Tolerance, 0.5,
		TraitHeatTolerance, TraitColdTolerance, TraitDroughtTolerance,
		TraitDiseaseResistance, TraitStressTolerance)
}

func meanOf(m map[string]float64, fallback float64, names ...string) float64 {
	sum := 0.0
	n := 0
	for _, name := range names {
		if v, ok := m[name]; ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return fallback
	}
	return sum / float64(n)
}

// nudge adjusts an existing entry, flooring at zero. Absent traits are not
// created by environmental response.
func nudge(m map[string]float64, name string, delta float64) {
	v, ok := m[name]
	if !ok {
		return
	}
	m[name] = math.Max(0, v+delta)
}

func scaleEntry(m map[string]float64, name string, factor float64) {
	if v, ok := m[name]; ok {
		m[name] = math.Max(0, v*factor)
	}
}

func norm(dev, band float64) float64 {
	n := dev / band
	if n > 1 {
		return 1
	}
	return n
}
