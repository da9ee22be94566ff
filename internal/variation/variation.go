package variation

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"phytogen/internal/genotype"
	"phytogen/internal/model"
)

var (
	ErrNilGenotype    = errors.New("genotype is required")
	ErrNilEnvironment = errors.New("environment is required")
	ErrNilRand        = errors.New("random source is required")
	ErrBadWeights     = errors.New("mutation weights must sum to 1")
)

// Mutation kinds drawn from the weighted distribution in ApplyMutations.
const (
	KindPointMutation   = "point_mutation"
	KindDominanceShift  = "dominance_shift"
	KindStabilityChange = "stability_change"
	KindColorMutation   = "color_mutation"
)

// MutationWeights is the discrete distribution over mutation kinds. The
// weights must sum to 1.
type MutationWeights struct {
	PointMutation   float64 `yaml:"point_mutation"`
	DominanceShift  float64 `yaml:"dominance_shift"`
	StabilityChange float64 `yaml:"stability_change"`
	ColorMutation   float64 `yaml:"color_mutation"`
}

func (w MutationWeights) sum() float64 {
	return w.PointMutation + w.DominanceShift + w.StabilityChange + w.ColorMutation
}

// Config tunes the variation engine.
type Config struct {
	// VariationIntensity scales the uniform noise GenerateVariation applies
	// to cloned alleles.
	VariationIntensity float64 `yaml:"variation_intensity"`
	// MutationMagnitude bounds the perturbation a single mutation applies.
	MutationMagnitude float64 `yaml:"mutation_magnitude"`
	// PressureScale bounds the multiplicative nudge of environmental
	// selection pressure.
	PressureScale float64         `yaml:"pressure_scale"`
	Weights       MutationWeights `yaml:"mutation_weights"`
}

// DefaultConfig returns the tuning used when no config file overrides it.
func DefaultConfig() Config {
	return Config{
		VariationIntensity: 0.05,
		MutationMagnitude:  0.1,
		PressureScale:      0.05,
		Weights: MutationWeights{
			PointMutation:   0.4,
			DominanceShift:  0.25,
			StabilityChange: 0.2,
			ColorMutation:   0.15,
		},
	}
}

// Engine generates stochastic allele-level variation. All operations are
// pure functions of (state, random source); nothing outside the passed
// genotype is mutated.
type Engine struct {
	cfg Config
	rng *rand.Rand
	obs model.Observer
}

func New(cfg Config, rng *rand.Rand, obs model.Observer) (*Engine, error) {
	if rng == nil {
		return nil, ErrNilRand
	}
	if math.Abs(cfg.Weights.sum()-1) > 1e-9 {
		return nil, fmt.Errorf("%w: got %v", ErrBadWeights, cfg.Weights.sum())
	}
	return &Engine{cfg: cfg, rng: rng, obs: obs}, nil
}

// GenerateVariation clones every allele of the source under a fresh identity
// with bounded uniform perturbation of expression, dominance, and color, and
// returns a new genotype one generation above the source with a single
// parent reference.
func (e *Engine) GenerateVariation(g *model.Genotype) (model.Genotype, error) {
	if g == nil {
		return model.Genotype{}, ErrNilGenotype
	}
	if len(g.Alleles) == 0 {
		return model.Genotype{}, genotype.ErrNoAlleles
	}

	out := genotype.CloneGenotype(*g)
	out.ID = model.NewID()
	out.Generation = g.Generation + 1
	out.ParentIDs = []string{g.ID}
	out.Origin = model.OriginVariation
	out.CreatedAt = time.Now()

	intensity := e.cfg.VariationIntensity
	for geneID, set := range out.Alleles {
		for i := range set {
			set[i].ID = model.NewID()
			set[i].Expression = clamp01(set[i].Expression + e.noise(intensity))
			set[i].Dominance = clamp01(set[i].Dominance + e.noise(intensity))
			if set[i].Color != nil {
				set[i].Color.Hue = wrapHue(set[i].Color.Hue + e.noise(intensity*60))
				set[i].Color.Saturation = clamp01(set[i].Color.Saturation + e.noise(intensity))
				set[i].Color.Value = clamp01(set[i].Color.Value + e.noise(intensity))
			}
			set[i].Origin = string(model.OriginVariation)
		}
		out.Alleles[geneID] = set
	}

	model.Emit(e.obs, model.Event{Kind: "variation.generated", GenotypeID: out.ID})
	return out, nil
}

// ApplyMutations runs one independent Bernoulli trial per allele at its
// mutation rate. Successful trials draw a mutation kind from the weighted
// distribution, apply a bounded perturbation to the corresponding field,
// clamp to the valid range, and append a provenance tag.
func (e *Engine) ApplyMutations(g *model.Genotype) error {
	if g == nil {
		return ErrNilGenotype
	}
	mutated := 0
	for geneID, set := range g.Alleles {
		for i := range set {
			if e.rng.Float64() >= set[i].MutationRate {
				continue
			}
			kind := e.pickKind()
			delta := e.noise(e.cfg.MutationMagnitude)
			field := e.mutateField(&set[i], kind, delta)
			set[i].Mutations = append(set[i].Mutations, model.MutationEvent{
				Kind:       kind,
				Field:      field,
				Delta:      delta,
				OccurredAt: time.Now(),
			})
			mutated++
		}
		g.Alleles[geneID] = set
	}
	if mutated > 0 {
		model.Emit(e.obs, model.Event{
			Kind:       "variation.mutated",
			GenotypeID: g.ID,
			Detail:     fmt.Sprintf("%d alleles", mutated),
		})
	}
	return nil
}

// ApplyEnvironmentalPressure nudges allele expression and stability up when
// conditions sit near the favorable band midpoints and down when they fall
// outside the bands.
func (e *Engine) ApplyEnvironmentalPressure(g *model.Genotype, env *model.Environment) error {
	if g == nil {
		return ErrNilGenotype
	}
	if env == nil {
		return ErrNilEnvironment
	}

	favorability := environmentFavorability(*env)
	// Favorability 0.5 is neutral; the multiplier swings at most
	// PressureScale either way.
	multiplier := 1 + (favorability-0.5)*2*e.cfg.PressureScale
	for geneID, set := range g.Alleles {
		for i := range set {
			set[i].Expression = clamp01(set[i].Expression * multiplier)
			set[i].Stability = clamp01(set[i].Stability * multiplier)
		}
		g.Alleles[geneID] = set
	}
	model.Emit(e.obs, model.Event{
		Kind:       "variation.pressure",
		GenotypeID: g.ID,
		Detail:     fmt.Sprintf("favorability %.3f", favorability),
	})
	return nil
}

func (e *Engine) pickKind() string {
	r := e.rng.Float64()
	w := e.cfg.Weights
	switch {
	case r < w.PointMutation:
		return KindPointMutation
	case r < w.PointMutation+w.DominanceShift:
		return KindDominanceShift
	case r < w.PointMutation+w.DominanceShift+w.StabilityChange:
		return KindStabilityChange
	default:
		return KindColorMutation
	}
}

func (e *Engine) mutateField(a *model.Allele, kind string, delta float64) string {
	switch kind {
	case KindPointMutation:
		a.Expression = clamp01(a.Expression + delta)
		return "expression"
	case KindDominanceShift:
		a.Dominance = clamp01(a.Dominance + delta)
		return "dominance"
	case KindStabilityChange:
		a.Stability = clamp01(a.Stability + delta)
		return "stability"
	default:
		if a.Color == nil {
			a.Color = &model.ColorPayload{Saturation: 0.5, Value: 0.5}
		}
		a.Color.Hue = wrapHue(a.Color.Hue + delta*360)
		return "color.hue"
	}
}

// noise returns a uniform sample in [-scale, scale].
func (e *Engine) noise(scale float64) float64 {
	return (e.rng.Float64()*2 - 1) * scale
}

// environmentFavorability scores conditions against the optimal band
// midpoints: midpoints score 1, band edges 0.5, and scores decay toward 0
// outside the bands.
func environmentFavorability(env model.Environment) float64 {
	t := bandScore(env.Temperature, model.OptimalTemperatureMin, model.OptimalTemperatureMax)
	h := bandScore(env.Humidity, model.OptimalHumidityMin, model.OptimalHumidityMax)
	l := bandScore(env.Light, model.OptimalLightMin, model.OptimalLightMax)
	return (t + h + l) / 3
}

func bandScore(v, lo, hi float64) float64 {
	mid := (lo + hi) / 2
	return clamp01(1 - math.Abs(v-mid)/(hi-lo))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func wrapHue(h float64) float64 {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	return h
}
