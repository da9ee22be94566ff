package adaptation

import (
	"math"
	"time"

	"phytogen/internal/genotype"
	"phytogen/internal/model"
)

// Config tunes the adaptation engine.
type Config struct {
	// BaseRate is adaptation progress accumulated per second of exposure.
	BaseRate float64 `yaml:"base_rate"`
	// ApplyThreshold is the progress level whose first crossing fires the
	// one-shot tolerance adjustment.
	ApplyThreshold float64 `yaml:"apply_threshold"`
	// StressThreshold gates stress acceleration, epigenetic accumulation,
	// and stress-event recording.
	StressThreshold float64 `yaml:"stress_threshold"`
	// EpigeneticRate scales per-exposure modification accumulation.
	EpigeneticRate float64 `yaml:"epigenetic_rate"`
	// ToleranceNudge scales the small per-event stress-response adjustment.
	ToleranceNudge float64 `yaml:"tolerance_nudge"`
	// AdaptationNudge scales the permanent adjustment fired at the apply
	// threshold.
	AdaptationNudge float64 `yaml:"adaptation_nudge"`
	// StressHistoryCap bounds each genotype's rolling stress history.
	StressHistoryCap int `yaml:"stress_history_cap"`
	// AdaptationCapacity seeds new stress profiles.
	AdaptationCapacity float64 `yaml:"adaptation_capacity"`
	// RecoveryRate seeds new stress profiles.
	RecoveryRate float64 `yaml:"recovery_rate"`
}

func DefaultConfig() Config {
	return Config{
		BaseRate:           0.01,
		ApplyThreshold:     0.5,
		StressThreshold:    0.3,
		EpigeneticRate:     0.1,
		ToleranceNudge:     0.02,
		AdaptationNudge:    0.2,
		StressHistoryCap:   100,
		AdaptationCapacity: 0.5,
		RecoveryRate:       0.1,
	}
}

// Epigenetic modification names and trigger thresholds.
const (
	ModHeatShock     = "heat_shock"
	ModLightStress   = "light_stress"
	ModDroughtStress = "drought_stress"

	triggerTempDeviation = 8.0
	triggerLightAbove    = 800.0
	triggerHumidityBelow = 40.0
)

// Engine tracks long-run acclimation, epigenetic accumulation, and short-run
// stress response. The three sub-states stay distinct objects because their
// lifecycle rules differ: one-shot apply, monotone accumulate, and rolling
// window. Not safe for concurrent use; the tick loop is the single writer.
type Engine struct {
	cfg Config
	obs model.Observer
	now func() time.Time

	states   map[string]*model.AdaptationState
	mods     map[string]*model.EpigeneticModification
	profiles map[string]*model.StressProfile
	history  []model.AdaptationHistoryEntry
}

func New(cfg Config, obs model.Observer) *Engine {
	if cfg.StressHistoryCap < 1 {
		cfg.StressHistoryCap = DefaultConfig().StressHistoryCap
	}
	return &Engine{
		cfg:      cfg,
		obs:      obs,
		now:      time.Now,
		states:   make(map[string]*model.AdaptationState),
		mods:     make(map[string]*model.EpigeneticModification),
		profiles: make(map[string]*model.StressProfile),
	}
}

// ProcessExposure drives one exposure tick of duration dt. Nil genotype or
// environment is a silent no-op, unlike breeding/expression which report
// failures explicitly.
func (e *Engine) ProcessExposure(g *model.Genotype, env *model.Environment, dt time.Duration) {
	if g == nil || env == nil {
		return
	}
	stress := env.StressLevel()
	e.updateAdaptation(g, env, stress, dt)
	e.updateEpigenetics(g, env, stress)
	e.updateStressResponse(g, env, stress, dt)
}

// Progress returns the adaptation progress for one (genotype, environment)
// key.
func (e *Engine) Progress(genotypeID string, env *model.Environment) (float64, bool) {
	state, ok := e.states[stateKey(genotypeID, env)]
	if !ok {
		return 0, false
	}
	return state.Progress, true
}

// State returns a copy of the adaptation state for one key.
func (e *Engine) State(genotypeID string, env *model.Environment) (model.AdaptationState, bool) {
	state, ok := e.states[stateKey(genotypeID, env)]
	if !ok {
		return model.AdaptationState{}, false
	}
	return *state, true
}

// Modifications returns copies of the epigenetic modifications accumulated
// for one genotype.
func (e *Engine) Modifications(genotypeID string) []model.EpigeneticModification {
	var out []model.EpigeneticModification
	for _, m := range e.mods {
		if m.GenotypeID == genotypeID {
			out = append(out, *m)
		}
	}
	return out
}

// Profile returns a copy of one genotype's stress profile.
func (e *Engine) Profile(genotypeID string) (model.StressProfile, bool) {
	p, ok := e.profiles[genotypeID]
	if !ok {
		return model.StressProfile{}, false
	}
	out := *p
	out.Events = append([]model.StressEvent(nil), p.Events...)
	return out, true
}

// History returns a copy of the adaptation apply ledger.
func (e *Engine) History() []model.AdaptationHistoryEntry {
	return append([]model.AdaptationHistoryEntry(nil), e.history...)
}

func (e *Engine) updateAdaptation(g *model.Genotype, env *model.Environment, stress float64, dt time.Duration) {
	key := stateKey(g.ID, env)
	state, ok := e.states[key]
	if !ok {
		state = &model.AdaptationState{
			GenotypeID:  g.ID,
			Fingerprint: genotype.EnvironmentFingerprint(env),
			StartedAt:   e.now(),
		}
		e.states[key] = state
	}

	rate := e.cfg.BaseRate * dt.Seconds()
	if stress > e.cfg.StressThreshold {
		rate *= 1 + stress
	}
	state.Progress = clamp01(state.Progress + rate)
	state.LastUpdate = e.now()

	if state.Applied || state.Progress < e.cfg.ApplyThreshold {
		return
	}
	// One-shot transition: Accumulating -> Applied. Never re-fires.
	state.Applied = true
	e.applyToleranceAdjustment(g, env, state)
}

// applyToleranceAdjustment permanently nudges the tolerance traits matching
// every factor that deviates from its optimum band, proportional to progress
// and deviation.
func (e *Engine) applyToleranceAdjustment(g *model.Genotype, env *model.Environment, state *model.AdaptationState) {
	for _, adj := range deviationAdjustments(env) {
		delta := e.cfg.AdaptationNudge * state.Progress * adj.severity
		if delta == 0 {
			continue
		}
		upsertTrait(g, adj.trait, delta)
		entry := model.AdaptationHistoryEntry{
			GenotypeID:  g.ID,
			Fingerprint: state.Fingerprint,
			Factor:      adj.factor,
			TraitName:   adj.trait,
			Delta:       delta,
			Progress:    state.Progress,
			OccurredAt:  e.now(),
		}
		e.history = append(e.history, entry)
		model.Emit(e.obs, model.Event{
			Kind:       "adaptation.applied",
			GenotypeID: g.ID,
			Detail:     adj.trait,
		})
	}
}

func (e *Engine) updateEpigenetics(g *model.Genotype, env *model.Environment, stress float64) {
	if stress <= e.cfg.StressThreshold {
		return
	}
	gain := e.cfg.EpigeneticRate * stress
	if math.Abs(env.TemperatureDeviation()) > triggerTempDeviation {
		e.accumulate(g, ModHeatShock, gain)
	}
	if env.Light > triggerLightAbove {
		e.accumulate(g, ModLightStress, gain)
	}
	if env.Humidity < triggerHumidityBelow {
		e.accumulate(g, ModDroughtStress, gain)
	}
}

// accumulate raises a named modification's strength monotonically and
// mirrors it into the genotype's epigenetic map. There is no decay path.
func (e *Engine) accumulate(g *model.Genotype, name string, gain float64) {
	key := g.ID + "|" + name
	mod, ok := e.mods[key]
	if !ok {
		mod = &model.EpigeneticModification{
			GenotypeID:     g.ID,
			Name:           name,
			FirstTriggered: e.now(),
		}
		e.mods[key] = mod
	}
	mod.Strength = clamp01(mod.Strength + gain)
	mod.LastUpdated = e.now()

	if g.Epigenetics == nil {
		g.Epigenetics = map[string]float64{}
	}
	g.Epigenetics[name] = mod.Strength
}

func (e *Engine) updateStressResponse(g *model.Genotype, env *model.Environment, stress float64, dt time.Duration) {
	if stress <= e.cfg.StressThreshold {
		return
	}
	profile, ok := e.profiles[g.ID]
	if !ok {
		profile = &model.StressProfile{
			GenotypeID:         g.ID,
			AdaptationCapacity: e.cfg.AdaptationCapacity,
			RecoveryRate:       e.cfg.RecoveryRate,
		}
		e.profiles[g.ID] = profile
	}

	factor := dominantStressFactor(env)
	now := e.now()

	// Hormesis: a handful of recent events primes the response, a flood of
	// them exhausts it.
	recent := 0
	cutoff := now.Add(-24 * time.Hour)
	for _, ev := range profile.Events {
		if ev.Timestamp.After(cutoff) {
			recent++
		}
	}
	response := stress * profile.AdaptationCapacity
	switch {
	case recent > 3:
		response *= 0.8
	case recent > 1:
		response *= 1.2
	}

	profile.Events = append(profile.Events, model.StressEvent{
		Type:      factor.factor,
		Level:     stress,
		Timestamp: now,
		Duration:  dt,
	})
	if len(profile.Events) > e.cfg.StressHistoryCap {
		profile.Events = profile.Events[len(profile.Events)-e.cfg.StressHistoryCap:]
	}

	upsertTrait(g, factor.trait, response*e.cfg.ToleranceNudge)
	model.Emit(e.obs, model.Event{
		Kind:       "adaptation.stress",
		GenotypeID: g.ID,
		Detail:     factor.factor,
	})
}

func stateKey(genotypeID string, env *model.Environment) string {
	return genotypeID + "|" + genotype.EnvironmentFingerprint(env)
}

// upsertTrait adds delta to a named genotype trait, creating it when absent.
func upsertTrait(g *model.Genotype, name string, delta float64) {
	for i := range g.Traits {
		if g.Traits[i].Name == name {
			g.Traits[i].ExpressedValue = clampTrait(g.Traits[i].ExpressedValue + delta)
			return
		}
	}
	g.Traits = append(g.Traits, model.GeneticTrait{
		Name:           name,
		ExpressedValue: clampTrait(delta),
		Dominance:      0.5,
	})
}

func clampTrait(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 2 {
		return 2
	}
	return v
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
