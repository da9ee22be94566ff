package breeding

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"phytogen/internal/cache"
	"phytogen/internal/genotype"
	"phytogen/internal/model"
	"phytogen/internal/variation"
)

var (
	ErrNilParent    = errors.New("both parents are required")
	ErrNilRand      = errors.New("random source is required")
	ErrNilVariation = errors.New("variation engine is required")
	ErrQueueFull    = errors.New("breeding queue is full")
)

const compatibilityFloor = 0.3

// Config tunes the breeding engine.
type Config struct {
	// GenerationCeiling rejects parents at or above this generation.
	GenerationCeiling int `yaml:"generation_ceiling"`
	// CrossoverRate is the per-gene probability of swapping expression
	// between the two inherited alleles.
	CrossoverRate float64 `yaml:"crossover_rate"`
	// MutationEnabled runs the mutation engine on every offspring.
	MutationEnabled bool `yaml:"mutation_enabled"`
	// HybridVigorMultiplier is the base outcross trait multiplier, scaled by
	// genetic distance.
	HybridVigorMultiplier float64 `yaml:"hybrid_vigor_multiplier"`
	// InbreedingPenalty multiplies offspring traits of closely related pairs.
	InbreedingPenalty float64 `yaml:"inbreeding_penalty"`
	// HistoryCap bounds the breeding ledger; the oldest record is evicted
	// past the cap.
	HistoryCap int `yaml:"history_cap"`
	// CompatibilityCacheCap bounds the per-strain-pair score cache.
	CompatibilityCacheCap int `yaml:"compatibility_cache_cap"`
	// QueueCap bounds pending batched operations.
	QueueCap int `yaml:"queue_cap"`
	// DrainPerTick is how many queued operations one tick completes.
	DrainPerTick int `yaml:"drain_per_tick"`
}

func DefaultConfig() Config {
	return Config{
		GenerationCeiling:     12,
		CrossoverRate:         0.3,
		MutationEnabled:       true,
		HybridVigorMultiplier: 1.2,
		InbreedingPenalty:     0.8,
		HistoryCap:            256,
		CompatibilityCacheCap: 512,
		QueueCap:              64,
		DrainPerTick:          5,
	}
}

// Stats carries the rolling counters analytics consume. Counters move on
// both success and failure paths.
type Stats struct {
	Attempted       int           `json:"attempted"`
	Succeeded       int           `json:"succeeded"`
	Failed          int           `json:"failed"`
	AverageDuration time.Duration `json:"average_duration"`
}

// Result is the structured outcome of one breeding attempt. Raw faults never
// escape the engine; failures carry a kind and human-readable reason.
type Result struct {
	Record             model.BreedingRecord
	Offspring          []model.Genotype
	Success            bool
	FailureKind        model.FailureKind
	Reason             string
	CompatibilityScore float64
}

type request struct {
	parentA *model.Genotype
	parentB *model.Genotype
	method  model.BreedingMethod
}

// Engine performs compatibility-gated Mendelian breeding. Not safe for
// concurrent use; the host tick loop is the single writer.
type Engine struct {
	cfg Config
	rng *rand.Rand
	mut *variation.Engine
	obs model.Observer

	compat  *cache.LRU[string, float64]
	history []model.BreedingRecord
	lineage map[string]model.LineageEntry
	queue   []request
	stats   Stats
}

func New(cfg Config, rng *rand.Rand, mut *variation.Engine, obs model.Observer) (*Engine, error) {
	if rng == nil {
		return nil, ErrNilRand
	}
	if mut == nil {
		return nil, ErrNilVariation
	}
	if cfg.GenerationCeiling < 1 {
		return nil, fmt.Errorf("generation ceiling must be >= 1, got %d", cfg.GenerationCeiling)
	}
	if cfg.HistoryCap < 1 || cfg.QueueCap < 1 || cfg.DrainPerTick < 1 {
		return nil, errors.New("history cap, queue cap, and drain per tick must be >= 1")
	}
	return &Engine{
		cfg:     cfg,
		rng:     rng,
		mut:     mut,
		obs:     obs,
		compat:  cache.New[string, float64](cfg.CompatibilityCacheCap),
		lineage: make(map[string]model.LineageEntry),
	}, nil
}

// Breed runs the validate -> generate -> record -> report state machine for
// one parent pair.
func (e *Engine) Breed(parentA, parentB *model.Genotype, method model.BreedingMethod) Result {
	started := time.Now()
	e.stats.Attempted++

	res := e.breed(parentA, parentB, method, started)
	e.observeDuration(time.Since(started))

	if res.Success {
		e.stats.Succeeded++
		e.recordSuccess(&res)
		model.Emit(e.obs, model.Event{
			Kind:   "breeding.succeeded",
			Detail: fmt.Sprintf("%d offspring via %s", len(res.Offspring), method),
		})
	} else {
		e.stats.Failed++
		model.Emit(e.obs, model.Event{
			Kind:    "breeding.failed",
			Detail:  res.Reason,
			Failure: res.FailureKind,
		})
	}
	return res
}

func (e *Engine) breed(parentA, parentB *model.Genotype, method model.BreedingMethod, started time.Time) Result {
	if parentA == nil || parentB == nil {
		return failure(model.FailureInvalidInput, "both parents are required")
	}
	if len(parentA.Alleles) == 0 || len(parentB.Alleles) == 0 {
		return failure(model.FailureInvalidInput, "parents must carry alleles")
	}

	if parentA.ID == parentB.ID && method != model.SelfPollination {
		return failure(model.FailureIncompatibleBreeding,
			"same-genotype crossing requires self-pollination")
	}
	if parentA.Generation >= e.cfg.GenerationCeiling || parentB.Generation >= e.cfg.GenerationCeiling {
		return failure(model.FailureIncompatibleBreeding,
			fmt.Sprintf("parent generation at or above ceiling %d", e.cfg.GenerationCeiling))
	}

	score := e.compatibilityScore(*parentA, *parentB)
	if score <= compatibilityFloor {
		return Result{
			FailureKind:        model.FailureIncompatibleBreeding,
			Reason:             fmt.Sprintf("compatibility score %.3f at or below %.1f", score, compatibilityFloor),
			CompatibilityScore: score,
		}
	}

	count := e.offspringCount(method)
	offspring := make([]model.Genotype, 0, count)
	distance := genotype.GeneticDistance(*parentA, *parentB)
	multiplier := e.traitMultiplier(*parentA, *parentB, distance)
	for i := 0; i < count; i++ {
		child, err := e.generateOffspring(*parentA, *parentB, multiplier)
		if err != nil {
			return failure(model.FailureInternal, fmt.Sprintf("offspring generation: %v", err))
		}
		offspring = append(offspring, child)
	}

	ids := make([]string, len(offspring))
	for i, c := range offspring {
		ids[i] = c.ID
	}
	return Result{
		Record: model.BreedingRecord{
			VersionedRecord: model.VersionedRecord{
				SchemaVersion: genotype.SupportedSchemaVersion,
				CodecVersion:  genotype.SupportedCodecVersion,
			},
			ID:              model.NewID(),
			ParentAID:       parentA.ID,
			ParentBID:       parentB.ID,
			Method:          method,
			Timestamp:       started,
			OffspringIDs:    ids,
			Success:         true,
			Duration:        time.Since(started),
			PredictedTraits: predictTraits(*parentA, *parentB),
		},
		Offspring:          offspring,
		Success:            true,
		CompatibilityScore: score,
	}
}

// Enqueue adds a breeding operation to the FIFO batch queue. The queue is
// bounded; rejected operations are the only way to avoid queued work.
func (e *Engine) Enqueue(parentA, parentB *model.Genotype, method model.BreedingMethod) error {
	if parentA == nil || parentB == nil {
		return ErrNilParent
	}
	if len(e.queue) >= e.cfg.QueueCap {
		return ErrQueueFull
	}
	e.queue = append(e.queue, request{parentA: parentA, parentB: parentB, method: method})
	return nil
}

// DrainTick completes up to DrainPerTick queued operations in FIFO order.
func (e *Engine) DrainTick() []Result {
	n := e.cfg.DrainPerTick
	if n > len(e.queue) {
		n = len(e.queue)
	}
	if n == 0 {
		return nil
	}
	results := make([]Result, 0, n)
	for _, req := range e.queue[:n] {
		results = append(results, e.Breed(req.parentA, req.parentB, req.method))
	}
	e.queue = append(e.queue[:0], e.queue[n:]...)
	return results
}

// Pending returns the number of queued operations.
func (e *Engine) Pending() int {
	return len(e.queue)
}

// History returns a copy of the breeding ledger, oldest first.
func (e *Engine) History() []model.BreedingRecord {
	return append([]model.BreedingRecord(nil), e.history...)
}

// Lineage returns the lineage entry for one genotype.
func (e *Engine) Lineage(genotypeID string) (model.LineageEntry, bool) {
	entry, ok := e.lineage[genotypeID]
	return entry, ok
}

// LineageEntries returns a copy of the full lineage ledger.
func (e *Engine) LineageEntries() []model.LineageEntry {
	out := make([]model.LineageEntry, 0, len(e.lineage))
	for _, entry := range e.lineage {
		out = append(out, entry)
	}
	return out
}

// RegisterFounder seeds a depth-0 lineage entry for a genotype created
// outside breeding.
func (e *Engine) RegisterFounder(g model.Genotype) {
	e.lineage[g.ID] = model.LineageEntry{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: genotype.SupportedSchemaVersion,
			CodecVersion:  genotype.SupportedCodecVersion,
		},
		GenotypeID: g.ID,
		Generation: g.Generation,
	}
}

// RestoreHistory replaces the ledger, trimming to the cap. Used by the
// persistence collaborator at load time.
func (e *Engine) RestoreHistory(records []model.BreedingRecord) {
	if len(records) > e.cfg.HistoryCap {
		records = records[len(records)-e.cfg.HistoryCap:]
	}
	e.history = append([]model.BreedingRecord(nil), records...)
}

// RestoreLineage replaces the lineage ledger. Used by the persistence
// collaborator at load time.
func (e *Engine) RestoreLineage(entries []model.LineageEntry) {
	e.lineage = make(map[string]model.LineageEntry, len(entries))
	for _, entry := range entries {
		e.lineage[entry.GenotypeID] = entry
	}
}

// Stats returns the rolling counters.
func (e *Engine) Stats() Stats {
	return e.stats
}

func (e *Engine) recordSuccess(res *Result) {
	e.history = append(e.history, res.Record)
	if len(e.history) > e.cfg.HistoryCap {
		e.history = e.history[len(e.history)-e.cfg.HistoryCap:]
	}

	maxParentDepth := 0
	for _, pid := range []string{res.Record.ParentAID, res.Record.ParentBID} {
		if entry, ok := e.lineage[pid]; ok && entry.Depth > maxParentDepth {
			maxParentDepth = entry.Depth
		}
	}
	childDepth := maxParentDepth + 1
	for _, child := range res.Offspring {
		e.lineage[child.ID] = model.LineageEntry{
			VersionedRecord: model.VersionedRecord{
				SchemaVersion: genotype.SupportedSchemaVersion,
				CodecVersion:  genotype.SupportedCodecVersion,
			},
			GenotypeID: child.ID,
			ParentIDs:  append([]string(nil), child.ParentIDs...),
			Generation: child.Generation,
			Depth:      childDepth,
		}
	}
}

func (e *Engine) observeDuration(d time.Duration) {
	n := time.Duration(e.stats.Attempted)
	if n <= 1 {
		e.stats.AverageDuration = d
		return
	}
	e.stats.AverageDuration += (d - e.stats.AverageDuration) / n
}

func (e *Engine) offspringCount(method model.BreedingMethod) int {
	var lo, hi int
	switch method {
	case model.SelfPollination:
		lo, hi = 2, 4
	case model.StandardCross:
		lo, hi = 3, 5
	case model.HybridCross:
		lo, hi = 4, 7
	default:
		lo, hi = 2, 3
	}
	return lo + e.rng.Intn(hi-lo+1)
}

func failure(kind model.FailureKind, reason string) Result {
	return Result{FailureKind: kind, Reason: reason}
}

func predictTraits(a, b model.Genotype) map[string]float64 {
	if len(a.Traits) == 0 && len(b.Traits) == 0 {
		return nil
	}
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, g := range []model.Genotype{a, b} {
		for _, t := range g.Traits {
			sums[t.Name] += t.ExpressedValue
			counts[t.Name]++
		}
	}
	out := make(map[string]float64, len(sums))
	for name, sum := range sums {
		out[name] = sum / float64(counts[name])
	}
	return out
}
