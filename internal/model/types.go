package model

import "time"

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// GenotypeOrigin records how a genotype came into existence.
type GenotypeOrigin string

const (
	OriginNatural   GenotypeOrigin = "natural"
	OriginBred      GenotypeOrigin = "bred"
	OriginVariation GenotypeOrigin = "variation"
)

// BreedingMethod selects the crossing strategy and offspring range.
type BreedingMethod string

const (
	SelfPollination BreedingMethod = "self_pollination"
	StandardCross   BreedingMethod = "standard_cross"
	HybridCross     BreedingMethod = "hybrid_cross"
	Backcross       BreedingMethod = "backcross"
)

// MutationEvent is one provenance entry appended when an allele field mutates.
type MutationEvent struct {
	Kind       string    `json:"kind"`
	Field      string    `json:"field"`
	Delta      float64   `json:"delta"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ColorPayload is the optional visual payload carried by an allele.
type ColorPayload struct {
	Hue        float64 `json:"hue"`
	Saturation float64 `json:"saturation"`
	Value      float64 `json:"value"`
}

// Allele is one heritable variant of a gene. Alleles are owned exclusively
// by the genotype holding them and are cloned, never shared, on inheritance.
type Allele struct {
	ID            string             `json:"id"`
	GeneID        string             `json:"gene_id"`
	Name          string             `json:"name"`
	Expression    float64            `json:"expression"` // [0,1]
	Dominance     float64            `json:"dominance"`  // [0,1]
	Stability     float64            `json:"stability"`  // [0,1]
	MutationRate  float64            `json:"mutation_rate"`
	Color         *ColorPayload      `json:"color,omitempty"`
	StrainWeights map[string]float64 `json:"strain_weights,omitempty"`
	Origin        string             `json:"origin"`
	CreatedAt     time.Time          `json:"created_at"`
	Mutations     []MutationEvent    `json:"mutations,omitempty"`
}

// GeneticTrait is a named trait not modeled at the allele level.
type GeneticTrait struct {
	Name           string  `json:"name"`
	ExpressedValue float64 `json:"expressed_value"`
	Dominance      float64 `json:"dominance"`
}

// Genotype is the full heritable configuration of one simulated organism.
// Bred genotypes have generation = max(parents' generations)+1; founders
// have generation 1 and no parents.
type Genotype struct {
	VersionedRecord
	ID          string              `json:"id"`
	StrainID    string              `json:"strain_id"`
	StrainName  string              `json:"strain_name"`
	Generation  int                 `json:"generation"`
	CreatedAt   time.Time           `json:"created_at"`
	Origin      GenotypeOrigin      `json:"origin"`
	ParentIDs   []string            `json:"parent_ids,omitempty"`
	Alleles     map[string][]Allele `json:"alleles"` // gene id -> diploid allele set (1-2)
	Traits      []GeneticTrait      `json:"traits,omitempty"`
	Epigenetics map[string]float64  `json:"epigenetics,omitempty"` // modification name -> strength
}

// Environment is one snapshot of growing conditions.
type Environment struct {
	Temperature float64 `json:"temperature"` // degrees C
	Humidity    float64 `json:"humidity"`    // relative %
	Light       float64 `json:"light"`       // PPFD
	CO2         float64 `json:"co2"`         // ppm
	Health      float64 `json:"health"`      // aggregate plant-health proxy [0,1]
}

// Phenotype is the environment-dependent observable trait set derived from a
// genotype. Categories are exposed as plain name->value maps so presentation
// collaborators stay renderer-agnostic.
type Phenotype struct {
	GenotypeID       string             `json:"genotype_id"`
	Morphological    map[string]float64 `json:"morphological"`
	Color            map[string]float64 `json:"color"`
	Growth           map[string]float64 `json:"growth"`
	Tolerance        map[string]float64 `json:"tolerance"`
	Biochemical      map[string]float64 `json:"biochemical"`
	Custom           map[string]float64 `json:"custom,omitempty"`
	OverallVigor     float64            `json:"overall_vigor"`
	StressResistance float64            `json:"stress_resistance"`
	Environment      *Environment       `json:"environment,omitempty"`
	ComputedAt       time.Time          `json:"computed_at"`
}

// TraitCategory is the closed set of phenotype trait buckets.
type TraitCategory string

const (
	CategoryMorphological TraitCategory = "morphological"
	CategoryColor         TraitCategory = "color"
	CategoryGrowth        TraitCategory = "growth"
	CategoryTolerance     TraitCategory = "tolerance"
	CategoryBiochemical   TraitCategory = "biochemical"
	CategoryCustom        TraitCategory = "custom"
)

// BreedingRecord is one append-only ledger entry per breeding attempt.
type BreedingRecord struct {
	VersionedRecord
	ID              string             `json:"id"`
	ParentAID       string             `json:"parent_a_id"`
	ParentBID       string             `json:"parent_b_id"`
	Method          BreedingMethod     `json:"method"`
	Timestamp       time.Time          `json:"timestamp"`
	OffspringIDs    []string           `json:"offspring_ids,omitempty"`
	Success         bool               `json:"success"`
	FailureReason   string             `json:"failure_reason,omitempty"`
	Duration        time.Duration      `json:"duration"`
	PredictedTraits map[string]float64 `json:"predicted_traits,omitempty"`
}

// LineageEntry records one genotype's position in the ancestry DAG.
// Offspring generation strictly exceeds its parents', so the graph is
// acyclic by construction.
type LineageEntry struct {
	VersionedRecord
	GenotypeID string   `json:"genotype_id"`
	ParentIDs  []string `json:"parent_ids,omitempty"`
	Generation int      `json:"generation"`
	Depth      int      `json:"depth"` // max(parent depths)+1, founders at 0
}

// AdaptationState tracks long-run acclimation of one genotype to one
// environment fingerprint. Progress is monotone non-decreasing; Applied is a
// one-shot latch set the first time progress crosses the apply threshold.
type AdaptationState struct {
	GenotypeID  string    `json:"genotype_id"`
	Fingerprint string    `json:"fingerprint"`
	Progress    float64   `json:"progress"` // [0,1]
	Applied     bool      `json:"applied"`
	StartedAt   time.Time `json:"started_at"`
	LastUpdate  time.Time `json:"last_update"`
}

// AdaptationHistoryEntry records the single permanent tolerance adjustment
// fired when an adaptation state crosses its apply threshold.
type AdaptationHistoryEntry struct {
	GenotypeID  string    `json:"genotype_id"`
	Fingerprint string    `json:"fingerprint"`
	Factor      string    `json:"factor"`
	TraitName   string    `json:"trait_name"`
	Delta       float64   `json:"delta"`
	Progress    float64   `json:"progress"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// EpigeneticModification is a monotone environmental accumulator keyed by
// (genotype id, modification name). Inheritable and GenerationPersistence
// are carried for a future decay/inheritance policy; no current code path
// consumes them.
type EpigeneticModification struct {
	GenotypeID            string    `json:"genotype_id"`
	Name                  string    `json:"name"`
	Strength              float64   `json:"strength"` // [0,1]
	Inheritable           bool      `json:"inheritable"`
	GenerationPersistence int       `json:"generation_persistence"`
	FirstTriggered        time.Time `json:"first_triggered"`
	LastUpdated           time.Time `json:"last_updated"`
}

// StressEvent is one entry in a genotype's rolling stress history.
type StressEvent struct {
	Type      string        `json:"type"`
	Level     float64       `json:"level"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration"`
}

// StressProfile holds the bounded rolling stress history for one genotype.
type StressProfile struct {
	GenotypeID         string        `json:"genotype_id"`
	Events             []StressEvent `json:"events,omitempty"`
	AdaptationCapacity float64       `json:"adaptation_capacity"`
	RecoveryRate       float64       `json:"recovery_rate"`
}

// AdaptationSnapshot bundles the three adaptation sub-states for
// persistence. The sub-states stay distinct records because their lifecycle
// rules differ (one-shot, monotone-accumulate, rolling-window).
type AdaptationSnapshot struct {
	VersionedRecord
	States        []AdaptationState        `json:"states,omitempty"`
	Modifications []EpigeneticModification `json:"modifications,omitempty"`
	Profiles      []StressProfile          `json:"profiles,omitempty"`
	History       []AdaptationHistoryEntry `json:"history,omitempty"`
}
