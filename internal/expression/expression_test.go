package expression

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"phytogen/internal/model"
)

func allele(geneID string, expression, dominance float64) model.Allele {
	return model.Allele{
		ID:         model.NewID(),
		GeneID:     geneID,
		Expression: expression,
		Dominance:  dominance,
		Stability:  0.8,
		CreatedAt:  time.Now(),
	}
}

func testGenotype() model.Genotype {
	return model.Genotype{
		ID:         model.NewID(),
		StrainID:   "strain-x",
		Generation: 1,
		Origin:     model.OriginNatural,
		Alleles: map[string][]model.Allele{
			"leaf_size":      {allele("leaf_size", 0.6, 0.5), allele("leaf_size", 0.9, 0.9)},
			"stem_thickness": {allele("stem_thickness", 0.5, 0.5)},
			"bud_density":    {allele("bud_density", 0.5, 0.5)},
			"heat_tolerance": {allele("heat_tolerance", 0.4, 0.5)},
			"mystery_gene":   {allele("mystery_gene", 0.5, 0.5)},
		},
		Traits: []model.GeneticTrait{
			{Name: "growthRate", ExpressedValue: 1.2, Dominance: 0.5},
			{Name: "yield_potential", ExpressedValue: 0.8, Dominance: 0.5},
			{Name: "unmapped_trait", ExpressedValue: 3.0, Dominance: 0.5},
		},
		CreatedAt: time.Now(),
	}
}

func newEngine(t *testing.T, cfg Config, seed int64) *Engine {
	t.Helper()
	e, err := New(cfg, rand.New(rand.NewSource(seed)), nil)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e
}

func optimalEnv() *model.Environment {
	return &model.Environment{Temperature: 24, Humidity: 55, Light: 600, CO2: 800, Health: 0.9}
}

func TestExpressBaseSelection(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PlasticityEnabled = false
	cfg.InteractionsEnabled = false
	e := newEngine(t, cfg, 1)
	g := testGenotype()

	p, err := e.Express(&g, nil)
	if err != nil {
		t.Fatalf("express: %v", err)
	}

	// leaf_size should express the 0.9/0.9 allele (dominance*expression 0.81).
	want := 0.9 * (1 + 0.9)
	if got := p.Morphological[TraitLeafSize]; got != want {
		t.Fatalf("leafSize = %v, want %v", got, want)
	}
	// Genotype-level traits fold in by alias-tolerant name.
	if got := p.Growth[TraitGrowthRate]; got != 1.2 {
		t.Fatalf("growthRate = %v, want 1.2", got)
	}
	if got := p.Growth[TraitYieldPotential]; got != 0.8 {
		t.Fatalf("yieldPotential = %v, want 0.8", got)
	}
	// Unmapped genes and traits are ignored, not errors.
	for _, m := range []map[string]float64{p.Morphological, p.Color, p.Growth, p.Tolerance, p.Biochemical} {
		for name := range m {
			if name == "mystery_gene" || name == "unmapped_trait" {
				t.Fatalf("unmapped name %q expressed", name)
			}
		}
	}
	if p.Environment != nil {
		t.Fatal("environment snapshot recorded without input environment")
	}
}

func TestExpressNilGenotype(t *testing.T) {
	e := newEngine(t, DefaultConfig(), 1)
	if _, err := e.Express(nil, optimalEnv()); !errors.Is(err, ErrNilGenotype) {
		t.Fatalf("err = %v, want ErrNilGenotype", err)
	}
	if hits, misses := e.CacheStats(); hits != 0 || misses != 0 {
		t.Fatal("failed expression touched the cache")
	}
}

func TestExpressCacheHitReturnsSameInstance(t *testing.T) {
	e := newEngine(t, DefaultConfig(), 2)
	g := testGenotype()
	env := optimalEnv()

	first, err := e.Express(&g, env)
	if err != nil {
		t.Fatalf("first express: %v", err)
	}
	second, err := e.Express(&g, env)
	if err != nil {
		t.Fatalf("second express: %v", err)
	}
	if first != second {
		t.Fatal("cache hit must return the original instance")
	}
	if hits, misses := e.CacheStats(); hits != 1 || misses != 1 {
		t.Fatalf("cache stats = %d hits %d misses", hits, misses)
	}

	e.ClearCache()
	third, err := e.Express(&g, env)
	if err != nil {
		t.Fatalf("third express: %v", err)
	}
	if third == first {
		t.Fatal("clear should force recomputation")
	}
}

func TestExpressDistinctEnvironmentsDistinctEntries(t *testing.T) {
	e := newEngine(t, DefaultConfig(), 3)
	g := testGenotype()

	hot := &model.Environment{Temperature: 38, Humidity: 55, Light: 600, CO2: 800, Health: 0.9}
	a, _ := e.Express(&g, optimalEnv())
	b, _ := e.Express(&g, hot)
	if a == b {
		t.Fatal("different environments shared a cache entry")
	}
}

func TestTemperatureResponse(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PlasticityEnabled = false
	cfg.InteractionsEnabled = false
	e := newEngine(t, cfg, 4)
	g := testGenotype()

	baseline, _ := e.Express(&g, nil)
	hot := &model.Environment{Temperature: 36, Humidity: 55, Light: 600, CO2: 800, Health: 0.9}
	p, _ := e.Express(&g, hot)

	if p.Morphological[TraitLeafSize] >= baseline.Morphological[TraitLeafSize] {
		t.Fatal("above-optimum temperature should reduce leaf size")
	}
	if p.Morphological[TraitStemThickness] <= baseline.Morphological[TraitStemThickness] {
		t.Fatal("above-optimum temperature should increase stem thickness")
	}
}

func TestLightResponse(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PlasticityEnabled = false
	cfg.InteractionsEnabled = false
	e := newEngine(t, cfg, 5)
	g := testGenotype()

	baseline, _ := e.Express(&g, nil)

	bright := &model.Environment{Temperature: 24, Humidity: 55, Light: 1100, CO2: 800, Health: 0.9}
	p, _ := e.Express(&g, bright)
	if p.Growth[TraitBudDensity] <= baseline.Growth[TraitBudDensity] {
		t.Fatal("above-optimum light should increase bud density")
	}

	dim := &model.Environment{Temperature: 24, Humidity: 55, Light: 150, CO2: 800, Health: 0.9}
	q, _ := e.Express(&g, dim)
	if q.Morphological[TraitStemThickness] >= baseline.Morphological[TraitStemThickness] {
		t.Fatal("low light should reduce stem thickness")
	}
}

func TestPlasticityOnlyUnderStress(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InteractionsEnabled = false
	e := newEngine(t, cfg, 6)
	g := testGenotype()

	// Optimal environment: zero stress, so plasticity magnitude is zero and
	// the result matches a plasticity-disabled engine exactly.
	p, _ := e.Express(&g, optimalEnv())

	cfg.PlasticityEnabled = false
	ref := newEngine(t, cfg, 6)
	q, _ := ref.Express(&g, optimalEnv())

	for name, v := range q.Morphological {
		if p.Morphological[name] != v {
			t.Fatalf("plasticity fired at zero stress: %s %v != %v", name, p.Morphological[name], v)
		}
	}
}

func TestInteractionsRuleSet(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PlasticityEnabled = false
	e := newEngine(t, cfg, 7)

	g := testGenotype()
	g.Traits = append(g.Traits,
		model.GeneticTrait{Name: "leaf_density", ExpressedValue: 1.5, Dominance: 0.5},
		model.GeneticTrait{Name: "disease_resistance", ExpressedValue: 1.0, Dominance: 0.5},
	)

	cfg.InteractionsEnabled = false
	ref := newEngine(t, cfg, 7)
	baseline, _ := ref.Express(&g, nil)
	p, _ := e.Express(&g, nil)

	// growthRate 1.2 > 1 reduces bud density.
	if p.Growth[TraitBudDensity] >= baseline.Growth[TraitBudDensity] {
		t.Fatal("elevated growth rate should reduce bud density")
	}
	// leafDensity 1.5 > 1 reduces disease resistance.
	if p.Tolerance[TraitDiseaseResistance] >= baseline.Tolerance[TraitDiseaseResistance] {
		t.Fatal("elevated leaf density should reduce disease resistance")
	}
}

func TestAggregates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PlasticityEnabled = false
	cfg.InteractionsEnabled = false
	e := newEngine(t, cfg, 8)

	g := testGenotype()
	p, _ := e.Express(&g, nil)
	wantVigor := (1.2 + 0.8) / 2
	if p.OverallVigor != wantVigor {
		t.Fatalf("vigor = %v, want %v", p.OverallVigor, wantVigor)
	}
	// Only heatTolerance present in the tolerance aggregate set.
	wantSR := 0.4 * (1 + 0.5)
	if p.StressResistance != wantSR {
		t.Fatalf("stress resistance = %v, want %v", p.StressResistance, wantSR)
	}

	// No growth or tolerance traits at all: defaults apply.
	bare := model.Genotype{
		ID:      model.NewID(),
		Alleles: map[string][]model.Allele{"leaf_size": {allele("leaf_size", 0.5, 0.5)}},
	}
	q, _ := e.Express(&bare, nil)
	if q.OverallVigor != 1.0 {
		t.Fatalf("default vigor = %v, want 1.0", q.OverallVigor)
	}
	if q.StressResistance != 0.5 {
		t.Fatalf("default stress resistance = %v, want 0.5", q.StressResistance)
	}
}

func TestCacheCapacityEvicts(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CacheCap = 2
	e := newEngine(t, cfg, 9)

	genotypes := []model.Genotype{testGenotype(), testGenotype(), testGenotype()}
	for i := range genotypes {
		if _, err := e.Express(&genotypes[i], nil); err != nil {
			t.Fatalf("express %d: %v", i, err)
		}
	}
	// First genotype was evicted; re-expression is a miss.
	if _, err := e.Express(&genotypes[0], nil); err != nil {
		t.Fatalf("re-express: %v", err)
	}
	if hits, misses := e.CacheStats(); hits != 0 || misses != 4 {
		t.Fatalf("cache stats = %d hits %d misses, want 0/4", hits, misses)
	}
}

func TestNormalizeNameAliases(t *testing.T) {
	cases := map[string]string{
		"growth_rate": "growthrate",
		"GrowthRate":  "growthrate",
		"Growth Rate": "growthrate",
		"leaf-size":   "leafsize",
	}
	for in, want := range cases {
		if got := normalizeName(in); got != want {
			t.Fatalf("normalizeName(%q) = %q, want %q", in, got, want)
		}
	}
	if _, ok := lookupCategory("Heat_Tolerance"); !ok {
		t.Fatal("alias lookup failed")
	}
}
