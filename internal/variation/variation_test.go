package variation

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"phytogen/internal/model"
)

func testGenotype(mutationRate float64) model.Genotype {
	now := time.Now()
	alleles := map[string][]model.Allele{}
	for _, geneID := range []string{"leaf_size", "stem_thickness", "bud_density"} {
		alleles[geneID] = []model.Allele{
			{
				ID: model.NewID(), GeneID: geneID, Name: geneID + "-a",
				Expression: 0.6, Dominance: 0.5, Stability: 0.8,
				MutationRate: mutationRate,
				Color:        &model.ColorPayload{Hue: 120, Saturation: 0.5, Value: 0.5},
				CreatedAt:    now,
			},
			{
				ID: model.NewID(), GeneID: geneID, Name: geneID + "-b",
				Expression: 0.4, Dominance: 0.7, Stability: 0.6,
				MutationRate: mutationRate,
				CreatedAt:    now,
			},
		}
	}
	return model.Genotype{
		ID:         model.NewID(),
		StrainID:   "strain-x",
		Generation: 1,
		Origin:     model.OriginNatural,
		Alleles:    alleles,
		CreatedAt:  now,
	}
}

func newEngine(t *testing.T, seed int64) *Engine {
	t.Helper()
	e, err := New(DefaultConfig(), rand.New(rand.NewSource(seed)), nil)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e
}

func TestNewRejectsBadWeights(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Weights.PointMutation = 0.9
	if _, err := New(cfg, rand.New(rand.NewSource(1)), nil); !errors.Is(err, ErrBadWeights) {
		t.Fatalf("err = %v, want ErrBadWeights", err)
	}
}

func TestGenerateVariationProducesChildGeneration(t *testing.T) {
	e := newEngine(t, 7)
	src := testGenotype(0)

	got, err := e.GenerateVariation(&src)
	if err != nil {
		t.Fatalf("generate variation: %v", err)
	}
	if got.Generation != src.Generation+1 {
		t.Fatalf("generation = %d, want %d", got.Generation, src.Generation+1)
	}
	if len(got.ParentIDs) != 1 || got.ParentIDs[0] != src.ID {
		t.Fatalf("parent ids = %v", got.ParentIDs)
	}
	if got.ID == src.ID {
		t.Fatal("variant should carry a fresh id")
	}
	for geneID, set := range got.Alleles {
		for i, a := range set {
			if a.ID == src.Alleles[geneID][i].ID {
				t.Fatalf("allele %s/%d kept source id", geneID, i)
			}
			if a.Expression < 0 || a.Expression > 1 || a.Dominance < 0 || a.Dominance > 1 {
				t.Fatalf("allele %s/%d out of range after variation", geneID, i)
			}
		}
	}
}

func TestGenerateVariationNilInput(t *testing.T) {
	e := newEngine(t, 7)
	if _, err := e.GenerateVariation(nil); !errors.Is(err, ErrNilGenotype) {
		t.Fatalf("err = %v, want ErrNilGenotype", err)
	}
}

func TestApplyMutationsZeroRateIsIdempotent(t *testing.T) {
	e := newEngine(t, 11)
	g := testGenotype(0)
	before := testClone(g)

	if err := e.ApplyMutations(&g); err != nil {
		t.Fatalf("apply mutations: %v", err)
	}
	for geneID, set := range g.Alleles {
		for i, a := range set {
			b := before.Alleles[geneID][i]
			if a.Expression != b.Expression || a.Dominance != b.Dominance || a.Stability != b.Stability {
				t.Fatalf("allele %s/%d changed under zero mutation rate", geneID, i)
			}
			if len(a.Mutations) != 0 {
				t.Fatalf("allele %s/%d gained provenance under zero rate", geneID, i)
			}
		}
	}
}

func TestApplyMutationsTagsProvenanceAndClamps(t *testing.T) {
	e := newEngine(t, 3)
	g := testGenotype(1) // every allele mutates

	if err := e.ApplyMutations(&g); err != nil {
		t.Fatalf("apply mutations: %v", err)
	}
	tagged := 0
	for _, set := range g.Alleles {
		for _, a := range set {
			tagged += len(a.Mutations)
			if a.Expression < 0 || a.Expression > 1 ||
				a.Dominance < 0 || a.Dominance > 1 ||
				a.Stability < 0 || a.Stability > 1 {
				t.Fatal("mutated allele out of range")
			}
			for _, m := range a.Mutations {
				if m.Kind == "" || m.Field == "" {
					t.Fatalf("empty provenance tag: %+v", m)
				}
			}
		}
	}
	if tagged == 0 {
		t.Fatal("rate-1 mutation pass tagged nothing")
	}
}

func TestApplyEnvironmentalPressureDirection(t *testing.T) {
	e := newEngine(t, 5)

	favorable := &model.Environment{Temperature: 24, Humidity: 55, Light: 600, CO2: 400}
	harsh := &model.Environment{Temperature: 45, Humidity: 5, Light: 50, CO2: 400}

	up := testGenotype(0)
	if err := e.ApplyEnvironmentalPressure(&up, favorable); err != nil {
		t.Fatalf("pressure: %v", err)
	}
	if up.Alleles["leaf_size"][0].Expression <= 0.6 {
		t.Fatalf("favorable pressure lowered expression: %v", up.Alleles["leaf_size"][0].Expression)
	}

	down := testGenotype(0)
	if err := e.ApplyEnvironmentalPressure(&down, harsh); err != nil {
		t.Fatalf("pressure: %v", err)
	}
	if down.Alleles["leaf_size"][0].Expression >= 0.6 {
		t.Fatalf("harsh pressure raised expression: %v", down.Alleles["leaf_size"][0].Expression)
	}
}

func TestApplyEnvironmentalPressureNilInputs(t *testing.T) {
	e := newEngine(t, 5)
	g := testGenotype(0)
	if err := e.ApplyEnvironmentalPressure(nil, &model.Environment{}); !errors.Is(err, ErrNilGenotype) {
		t.Fatalf("err = %v, want ErrNilGenotype", err)
	}
	if err := e.ApplyEnvironmentalPressure(&g, nil); !errors.Is(err, ErrNilEnvironment) {
		t.Fatalf("err = %v, want ErrNilEnvironment", err)
	}
}

// testClone is a minimal deep copy for before/after comparisons.
func testClone(g model.Genotype) model.Genotype {
	out := g
	out.Alleles = make(map[string][]model.Allele, len(g.Alleles))
	for geneID, set := range g.Alleles {
		out.Alleles[geneID] = append([]model.Allele(nil), set...)
	}
	return out
}
