package phytogen

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"
	"time"

	"phytogen/internal/breeding"
	"phytogen/internal/model"
	"phytogen/internal/storage"
)

func founderRequest(strainID string, geneIDs ...string) FounderRequest {
	alleles := make(map[string][]model.Allele, len(geneIDs))
	for _, geneID := range geneIDs {
		alleles[geneID] = []model.Allele{
			{GeneID: geneID, Name: geneID + "-a", Expression: 0.7, Dominance: 0.5, Stability: 0.8, MutationRate: 0.02},
			{GeneID: geneID, Name: geneID + "-b", Expression: 0.3, Dominance: 0.5, Stability: 0.8, MutationRate: 0.02},
		}
	}
	return FounderRequest{
		StrainID:   strainID,
		StrainName: strainID,
		Alleles:    alleles,
		Traits: []model.GeneticTrait{
			{Name: "growthRate", ExpressedValue: 1.0, Dominance: 0.5},
			{Name: "yieldPotential", ExpressedValue: 0.9, Dominance: 0.5},
		},
	}
}

func newClient(t *testing.T, opts Options) *Client {
	t.Helper()
	if opts.Seed == 0 {
		opts.Seed = 42
	}
	c, err := New(opts)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	c.Init(context.Background())
	t.Cleanup(func() {
		_ = c.Close()
	})
	return c
}

func stressEnv() *model.Environment {
	return &model.Environment{Temperature: 40, Humidity: 20, Light: 600, CO2: 800, Health: 1}
}

func TestOperationsRequireInit(t *testing.T) {
	c, err := New(Options{Seed: 1})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if _, err := c.CreateFounderGenotype(context.Background(), founderRequest("s", "g1")); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("create founder err = %v", err)
	}
	if err := c.EnqueueFounder(founderRequest("s", "g1")); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("enqueue founder err = %v", err)
	}
	if _, err := c.Breed(context.Background(), "a", "b", model.StandardCross); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("breed err = %v", err)
	}
	if _, err := c.ExpressPhenotype("a", nil); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("express err = %v", err)
	}
	if err := c.ProcessExposure("a", stressEnv(), time.Second); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("exposure err = %v", err)
	}
	if _, err := c.Tick(context.Background()); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("tick err = %v", err)
	}
}

func TestCreateFounderRegisters(t *testing.T) {
	c := newClient(t, Options{})

	founder, err := c.CreateFounderGenotype(context.Background(), founderRequest("strain-x", "g1", "g2"))
	if err != nil {
		t.Fatalf("create founder: %v", err)
	}
	if founder.Generation != 1 || founder.Origin != model.OriginNatural {
		t.Fatalf("unexpected founder: gen=%d origin=%s", founder.Generation, founder.Origin)
	}

	got, ok := c.Genotype(founder.ID)
	if !ok || got.ID != founder.ID {
		t.Fatalf("founder not registered: %v", ok)
	}
	if entry, ok := c.Lineage(founder.ID); !ok || entry.Depth != 0 {
		t.Fatalf("founder lineage = %+v, ok=%v", entry, ok)
	}
}

func TestBreedRegistersOffspring(t *testing.T) {
	c := newClient(t, Options{})
	ctx := context.Background()

	a, err := c.CreateFounderGenotype(ctx, founderRequest("strain-x", "s1", "s2", "only_a"))
	if err != nil {
		t.Fatalf("founder a: %v", err)
	}
	b, err := c.CreateFounderGenotype(ctx, founderRequest("strain-y", "s1", "s2", "only_b"))
	if err != nil {
		t.Fatalf("founder b: %v", err)
	}

	res, err := c.Breed(ctx, a.ID, b.ID, model.StandardCross)
	if err != nil {
		t.Fatalf("breed: %v", err)
	}
	if !res.Success {
		t.Fatalf("breed failed: %s", res.Reason)
	}
	for _, child := range res.Offspring {
		got, ok := c.Genotype(child.ID)
		if !ok {
			t.Fatalf("offspring %s not registered", child.ID)
		}
		if got.Generation != 2 {
			t.Fatalf("offspring generation = %d", got.Generation)
		}
		if entry, ok := c.Lineage(child.ID); !ok || entry.Depth != 1 {
			t.Fatalf("offspring lineage = %+v, ok=%v", entry, ok)
		}
	}

	if history := c.History(); len(history) != 1 || !history[0].Success {
		t.Fatalf("history = %+v", history)
	}
	if stats := c.BreedingStats(); stats.Attempted != 1 || stats.Succeeded != 1 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestBreedUnknownParent(t *testing.T) {
	c := newClient(t, Options{})

	if _, err := c.Breed(context.Background(), "missing-a", "missing-b", model.StandardCross); !errors.Is(err, ErrGenotypeUnknown) {
		t.Fatalf("breed err = %v", err)
	}
	if err := c.EnqueueBreed("missing-a", "missing-b", model.StandardCross); !errors.Is(err, ErrGenotypeUnknown) {
		t.Fatalf("enqueue err = %v", err)
	}
	if stats := c.BreedingStats(); stats.Attempted != 0 {
		t.Fatalf("unknown parents must not count as attempts: %+v", stats)
	}
}

func TestExpressPhenotypeCached(t *testing.T) {
	c := newClient(t, Options{})
	ctx := context.Background()

	founder, err := c.CreateFounderGenotype(ctx, founderRequest("strain-x", "leaf_size"))
	if err != nil {
		t.Fatalf("founder: %v", err)
	}

	env := &model.Environment{Temperature: 24, Humidity: 55, Light: 600, CO2: 800, Health: 1}
	first, err := c.ExpressPhenotype(founder.ID, env)
	if err != nil {
		t.Fatalf("express: %v", err)
	}
	second, err := c.ExpressPhenotype(founder.ID, env)
	if err != nil {
		t.Fatalf("express again: %v", err)
	}
	if first != second {
		t.Fatal("expected cached phenotype instance")
	}
	if hits, misses := c.ExpressionCacheStats(); hits != 1 || misses != 1 {
		t.Fatalf("cache stats = %d/%d", hits, misses)
	}
}

func TestExposureUpdatesAdaptation(t *testing.T) {
	c := newClient(t, Options{})
	ctx := context.Background()

	founder, err := c.CreateFounderGenotype(ctx, founderRequest("strain-x", "g1"))
	if err != nil {
		t.Fatalf("founder: %v", err)
	}

	env := stressEnv()
	if err := c.ProcessExposure(founder.ID, env, 10*time.Second); err != nil {
		t.Fatalf("exposure: %v", err)
	}

	state, ok := c.AdaptationState(founder.ID, env)
	if !ok || state.Progress <= 0 {
		t.Fatalf("adaptation state = %+v, ok=%v", state, ok)
	}
	profile, ok := c.StressProfile(founder.ID)
	if !ok || len(profile.Events) != 1 {
		t.Fatalf("stress profile = %+v, ok=%v", profile, ok)
	}
}

func TestGenerateVariationRegistersChild(t *testing.T) {
	c := newClient(t, Options{})
	ctx := context.Background()

	founder, err := c.CreateFounderGenotype(ctx, founderRequest("strain-x", "g1", "g2"))
	if err != nil {
		t.Fatalf("founder: %v", err)
	}

	child, err := c.GenerateVariation(ctx, founder.ID)
	if err != nil {
		t.Fatalf("variation: %v", err)
	}
	if child.Generation != 2 || child.Origin != model.OriginVariation {
		t.Fatalf("unexpected variant: gen=%d origin=%s", child.Generation, child.Origin)
	}
	if _, ok := c.Genotype(child.ID); !ok {
		t.Fatal("variant not registered")
	}
}

func TestTickDrainsQueuesUnderCaps(t *testing.T) {
	c := newClient(t, Options{QueueCap: 4, DrainPerTick: 2, SaveEvery: 1})
	ctx := context.Background()

	a, err := c.CreateFounderGenotype(ctx, founderRequest("strain-x", "s1", "s2", "only_a"))
	if err != nil {
		t.Fatalf("founder a: %v", err)
	}
	b, err := c.CreateFounderGenotype(ctx, founderRequest("strain-y", "s1", "s2", "only_b"))
	if err != nil {
		t.Fatalf("founder b: %v", err)
	}

	if err := c.EnqueueBreed(a.ID, b.ID, model.StandardCross); err != nil {
		t.Fatalf("enqueue breed: %v", err)
	}
	env := stressEnv()
	for i := 0; i < 3; i++ {
		if err := c.EnqueueExpress(a.ID, env); err != nil {
			t.Fatalf("enqueue express %d: %v", i, err)
		}
		if err := c.EnqueueExposure(a.ID, env, time.Second); err != nil {
			t.Fatalf("enqueue exposure %d: %v", i, err)
		}
	}

	report, err := c.Tick(ctx)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if len(report.BreedingResults) != 1 {
		t.Fatalf("breeding results = %d", len(report.BreedingResults))
	}
	if report.Expressed != 2 || report.Exposures != 2 {
		t.Fatalf("drained %d expressions, %d exposures; want 2, 2", report.Expressed, report.Exposures)
	}
	if !report.Persisted {
		t.Fatal("expected persistence on save interval")
	}
	if c.PendingExpress() != 1 || c.PendingExposure() != 1 {
		t.Fatalf("pending = %d/%d, want 1/1", c.PendingExpress(), c.PendingExposure())
	}

	report, err = c.Tick(ctx)
	if err != nil {
		t.Fatalf("second tick: %v", err)
	}
	if report.Expressed != 1 || report.Exposures != 1 {
		t.Fatalf("second drain = %d/%d, want 1/1", report.Expressed, report.Exposures)
	}
	if c.PendingExpress() != 0 || c.PendingExposure() != 0 {
		t.Fatal("queues should be empty")
	}
}

func TestTickDrainsFounderQueue(t *testing.T) {
	c := newClient(t, Options{QueueCap: 4, DrainPerTick: 2})
	ctx := context.Background()

	for i, strainID := range []string{"strain-x", "strain-y", "strain-z"} {
		if err := c.EnqueueFounder(founderRequest(strainID, "g1")); err != nil {
			t.Fatalf("enqueue founder %d: %v", i, err)
		}
	}
	if c.PendingFounders() != 3 {
		t.Fatalf("pending founders = %d", c.PendingFounders())
	}

	report, err := c.Tick(ctx)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if len(report.FounderIDs) != 2 || c.PendingFounders() != 1 {
		t.Fatalf("drained %d founders, %d pending; want 2, 1", len(report.FounderIDs), c.PendingFounders())
	}
	for _, id := range report.FounderIDs {
		g, ok := c.Genotype(id)
		if !ok || g.Generation != 1 || g.Origin != model.OriginNatural {
			t.Fatalf("queued founder %s not registered: %+v, ok=%v", id, g, ok)
		}
		if entry, ok := c.Lineage(id); !ok || entry.Depth != 0 {
			t.Fatalf("queued founder lineage = %+v, ok=%v", entry, ok)
		}
	}

	report, err = c.Tick(ctx)
	if err != nil {
		t.Fatalf("second tick: %v", err)
	}
	if len(report.FounderIDs) != 1 || c.PendingFounders() != 0 {
		t.Fatalf("second drain = %d founders, %d pending; want 1, 0", len(report.FounderIDs), c.PendingFounders())
	}

	// A request that fails construction is dropped, not retried.
	if err := c.EnqueueFounder(FounderRequest{StrainID: "empty"}); err != nil {
		t.Fatalf("enqueue empty founder: %v", err)
	}
	report, err = c.Tick(ctx)
	if err != nil {
		t.Fatalf("third tick: %v", err)
	}
	if len(report.FounderIDs) != 0 || c.PendingFounders() != 0 {
		t.Fatalf("invalid founder: drained %d, pending %d", len(report.FounderIDs), c.PendingFounders())
	}
}

func TestEnqueueFounderRespectsQueueCap(t *testing.T) {
	c := newClient(t, Options{QueueCap: 2})

	for i := 0; i < 2; i++ {
		if err := c.EnqueueFounder(founderRequest("strain-x", "g1")); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}
	if err := c.EnqueueFounder(founderRequest("strain-x", "g1")); !errors.Is(err, breeding.ErrQueueFull) {
		t.Fatalf("expected queue full, got %v", err)
	}
}

func TestEnqueueRespectsQueueCap(t *testing.T) {
	c := newClient(t, Options{QueueCap: 2})
	ctx := context.Background()

	founder, err := c.CreateFounderGenotype(ctx, founderRequest("strain-x", "g1"))
	if err != nil {
		t.Fatalf("founder: %v", err)
	}

	env := stressEnv()
	for i := 0; i < 2; i++ {
		if err := c.EnqueueExpress(founder.ID, env); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}
	if err := c.EnqueueExpress(founder.ID, env); !errors.Is(err, breeding.ErrQueueFull) {
		t.Fatalf("expected queue full, got %v", err)
	}
}

func TestSessionPersistsAcrossClients(t *testing.T) {
	shared := storage.NewMemoryStore()
	ctx := context.Background()

	first := newClient(t, Options{Store: shared, SessionID: "session-1", Seed: 7})
	a, err := first.CreateFounderGenotype(ctx, founderRequest("strain-x", "s1", "s2", "only_a"))
	if err != nil {
		t.Fatalf("founder a: %v", err)
	}
	b, err := first.CreateFounderGenotype(ctx, founderRequest("strain-y", "s1", "s2", "only_b"))
	if err != nil {
		t.Fatalf("founder b: %v", err)
	}
	res, err := first.Breed(ctx, a.ID, b.ID, model.StandardCross)
	if err != nil || !res.Success {
		t.Fatalf("breed: err=%v success=%v", err, res.Success)
	}
	env := stressEnv()
	if err := first.ProcessExposure(a.ID, env, 10*time.Second); err != nil {
		t.Fatalf("exposure: %v", err)
	}
	wantState, _ := first.AdaptationState(a.ID, env)
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second := newClient(t, Options{Store: shared, SessionID: "session-1", Seed: 7})
	if _, ok := second.Genotype(a.ID); !ok {
		t.Fatal("founder not restored")
	}
	for _, childID := range res.Record.OffspringIDs {
		if _, ok := second.Genotype(childID); !ok {
			t.Fatalf("offspring %s not restored", childID)
		}
		if _, ok := second.Lineage(childID); !ok {
			t.Fatalf("lineage for %s not restored", childID)
		}
	}
	if history := second.History(); len(history) != 1 || history[0].ID != res.Record.ID {
		t.Fatalf("history not restored: %+v", history)
	}
	gotState, ok := second.AdaptationState(a.ID, env)
	if !ok || gotState.Progress != wantState.Progress {
		t.Fatalf("adaptation state not restored: %+v vs %+v", gotState, wantState)
	}

	// A different session id shares genotypes but not session records.
	third := newClient(t, Options{Store: shared, SessionID: "session-2", Seed: 7})
	if history := third.History(); len(history) != 0 {
		t.Fatalf("sessions must not share history: %+v", history)
	}
}

// faultyStore fails every operation, standing in for an offline backend.
type faultyStore struct{ err error }

func (s *faultyStore) Init(context.Context) error { return s.err }
func (s *faultyStore) SaveGenotype(context.Context, model.Genotype) error {
	return s.err
}
func (s *faultyStore) GetGenotype(context.Context, string) (model.Genotype, bool, error) {
	return model.Genotype{}, false, s.err
}
func (s *faultyStore) ListGenotypeIDs(context.Context) ([]string, error) { return nil, s.err }
func (s *faultyStore) SaveBreedingHistory(context.Context, string, []model.BreedingRecord) error {
	return s.err
}
func (s *faultyStore) GetBreedingHistory(context.Context, string) ([]model.BreedingRecord, bool, error) {
	return nil, false, s.err
}
func (s *faultyStore) SaveLineage(context.Context, string, []model.LineageEntry) error {
	return s.err
}
func (s *faultyStore) GetLineage(context.Context, string) ([]model.LineageEntry, bool, error) {
	return nil, false, s.err
}
func (s *faultyStore) SaveAdaptationSnapshot(context.Context, string, model.AdaptationSnapshot) error {
	return s.err
}
func (s *faultyStore) GetAdaptationSnapshot(context.Context, string) (model.AdaptationSnapshot, bool, error) {
	return model.AdaptationSnapshot{}, false, s.err
}

func TestInitContinuesOnStoreFault(t *testing.T) {
	var logged bytes.Buffer
	c, err := New(Options{
		Store:     &faultyStore{err: errors.New("disk offline")},
		Seed:      1,
		SaveEvery: 1,
		Logger:    log.New(&logged, "", 0),
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	ctx := context.Background()
	c.Init(ctx)
	t.Cleanup(func() {
		_ = c.Close()
	})

	if !strings.Contains(logged.String(), "disk offline") {
		t.Fatalf("store fault not logged: %q", logged.String())
	}

	founder, err := c.CreateFounderGenotype(ctx, founderRequest("strain-x", "g1"))
	if err != nil {
		t.Fatalf("create founder with faulty store: %v", err)
	}
	if _, ok := c.Genotype(founder.ID); !ok {
		t.Fatal("founder not registered")
	}

	// Ticks keep running; the persistence interval degrades to warnings.
	report, err := c.Tick(ctx)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if !report.Persisted {
		t.Fatal("persistence attempt expected on save interval")
	}
	if !strings.Contains(logged.String(), "save breeding history") {
		t.Fatalf("save fault not logged: %q", logged.String())
	}
}

func TestEnqueueExposureNilEnvironment(t *testing.T) {
	c := newClient(t, Options{})

	founder, err := c.CreateFounderGenotype(context.Background(), founderRequest("strain-x", "g1"))
	if err != nil {
		t.Fatalf("founder: %v", err)
	}
	if err := c.EnqueueExposure(founder.ID, nil, time.Second); !errors.Is(err, ErrNilEnvironment) {
		t.Fatalf("expected nil environment error, got %v", err)
	}
}
