package phytogen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"time"

	"phytogen/internal/adaptation"
	"phytogen/internal/breeding"
	"phytogen/internal/config"
	"phytogen/internal/expression"
	"phytogen/internal/genotype"
	"phytogen/internal/model"
	"phytogen/internal/storage"
	"phytogen/internal/variation"
)

const (
	defaultDBPath    = "phytogen.db"
	defaultQueueCap  = 64
	defaultDrain     = 5
	defaultSaveEvery = 10
)

var (
	ErrNotInitialized  = errors.New("client is not initialized")
	ErrGenotypeUnknown = errors.New("genotype is not registered")
	ErrNilEnvironment  = errors.New("environment is required")
)

// Options configures a Client. Zero values select the defaults.
type Options struct {
	// Store overrides StoreKind/DBPath with a caller-owned backend.
	Store     storage.Store
	StoreKind string
	DBPath    string
	// SessionID keys persisted history, lineage, and adaptation state.
	// Empty mints a fresh id, starting a new session.
	SessionID string
	Seed      int64
	Config    *config.Config
	// Logger receives best-effort persistence warnings. Nil discards.
	Logger   *log.Logger
	Observer model.Observer
	// QueueCap bounds the expression and exposure queues; DrainPerTick and
	// SaveEvery pace Tick work.
	QueueCap     int
	DrainPerTick int
	SaveEvery    int
}

// FounderRequest describes a generation-1 genotype to introduce.
type FounderRequest struct {
	StrainID   string
	StrainName string
	Alleles    map[string][]model.Allele
	Traits     []model.GeneticTrait
}

// TickReport summarizes one Tick's drained work.
type TickReport struct {
	FounderIDs      []string
	BreedingResults []breeding.Result
	Expressed       int
	Exposures       int
	Persisted       bool
}

type expressRequest struct {
	genotypeID string
	env        *model.Environment
}

type exposureRequest struct {
	genotypeID string
	env        *model.Environment
	dt         time.Duration
}

func copyEnv(env *model.Environment) *model.Environment {
	if env == nil {
		return nil
	}
	copied := *env
	return &copied
}

// Client is the orchestration surface over the four engines and the store.
// Not safe for concurrent use; it is designed to be driven by one tick loop.
type Client struct {
	opts    Options
	cfg     *config.Config
	logger  *log.Logger
	store   storage.Store
	session string

	variation  *variation.Engine
	breeding   *breeding.Engine
	expression *expression.Engine
	adaptation *adaptation.Engine

	genotypes     map[string]*model.Genotype
	founderQueue  []FounderRequest
	expressQueue  []expressRequest
	exposureQueue []exposureRequest

	ticks       int
	initialized bool
}

func New(opts Options) (*Client, error) {
	if opts.StoreKind == "" {
		opts.StoreKind = storage.DefaultStoreKind()
	}
	if opts.DBPath == "" {
		opts.DBPath = defaultDBPath
	}
	if opts.SessionID == "" {
		opts.SessionID = model.NewID()
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	if opts.QueueCap <= 0 {
		opts.QueueCap = defaultQueueCap
	}
	if opts.DrainPerTick <= 0 {
		opts.DrainPerTick = defaultDrain
	}
	if opts.SaveEvery <= 0 {
		opts.SaveEvery = defaultSaveEvery
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store := opts.Store
	if store == nil {
		var err error
		store, err = storage.NewStore(opts.StoreKind, opts.DBPath)
		if err != nil {
			return nil, err
		}
	}

	varEngine, err := variation.New(cfg.Variation, rand.New(rand.NewSource(opts.Seed+1)), opts.Observer)
	if err != nil {
		return nil, err
	}
	breedEngine, err := breeding.New(cfg.Breeding, rand.New(rand.NewSource(opts.Seed+2)), varEngine, opts.Observer)
	if err != nil {
		return nil, err
	}
	exprEngine, err := expression.New(cfg.Expression, rand.New(rand.NewSource(opts.Seed+3)), opts.Observer)
	if err != nil {
		return nil, err
	}
	adaptEngine := adaptation.New(cfg.Adaptation, opts.Observer)

	return &Client{
		opts:       opts,
		cfg:        cfg,
		logger:     logger,
		store:      store,
		session:    opts.SessionID,
		variation:  varEngine,
		breeding:   breedEngine,
		expression: exprEngine,
		adaptation: adaptEngine,
		genotypes:  make(map[string]*model.Genotype),
	}, nil
}

// Init opens the store and restores any prior state saved under the same
// session id. Persistence is best-effort end to end: a store that fails to
// open or restore degrades to a logged warning and the client runs on empty
// in-memory state.
func (c *Client) Init(ctx context.Context) {
	if err := c.store.Init(ctx); err != nil {
		c.logger.Printf("phytogen: init store: %v", err)
	} else if err := c.restore(ctx); err != nil {
		c.logger.Printf("phytogen: restore session %s: %v", c.session, err)
	}
	c.initialized = true
}

// Close persists best-effort and releases the store.
func (c *Client) Close() error {
	if c.initialized {
		c.persist(context.Background())
	}
	c.initialized = false
	return storage.CloseIfSupported(c.store)
}

// SessionID returns the id keying this client's persisted state.
func (c *Client) SessionID() string {
	return c.session
}

// CreateFounderGenotype introduces a generation-1 genotype and registers it
// with the lineage ledger.
func (c *Client) CreateFounderGenotype(ctx context.Context, req FounderRequest) (*model.Genotype, error) {
	if !c.initialized {
		return nil, ErrNotInitialized
	}
	return c.adoptFounder(ctx, req)
}

// EnqueueFounder queues a founder introduction for a later Tick. The minted
// genotype id is reported on the draining tick's TickReport.
func (c *Client) EnqueueFounder(req FounderRequest) error {
	if !c.initialized {
		return ErrNotInitialized
	}
	if len(c.founderQueue) >= c.opts.QueueCap {
		return breeding.ErrQueueFull
	}
	c.founderQueue = append(c.founderQueue, req)
	return nil
}

func (c *Client) adoptFounder(ctx context.Context, req FounderRequest) (*model.Genotype, error) {
	founder, err := genotype.NewFounder(req.StrainID, req.StrainName, req.Alleles, req.Traits)
	if err != nil {
		return nil, err
	}
	c.breeding.RegisterFounder(founder)
	registered := c.register(founder)
	c.saveGenotype(ctx, founder)
	return registered, nil
}

// Genotype returns a registered genotype by id.
func (c *Client) Genotype(id string) (*model.Genotype, bool) {
	g, ok := c.genotypes[id]
	return g, ok
}

// GenotypeIDs lists the ids of every registered genotype.
func (c *Client) GenotypeIDs() []string {
	ids := make([]string, 0, len(c.genotypes))
	for id := range c.genotypes {
		ids = append(ids, id)
	}
	return ids
}

// Breed crosses two registered genotypes immediately. Failed attempts are
// reported on the Result, not as errors; errors mean the request itself was
// unusable.
func (c *Client) Breed(ctx context.Context, parentAID, parentBID string, method model.BreedingMethod) (breeding.Result, error) {
	if !c.initialized {
		return breeding.Result{}, ErrNotInitialized
	}
	parentA, ok := c.genotypes[parentAID]
	if !ok {
		return breeding.Result{}, fmt.Errorf("parent %s: %w", parentAID, ErrGenotypeUnknown)
	}
	parentB, ok := c.genotypes[parentBID]
	if !ok {
		return breeding.Result{}, fmt.Errorf("parent %s: %w", parentBID, ErrGenotypeUnknown)
	}

	res := c.breeding.Breed(parentA, parentB, method)
	c.adoptOffspring(ctx, res)
	return res, nil
}

// EnqueueBreed queues a cross for a later Tick.
func (c *Client) EnqueueBreed(parentAID, parentBID string, method model.BreedingMethod) error {
	if !c.initialized {
		return ErrNotInitialized
	}
	parentA, ok := c.genotypes[parentAID]
	if !ok {
		return fmt.Errorf("parent %s: %w", parentAID, ErrGenotypeUnknown)
	}
	parentB, ok := c.genotypes[parentBID]
	if !ok {
		return fmt.Errorf("parent %s: %w", parentBID, ErrGenotypeUnknown)
	}
	return c.breeding.Enqueue(parentA, parentB, method)
}

// ExpressPhenotype computes (or returns the cached) phenotype of a
// registered genotype under env.
func (c *Client) ExpressPhenotype(genotypeID string, env *model.Environment) (*model.Phenotype, error) {
	if !c.initialized {
		return nil, ErrNotInitialized
	}
	g, ok := c.genotypes[genotypeID]
	if !ok {
		return nil, fmt.Errorf("genotype %s: %w", genotypeID, ErrGenotypeUnknown)
	}
	return c.expression.Express(g, env)
}

// EnqueueExpress queues a phenotype computation for a later Tick.
func (c *Client) EnqueueExpress(genotypeID string, env *model.Environment) error {
	if !c.initialized {
		return ErrNotInitialized
	}
	if _, ok := c.genotypes[genotypeID]; !ok {
		return fmt.Errorf("genotype %s: %w", genotypeID, ErrGenotypeUnknown)
	}
	if len(c.expressQueue) >= c.opts.QueueCap {
		return breeding.ErrQueueFull
	}
	c.expressQueue = append(c.expressQueue, expressRequest{genotypeID: genotypeID, env: copyEnv(env)})
	return nil
}

// ProcessExposure applies one exposure tick of duration dt to a registered
// genotype.
func (c *Client) ProcessExposure(genotypeID string, env *model.Environment, dt time.Duration) error {
	if !c.initialized {
		return ErrNotInitialized
	}
	g, ok := c.genotypes[genotypeID]
	if !ok {
		return fmt.Errorf("genotype %s: %w", genotypeID, ErrGenotypeUnknown)
	}
	c.adaptation.ProcessExposure(g, env, dt)
	return nil
}

// EnqueueExposure queues an exposure tick for a later Tick.
func (c *Client) EnqueueExposure(genotypeID string, env *model.Environment, dt time.Duration) error {
	if !c.initialized {
		return ErrNotInitialized
	}
	if _, ok := c.genotypes[genotypeID]; !ok {
		return fmt.Errorf("genotype %s: %w", genotypeID, ErrGenotypeUnknown)
	}
	if env == nil {
		return ErrNilEnvironment
	}
	if len(c.exposureQueue) >= c.opts.QueueCap {
		return breeding.ErrQueueFull
	}
	c.exposureQueue = append(c.exposureQueue, exposureRequest{genotypeID: genotypeID, env: copyEnv(env), dt: dt})
	return nil
}

// Tick drains each queue FIFO under its per-tick cap and persists on the
// SaveEvery interval.
func (c *Client) Tick(ctx context.Context) (TickReport, error) {
	if !c.initialized {
		return TickReport{}, ErrNotInitialized
	}

	report := TickReport{}

	n := c.opts.DrainPerTick
	if n > len(c.founderQueue) {
		n = len(c.founderQueue)
	}
	for _, req := range c.founderQueue[:n] {
		founder, err := c.adoptFounder(ctx, req)
		if err != nil {
			c.logger.Printf("phytogen: queued founder %s: %v", req.StrainID, err)
			continue
		}
		report.FounderIDs = append(report.FounderIDs, founder.ID)
	}
	c.founderQueue = c.founderQueue[n:]

	report.BreedingResults = c.breeding.DrainTick()
	for _, res := range report.BreedingResults {
		c.adoptOffspring(ctx, res)
	}

	n = c.opts.DrainPerTick
	if n > len(c.expressQueue) {
		n = len(c.expressQueue)
	}
	for _, req := range c.expressQueue[:n] {
		g, ok := c.genotypes[req.genotypeID]
		if !ok {
			continue
		}
		if _, err := c.expression.Express(g, req.env); err != nil {
			c.logger.Printf("phytogen: queued expression for %s: %v", req.genotypeID, err)
			continue
		}
		report.Expressed++
	}
	c.expressQueue = c.expressQueue[n:]

	n = c.opts.DrainPerTick
	if n > len(c.exposureQueue) {
		n = len(c.exposureQueue)
	}
	for _, req := range c.exposureQueue[:n] {
		g, ok := c.genotypes[req.genotypeID]
		if !ok {
			continue
		}
		c.adaptation.ProcessExposure(g, req.env, req.dt)
		report.Exposures++
	}
	c.exposureQueue = c.exposureQueue[n:]

	c.ticks++
	if c.ticks%c.opts.SaveEvery == 0 {
		c.persist(ctx)
		report.Persisted = true
	}
	return report, nil
}

// PendingFounders through PendingExposure report queue depths.
func (c *Client) PendingFounders() int { return len(c.founderQueue) }
func (c *Client) PendingBreeding() int { return c.breeding.Pending() }
func (c *Client) PendingExpress() int  { return len(c.expressQueue) }
func (c *Client) PendingExposure() int { return len(c.exposureQueue) }

// History returns the breeding ledger.
func (c *Client) History() []model.BreedingRecord {
	return c.breeding.History()
}

// Lineage returns one genotype's ancestry entry.
func (c *Client) Lineage(genotypeID string) (model.LineageEntry, bool) {
	return c.breeding.Lineage(genotypeID)
}

// LineageEntries returns the full ancestry ledger.
func (c *Client) LineageEntries() []model.LineageEntry {
	return c.breeding.LineageEntries()
}

// BreedingStats returns the rolling breeding counters.
func (c *Client) BreedingStats() breeding.Stats {
	return c.breeding.Stats()
}

// ExpressionCacheStats returns phenotype cache hit/miss counters.
func (c *Client) ExpressionCacheStats() (hits, misses int) {
	return c.expression.CacheStats()
}

// AdaptationState exposes the adaptation progress of one genotype under env.
func (c *Client) AdaptationState(genotypeID string, env *model.Environment) (model.AdaptationState, bool) {
	return c.adaptation.State(genotypeID, env)
}

// StressProfile exposes one genotype's rolling stress history.
func (c *Client) StressProfile(genotypeID string) (model.StressProfile, bool) {
	return c.adaptation.Profile(genotypeID)
}

// GenerateVariation derives a mutated variant of a registered genotype and
// registers the child.
func (c *Client) GenerateVariation(ctx context.Context, genotypeID string) (*model.Genotype, error) {
	if !c.initialized {
		return nil, ErrNotInitialized
	}
	g, ok := c.genotypes[genotypeID]
	if !ok {
		return nil, fmt.Errorf("genotype %s: %w", genotypeID, ErrGenotypeUnknown)
	}
	child, err := c.variation.GenerateVariation(g)
	if err != nil {
		return nil, err
	}
	registered := c.register(child)
	c.saveGenotype(ctx, child)
	return registered, nil
}

func (c *Client) register(g model.Genotype) *model.Genotype {
	copied := g
	c.genotypes[copied.ID] = &copied
	return &copied
}

func (c *Client) adoptOffspring(ctx context.Context, res breeding.Result) {
	if !res.Success {
		return
	}
	for _, child := range res.Offspring {
		c.register(child)
		c.saveGenotype(ctx, child)
	}
}

// saveGenotype is best-effort: persistence failures are logged and the
// in-memory state stays authoritative.
func (c *Client) saveGenotype(ctx context.Context, g model.Genotype) {
	if err := c.store.SaveGenotype(ctx, g); err != nil {
		c.logger.Printf("phytogen: save genotype %s: %v", g.ID, err)
	}
}

func (c *Client) persist(ctx context.Context) {
	if err := c.store.SaveBreedingHistory(ctx, c.session, c.breeding.History()); err != nil {
		c.logger.Printf("phytogen: save breeding history: %v", err)
	}
	if err := c.store.SaveLineage(ctx, c.session, c.breeding.LineageEntries()); err != nil {
		c.logger.Printf("phytogen: save lineage: %v", err)
	}
	if err := c.store.SaveAdaptationSnapshot(ctx, c.session, c.adaptation.Snapshot()); err != nil {
		c.logger.Printf("phytogen: save adaptation snapshot: %v", err)
	}
	for _, g := range c.genotypes {
		c.saveGenotype(ctx, *g)
	}
}

func (c *Client) restore(ctx context.Context) error {
	ids, err := c.store.ListGenotypeIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		g, ok, err := c.store.GetGenotype(ctx, id)
		if err != nil {
			return fmt.Errorf("restore genotype %s: %w", id, err)
		}
		if ok {
			c.register(g)
		}
	}

	if history, ok, err := c.store.GetBreedingHistory(ctx, c.session); err != nil {
		return fmt.Errorf("restore breeding history: %w", err)
	} else if ok {
		c.breeding.RestoreHistory(history)
	}
	if lineage, ok, err := c.store.GetLineage(ctx, c.session); err != nil {
		return fmt.Errorf("restore lineage: %w", err)
	} else if ok {
		c.breeding.RestoreLineage(lineage)
	}
	if snapshot, ok, err := c.store.GetAdaptationSnapshot(ctx, c.session); err != nil {
		return fmt.Errorf("restore adaptation snapshot: %w", err)
	} else if ok {
		c.adaptation.Restore(snapshot)
	}
	return nil
}
