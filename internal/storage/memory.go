package storage

import (
	"context"
	"sync"

	"phytogen/internal/genotype"
	"phytogen/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	genotypes   map[string]model.Genotype
	history     map[string][]model.BreedingRecord
	lineage     map[string][]model.LineageEntry
	adaptation  map[string]model.AdaptationSnapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	s.initialized = true
	s.genotypes = make(map[string]model.Genotype)
	s.history = make(map[string][]model.BreedingRecord)
	s.lineage = make(map[string][]model.LineageEntry)
	s.adaptation = make(map[string]model.AdaptationSnapshot)
	return nil
}

func (s *MemoryStore) SaveGenotype(_ context.Context, g model.Genotype) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Genotypes carry maps; clone so later engine mutations do not leak
	// into stored records.
	s.genotypes[g.ID] = genotype.CloneGenotype(g)
	return nil
}

func (s *MemoryStore) GetGenotype(_ context.Context, id string) (model.Genotype, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.genotypes[id]
	if !ok {
		return model.Genotype{}, false, nil
	}
	return genotype.CloneGenotype(g), true, nil
}

func (s *MemoryStore) ListGenotypeIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.genotypes))
	for id := range s.genotypes {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *MemoryStore) SaveBreedingHistory(_ context.Context, sessionID string, records []model.BreedingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]model.BreedingRecord, len(records))
	copy(copied, records)
	s.history[sessionID] = copied
	return nil
}

func (s *MemoryStore) GetBreedingHistory(_ context.Context, sessionID string) ([]model.BreedingRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records, ok := s.history[sessionID]
	if !ok {
		return nil, false, nil
	}
	copied := make([]model.BreedingRecord, len(records))
	copy(copied, records)
	return copied, true, nil
}

func (s *MemoryStore) SaveLineage(_ context.Context, sessionID string, entries []model.LineageEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]model.LineageEntry, len(entries))
	copy(copied, entries)
	s.lineage[sessionID] = copied
	return nil
}

func (s *MemoryStore) GetLineage(_ context.Context, sessionID string) ([]model.LineageEntry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, ok := s.lineage[sessionID]
	if !ok {
		return nil, false, nil
	}
	copied := make([]model.LineageEntry, len(entries))
	copy(copied, entries)
	return copied, true, nil
}

func (s *MemoryStore) SaveAdaptationSnapshot(_ context.Context, sessionID string, snapshot model.AdaptationSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.adaptation[sessionID] = cloneSnapshot(snapshot)
	return nil
}

func (s *MemoryStore) GetAdaptationSnapshot(_ context.Context, sessionID string) (model.AdaptationSnapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, ok := s.adaptation[sessionID]
	if !ok {
		return model.AdaptationSnapshot{}, false, nil
	}
	return cloneSnapshot(snapshot), true, nil
}

func cloneSnapshot(snapshot model.AdaptationSnapshot) model.AdaptationSnapshot {
	out := snapshot
	out.States = append([]model.AdaptationState(nil), snapshot.States...)
	out.Modifications = append([]model.EpigeneticModification(nil), snapshot.Modifications...)
	out.History = append([]model.AdaptationHistoryEntry(nil), snapshot.History...)
	out.Profiles = make([]model.StressProfile, 0, len(snapshot.Profiles))
	for _, p := range snapshot.Profiles {
		profile := p
		profile.Events = append([]model.StressEvent(nil), p.Events...)
		out.Profiles = append(out.Profiles, profile)
	}
	return out
}
