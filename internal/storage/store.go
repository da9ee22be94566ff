package storage

import (
	"context"

	"phytogen/internal/model"
)

// Store defines persistence operations for genetics entities. Session-scoped
// records (history, lineage, adaptation) are keyed by the owning simulation
// session so multiple runs can share one backend.
type Store interface {
	Init(ctx context.Context) error
	SaveGenotype(ctx context.Context, genotype model.Genotype) error
	GetGenotype(ctx context.Context, id string) (model.Genotype, bool, error)
	ListGenotypeIDs(ctx context.Context) ([]string, error)
	SaveBreedingHistory(ctx context.Context, sessionID string, records []model.BreedingRecord) error
	GetBreedingHistory(ctx context.Context, sessionID string) ([]model.BreedingRecord, bool, error)
	SaveLineage(ctx context.Context, sessionID string, entries []model.LineageEntry) error
	GetLineage(ctx context.Context, sessionID string) ([]model.LineageEntry, bool, error)
	SaveAdaptationSnapshot(ctx context.Context, sessionID string, snapshot model.AdaptationSnapshot) error
	GetAdaptationSnapshot(ctx context.Context, sessionID string) (model.AdaptationSnapshot, bool, error)
}
