package storage

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"phytogen/internal/model"
)

func fixturePath(name string) string {
	return filepath.Join("testdata", name)
}

func fixtureGenotype() model.Genotype {
	created := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	return model.Genotype{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		ID:              "g1",
		StrainID:        "strain-1",
		StrainName:      "Northern Haze",
		Generation:      2,
		CreatedAt:       created,
		Origin:          model.OriginBred,
		ParentIDs:       []string{"p1", "p2"},
		Alleles: map[string][]model.Allele{
			"leaf_size": {
				{
					ID:           "a1",
					GeneID:       "leaf_size",
					Name:         "broad",
					Expression:   0.8,
					Dominance:    0.6,
					Stability:    0.9,
					MutationRate: 0.05,
					Color:        &model.ColorPayload{Hue: 120, Saturation: 0.5, Value: 0.7},
					StrainWeights: map[string]float64{
						"strain-1": 0.7,
						"strain-2": 0.3,
					},
					Origin:    "bred",
					CreatedAt: created,
					Mutations: []model.MutationEvent{
						{Kind: "point_mutation", Field: "expression", Delta: 0.02, OccurredAt: created},
					},
				},
			},
		},
		Traits: []model.GeneticTrait{
			{Name: "growth_rate", ExpressedValue: 1.1, Dominance: 0.5},
		},
		Epigenetics: map[string]float64{"heat_shock": 0.4},
	}
}

func TestDecodeGenotypeFixture(t *testing.T) {
	data, err := os.ReadFile(fixturePath("minimal_genotype_v1.json"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}

	genotype, err := DecodeGenotype(data)
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	if genotype.ID != "genotype-minimal-1" {
		t.Fatalf("unexpected genotype id: %s", genotype.ID)
	}
	if genotype.StrainName != "Northern Haze" {
		t.Fatalf("unexpected strain name: %s", genotype.StrainName)
	}
	if len(genotype.Alleles["leaf_size"]) != 1 {
		t.Fatalf("unexpected alleles: %+v", genotype.Alleles)
	}
}

func TestDecodeGenotypeVersionMismatch(t *testing.T) {
	data, err := os.ReadFile(fixturePath("mismatched_genotype_v2.json"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}

	_, err = DecodeGenotype(data)
	if !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}
}

func TestGenotypeCodecRoundTrip(t *testing.T) {
	input := fixtureGenotype()

	data, err := EncodeGenotype(input)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	output, err := DecodeGenotype(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(input, output) {
		t.Fatalf("round trip lost data:\n in: %+v\nout: %+v", input, output)
	}
}

func TestBreedingHistoryCodecRoundTrip(t *testing.T) {
	input := []model.BreedingRecord{{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		ID:              "br1",
		ParentAID:       "p1",
		ParentBID:       "p2",
		Method:          model.StandardCross,
		Timestamp:       time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC),
		OffspringIDs:    []string{"c1", "c2"},
		Success:         true,
		Duration:        3 * time.Millisecond,
		PredictedTraits: map[string]float64{"growth_rate": 1.05},
	}}

	data, err := EncodeBreedingHistory(input)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	output, err := DecodeBreedingHistory(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(input, output) {
		t.Fatalf("round trip lost data:\n in: %+v\nout: %+v", input, output)
	}
}

func TestLineageCodecRejectsStaleEntries(t *testing.T) {
	input := []model.LineageEntry{{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion + 1, CodecVersion: CurrentCodecVersion},
		GenotypeID:      "g1",
		Generation:      1,
	}}

	data, err := EncodeLineage(input)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeLineage(data); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}
}

func TestAdaptationSnapshotCodecRoundTrip(t *testing.T) {
	now := time.Date(2025, 4, 3, 12, 0, 0, 0, time.UTC)
	input := model.AdaptationSnapshot{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		States: []model.AdaptationState{
			{GenotypeID: "g1", Fingerprint: "t40.0_h20.0_l600_c800_p1.00", Progress: 0.6, Applied: true, StartedAt: now, LastUpdate: now},
		},
		Modifications: []model.EpigeneticModification{
			{GenotypeID: "g1", Name: "heat_shock", Strength: 0.4, FirstTriggered: now, LastUpdated: now},
		},
		Profiles: []model.StressProfile{
			{
				GenotypeID:         "g1",
				Events:             []model.StressEvent{{Type: "temperature", Level: 0.5, Timestamp: now, Duration: time.Second}},
				AdaptationCapacity: 0.5,
				RecoveryRate:       0.1,
			},
		},
		History: []model.AdaptationHistoryEntry{
			{GenotypeID: "g1", Factor: "temperature", TraitName: "heat_tolerance", Delta: 0.025, Progress: 0.5, OccurredAt: now},
		},
	}

	data, err := EncodeAdaptationSnapshot(input)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	output, err := DecodeAdaptationSnapshot(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(input, output) {
		t.Fatalf("round trip lost data:\n in: %+v\nout: %+v", input, output)
	}
}
