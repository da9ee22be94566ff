package storage

import (
	"encoding/json"
	"errors"

	"phytogen/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeGenotype(g model.Genotype) ([]byte, error) {
	return json.Marshal(g)
}

func DecodeGenotype(data []byte) (model.Genotype, error) {
	var genotype model.Genotype
	if err := json.Unmarshal(data, &genotype); err != nil {
		return model.Genotype{}, err
	}
	if err := checkVersion(genotype.VersionedRecord); err != nil {
		return model.Genotype{}, err
	}
	return genotype, nil
}

func EncodeBreedingHistory(records []model.BreedingRecord) ([]byte, error) {
	return json.Marshal(records)
}

func DecodeBreedingHistory(data []byte) ([]model.BreedingRecord, error) {
	var records []model.BreedingRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	for _, record := range records {
		if err := checkVersion(record.VersionedRecord); err != nil {
			return nil, err
		}
	}
	return records, nil
}

func EncodeLineage(entries []model.LineageEntry) ([]byte, error) {
	return json.Marshal(entries)
}

func DecodeLineage(data []byte) ([]model.LineageEntry, error) {
	var entries []model.LineageEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if err := checkVersion(entry.VersionedRecord); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func EncodeAdaptationSnapshot(snapshot model.AdaptationSnapshot) ([]byte, error) {
	return json.Marshal(snapshot)
}

func DecodeAdaptationSnapshot(data []byte) (model.AdaptationSnapshot, error) {
	var snapshot model.AdaptationSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return model.AdaptationSnapshot{}, err
	}
	if err := checkVersion(snapshot.VersionedRecord); err != nil {
		return model.AdaptationSnapshot{}, err
	}
	return snapshot, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
