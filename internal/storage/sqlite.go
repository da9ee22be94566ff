//go:build sqlite

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"phytogen/internal/model"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveGenotype(ctx context.Context, g model.Genotype) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeGenotype(g)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO genotypes (id, schema_version, codec_version, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			payload = excluded.payload
	`, g.ID, g.SchemaVersion, g.CodecVersion, payload)
	return err
}

func (s *SQLiteStore) GetGenotype(ctx context.Context, id string) (model.Genotype, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.Genotype{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM genotypes WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Genotype{}, false, nil
		}
		return model.Genotype{}, false, err
	}

	g, err := DecodeGenotype(payload)
	if err != nil {
		return model.Genotype{}, false, fmt.Errorf("decode genotype %s: %w", id, err)
	}
	return g, true, nil
}

func (s *SQLiteStore) ListGenotypeIDs(ctx context.Context) ([]string, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT id FROM genotypes`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) SaveBreedingHistory(ctx context.Context, sessionID string, records []model.BreedingRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeBreedingHistory(records)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO breeding_history (session_id, payload)
		VALUES (?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			payload = excluded.payload
	`, sessionID, payload)
	return err
}

func (s *SQLiteStore) GetBreedingHistory(ctx context.Context, sessionID string) ([]model.BreedingRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM breeding_history WHERE session_id = ?`, sessionID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	records, err := DecodeBreedingHistory(payload)
	if err != nil {
		return nil, false, fmt.Errorf("decode breeding history %s: %w", sessionID, err)
	}
	return records, true, nil
}

func (s *SQLiteStore) SaveLineage(ctx context.Context, sessionID string, entries []model.LineageEntry) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeLineage(entries)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO lineage (session_id, payload)
		VALUES (?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			payload = excluded.payload
	`, sessionID, payload)
	return err
}

func (s *SQLiteStore) GetLineage(ctx context.Context, sessionID string) ([]model.LineageEntry, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM lineage WHERE session_id = ?`, sessionID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	entries, err := DecodeLineage(payload)
	if err != nil {
		return nil, false, fmt.Errorf("decode lineage %s: %w", sessionID, err)
	}
	return entries, true, nil
}

func (s *SQLiteStore) SaveAdaptationSnapshot(ctx context.Context, sessionID string, snapshot model.AdaptationSnapshot) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeAdaptationSnapshot(snapshot)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO adaptation (session_id, schema_version, codec_version, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			payload = excluded.payload
	`, sessionID, snapshot.SchemaVersion, snapshot.CodecVersion, payload)
	return err
}

func (s *SQLiteStore) GetAdaptationSnapshot(ctx context.Context, sessionID string) (model.AdaptationSnapshot, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.AdaptationSnapshot{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM adaptation WHERE session_id = ?`, sessionID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.AdaptationSnapshot{}, false, nil
		}
		return model.AdaptationSnapshot{}, false, err
	}

	snapshot, err := DecodeAdaptationSnapshot(payload)
	if err != nil {
		return model.AdaptationSnapshot{}, false, fmt.Errorf("decode adaptation snapshot %s: %w", sessionID, err)
	}
	return snapshot, true, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS genotypes (
			id TEXT PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS breeding_history (
			session_id TEXT PRIMARY KEY,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS lineage (
			session_id TEXT PRIMARY KEY,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS adaptation (
			session_id TEXT PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
	`)
	return err
}
