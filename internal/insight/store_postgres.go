package insight

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/adityanexturn/profilescope/internal/analysis"
)

const insightCacheSchema = `
CREATE TABLE IF NOT EXISTS insight_cache (
	fingerprint  TEXT PRIMARY KEY,
	payload      JSONB NOT NULL,
	generated_at TIMESTAMPTZ NOT NULL
)`

// PostgresStore persists insights so cache entries survive restarts and
// are shared across replicas.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the cache table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, insightCacheSchema); err != nil {
		return fmt.Errorf("ensure insight_cache schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, fingerprint string) (*analysis.Insight, error) {
	var (
		payload     []byte
		generatedAt time.Time
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, generated_at FROM insight_cache WHERE fingerprint = $1`,
		fingerprint,
	).Scan(&payload, &generatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get insight %s: %w", fingerprint, err)
	}

	var ins analysis.Insight
	if err := json.Unmarshal(payload, &ins); err != nil {
		return nil, fmt.Errorf("decode insight %s: %w", fingerprint, err)
	}
	ins.Fingerprint = fingerprint
	ins.GeneratedAt = generatedAt
	return &ins, nil
}

func (s *PostgresStore) Set(ctx context.Context, fingerprint string, ins *analysis.Insight) error {
	payload, err := json.Marshal(ins)
	if err != nil {
		return fmt.Errorf("encode insight %s: %w", fingerprint, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO insight_cache (fingerprint, payload, generated_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (fingerprint) DO UPDATE SET payload = $2, generated_at = $3`,
		fingerprint, payload, ins.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("set insight %s: %w", fingerprint, err)
	}
	return nil
}

func (s *PostgresStore) Evict(ctx context.Context, fingerprint string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM insight_cache WHERE fingerprint = $1`, fingerprint,
	); err != nil {
		return fmt.Errorf("evict insight %s: %w", fingerprint, err)
	}
	return nil
}
