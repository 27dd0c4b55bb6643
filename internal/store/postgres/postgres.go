// Package postgres implements the session store on Postgres with the
// pgvector extension for similarity search.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"github.com/rs/zerolog"

	"therapy-session-service/internal/models"
	"therapy-session-service/internal/observability/logging"
	"therapy-session-service/internal/store"
)

// Store is a Postgres-backed session store. The pool handles concurrent
// inserts; the primary key rejects duplicate ids.
type Store struct {
	pool       *pgxpool.Pool
	dimensions int
	logger     zerolog.Logger
}

// New connects to the database, ensures the schema, and returns the store.
// dimensions fixes the vector column width and must match the embedding
// model in use.
func New(ctx context.Context, databaseURL string, dimensions int) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &Store{
		pool:       pool,
		dimensions: dimensions,
		logger:     logging.WithComponent("postgres-store"),
	}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector;"); err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}

	tableQuery := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS therapy_sessions (
			id VARCHAR(64) PRIMARY KEY,
			timestamp TIMESTAMPTZ NOT NULL,
			original_filename TEXT NOT NULL,
			mimetype TEXT NOT NULL,
			file_size BIGINT NOT NULL,
			audio_path TEXT NOT NULL DEFAULT '',
			raw_transcript TEXT NOT NULL,
			transcript TEXT NOT NULL,
			summary TEXT NOT NULL,
			embedding vector(%d)
		);
	`, s.dimensions)
	if _, err := s.pool.Exec(ctx, tableQuery); err != nil {
		return fmt.Errorf("create therapy_sessions table: %w", err)
	}

	if _, err := s.pool.Exec(ctx,
		"CREATE INDEX IF NOT EXISTS idx_therapy_sessions_timestamp ON therapy_sessions (timestamp DESC);"); err != nil {
		return fmt.Errorf("create timestamp index: %w", err)
	}

	// The vector index needs data to be useful; failure to build it only
	// slows search down, it never breaks it.
	if _, err := s.pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS idx_therapy_sessions_embedding
		ON therapy_sessions
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100);
	`); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to create vector index")
	}

	return nil
}

// Insert writes the record; the primary key enforces id uniqueness.
func (s *Store) Insert(ctx context.Context, rec *models.SessionRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO therapy_sessions
			(id, timestamp, original_filename, mimetype, file_size, audio_path, raw_transcript, transcript, summary, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, rec.ID, rec.Timestamp, rec.OriginalFilename, rec.Mimetype, rec.Size,
		rec.AudioPath, rec.RawTranscript, rec.Transcript, rec.Summary,
		pgvector.NewVector(rec.Embedding))
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

const selectColumns = `id, timestamp, original_filename, mimetype, file_size, audio_path, raw_transcript, transcript, summary, embedding`

// ListAll returns all records newest first; read failures degrade to an
// empty slice.
func (s *Store) ListAll(ctx context.Context) []*models.SessionRecord {
	rows, err := s.pool.Query(ctx,
		"SELECT "+selectColumns+" FROM therapy_sessions ORDER BY timestamp DESC")
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list sessions")
		return []*models.SessionRecord{}
	}
	defer rows.Close()

	records := make([]*models.SessionRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to scan session row")
			return []*models.SessionRecord{}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		s.logger.Error().Err(err).Msg("Failed while iterating session rows")
		return []*models.SessionRecord{}
	}
	return records
}

// GetByID returns the record or absent; read failures report absent.
func (s *Store) GetByID(ctx context.Context, id string) (*models.SessionRecord, bool) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+selectColumns+" FROM therapy_sessions WHERE id = $1", id)
	if err != nil {
		s.logger.Error().Err(err).Str("sessionId", id).Msg("Failed to query session")
		return nil, false
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, false
	}
	rec, err := scanRecord(rows)
	if err != nil {
		s.logger.Error().Err(err).Str("sessionId", id).Msg("Failed to scan session")
		return nil, false
	}
	return rec, true
}

// FindSimilar ranks records by cosine similarity using pgvector's `<=>`
// operator.
func (s *Store) FindSimilar(ctx context.Context, query []float32, limit int) []*models.SessionRecord {
	if limit <= 0 {
		limit = store.DefaultSimilarityLimit
	}

	vec := pgvector.NewVector(query)
	rows, err := s.pool.Query(ctx, `
		SELECT `+selectColumns+`
		FROM therapy_sessions
		WHERE embedding IS NOT NULL
		  AND 1 - (embedding <=> $1) >= $2
		ORDER BY embedding <=> $1
		LIMIT $3
	`, vec, store.SimilarityThreshold, limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to run similarity search")
		return []*models.SessionRecord{}
	}
	defer rows.Close()

	records := make([]*models.SessionRecord, 0, limit)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to scan similarity row")
			return []*models.SessionRecord{}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		s.logger.Error().Err(err).Msg("Failed while iterating similarity rows")
		return []*models.SessionRecord{}
	}
	return records
}

// Close releases the connection pool.
func (s *Store) Close(ctx context.Context) error {
	s.pool.Close()
	return nil
}

func scanRecord(rows pgx.Rows) (*models.SessionRecord, error) {
	var rec models.SessionRecord
	var vec pgvector.Vector
	if err := rows.Scan(&rec.ID, &rec.Timestamp, &rec.OriginalFilename,
		&rec.Mimetype, &rec.Size, &rec.AudioPath, &rec.RawTranscript,
		&rec.Transcript, &rec.Summary, &vec); err != nil {
		return nil, err
	}
	rec.Embedding = vec.Slice()
	return &rec, nil
}
