// Package file implements the session store on flat JSON files: one
// append-only index with every record, plus one file per record for direct
// lookup by id.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"therapy-session-service/internal/models"
	"therapy-session-service/internal/observability/logging"
	"therapy-session-service/internal/store"
)

const indexFile = "sessions-index.json"

// Store is a file-backed session store rooted at a single directory.
// The index update is a read-modify-write, so a process-wide mutex
// serializes inserts; two uploads completing at once must not lose an
// index entry.
type Store struct {
	dir    string
	mu     sync.Mutex
	logger zerolog.Logger
}

// New creates the data directory if needed and returns the store.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{
		dir:    dir,
		logger: logging.WithComponent("file-store"),
	}, nil
}

// Insert writes the per-record file, then appends the record to the index.
func (s *Store) Insert(ctx context.Context, rec *models.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.recordPath(rec.ID)
	if path == "" {
		return fmt.Errorf("invalid session id %q", rec.ID)
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("session %s already exists", rec.ID)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := writeAtomic(path, data); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}

	records, err := s.readIndex()
	if err != nil {
		// Roll back the record file so a failed insert leaves no trace.
		_ = os.Remove(path)
		return fmt.Errorf("read index: %w", err)
	}
	records = append(records, rec)

	indexData, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("marshal index: %w", err)
	}
	if err := writeAtomic(filepath.Join(s.dir, indexFile), indexData); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}

// ListAll returns all records newest first. Any read failure is logged and
// yields an empty slice.
func (s *Store) ListAll(ctx context.Context) []*models.SessionRecord {
	s.mu.Lock()
	records, err := s.readIndex()
	s.mu.Unlock()
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read session index")
		return []*models.SessionRecord{}
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})
	return records
}

// GetByID reads the per-record file directly. Unknown ids and read
// failures both report absent.
func (s *Store) GetByID(ctx context.Context, id string) (*models.SessionRecord, bool) {
	path := s.recordPath(id)
	if path == "" {
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Error().Err(err).Str("sessionId", id).Msg("Failed to read session file")
		}
		return nil, false
	}

	var rec models.SessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		s.logger.Error().Err(err).Str("sessionId", id).Msg("Failed to decode session file")
		return nil, false
	}
	return &rec, true
}

// FindSimilar ranks all records by cosine similarity against the query
// vector, in process.
func (s *Store) FindSimilar(ctx context.Context, query []float32, limit int) []*models.SessionRecord {
	if limit <= 0 {
		limit = store.DefaultSimilarityLimit
	}

	s.mu.Lock()
	records, err := s.readIndex()
	s.mu.Unlock()
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read session index for similarity search")
		return []*models.SessionRecord{}
	}

	type scored struct {
		rec   *models.SessionRecord
		score float64
	}
	matches := make([]scored, 0, len(records))
	for _, rec := range records {
		score := cosineSimilarity(query, rec.Embedding)
		if score >= store.SimilarityThreshold {
			matches = append(matches, scored{rec: rec, score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]*models.SessionRecord, len(matches))
	for i, m := range matches {
		out[i] = m.rec
	}
	return out
}

// Close is a no-op for the file backend.
func (s *Store) Close(ctx context.Context) error {
	return nil
}

// recordPath returns the per-record file path, or "" for ids that would
// escape the data directory.
func (s *Store) recordPath(id string) string {
	if id == "" || id != filepath.Base(id) || id == "." || id == ".." {
		return ""
	}
	return filepath.Join(s.dir, id+".json")
}

func (s *Store) readIndex() ([]*models.SessionRecord, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, indexFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []*models.SessionRecord{}, nil
		}
		return nil, err
	}

	var records []*models.SessionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// writeAtomic writes via a temp file and rename so a crash mid-write never
// leaves a truncated index.
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
