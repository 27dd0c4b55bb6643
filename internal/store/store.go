// Package store defines the session store contract shared by the file and
// postgres backends.
package store

import (
	"context"

	"therapy-session-service/internal/models"
)

// Similarity search defaults shared by both backends.
const (
	// DefaultSimilarityLimit caps FindSimilar results when no limit is given.
	DefaultSimilarityLimit = 5

	// SimilarityThreshold is the minimum cosine similarity for a match.
	SimilarityThreshold = 0.7
)

// Store persists session records. Writes fail loudly; reads degrade to
// empty results so a broken backend never takes down the read path.
type Store interface {
	// Insert makes the record visible to subsequent reads. It fails if the
	// backing medium rejects the write, including duplicate ids.
	Insert(ctx context.Context, rec *models.SessionRecord) error

	// ListAll returns every record ordered newest first. Read failures
	// yield an empty slice.
	ListAll(ctx context.Context) []*models.SessionRecord

	// GetByID returns the record and true, or nil and false when the id is
	// unknown or the read fails.
	GetByID(ctx context.Context, id string) (*models.SessionRecord, bool)

	// FindSimilar returns up to limit records whose embeddings have cosine
	// similarity of at least SimilarityThreshold with the query vector,
	// most similar first. Unsupported or failing backends return an empty
	// slice.
	FindSimilar(ctx context.Context, query []float32, limit int) []*models.SessionRecord

	// Close releases backend resources.
	Close(ctx context.Context) error
}
