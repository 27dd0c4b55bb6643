// Package models defines the session record and the API payload shapes.
package models

import "time"

// SessionRecord is the persisted result of one processed upload.
// Records are immutable once inserted; there is no update path.
type SessionRecord struct {
	ID               string    `json:"id"`
	Timestamp        time.Time `json:"timestamp"`
	OriginalFilename string    `json:"originalFilename"`
	Mimetype         string    `json:"mimetype"`
	Size             int64     `json:"size"`
	AudioPath        string    `json:"audioPath"`
	RawTranscript    string    `json:"rawTranscript"`
	Transcript       string    `json:"transcript"`
	Summary          string    `json:"summary"`
	Embedding        []float32 `json:"embedding"`
}

// UploadResponse is returned by POST /sessions/upload. The embedding itself
// is not echoed back, only its dimensionality.
type UploadResponse struct {
	ID                  string `json:"id"`
	OriginalFilename    string `json:"originalFilename"`
	Mimetype            string `json:"mimetype"`
	Size                int64  `json:"size"`
	Path                string `json:"path"`
	Status              string `json:"status"`
	RawTranscript       string `json:"rawTranscript"`
	Transcript          string `json:"transcript"`
	Summary             string `json:"summary"`
	EmbeddingDimensions int    `json:"embeddingDimensions"`
}

// SessionSummary is a single entry in the GET /sessions listing.
type SessionSummary struct {
	ID                  string    `json:"id"`
	Timestamp           time.Time `json:"timestamp"`
	OriginalFilename    string    `json:"originalFilename"`
	Mimetype            string    `json:"mimetype"`
	Size                int64     `json:"size"`
	Summary             string    `json:"summary"`
	EmbeddingDimensions int       `json:"embeddingDimensions"`
}

// SessionDetail is returned by GET /sessions/{id}.
type SessionDetail struct {
	ID                  string            `json:"id"`
	Timestamp           time.Time         `json:"timestamp"`
	OriginalFilename    string            `json:"originalFilename"`
	Mimetype            string            `json:"mimetype"`
	Size                int64             `json:"size"`
	AudioPath           string            `json:"audioPath"`
	RawTranscript       string            `json:"rawTranscript"`
	Transcript          string            `json:"transcript"`
	Entries             []TranscriptEntry `json:"entries"`
	Summary             string            `json:"summary"`
	EmbeddingDimensions int               `json:"embeddingDimensions"`
}

// NewUploadResponse builds the upload payload for a stored record.
func NewUploadResponse(rec *SessionRecord) UploadResponse {
	return UploadResponse{
		ID:                  rec.ID,
		OriginalFilename:    rec.OriginalFilename,
		Mimetype:            rec.Mimetype,
		Size:                rec.Size,
		Path:                rec.AudioPath,
		Status:              "transcribed",
		RawTranscript:       rec.RawTranscript,
		Transcript:          rec.Transcript,
		Summary:             rec.Summary,
		EmbeddingDimensions: len(rec.Embedding),
	}
}

// NewSessionSummary builds a listing entry for a stored record.
func NewSessionSummary(rec *SessionRecord) SessionSummary {
	return SessionSummary{
		ID:                  rec.ID,
		Timestamp:           rec.Timestamp,
		OriginalFilename:    rec.OriginalFilename,
		Mimetype:            rec.Mimetype,
		Size:                rec.Size,
		Summary:             rec.Summary,
		EmbeddingDimensions: len(rec.Embedding),
	}
}

// NewSessionDetail builds the detail payload, including the transcript
// parsed into per-speaker entries.
func NewSessionDetail(rec *SessionRecord) SessionDetail {
	return SessionDetail{
		ID:                  rec.ID,
		Timestamp:           rec.Timestamp,
		OriginalFilename:    rec.OriginalFilename,
		Mimetype:            rec.Mimetype,
		Size:                rec.Size,
		AudioPath:           rec.AudioPath,
		RawTranscript:       rec.RawTranscript,
		Transcript:          rec.Transcript,
		Entries:             ParseTranscript(rec.Transcript),
		Summary:             rec.Summary,
		EmbeddingDimensions: len(rec.Embedding),
	}
}
