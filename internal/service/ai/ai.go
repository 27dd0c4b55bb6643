// Package ai defines the interfaces for the AI provider adapters used by
// the session pipeline, and the error taxonomy that identifies which
// pipeline stage failed.
package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Pipeline stage names, used in errors, logs and metrics.
const (
	StageTranscribe = "transcribe"
	StageLabel      = "label"
	StageSummarize  = "summarize"
	StageEmbed      = "embed"
	StageStore      = "store"
)

// Audio is an uploaded audio blob handed to the transcriber. Mimetype and
// Filename are passed through from the upload; no format validation happens
// at this layer.
type Audio struct {
	Filename string
	Mimetype string
	Reader   io.Reader
}

// Transcriber converts audio into a raw text transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, audio Audio) (string, error)
}

// SpeakerLabeler annotates a raw transcript with two-role speaker tags,
// one "Speaker <id> (<Role>): <utterance>" line per utterance. Empty
// provider content is passed through; the pipeline applies the fallback.
type SpeakerLabeler interface {
	LabelSpeakers(ctx context.Context, rawText string) (string, error)
}

// Summarizer produces a short prose summary of a labeled transcript.
type Summarizer interface {
	Summarize(ctx context.Context, labeledText string) (string, error)
}

// Embedder converts text into a fixed-dimensionality vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the vector length this embedder produces.
	Dimensions() int
}

// StageError wraps a provider or storage error with the pipeline stage
// that produced it, so callers can tell which stage failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError wraps err with the given stage name.
func NewStageError(stage string, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}

// FailedStage extracts the stage name from err, if it is a StageError.
func FailedStage(err error) (string, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}
