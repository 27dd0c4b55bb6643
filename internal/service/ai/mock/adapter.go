// Package mock provides mock AI adapters for testing the pipeline without
// provider credentials. Every stage's output and error can be scripted,
// and inputs are recorded for assertions.
package mock

import (
	"context"
	"io"
	"sync"

	"therapy-session-service/internal/service/ai"
)

// Adapter implements all four pipeline AI interfaces with scripted
// responses. The zero value echoes canned defaults; set the *Text/Vector
// fields to script outputs and the *Err fields to inject provider failures.
type Adapter struct {
	mu sync.Mutex

	TranscriptText string
	LabeledText    string
	SummaryText    string
	Vector         []float32

	TranscribeErr error
	LabelErr      error
	SummarizeErr  error
	EmbedErr      error

	// Recorded inputs, in call order.
	TranscribedFiles []string
	LabelInputs      []string
	SummarizeInputs  []string
	EmbedInputs      []string
}

// New returns a mock adapter with a plausible default script.
func New() *Adapter {
	return &Adapter{
		TranscriptText: "hello there",
		LabeledText:    "Speaker A (Therapist): hello there",
		SummaryText:    "Brief greeting exchanged.",
		Vector:         []float32{0.1, 0.2, 0.3},
	}
}

// Transcribe drains the audio reader and returns the scripted transcript.
func (a *Adapter) Transcribe(ctx context.Context, audio ai.Audio) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if audio.Reader != nil {
		_, _ = io.Copy(io.Discard, audio.Reader)
	}
	a.TranscribedFiles = append(a.TranscribedFiles, audio.Filename)

	if a.TranscribeErr != nil {
		return "", a.TranscribeErr
	}
	return a.TranscriptText, nil
}

// LabelSpeakers returns the scripted labeled transcript.
func (a *Adapter) LabelSpeakers(ctx context.Context, rawText string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.LabelInputs = append(a.LabelInputs, rawText)

	if a.LabelErr != nil {
		return "", a.LabelErr
	}
	return a.LabeledText, nil
}

// Summarize returns the scripted summary.
func (a *Adapter) Summarize(ctx context.Context, labeledText string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.SummarizeInputs = append(a.SummarizeInputs, labeledText)

	if a.SummarizeErr != nil {
		return "", a.SummarizeErr
	}
	return a.SummaryText, nil
}

// Embed returns the scripted vector.
func (a *Adapter) Embed(ctx context.Context, text string) ([]float32, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.EmbedInputs = append(a.EmbedInputs, text)

	if a.EmbedErr != nil {
		return nil, a.EmbedErr
	}
	return a.Vector, nil
}

// Dimensions returns the length of the scripted vector.
func (a *Adapter) Dimensions() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.Vector)
}
