// Package pipeline contains the upload orchestrator: it chains the four AI
// stages over an uploaded recording, persists the resulting session record,
// and publishes a session.created event.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"therapy-session-service/internal/events"
	"therapy-session-service/internal/models"
	"therapy-session-service/internal/observability/logging"
	"therapy-session-service/internal/observability/metrics"
	"therapy-session-service/internal/service/ai"
	"therapy-session-service/internal/store"
)

// ErrNoFile is returned when an upload request carries no audio content.
var ErrNoFile = errors.New("no audio file provided")

// placeholderSummary substitutes empty summarization content so the record
// and its embedding still get stored.
const placeholderSummary = "Summary unavailable."

// Upload is one uploaded audio file plus its multipart metadata.
type Upload struct {
	Filename string
	Mimetype string
	Size     int64
	Data     []byte
}

// Processor runs the upload pipeline. All dependencies are injected; the
// processor holds no global state and is safe for concurrent uploads.
type Processor struct {
	transcriber ai.Transcriber
	labeler     ai.SpeakerLabeler
	summarizer  ai.Summarizer
	embedder    ai.Embedder
	sessions    store.Store
	publisher   *events.Publisher
	metrics     *metrics.Metrics
	uploadDir   string
	logger      zerolog.Logger
}

// Deps bundles the processor's constructor dependencies.
type Deps struct {
	Transcriber ai.Transcriber
	Labeler     ai.SpeakerLabeler
	Summarizer  ai.Summarizer
	Embedder    ai.Embedder
	Store       store.Store
	Publisher   *events.Publisher
	Metrics     *metrics.Metrics
	UploadDir   string
}

// New constructs a Processor.
func New(deps Deps) *Processor {
	m := deps.Metrics
	if m == nil {
		m = metrics.DefaultMetrics
	}
	return &Processor{
		transcriber: deps.Transcriber,
		labeler:     deps.Labeler,
		summarizer:  deps.Summarizer,
		embedder:    deps.Embedder,
		sessions:    deps.Store,
		publisher:   deps.Publisher,
		metrics:     m,
		uploadDir:   deps.UploadDir,
		logger:      logging.WithComponent("pipeline"),
	}
}

// Process runs the four AI stages strictly in order, stores the assembled
// record, and returns it. Any stage failure aborts the pipeline: nothing is
// stored, and the returned error identifies the stage (ai.FailedStage).
func (p *Processor) Process(ctx context.Context, up Upload) (*models.SessionRecord, error) {
	if len(up.Data) == 0 {
		return nil, ErrNoFile
	}

	sessionID := uuid.NewString()
	lc := NewLifecycle(sessionID)
	logger := logging.WithSession(sessionID)
	start := time.Now()
	p.metrics.RecordUploadStart(up.Size)

	rec, err := p.run(ctx, lc, up, sessionID, logger)
	if err != nil {
		lc.Fail()
		stage, _ := ai.FailedStage(err)
		p.metrics.RecordUploadEnd(stage, time.Since(start).Seconds())
		logger.Error().Err(err).Str("stage", stage).Str("state", lc.State().String()).
			Msg("Upload pipeline failed")
		return nil, err
	}

	p.metrics.RecordUploadEnd("", time.Since(start).Seconds())
	logger.Info().
		Str("state", lc.State().String()).
		Dur("elapsed", time.Since(start)).
		Int("embeddingDimensions", len(rec.Embedding)).
		Msg("Upload pipeline completed")

	p.publishCreated(ctx, rec)
	return rec, nil
}

func (p *Processor) run(ctx context.Context, lc *Lifecycle, up Upload, sessionID string, logger zerolog.Logger) (*models.SessionRecord, error) {
	audioPath, err := p.saveAudio(sessionID, up)
	if err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}

	// Transcribe
	if err := lc.Advance(StateTranscribing); err != nil {
		return nil, err
	}
	rawTranscript, err := p.transcribe(ctx, up)
	if err != nil {
		return nil, err
	}

	// Label speakers
	if err := lc.Advance(StateLabeling); err != nil {
		return nil, err
	}
	transcript, err := p.label(ctx, rawTranscript)
	if err != nil {
		return nil, err
	}

	// Summarize
	if err := lc.Advance(StateSummarizing); err != nil {
		return nil, err
	}
	summary, err := p.summarize(ctx, transcript)
	if err != nil {
		return nil, err
	}

	// Embed. The embedding is computed over the summary, not the full
	// transcript: similarity search matches what sessions were about.
	if err := lc.Advance(StateEmbedding); err != nil {
		return nil, err
	}
	embedding, err := p.embed(ctx, summary)
	if err != nil {
		return nil, err
	}

	rec := &models.SessionRecord{
		ID:               sessionID,
		Timestamp:        time.Now().UTC(),
		OriginalFilename: up.Filename,
		Mimetype:         up.Mimetype,
		Size:             up.Size,
		AudioPath:        audioPath,
		RawTranscript:    rawTranscript,
		Transcript:       transcript,
		Summary:          summary,
		Embedding:        embedding,
	}

	// Store
	if err := lc.Advance(StateStoring); err != nil {
		return nil, err
	}
	insertStart := time.Now()
	err = p.sessions.Insert(ctx, rec)
	p.metrics.RecordInsert(err)
	p.metrics.RecordStage(ai.StageStore, err, time.Since(insertStart).Seconds())
	if err != nil {
		return nil, ai.NewStageError(ai.StageStore, err)
	}

	if err := lc.Advance(StateDone); err != nil {
		return nil, err
	}
	return rec, nil
}

func (p *Processor) transcribe(ctx context.Context, up Upload) (string, error) {
	start := time.Now()
	text, err := p.transcriber.Transcribe(ctx, ai.Audio{
		Filename: up.Filename,
		Mimetype: up.Mimetype,
		Reader:   bytes.NewReader(up.Data),
	})
	p.metrics.RecordStage(ai.StageTranscribe, err, time.Since(start).Seconds())
	if err != nil {
		return "", ai.NewStageError(ai.StageTranscribe, err)
	}
	return text, nil
}

// label applies the empty-content fallback: if the provider returns no
// content, the raw transcript is used unchanged rather than failing.
func (p *Processor) label(ctx context.Context, rawTranscript string) (string, error) {
	start := time.Now()
	labeled, err := p.labeler.LabelSpeakers(ctx, rawTranscript)
	p.metrics.RecordStage(ai.StageLabel, err, time.Since(start).Seconds())
	if err != nil {
		return "", ai.NewStageError(ai.StageLabel, err)
	}
	if labeled == "" {
		p.logger.Warn().Msg("Labeling returned empty content, keeping raw transcript")
		return rawTranscript, nil
	}
	return labeled, nil
}

// summarize substitutes a fixed placeholder for empty provider content so
// the session still gets stored with a valid embedding input.
func (p *Processor) summarize(ctx context.Context, transcript string) (string, error) {
	start := time.Now()
	summary, err := p.summarizer.Summarize(ctx, transcript)
	p.metrics.RecordStage(ai.StageSummarize, err, time.Since(start).Seconds())
	if err != nil {
		return "", ai.NewStageError(ai.StageSummarize, err)
	}
	if summary == "" {
		p.logger.Warn().Msg("Summarization returned empty content, using placeholder")
		return placeholderSummary, nil
	}
	return summary, nil
}

func (p *Processor) embed(ctx context.Context, summary string) ([]float32, error) {
	start := time.Now()
	embedding, err := p.embedder.Embed(ctx, summary)
	if err == nil && p.embedder.Dimensions() > 0 && len(embedding) != p.embedder.Dimensions() {
		err = fmt.Errorf("embedding has %d dimensions, expected %d", len(embedding), p.embedder.Dimensions())
	}
	p.metrics.RecordStage(ai.StageEmbed, err, time.Since(start).Seconds())
	if err != nil {
		return nil, ai.NewStageError(ai.StageEmbed, err)
	}
	return embedding, nil
}

// saveAudio writes the uploaded bytes under the uploads dir so the record's
// audioPath points at something. The copy is best-effort storage, not part
// of the record's durability contract.
func (p *Processor) saveAudio(sessionID string, up Upload) (string, error) {
	if err := os.MkdirAll(p.uploadDir, 0o755); err != nil {
		return "", err
	}
	ext := filepath.Ext(up.Filename)
	path := filepath.Join(p.uploadDir, sessionID+ext)
	if err := os.WriteFile(path, up.Data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// publishCreated emits the session.created event; publish failures are
// logged and never fail the upload.
func (p *Processor) publishCreated(ctx context.Context, rec *models.SessionRecord) {
	if p.publisher == nil {
		return
	}
	event := models.SessionCreatedEvent{
		EventType:           models.EventTypeSessionCreated,
		SessionID:           rec.ID,
		Timestamp:           rec.Timestamp.Unix(),
		OriginalFilename:    rec.OriginalFilename,
		Mimetype:            rec.Mimetype,
		Size:                rec.Size,
		TranscriptChars:     len(rec.Transcript),
		SummaryChars:        len(rec.Summary),
		EmbeddingDimensions: len(rec.Embedding),
	}
	if err := p.publisher.PublishSessionCreated(ctx, rec.ID, event); err != nil {
		p.logger.Warn().Err(err).Str("sessionId", rec.ID).Msg("Failed to publish session.created event")
	}
}
