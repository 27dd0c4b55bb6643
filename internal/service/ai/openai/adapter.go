// Package openai provides AI adapters backed by the OpenAI API.
package openai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"therapy-session-service/internal/config"
	"therapy-session-service/internal/service/ai"
)

// labelPrompt is the fixed instruction for the speaker-labeling stage.
// The dialogue content must be preserved verbatim; only speaker tags are
// added.
const labelPrompt = `The following is a raw transcript of a therapy session between exactly two people: a therapist and a client.

Rewrite the transcript so that every utterance is on its own line, prefixed with a speaker label of the form "Speaker A (Therapist): " or "Speaker B (Client): ". Identify which speaker is the therapist and which is the client from context.

Preserve the original wording of every utterance exactly. Do not paraphrase, do not add words, do not remove words. Output only the labeled transcript.

Transcript:
%s`

// summaryPrompt is the fixed instruction for the summarization stage.
const summaryPrompt = `Write a professional clinical summary of the following therapy session transcript in 3 to 5 sentences. Cover the topics discussed, the concerns the client raised, and any therapeutic interventions used. Output only the summary.

Transcript:
%s`

// Adapter implements the pipeline AI interfaces using the OpenAI API.
// A single adapter serves transcription, labeling, summarization and
// embedding.
type Adapter struct {
	client          *openai.Client
	transcribeModel string
	chatModel       string
	embeddingModel  string
	dimensions      int
}

// New creates an OpenAI adapter from the provider configuration.
// OPENAI_BASE_URL allows pointing at an API-compatible gateway.
func New(cfg config.OpenAIConfig) *Adapter {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &Adapter{
		client:          openai.NewClientWithConfig(clientConfig),
		transcribeModel: cfg.TranscribeModel,
		chatModel:       cfg.ChatModel,
		embeddingModel:  cfg.EmbeddingModel,
		dimensions:      cfg.EmbeddingDimensions,
	}
}

// Transcribe sends the audio blob to the transcription endpoint and
// returns the plain-text transcript.
func (a *Adapter) Transcribe(ctx context.Context, audio ai.Audio) (string, error) {
	resp, err := a.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    a.transcribeModel,
		Reader:   audio.Reader,
		FilePath: audio.Filename,
	})
	if err != nil {
		return "", fmt.Errorf("transcription request: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", fmt.Errorf("empty transcription result")
	}
	return text, nil
}

// LabelSpeakers annotates the raw transcript with two-role speaker tags.
// Empty provider content is returned as-is; the pipeline decides the
// fallback.
func (a *Adapter) LabelSpeakers(ctx context.Context, rawText string) (string, error) {
	content, err := a.chat(ctx, fmt.Sprintf(labelPrompt, rawText))
	if err != nil {
		return "", fmt.Errorf("labeling request: %w", err)
	}
	return content, nil
}

// Summarize produces the session summary. Empty provider content is
// returned as-is; the pipeline decides the fallback.
func (a *Adapter) Summarize(ctx context.Context, labeledText string) (string, error) {
	content, err := a.chat(ctx, fmt.Sprintf(summaryPrompt, labeledText))
	if err != nil {
		return "", fmt.Errorf("summarization request: %w", err)
	}
	return content, nil
}

// Embed converts text into a fixed-length vector.
func (a *Adapter) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(a.embeddingModel),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return resp.Data[0].Embedding, nil
}

// Dimensions returns the configured embedding vector length.
func (a *Adapter) Dimensions() int {
	return a.dimensions
}

func (a *Adapter) chat(ctx context.Context, prompt string) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
