package models

// EventTypeSessionCreated tags session.created events on the bus.
const EventTypeSessionCreated = "therapy.session.created"

// SessionCreatedEvent is published after a session record is stored.
// It carries the derived artifacts' shape, not their content: downstream
// consumers fetch the full record by id.
type SessionCreatedEvent struct {
	EventType           string `json:"eventType"`
	SessionID           string `json:"sessionId"`
	Timestamp           int64  `json:"timestamp"`
	OriginalFilename    string `json:"originalFilename"`
	Mimetype            string `json:"mimetype"`
	Size                int64  `json:"size"`
	TranscriptChars     int    `json:"transcriptChars"`
	SummaryChars        int    `json:"summaryChars"`
	EmbeddingDimensions int    `json:"embeddingDimensions"`
}
