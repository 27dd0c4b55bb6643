package models

import (
	"regexp"
	"strings"
)

// Speaker roles used by the labeling stage. Every labeled line carries
// exactly one of these two tags.
const (
	RoleTherapist = "Therapist"
	RoleClient    = "Client"
	RoleUnknown   = "Unknown"
)

// TranscriptEntry is one utterance of a speaker-labeled transcript.
type TranscriptEntry struct {
	Speaker string `json:"speaker"`
	Role    string `json:"role"`
	Text    string `json:"text"`
}

// labelPattern matches speaker tags like "Speaker A (Therapist):".
var labelPattern = regexp.MustCompile(`Speaker\s+(\w+)\s*\((\w+)\):\s*`)

// ParseTranscript splits a labeled transcript into structured entries.
// Text that precedes the first speaker tag is dropped; an unlabeled
// transcript therefore parses to no entries.
func ParseTranscript(transcript string) []TranscriptEntry {
	matches := labelPattern.FindAllStringSubmatchIndex(transcript, -1)
	entries := make([]TranscriptEntry, 0, len(matches))

	for i, m := range matches {
		end := len(transcript)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		text := strings.TrimSpace(transcript[m[1]:end])
		if text == "" {
			continue
		}

		role := transcript[m[4]:m[5]]
		if role != RoleTherapist && role != RoleClient {
			role = RoleUnknown
		}

		entries = append(entries, TranscriptEntry{
			Speaker: "Speaker " + transcript[m[2]:m[3]],
			Role:    role,
			Text:    text,
		})
	}

	return entries
}
