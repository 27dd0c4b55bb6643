package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"therapy-session-service/internal/models"
	"therapy-session-service/internal/service/ai/mock"
	"therapy-session-service/internal/service/pipeline"
	filestore "therapy-session-service/internal/store/file"
)

const testMaxUploadBytes = 1 << 20

func newTestServer(t *testing.T) (*httptest.Server, *mock.Adapter, *filestore.Store) {
	t.Helper()

	adapter := mock.New()
	sessions, err := filestore.New(t.TempDir())
	if err != nil {
		t.Fatalf("filestore.New: %v", err)
	}

	proc := pipeline.New(pipeline.Deps{
		Transcriber: adapter,
		Labeler:     adapter,
		Summarizer:  adapter,
		Embedder:    adapter,
		Store:       sessions,
		UploadDir:   t.TempDir(),
	})
	handler := NewSessionHandler(proc, sessions, adapter, testMaxUploadBytes)
	srv := httptest.NewServer(NewRouter(handler))
	t.Cleanup(srv.Close)
	return srv, adapter, sessions
}

func multipartUpload(t *testing.T, filename, mimetype, content string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="audio"; filename=%q`, filename))
	hdr.Set("Content-Type", mimetype)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("part.Write: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("multipart close: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func uploadSession(t *testing.T, srv *httptest.Server, filename string) models.UploadResponse {
	t.Helper()

	body, contentType := multipartUpload(t, filename, "audio/wav", "RIFF")
	resp, err := http.Post(srv.URL+"/sessions/upload", contentType, body)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload status = %d, want 200", resp.StatusCode)
	}
	var out models.UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	return out
}

func TestUpload(t *testing.T) {
	srv, _, _ := newTestServer(t)

	out := uploadSession(t, srv, "session.wav")
	if out.ID == "" {
		t.Error("expected a generated session id")
	}
	if out.OriginalFilename != "session.wav" {
		t.Errorf("originalFilename = %q, want %q", out.OriginalFilename, "session.wav")
	}
	if out.Status != "transcribed" {
		t.Errorf("status = %q, want %q", out.Status, "transcribed")
	}
	if out.RawTranscript != "hello there" {
		t.Errorf("rawTranscript = %q, want %q", out.RawTranscript, "hello there")
	}
	if out.Transcript != "Speaker A (Therapist): hello there" {
		t.Errorf("transcript = %q", out.Transcript)
	}
	if out.Summary != "Brief greeting exchanged." {
		t.Errorf("summary = %q", out.Summary)
	}
	if out.EmbeddingDimensions != 3 {
		t.Errorf("embeddingDimensions = %d, want 3", out.EmbeddingDimensions)
	}
}

func TestUploadWithoutFile(t *testing.T) {
	srv, adapter, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/sessions/upload", "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if len(adapter.TranscribedFiles) != 0 {
		t.Error("transcriber should not be called without a file")
	}
}

func TestUploadStageFailure(t *testing.T) {
	srv, adapter, sessions := newTestServer(t)
	adapter.SummarizeErr = errors.New("model overloaded")

	body, contentType := multipartUpload(t, "session.wav", "audio/wav", "RIFF")
	resp, err := http.Post(srv.URL+"/sessions/upload", contentType, body)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", resp.StatusCode)
	}
	var out struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(out.Error, "summarize") {
		t.Errorf("error = %q, want it to name the summarize stage", out.Error)
	}
	if got := len(sessions.ListAll(context.Background())); got != 0 {
		t.Errorf("stored records = %d, want 0 after a failed upload", got)
	}
}

func TestList(t *testing.T) {
	srv, _, _ := newTestServer(t)

	first := uploadSession(t, srv, "first.wav")
	second := uploadSession(t, srv, "second.wav")

	resp, err := http.Get(srv.URL + "/sessions")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var out []models.SessionSummary
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d sessions, want 2", len(out))
	}
	if out[0].ID != second.ID || out[1].ID != first.ID {
		t.Errorf("expected newest first, got [%s %s]", out[0].ID, out[1].ID)
	}
}

func TestListEmpty(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/sessions")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var out []models.SessionSummary
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("got %d sessions, want 0", len(out))
	}
}

func TestGet(t *testing.T) {
	srv, _, _ := newTestServer(t)

	up := uploadSession(t, srv, "session.wav")

	resp, err := http.Get(srv.URL + "/sessions/" + up.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var out models.SessionDetail
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.ID != up.ID {
		t.Errorf("id = %q, want %q", out.ID, up.ID)
	}
	if len(out.Entries) != 1 {
		t.Fatalf("got %d transcript entries, want 1", len(out.Entries))
	}
	if out.Entries[0].Role != models.RoleTherapist || out.Entries[0].Text != "hello there" {
		t.Errorf("entry = %+v", out.Entries[0])
	}
}

func TestGetNotFound(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/sessions/no-such-id")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestSearch(t *testing.T) {
	srv, _, _ := newTestServer(t)

	up := uploadSession(t, srv, "session.wav")

	// The mock embeds every query to the same vector, so the stored
	// session matches with similarity 1.
	body := strings.NewReader(`{"query":"greeting"}`)
	resp, err := http.Post(srv.URL+"/sessions/search", "application/json", body)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var out []models.SessionSummary
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d results, want 1", len(out))
	}
	if out[0].ID != up.ID {
		t.Errorf("result id = %q, want %q", out[0].ID, up.ID)
	}
}

func TestSearchMissingQuery(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/sessions/search", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestLiveness(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/liveness")
	if err != nil {
		t.Fatalf("liveness: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}
