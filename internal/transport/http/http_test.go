package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/vocacast/vocacast/internal/assemble"
	"github.com/vocacast/vocacast/internal/domain"
	"github.com/vocacast/vocacast/internal/pipeline"
	"github.com/vocacast/vocacast/internal/studio"
)

// fakePipeline returns a canned outcome and records the requests it ran.
type fakePipeline struct {
	result   pipeline.Result
	err      error
	requests chan pipeline.Request
}

func newFakePipeline(result pipeline.Result, err error) *fakePipeline {
	return &fakePipeline{result: result, err: err, requests: make(chan pipeline.Request, 8)}
}

func (f *fakePipeline) Run(_ context.Context, req pipeline.Request) (pipeline.Result, error) {
	f.requests <- req
	return f.result, f.err
}

var testDialogue = domain.Dialogue{
	{Speaker: domain.SpeakerInterviewer, Text: "hi"},
	{Speaker: domain.SpeakerGuest, Text: "hello"},
}

func newTestServer(t *testing.T, artifactPath string) (*Server, *fakePipeline) {
	t.Helper()

	fake := newFakePipeline(pipeline.Result{
		Dialogue: testDialogue,
		Manifest: &assemble.Manifest{ArtifactPath: artifactPath, Estimated: time.Second},
	}, nil)
	st := studio.New(studio.Config{
		RequestTimeout: time.Minute,
		ArtifactTTL:    time.Hour,
		DefaultVoices: domain.VoiceAssignment{
			InterviewerVoice: "a", GuestVoice: "b", LanguageCode: "en-US",
		},
	}, fake)
	return New(Config{Port: 0}, st), fake
}

// waitForStatus polls the studio until a job reaches the wanted status.
func waitForStatus(t *testing.T, s *Server, jobID string, want domain.JobStatus) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if job, ok := s.studio.Job(jobID); ok && job.Status == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached %s", jobID, want)
}

func createJob(t *testing.T, s *Server, body string) domain.Job {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/podcasts", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handleCreate(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body)
	}
	var job domain.Job
	if err := json.Unmarshal(rec.Body.Bytes(), &job); err != nil {
		t.Fatalf("decoding job: %v", err)
	}
	return job
}

// TestCreatePodcastJSON verifies a JSON vocab request is accepted with a
// received job snapshot.
func TestCreatePodcastJSON(t *testing.T) {
	s, _ := newTestServer(t, "/tmp/none.mp3")

	job := createJob(t, s, `{"vocab": ["serendipity", "ephemeral"]}`)
	if job.ID == "" {
		t.Error("job has no ID")
	}
	if job.Status != domain.JobStatusReceived {
		t.Errorf("status = %q", job.Status)
	}
}

// TestCreatePodcastBadJSON verifies malformed JSON is a 400.
func TestCreatePodcastBadJSON(t *testing.T) {
	s, _ := newTestServer(t, "/tmp/none.mp3")

	req := httptest.NewRequest(http.MethodPost, "/podcasts", strings.NewReader(`{"vocab": [`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handleCreate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

// TestCreatePodcastCSVUpload verifies a multipart CSV upload extracts the
// word column and starts a job.
func TestCreatePodcastCSVUpload(t *testing.T) {
	s, fake := newTestServer(t, "/tmp/none.mp3")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "vocab.csv")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	fw.Write([]byte("words\nalpha\nbeta\n"))
	mw.WriteField("interviewer_voice", "en-GB-Wavenet-A")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/podcasts", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.handleCreate(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}

	select {
	case run := <-fake.requests:
		if len(run.Vocab) != 2 || run.Vocab[0] != "alpha" {
			t.Errorf("vocab = %v", run.Vocab)
		}
		if run.Voices.InterviewerVoice != "en-GB-Wavenet-A" {
			t.Errorf("interviewer voice = %q", run.Voices.InterviewerVoice)
		}
		if run.Voices.GuestVoice != "b" {
			t.Errorf("guest voice default lost: %q", run.Voices.GuestVoice)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("pipeline never ran")
	}
}

// TestCreatePodcastBadCSV verifies a CSV without the word column is a 400.
func TestCreatePodcastBadCSV(t *testing.T) {
	s, _ := newTestServer(t, "/tmp/none.mp3")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "vocab.csv")
	fw.Write([]byte("id,notes\n1,hello\n"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/podcasts", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.handleCreate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
}

// TestGetJob verifies status lookups for known and unknown jobs.
func TestGetJob(t *testing.T) {
	s, _ := newTestServer(t, "/tmp/none.mp3")
	job := createJob(t, s, `{"vocab": ["word"]}`)

	req := httptest.NewRequest(http.MethodGet, "/podcasts/"+job.ID, nil)
	req.SetPathValue("id", job.ID)
	rec := httptest.NewRecorder()
	s.handleGet(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/podcasts/nope", nil)
	req.SetPathValue("id", "nope")
	rec = httptest.NewRecorder()
	s.handleGet(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown job status = %d", rec.Code)
	}
}

// TestEventsPolling verifies incremental event reads through the API.
func TestEventsPolling(t *testing.T) {
	s, _ := newTestServer(t, "/tmp/none.mp3")
	job := createJob(t, s, `{"vocab": ["word"]}`)
	waitForStatus(t, s, job.ID, domain.JobStatusReady)

	req := httptest.NewRequest(http.MethodGet, "/podcasts/"+job.ID+"/events", nil)
	req.SetPathValue("id", job.ID)
	rec := httptest.NewRecorder()
	s.handleEvents(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var events []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &events); err != nil {
		t.Fatalf("decoding events: %v", err)
	}
	if len(events) == 0 {
		t.Fatal("no events returned")
	}

	lastSeq := int(events[len(events)-1]["seq"].(float64))
	req = httptest.NewRequest(http.MethodGet, "/podcasts/"+job.ID+"/events?since="+strconv.Itoa(lastSeq), nil)
	req.SetPathValue("id", job.ID)
	rec = httptest.NewRecorder()
	s.handleEvents(rec, req)

	var rest []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &rest); err != nil {
		t.Fatalf("decoding events: %v", err)
	}
	if len(rest) != 0 {
		t.Errorf("expected no events past seq %d, got %d", lastSeq, len(rest))
	}
}

// TestEventsBadSince verifies a non-numeric since parameter is a 400.
func TestEventsBadSince(t *testing.T) {
	s, _ := newTestServer(t, "/tmp/none.mp3")
	job := createJob(t, s, `{"vocab": ["word"]}`)

	req := httptest.NewRequest(http.MethodGet, "/podcasts/"+job.ID+"/events?since=abc", nil)
	req.SetPathValue("id", job.ID)
	rec := httptest.NewRecorder()
	s.handleEvents(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

// TestTranscriptLifecycle verifies the transcript is a 409 before ready and
// the dialogue afterwards.
func TestTranscriptLifecycle(t *testing.T) {
	s, _ := newTestServer(t, "/tmp/none.mp3")
	job := createJob(t, s, `{"vocab": ["word"]}`)
	waitForStatus(t, s, job.ID, domain.JobStatusReady)

	req := httptest.NewRequest(http.MethodGet, "/podcasts/"+job.ID+"/transcript", nil)
	req.SetPathValue("id", job.ID)
	rec := httptest.NewRecorder()
	s.handleTranscript(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var dialogue domain.Dialogue
	if err := json.Unmarshal(rec.Body.Bytes(), &dialogue); err != nil {
		t.Fatalf("decoding transcript: %v", err)
	}
	if len(dialogue) != 2 || dialogue[0].Speaker != domain.SpeakerInterviewer {
		t.Errorf("transcript = %+v", dialogue)
	}
}

// TestAudioDownloadDelivers verifies the MP3 streams with the right headers
// and the job moves to delivered.
func TestAudioDownloadDelivers(t *testing.T) {
	artifact := filepath.Join(t.TempDir(), "podcast_full.mp3")
	if err := os.WriteFile(artifact, []byte("mp3-data"), 0o644); err != nil {
		t.Fatalf("writing artifact: %v", err)
	}

	s, _ := newTestServer(t, artifact)
	job := createJob(t, s, `{"vocab": ["word"]}`)
	waitForStatus(t, s, job.ID, domain.JobStatusReady)

	req := httptest.NewRequest(http.MethodGet, "/podcasts/"+job.ID+"/audio", nil)
	req.SetPathValue("id", job.ID)
	rec := httptest.NewRecorder()
	s.handleAudio(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if got := rec.Header().Get("Content-Type"); got != "audio/mpeg" {
		t.Errorf("content type = %q", got)
	}
	if rec.Body.String() != "mp3-data" {
		t.Errorf("body = %q", rec.Body.String())
	}

	waitForStatus(t, s, job.ID, domain.JobStatusDelivered)
}

// TestAudioNotReady verifies downloading an in-flight job is a 409.
func TestAudioNotReady(t *testing.T) {
	s, fake := newTestServer(t, "/tmp/none.mp3")
	// Fail the pipeline so no artifact is ever held.
	fake.err = context.Canceled
	job := createJob(t, s, `{"vocab": ["word"]}`)

	req := httptest.NewRequest(http.MethodGet, "/podcasts/"+job.ID+"/audio", nil)
	req.SetPathValue("id", job.ID)
	rec := httptest.NewRecorder()
	s.handleAudio(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d", rec.Code)
	}
}

// TestProbesReflectReadiness verifies /healthz flips from 503 to 200 with
// SetReady.
func TestProbesReflectReadiness(t *testing.T) {
	s, _ := newTestServer(t, "/tmp/none.mp3")

	rec := httptest.NewRecorder()
	s.handleProbe(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("not-ready status = %d", rec.Code)
	}

	s.SetReady(true)
	rec = httptest.NewRecorder()
	s.handleProbe(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("ready status = %d", rec.Code)
	}
}
