package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"audioscore/internal/analysis"
	"audioscore/internal/services"
	"audioscore/internal/services/whisper"
	"audioscore/internal/testsupport"
	"audioscore/internal/workspace"
)

type analyzerStub struct {
	result analysis.Result
	err    error
	got    analysis.AudioBlob
	calls  int
}

func (a *analyzerStub) Analyze(ctx context.Context, blob analysis.AudioBlob) (analysis.Result, error) {
	a.calls++
	a.got = blob
	if _, ok := services.RequestIDFromContext(ctx); !ok {
		return analysis.Result{}, errors.New("missing request id")
	}
	return a.result, a.err
}

func newTestServer(t *testing.T, analyzer Analyzer, opts ...Option) *Server {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	srv, err := New(cfg, analyzer, nil, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return srv
}

func multipartBody(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func doUpload(t *testing.T, srv *Server, field, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, field, filename, data)
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	return payload
}

func TestAnalyzeReturnsScoreAndSummary(t *testing.T) {
	stub := &analyzerStub{result: analysis.Result{Score: 0.1, Summary: "Interviewer [0.0-1.5s]: hello world"}}
	srv := newTestServer(t, stub)

	w := doUpload(t, srv, UploadField, "answer.webm", []byte("audio-bytes"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected request id header")
	}
	payload := decodeBody(t, w)
	if len(payload) != 2 {
		t.Fatalf("expected exactly score and summary, got %v", payload)
	}
	if payload["score"] != 0.1 || payload["summary"] != "Interviewer [0.0-1.5s]: hello world" {
		t.Fatalf("unexpected payload %v", payload)
	}
	if stub.got.Filename != "answer.webm" || string(stub.got.Data) != "audio-bytes" {
		t.Fatalf("analyzer received %+v", stub.got)
	}
}

func TestAnalyzeMissingFile(t *testing.T) {
	stub := &analyzerStub{}
	srv := newTestServer(t, stub)

	w := doUpload(t, srv, "otherField", "answer.webm", []byte("audio"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if got := decodeBody(t, w)["error"]; got != "No file uploaded" {
		t.Fatalf("unexpected error message %v", got)
	}
	if stub.calls != 0 {
		t.Fatal("analyzer must not run without a file")
	}
}

func TestAnalyzeNonMultipartBody(t *testing.T) {
	srv := newTestServer(t, &analyzerStub{})

	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader("raw"))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestAnalyzeRejectsOtherMethods(t *testing.T) {
	srv := newTestServer(t, &analyzerStub{})

	req := httptest.NewRequest(http.MethodGet, "/api/analyze", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}

func TestAnalyzeErrorMapping(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{
			name:    "transcription failure",
			err:     &analysis.Error{Stage: analysis.StageTranscribe, Err: services.Wrap(services.ErrTranscription, "transcribe", "whisper", "/secret/path exit 1", nil)},
			status:  http.StatusInternalServerError,
			message: "Audio analysis failed",
		},
		{
			name:    "timeout",
			err:     &analysis.Error{Stage: analysis.StageTranscribe, Err: services.Wrap(services.ErrTranscriptionTimeout, "transcribe", "", "", nil)},
			status:  http.StatusGatewayTimeout,
			message: "Audio analysis timed out",
		},
		{
			name:    "empty upload",
			err:     &analysis.Error{Stage: analysis.StageValidate, Err: services.Wrap(services.ErrValidation, "validate", "", "", nil)},
			status:  http.StatusBadRequest,
			message: "Uploaded file is empty",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(t, &analyzerStub{err: tc.err})
			w := doUpload(t, srv, UploadField, "a.mp3", []byte("audio"))
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, w.Code)
			}
			payload := decodeBody(t, w)
			if payload["error"] != tc.message {
				t.Fatalf("unexpected error message %v", payload["error"])
			}
			if _, ok := payload["score"]; ok {
				t.Fatal("error response must not carry a score")
			}
		})
	}
}

func TestAnalyzeRejectsOversizedUpload(t *testing.T) {
	stub := &analyzerStub{}
	cfg := testsupport.NewConfig(t)
	cfg.API.MaxUploadMiB = 1
	srv, err := New(cfg, stub, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	w := doUpload(t, srv, UploadField, "big.wav", bytes.Repeat([]byte{0x1}, (1<<20)+1))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", w.Code)
	}
	if stub.calls != 0 {
		t.Fatal("analyzer must not run for oversized uploads")
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &analyzerStub{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if decodeBody(t, w)["status"] != "ok" {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}

func TestMetricsRoute(t *testing.T) {
	withoutMetrics := newTestServer(t, &analyzerStub{})
	w := httptest.NewRecorder()
	withoutMetrics.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without metrics handler, got %d", w.Code)
	}

	withMetrics := newTestServer(t, &analyzerStub{}, WithMetricsHandler(promhttp.Handler()))
	w = httptest.NewRecorder()
	withMetrics.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Fatal("expected default Prometheus collectors in output")
	}
}

func TestNewValidatesInputs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if _, err := New(nil, &analyzerStub{}, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for nil config, got %v", err)
	}
	if _, err := New(cfg, nil, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for nil analyzer, got %v", err)
	}
	cfg.Paths.APIBind = " "
	if _, err := New(cfg, &analyzerStub{}, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for empty bind, got %v", err)
	}
}

func TestServeEndToEnd(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedWhisper(testsupport.WhisperTSVScript))
	svc := whisper.NewService(whisper.Config{Command: cfg.Transcription.Command, Timeout: 30 * time.Second}, nil)
	pipeline := analysis.New(workspace.NewManager(cfg.Paths.BaseDir, nil), svc)

	srv, err := New(cfg, pipeline, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	body, contentType := multipartBody(t, UploadField, "interview.mp3", []byte("audio"))
	resp, err := http.Post("http://"+srv.Addr()+"/api/analyze", contentType, body)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, raw)
	}
	var result analysis.Result
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Score != 0.1 || result.Summary != "Interviewer [0.0-1.5s]: hello world\nCandidate [1.5-3.0s]: how are you" {
		t.Fatalf("unexpected result %+v", result)
	}

	for _, name := range testsupport.ListFiles(t, cfg.Paths.BaseDir) {
		if name != workspace.OutputSubdir {
			t.Fatalf("artifact left behind: %s", name)
		}
	}
}
