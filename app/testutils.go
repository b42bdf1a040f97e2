package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sushihentaime/quillpost/internal/authservice"
	"github.com/sushihentaime/quillpost/internal/backend/memory"
	"github.com/sushihentaime/quillpost/internal/common"
	"github.com/sushihentaime/quillpost/internal/contentservice"
)

// pngData is the smallest prefix http.DetectContentType reports as image/png.
var pngData = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type testServer struct {
	*httptest.Server
}

// newTestServer returns a server whose client does not follow redirects, so
// guard and preview responses can be inspected.
func newTestServer(t *testing.T, h http.Handler) *testServer {
	ts := httptest.NewServer(h)
	ts.Client().CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}

	t.Cleanup(ts.Close)

	return &testServer{ts}
}

func readResponse(t *testing.T, res *http.Response) (int, http.Header, envelope) {
	defer res.Body.Close()

	responseBody, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}

	var envelope envelope
	if len(responseBody) > 0 {
		err = json.Unmarshal(responseBody, &envelope)
		if err != nil {
			t.Fatal(err)
		}
	}

	return res.StatusCode, res.Header, envelope
}

type testApplication struct {
	*application
	backend *memory.Backend
	janitor *contentservice.MockFileJanitor
}

func newTestApplication(t *testing.T) *testApplication {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	b := memory.New()

	janitor := new(contentservice.MockFileJanitor)
	janitor.On("ScheduleDeletion", mock.Anything, mock.Anything).Return(nil)

	cfg := &Config{
		Environment:     "testing",
		Version:         "test",
		BackendDriver:   "memory",
		MaxUploadBytes:  1024,
		SessionCacheTTL: time.Minute,
		RateLimitRPS:    2,
		RateLimitBurst:  4,
	}

	app := &application{
		config:      cfg,
		logger:      logger,
		cache:       common.NewCache(time.Minute, time.Minute),
		authService: authservice.NewAuthService(b, nil, logger),
		contentService: contentservice.NewContentService(b, b, janitor, contentservice.Config{
			DatabaseID:     "blog",
			CollectionID:   "posts",
			BucketID:       "images",
			MaxUploadBytes: cfg.MaxUploadBytes,
		}, logger),
	}

	return &testApplication{application: app, backend: b, janitor: janitor}
}

// signUp creates an account through the API and returns its session secret.
func (ts *testServer) signUp(t *testing.T, email, name string) string {
	status, _, body := ts.post(t, "/v1/account", map[string]string{
		"email":    email,
		"password": "password123",
		"name":     name,
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	session, ok := body["session"].(map[string]any)
	require.True(t, ok)

	return session["secret"].(string)
}

func (ts *testServer) do(t *testing.T, req *http.Request, token *string) (int, http.Header, envelope) {
	if token != nil {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", *token))
	}

	res, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}

	return readResponse(t, res)
}

func (ts *testServer) post(t *testing.T, path string, data any, token *string) (int, http.Header, envelope) {
	jsonPayload, err := json.Marshal(data)
	if err != nil {
		t.Fatal(err)
	}

	req, err := http.NewRequest(http.MethodPost, ts.URL+path, bytes.NewReader(jsonPayload))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")

	return ts.do(t, req, token)
}

func (ts *testServer) get(t *testing.T, path string, token *string) (int, http.Header, envelope) {
	req, err := http.NewRequest(http.MethodGet, ts.URL+path, nil)
	if err != nil {
		t.Fatal(err)
	}

	return ts.do(t, req, token)
}

func (ts *testServer) delete(t *testing.T, path string, token *string) (int, http.Header, envelope) {
	req, err := http.NewRequest(http.MethodDelete, ts.URL+path, nil)
	if err != nil {
		t.Fatal(err)
	}

	return ts.do(t, req, token)
}

// multipart sends fields and an optional image as a multipart form.
func (ts *testServer) multipart(t *testing.T, method, path string, fields map[string]string, image []byte, token *string) (int, http.Header, envelope) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}

	if image != nil {
		fw, err := mw.CreateFormFile("image", "cover.png")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(image); err != nil {
			t.Fatal(err)
		}
	}

	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req, err := http.NewRequest(method, ts.URL+path, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return ts.do(t, req, token)
}
