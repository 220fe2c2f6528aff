package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kozaktomas/face-id/internal/database/mock"
	"github.com/kozaktomas/face-id/internal/recognition"
)

type fakeExtractor struct {
	embedding []float32
	err       error
}

func (f *fakeExtractor) Extract(ctx context.Context, image []byte) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.embedding, nil
}

// testService creates a recognition service on an in-memory store.
func testService(t *testing.T, ext *fakeExtractor) (*recognition.Service, *mock.MockStore) {
	t.Helper()
	store := mock.NewMockStore()
	opts := recognition.Options{
		Threshold: -1,
		Now:       func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) },
	}
	if ext != nil {
		opts.Extractor = ext
	}
	return recognition.NewService(store, opts), store
}

// seedAliceBob enrolls the two reference faces.
func seedAliceBob(t *testing.T, svc *recognition.Service) {
	t.Helper()
	ctx := context.Background()
	for _, req := range []recognition.EnrollRequest{
		{PersonID: "p1", DisplayName: "Alice", Embedding: []float32{1, 0, 0}},
		{PersonID: "p2", DisplayName: "Bob", Embedding: []float32{0, 1, 0}},
	} {
		if _, err := svc.Enroll(ctx, req); err != nil {
			t.Fatalf("seed enroll failed: %v", err)
		}
	}
}

// jsonRequest creates a request with a JSON body.
func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// multipartRequest creates a request with form fields and an "image" file part.
func multipartRequest(t *testing.T, path string, fields map[string]string, image []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("failed to write field: %v", err)
		}
	}
	if image != nil {
		part, err := writer.CreateFormFile("image", "face.jpg")
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		part.Write(image)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

// decodeBody decodes a JSON response body into a generic map.
func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var result map[string]any
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to unmarshal response: %v (%s)", err, recorder.Body.String())
	}
	return result
}
