package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/face-id/internal/database"
)

func createTestImage(width, height int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := range width {
		for y := range height {
			img.Set(x, y, c)
		}
	}
	return img
}

func encodePNG(img image.Image) []byte {
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func newFaceServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(handler))
	t.Cleanup(server.Close)
	return server
}

func TestClient_Extract(t *testing.T) {
	var gotModel string
	var gotSize image.Point
	server := newFaceServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed/face" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm failed: %v", err)
			return
		}
		gotModel = r.FormValue("model")

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file part: %v", err)
			return
		}
		defer file.Close()
		if ct := header.Header.Get("Content-Type"); ct != "image/jpeg" {
			t.Errorf("part Content-Type = %q, want image/jpeg", ct)
		}
		data, _ := io.ReadAll(file)
		cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			t.Errorf("uploaded part is not a JPEG: %v", err)
			return
		}
		gotSize = image.Pt(cfg.Width, cfg.Height)

		json.NewEncoder(w).Encode(FaceResponse{
			FacesCount: 2,
			Faces: []FaceDetection{
				{FaceIndex: 0, Dim: 3, Embedding: []float32{0.1, 0.2, 0.3}},
				{FaceIndex: 1, Dim: 3, Embedding: []float32{9, 9, 9}},
			},
			Model: "ArcFace",
		})
	})

	client := NewClient(server.URL+"/", "ArcFace", 224)
	emb, err := client.Extract(context.Background(), encodePNG(createTestImage(300, 200, color.White)))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(emb) != 3 || emb[0] != 0.1 {
		t.Errorf("expected first face embedding, got %v", emb)
	}
	if gotModel != "ArcFace" {
		t.Errorf("model field = %q, want ArcFace", gotModel)
	}
	if gotSize != image.Pt(224, 224) {
		t.Errorf("uploaded image size = %v, want 224x224", gotSize)
	}
}

func TestClient_ExtractFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		payload []byte
	}{
		{"server error", http.StatusInternalServerError, `{"detail":"boom"}`, nil},
		{"no faces", http.StatusOK, `{"faces_count":0,"faces":[]}`, nil},
		{"empty embedding", http.StatusOK, `{"faces_count":1,"faces":[{"embedding":[]}]}`, nil},
		{"bad json", http.StatusOK, `not json`, nil},
		{"undecodable image", http.StatusOK, `{}`, []byte("definitely not an image")},
		{"empty image", http.StatusOK, `{}`, []byte{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := newFaceServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			})
			payload := tc.payload
			if payload == nil {
				payload = encodePNG(createTestImage(10, 10, color.Black))
			}

			client := NewClient(server.URL, "ArcFace", 32)
			_, err := client.Extract(context.Background(), payload)
			if !errors.Is(err, database.ErrExtractionFailed) {
				t.Errorf("expected ErrExtractionFailed, got %v", err)
			}
		})
	}
}

func TestClient_ExtractUnreachable(t *testing.T) {
	server := newFaceServer(t, func(w http.ResponseWriter, r *http.Request) {})
	url := server.URL
	server.Close()

	client := NewClient(url, "", 0)
	_, err := client.Extract(context.Background(), []byte{0xFF, 0xD8, 0xFF, 0, 0, 0, 0, 0})
	if !errors.Is(err, database.ErrExtractionFailed) {
		t.Errorf("expected ErrExtractionFailed, got %v", err)
	}
}

func TestDetectMIMEType(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"short", []byte{0xFF}, "application/octet-stream"},
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0, 0, 0}, "image/jpeg"},
		{"png", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, "image/png"},
		{"gif", []byte("GIF89a\x00\x00"), "image/gif"},
		{"bmp", []byte("BM\x00\x00\x00\x00\x00\x00"), "image/bmp"},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBP"), "image/webp"},
		{"unknown", []byte("hello world"), "application/octet-stream"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := detectMIMEType(tc.data); got != tc.want {
				t.Errorf("detectMIMEType = %q, want %q", got, tc.want)
			}
		})
	}
}
