package httpgen

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spigell/talent-matcher/internal/ai"
)

func TestGenerateContentSendsPromptAndReadsText(t *testing.T) {
	var got request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("missing bearer token: %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"text": " {\"score\": 80} "})
	}))
	defer srv.Close()

	client, err := New(srv.URL, "local-model", "secret", time.Second, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	text, err := client.GenerateContent(context.Background(), "be strict", "score this")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != `{"score": 80}` {
		t.Fatalf("unexpected text: %q", text)
	}
	if got.System != "be strict" || got.Prompt != "score this" || got.Model != "local-model" {
		t.Fatalf("unexpected request payload: %+v", got)
	}
	if client.Model() != "local-model" {
		t.Fatalf("unexpected model %q", client.Model())
	}
}

func TestGenerateContentHandlesGzip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		_, _ = gz.Write([]byte(`{"text": "compressed"}`))
		_ = gz.Close()
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write(buf.Bytes())
	}))
	defer srv.Close()

	client, _ := New(srv.URL, "", "", time.Second, nil)
	text, err := client.GenerateContent(context.Background(), "", "hi")
	if err != nil || text != "compressed" {
		t.Fatalf("expected compressed text, got %q (%v)", text, err)
	}
}

func TestGenerateContentClassifiesFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		target  error
	}{
		{
			name: "non-2xx",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "overloaded", http.StatusServiceUnavailable)
			},
			target: ai.ErrBackendUnavailable,
		},
		{
			name: "broken json",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"text": `))
			},
			target: ai.ErrMalformedResponse,
		},
		{
			name: "empty text",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"text": "  "}`))
			},
			target: ai.ErrMalformedResponse,
		},
		{
			name: "oversized answer",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write(bytes.Repeat([]byte("x"), maxBodyBytes+10))
			},
			target: ai.ErrMalformedResponse,
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				time.Sleep(200 * time.Millisecond)
				_, _ = w.Write([]byte(`{"text": "late"}`))
			},
			target: ai.ErrBackendUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			client, _ := New(srv.URL, "", "", 50*time.Millisecond, nil)
			_, err := client.GenerateContent(context.Background(), "", "hi")
			if !errors.Is(err, tt.target) {
				t.Fatalf("expected %v, got %v", tt.target, err)
			}
		})
	}
}

func TestNewRequiresURL(t *testing.T) {
	if _, err := New("  ", "", "", 0, nil); err == nil {
		t.Fatalf("expected error for empty url")
	}
}
