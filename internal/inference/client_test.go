package inference

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestQuery(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rag/query" {
			t.Errorf("path = %q, want /rag/query", r.URL.Path)
		}
		var req QueryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if req.Question != "hi" || req.UserID != "u1" || req.ChatID != "chat_u1_1" {
			t.Errorf("request = %+v", req)
		}
		json.NewEncoder(w).Encode(QueryResult{
			Answer:  "hello [doc]",
			Sources: []Source{{Title: "doc"}},
		})
	}))
	defer backend.Close()

	c := NewClient(backend.URL, time.Second, time.Second)
	result, err := c.Query(context.Background(), QueryRequest{
		Question: "hi", Roles: []string{"sales"}, ChatID: "chat_u1_1", UserID: "u1",
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if result.Answer != "hello [doc]" {
		t.Errorf("Answer = %q", result.Answer)
	}
	if len(result.Sources) != 1 || result.Sources[0].Title != "doc" {
		t.Errorf("Sources = %+v", result.Sources)
	}
}

func TestQueryDownstreamError(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"error": "model overloaded"})
	}))
	defer backend.Close()

	c := NewClient(backend.URL, time.Second, time.Second)
	_, err := c.Query(context.Background(), QueryRequest{Question: "hi"})
	if err == nil {
		t.Fatal("expected error")
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error = %T, want *StatusError", err)
	}
	if statusErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode = %d, want 503", statusErr.StatusCode)
	}
	if statusErr.Message != "model overloaded" {
		t.Errorf("Message = %q, want downstream error text", statusErr.Message)
	}
}

func TestQueryTimeout(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer backend.Close()

	c := NewClient(backend.URL, 20*time.Millisecond, time.Second)
	_, err := c.Query(context.Background(), QueryRequest{Question: "hi"})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		t.Errorf("timeout should be a transport error, got StatusError %d", statusErr.StatusCode)
	}
}

func TestIngest(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rag/ingest" {
			t.Errorf("path = %q, want /rag/ingest", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("roles"); got != "sales,engineering" {
			t.Errorf("roles = %q, want sales,engineering", got)
		}
		f, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer f.Close()
		if header.Filename != "guide.pdf" {
			t.Errorf("filename = %q, want guide.pdf", header.Filename)
		}
		json.NewEncoder(w).Encode(IngestResult{OK: true, Chunks: 7})
	}))
	defer backend.Close()

	staged := filepath.Join(t.TempDir(), "1700000000000_guide.pdf")
	if err := os.WriteFile(staged, []byte("%PDF-1.4 fake"), 0600); err != nil {
		t.Fatalf("writing staged file: %v", err)
	}

	c := NewClient(backend.URL, time.Second, time.Second)
	result, err := c.Ingest(context.Background(), "sales,engineering", staged, "guide.pdf")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if !result.OK || result.Chunks != 7 {
		t.Errorf("result = %+v, want ok with 7 chunks", result)
	}
}

func TestIngestDownstreamError(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"error": "unsupported encoding"})
	}))
	defer backend.Close()

	staged := filepath.Join(t.TempDir(), "x.txt")
	if err := os.WriteFile(staged, []byte("hello"), 0600); err != nil {
		t.Fatalf("writing staged file: %v", err)
	}

	c := NewClient(backend.URL, time.Second, time.Second)
	_, err := c.Ingest(context.Background(), "all", staged, "x.txt")

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if statusErr.StatusCode != http.StatusUnprocessableEntity || statusErr.Message != "unsupported encoding" {
		t.Errorf("StatusError = %+v", statusErr)
	}
}
