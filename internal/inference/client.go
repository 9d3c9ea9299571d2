// Package inference is the HTTP client for the external answer-generation
// service. The gateway only assumes the /rag/query and /rag/ingest contracts;
// retrieval and generation internals live on the other side of the wire.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"
)

// Source is a single citation attached to an answer.
type Source struct {
	Title string   `json:"title"`
	Score *float64 `json:"score,omitempty"`
	Path  string   `json:"path,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// QueryRequest is the payload sent to /rag/query.
type QueryRequest struct {
	Question string   `json:"question"`
	Roles    []string `json:"roles"`
	ChatID   string   `json:"chat_id,omitempty"`
	UserID   string   `json:"user_id,omitempty"`
}

// QueryResult is the answer produced for one question.
type QueryResult struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// IngestResult is the downstream response to a document ingestion.
type IngestResult struct {
	OK     bool `json:"ok"`
	Chunks int  `json:"chunks"`
}

// StatusError carries the status code returned by the inference service so
// callers can propagate it.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string { return e.Message }

// Client talks to the inference service over HTTP.
type Client struct {
	base         string
	queryClient  *http.Client
	ingestClient *http.Client
}

// NewClient creates a Client for the given base URL. Query and ingest calls
// get separate timeouts because ingestion of large documents is much slower.
func NewClient(base string, queryTimeout, ingestTimeout time.Duration) *Client {
	return &Client{
		base:         strings.TrimRight(base, "/"),
		queryClient:  &http.Client{Timeout: queryTimeout},
		ingestClient: &http.Client{Timeout: ingestTimeout},
	}
}

// errorBody is the downstream JSON error shape.
type errorBody struct {
	Error string `json:"error"`
}

// Query sends a question to /rag/query and returns the answer.
func (c *Client) Query(ctx context.Context, q QueryRequest) (*QueryResult, error) {
	payload, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("marshalling query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/rag/query", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.queryClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inference service unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body, "inference query failed")}
	}

	var result QueryResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding query response: %w", err)
	}
	return &result, nil
}

// Ingest uploads a staged document to /rag/ingest as multipart form data.
// roles is the comma-joined role scope; fileName is the name the inference
// service should see, independent of the staged path.
func (c *Client) Ingest(ctx context.Context, roles, filePath, fileName string) (*IngestResult, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening staged file: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("roles", roles); err != nil {
		return nil, fmt.Errorf("writing roles field: %w", err)
	}
	part, err := form.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("creating file part: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("copying staged file: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("finalizing form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/rag/ingest", &body)
	if err != nil {
		return nil, fmt.Errorf("creating ingest request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.ingestClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inference service unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body, "inference ingest failed")}
	}

	var result IngestResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding ingest response: %w", err)
	}
	return &result, nil
}

// readErrorMessage extracts the downstream error text, preferring the JSON
// error field over the fallback.
func readErrorMessage(r io.Reader, fallback string) string {
	data, err := io.ReadAll(io.LimitReader(r, 64<<10))
	if err != nil || len(data) == 0 {
		return fallback
	}
	var b errorBody
	if err := json.Unmarshal(data, &b); err == nil && b.Error != "" {
		return b.Error
	}
	return fallback
}
