package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hazemkhaled/raggate/internal/auth"
	"github.com/hazemkhaled/raggate/internal/httpapi"
	"github.com/hazemkhaled/raggate/internal/inference"
)

// allowedExtensions are the document types the inference service can index.
var allowedExtensions = map[string]bool{
	".pdf":      true,
	".docx":     true,
	".md":       true,
	".txt":      true,
	".markdown": true,
}

// unsafeChars matches everything stripped from an original filename before
// it is used on disk.
var unsafeChars = regexp.MustCompile(`[^\w.\-]+`)

// Upload is one incoming document: the byte stream plus its declared name,
// size, and role scope.
type Upload struct {
	File     io.Reader
	Filename string
	Size     int64
	Roles    []string
}

// Ingester forwards a staged document to the inference service. The
// inference client implements it.
type Ingester interface {
	Ingest(ctx context.Context, roles, filePath, fileName string) (*inference.IngestResult, error)
}

// Pipeline validates an upload, stages it on disk, proxies it for indexing,
// and always removes the staged copy.
type Pipeline struct {
	ingester Ingester
	logger   *zap.Logger

	uploadDir     string
	maxBytes      int64
	ingestTimeout time.Duration
	now           func() time.Time
}

// NewPipeline wires the upload pipeline. uploadDir is created on demand.
func NewPipeline(ingester Ingester, uploadDir string, maxBytes int64, ingestTimeout time.Duration, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		ingester:      ingester,
		logger:        logger,
		uploadDir:     uploadDir,
		maxBytes:      maxBytes,
		ingestTimeout: ingestTimeout,
		now:           time.Now,
	}
}

// Ingest runs the validate-stage-proxy-cleanup sequence for one upload.
// Validation failures return before any disk or network side effect. Once a
// file is staged it is removed on every exit path.
func (p *Pipeline) Ingest(ctx context.Context, principal *auth.Principal, up Upload) (*inference.IngestResult, error) {
	if up.File == nil || up.Filename == "" {
		return nil, httpapi.InvalidRequest("missing file")
	}

	ext := strings.ToLower(filepath.Ext(up.Filename))
	if !allowedExtensions[ext] {
		return nil, httpapi.InvalidRequest("Invalid file type. Allowed: " + allowedExtensionList())
	}

	if up.Size > p.maxBytes {
		return nil, httpapi.InvalidRequest("File too large (max 10MB)")
	}

	roles := normalizeRoles(up.Roles)

	staged, err := p.stage(up)
	if err != nil {
		p.logger.Error("staging upload", zap.String("filename", up.Filename), zap.Error(err))
		return nil, fmt.Errorf("staging upload: %w", err)
	}
	defer p.cleanup(staged, principal)

	p.logger.Info("document upload started",
		zap.String("user_id", principal.ID),
		zap.String("filename", up.Filename),
		zap.Int64("size", up.Size),
		zap.String("roles", roles))

	// The proxy call outlives a client disconnect; only the ingest timeout
	// bounds it.
	ictx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.ingestTimeout)
	defer cancel()

	start := p.now()
	result, err := p.ingester.Ingest(ictx, roles, staged, up.Filename)
	if err != nil {
		p.logger.Error("document upload failed",
			zap.String("user_id", principal.ID),
			zap.String("filename", up.Filename),
			zap.Duration("duration", p.now().Sub(start)),
			zap.Error(err))

		var statusErr *inference.StatusError
		if errors.As(err, &statusErr) {
			return nil, httpapi.FromStatus(statusErr.StatusCode, statusErr.Message)
		}
		return nil, httpapi.Upstream(err.Error())
	}

	p.logger.Info("document upload completed",
		zap.String("user_id", principal.ID),
		zap.String("filename", up.Filename),
		zap.Duration("duration", p.now().Sub(start)),
		zap.Int("chunks", result.Chunks))

	return result, nil
}

// stage copies the upload into the staging directory under a
// collision-resistant name.
func (p *Pipeline) stage(up Upload) (string, error) {
	if err := os.MkdirAll(p.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("creating upload directory: %w", err)
	}

	name := fmt.Sprintf("%d_%s", p.now().UnixMilli(), SanitizeFilename(up.Filename))
	path := filepath.Join(p.uploadDir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating staged file: %w", err)
	}

	if _, err := io.Copy(f, up.File); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("writing staged file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("closing staged file: %w", err)
	}

	return path, nil
}

// cleanup removes a staged file. Failure is logged, never surfaced: the
// response to the client is already decided by the time cleanup runs.
func (p *Pipeline) cleanup(path string, principal *auth.Principal) {
	if err := os.Remove(path); err != nil {
		p.logger.Warn("failed to cleanup staged file",
			zap.String("user_id", principal.ID),
			zap.String("path", path),
			zap.Error(err))
	}
}

// SanitizeFilename replaces every run of non-word, non-dot, non-dash
// characters with a single underscore.
func SanitizeFilename(name string) string {
	return unsafeChars.ReplaceAllString(name, "_")
}

// normalizeRoles joins the role scope as a comma-separated list, defaulting
// to "all" when empty.
func normalizeRoles(roles []string) string {
	var clean []string
	for _, r := range roles {
		if r = strings.TrimSpace(r); r != "" {
			clean = append(clean, r)
		}
	}
	if len(clean) == 0 {
		return "all"
	}
	return strings.Join(clean, ",")
}

// allowedExtensionList renders the whitelist for error messages.
func allowedExtensionList() string {
	exts := make([]string, 0, len(allowedExtensions))
	for ext := range allowedExtensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return strings.Join(exts, ", ")
}
