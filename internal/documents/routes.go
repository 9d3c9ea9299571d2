package documents

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hazemkhaled/raggate/internal/auth"
	"github.com/hazemkhaled/raggate/internal/httpapi"
)

// maxParseMemory bounds how much of a multipart body is held in memory
// while parsing; the rest spills to disk.
const maxParseMemory = 32 << 20

// RegisterRoutes mounts the document endpoints, all behind authentication.
func RegisterRoutes(r chi.Router, pipeline *Pipeline, verifier auth.Verifier) {
	r.Route("/documents", func(r chi.Router) {
		r.Use(auth.Require(verifier))
		r.Post("/upload", handleUpload(pipeline))
	})
}

func handleUpload(pipeline *Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := auth.FromContext(r.Context())

		if err := r.ParseMultipartForm(maxParseMemory); err != nil {
			httpapi.WriteError(w, httpapi.InvalidRequest("missing file"))
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			httpapi.WriteError(w, httpapi.InvalidRequest("missing file"))
			return
		}
		defer file.Close()

		var roles []string
		if raw := r.FormValue("roles"); raw != "" {
			roles = strings.Split(raw, ",")
		}

		result, err := pipeline.Ingest(r.Context(), principal, Upload{
			File:     file,
			Filename: header.Filename,
			Size:     header.Size,
			Roles:    roles,
		})
		if err != nil {
			httpapi.WriteError(w, err)
			return
		}

		httpapi.WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "index": result})
	}
}
