package config

import "time"

// DefaultMaxUploadBytes is the upload size cap enforced by the document
// pipeline (10 MiB).
const DefaultMaxUploadBytes = 10 << 20

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Port:           8080,
		TokenTTL:       12 * time.Hour,
		CORSOrigin:     "*",
		InferenceBase:  "http://localhost:8000",
		QueryTimeout:   60 * time.Second,
		IngestTimeout:  120 * time.Second,
		DataDir:        "data",
		UploadDir:      "data/docs",
		MaxUploadBytes: DefaultMaxUploadBytes,
	}
}
