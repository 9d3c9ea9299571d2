package config

import "time"

// Config is the top-level raggate configuration, corresponding to .raggate.yml.
type Config struct {
	Port           int           `yaml:"port" koanf:"port"`
	JWTSecret      string        `yaml:"jwt_secret" koanf:"jwt_secret"`
	TokenTTL       time.Duration `yaml:"token_ttl" koanf:"token_ttl"`
	CORSOrigin     string        `yaml:"cors_origin" koanf:"cors_origin"`
	InferenceBase  string        `yaml:"inference_base_url" koanf:"inference_base_url"`
	QueryTimeout   time.Duration `yaml:"query_timeout" koanf:"query_timeout"`
	IngestTimeout  time.Duration `yaml:"ingest_timeout" koanf:"ingest_timeout"`
	DataDir        string        `yaml:"data_dir" koanf:"data_dir"`
	UploadDir      string        `yaml:"upload_dir" koanf:"upload_dir"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes" koanf:"max_upload_bytes"`
}
