// Package config loads server configuration from a TOML file with
// environment overrides for secrets.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Default values applied when the file or a field is absent.
const (
	DefaultListenAddr   = ":8080"
	DefaultChunkSize    = 2000
	DefaultChunkOverlap = 200
	DefaultTopK         = 4
	DefaultCallTimeout  = 30 * time.Second
)

// Config is the full server configuration.
type Config struct {
	Server    Server    `toml:"server"`
	Storage   Storage   `toml:"storage"`
	Vector    Vector    `toml:"vector"`
	Blob      Blob      `toml:"blob"`
	Embedding Embedding `toml:"embedding"`
	LLM       LLM       `toml:"llm"`
	Ingest    Ingest    `toml:"ingest"`
	Watch     Watch     `toml:"watch"`
}

// Server holds HTTP listener settings.
type Server struct {
	// ListenAddr is the address the HTTP server binds to.
	ListenAddr string `toml:"listen_addr"`

	// CORSOrigins lists allowed origins; empty allows all.
	CORSOrigins []string `toml:"cors_origins"`
}

// Storage holds relational store settings.
type Storage struct {
	// DataDir is the directory holding the SQLite database. Empty
	// defaults to ~/.queryhub/data.
	DataDir string `toml:"data_dir"`
}

// Vector holds vector index settings.
type Vector struct {
	// Backend selects "qdrant" or "memory".
	Backend string `toml:"backend"`

	Host   string `toml:"host"`
	Port   int    `toml:"port"`
	APIKey string `toml:"api_key"`
	UseTLS bool   `toml:"use_tls"`
}

// Blob holds object storage settings. Disabled when Endpoint is empty.
type Blob struct {
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	Bucket    string `toml:"bucket"`
	UseSSL    bool   `toml:"use_ssl"`
}

// Embedding holds embedding backend settings.
type Embedding struct {
	// Provider selects "openai" or "ollama".
	Provider string `toml:"provider"`

	APIKey     string `toml:"api_key"`
	BaseURL    string `toml:"base_url"`
	Model      string `toml:"model"`
	Dimensions int    `toml:"dimensions"`
}

// LLM holds completion backend settings.
type LLM struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
}

// Ingest holds pipeline tuning.
type Ingest struct {
	ChunkSize    int           `toml:"chunk_size"`
	ChunkOverlap int           `toml:"chunk_overlap"`
	CallTimeout  time.Duration `toml:"call_timeout"`
}

// Watch holds drop-folder settings. Disabled when Dir is empty.
type Watch struct {
	// Dir is watched for new files to auto-ingest.
	Dir string `toml:"dir"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Server: Server{
			ListenAddr: DefaultListenAddr,
		},
		Vector: Vector{
			Backend: "qdrant",
			Host:    "localhost",
			Port:    6334,
		},
		Blob: Blob{
			Bucket: "queryhub-docs",
		},
		Embedding: Embedding{
			Provider: "openai",
		},
		Ingest: Ingest{
			ChunkSize:    DefaultChunkSize,
			ChunkOverlap: DefaultChunkOverlap,
			CallTimeout:  DefaultCallTimeout,
		},
	}
}

// DefaultPath returns ~/.queryhub/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".queryhub", "config.toml"), nil
}

// Load reads path, applies defaults for absent fields and finally
// environment overrides. A missing file is not an error; the defaults
// plus environment stand alone.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults plus environment.
	case err != nil:
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables. Secrets belong in the
// environment, not in a config file checked into version control.
func (c *Config) applyEnv() {
	if v := os.Getenv("QUERYHUB_LISTEN_ADDR"); v != "" {
		c.Server.ListenAddr = v
	}
	if v := os.Getenv("QUERYHUB_DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv("QUERYHUB_QDRANT_API_KEY"); v != "" {
		c.Vector.APIKey = v
	}
	if v := os.Getenv("QUERYHUB_OPENAI_API_KEY"); v != "" {
		if c.Embedding.APIKey == "" {
			c.Embedding.APIKey = v
		}
		if c.LLM.APIKey == "" {
			c.LLM.APIKey = v
		}
	}
	if v := os.Getenv("QUERYHUB_MINIO_ACCESS_KEY"); v != "" {
		c.Blob.AccessKey = v
	}
	if v := os.Getenv("QUERYHUB_MINIO_SECRET_KEY"); v != "" {
		c.Blob.SecretKey = v
	}
	if v := os.Getenv("QUERYHUB_WATCH_DIR"); v != "" {
		c.Watch.Dir = v
	}
}

// validate rejects configurations the pipeline would choke on later.
func (c *Config) validate() error {
	if c.Ingest.ChunkSize <= 0 {
		return fmt.Errorf("ingest.chunk_size must be positive, got %d", c.Ingest.ChunkSize)
	}
	if c.Ingest.ChunkOverlap < 0 || c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		return fmt.Errorf("ingest.chunk_overlap must be in [0,%d), got %d",
			c.Ingest.ChunkSize, c.Ingest.ChunkOverlap)
	}
	switch c.Vector.Backend {
	case "qdrant", "memory":
	default:
		return fmt.Errorf("vector.backend must be qdrant or memory, got %q", c.Vector.Backend)
	}
	switch c.Embedding.Provider {
	case "openai", "ollama":
	default:
		return fmt.Errorf("embedding.provider must be openai or ollama, got %q", c.Embedding.Provider)
	}
	return nil
}
