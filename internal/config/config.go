// Package config loads and validates the inkwell configuration.
//
// Configuration is read from inkwell.yaml in the working directory (or an
// explicit path), with environment variable overrides applied on top.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	ierr "github.com/davidgrier/inkwell/internal/errors"
)

// DefaultConfigFile is the config file looked up in the working directory.
const DefaultConfigFile = "inkwell.yaml"

// Config is the complete inkwell configuration.
type Config struct {
	Version  int            `yaml:"version"`
	Content  ContentConfig  `yaml:"content"`
	Cache    CacheConfig    `yaml:"cache"`
	Search   SearchConfig   `yaml:"search"`
	Site     SiteConfig     `yaml:"site"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Server   ServerConfig   `yaml:"server"`
	Watch    WatchConfig    `yaml:"watch"`
	Log      LogConfig      `yaml:"log"`
}

// ContentConfig describes where source documents live.
type ContentConfig struct {
	// Root is the content directory scanned for documents.
	Root string `yaml:"root"`

	// Extensions are the file suffixes treated as documents.
	Extensions []string `yaml:"extensions"`

	// ExcludePatterns are path substrings skipped during the scan.
	ExcludePatterns []string `yaml:"exclude"`
}

// CacheConfig controls the snapshot location and the query caches.
type CacheConfig struct {
	// Dir is the snapshot directory (metadata, indices, feed, logs).
	Dir string `yaml:"dir"`

	// TTL is how long a query cache entry stays valid.
	TTL time.Duration `yaml:"ttl"`

	// PostEntries bounds the per-slug post cache.
	PostEntries int `yaml:"post_entries"`

	// SearchEntries bounds the search result cache.
	SearchEntries int `yaml:"search_entries"`

	// TagEntries bounds the per-tag listing cache.
	TagEntries int `yaml:"tag_entries"`
}

// SearchConfig holds field boosts and the match threshold for full-text
// search. Boosts are configuration, not per-call-site constants.
type SearchConfig struct {
	// TitleBoost > TagBoost > SummaryBoost > BodyBoost by default.
	TitleBoost   float64 `yaml:"title_boost"`
	TagBoost     float64 `yaml:"tag_boost"`
	SummaryBoost float64 `yaml:"summary_boost"`
	BodyBoost    float64 `yaml:"body_boost"`

	// MinScore drops hits below this score. Zero keeps everything.
	MinScore float64 `yaml:"min_score"`

	// MaxResults caps the number of hits returned per query.
	MaxResults int `yaml:"max_results"`
}

// SiteConfig feeds the generated syndication document.
type SiteConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	BaseURL     string `yaml:"base_url"`
	Author      string `yaml:"author"`
	AuthorEmail string `yaml:"author_email"`
	Language    string `yaml:"language"`
}

// PipelineConfig tunes the preprocessing run.
type PipelineConfig struct {
	// Workers bounds concurrent per-document processing.
	// Zero means runtime.NumCPU().
	Workers int `yaml:"workers"`

	// DocumentTimeout is the per-document deadline; a document that does
	// not finish read/resolve/normalize within it is a failed document,
	// not a stalled rebuild.
	DocumentTimeout time.Duration `yaml:"document_timeout"`
}

// ServerConfig configures the HTTP pass-through API.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// WatchConfig configures the content directory watcher.
type WatchConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce"`
}

// LogConfig configures logging verbosity.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version: 1,
		Content: ContentConfig{
			Root:       "content",
			Extensions: []string{".md", ".mdx"},
		},
		Cache: CacheConfig{
			Dir:           ".inkwell",
			TTL:           5 * time.Minute,
			PostEntries:   256,
			SearchEntries: 128,
			TagEntries:    64,
		},
		Search: SearchConfig{
			TitleBoost:   4.0,
			TagBoost:     3.0,
			SummaryBoost: 2.0,
			BodyBoost:    1.0,
			MinScore:     0.0,
			MaxResults:   50,
		},
		Site: SiteConfig{
			Title:    "inkwell",
			BaseURL:  "http://localhost:8321",
			Language: "en-us",
		},
		Pipeline: PipelineConfig{
			Workers:         runtime.NumCPU(),
			DocumentTimeout: 10 * time.Second,
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8321,
		},
		Watch: WatchConfig{
			Enabled:  true,
			Debounce: 500 * time.Millisecond,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from path, applies environment overrides, and
// validates the result. A missing file is not an error: defaults apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults only.
	case err != nil:
		return nil, ierr.Wrap(ierr.ErrCodeConfigNotFound, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, ierr.New(ierr.ErrCodeConfigInvalid,
				fmt.Sprintf("cannot parse %s: %v", path, err), err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Content.Root == "" {
		return ierr.New(ierr.ErrCodeConfigInvalid, "content.root must not be empty", nil)
	}
	if c.Cache.Dir == "" {
		return ierr.New(ierr.ErrCodeConfigInvalid, "cache.dir must not be empty", nil)
	}
	if c.Cache.TTL < 0 {
		return ierr.New(ierr.ErrCodeConfigInvalid, "cache.ttl must not be negative", nil)
	}
	for name, boost := range map[string]float64{
		"title_boost":   c.Search.TitleBoost,
		"tag_boost":     c.Search.TagBoost,
		"summary_boost": c.Search.SummaryBoost,
		"body_boost":    c.Search.BodyBoost,
	} {
		if boost < 0 {
			return ierr.New(ierr.ErrCodeConfigInvalid,
				fmt.Sprintf("search.%s must not be negative", name), nil)
		}
	}
	if c.Search.MaxResults <= 0 {
		return ierr.New(ierr.ErrCodeConfigInvalid, "search.max_results must be positive", nil)
	}
	if c.Pipeline.DocumentTimeout <= 0 {
		return ierr.New(ierr.ErrCodeConfigInvalid, "pipeline.document_timeout must be positive", nil)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return ierr.New(ierr.ErrCodeConfigInvalid, "server.port out of range", nil)
	}
	if len(c.Content.Extensions) == 0 {
		c.Content.Extensions = []string{".md", ".mdx"}
	}
	if c.Pipeline.Workers <= 0 {
		c.Pipeline.Workers = runtime.NumCPU()
	}
	return nil
}

// applyEnvOverrides applies INKWELL_* environment variables on top of the
// loaded configuration. Only operational knobs are overridable.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("INKWELL_CONTENT_ROOT"); v != "" {
		cfg.Content.Root = v
	}
	if v := os.Getenv("INKWELL_CACHE_DIR"); v != "" {
		cfg.Cache.Dir = v
	}
	if v := os.Getenv("INKWELL_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("INKWELL_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("INKWELL_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Pipeline.Workers = n
		}
	}
	if v := os.Getenv("INKWELL_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.TTL = d
		}
	}
}
