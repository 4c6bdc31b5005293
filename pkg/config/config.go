// Package config loads TOML configuration for the hl7v2 command line tool
// and server.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/gofhir/hl7v2"
	"github.com/gofhir/hl7v2/pkg/delim"
	"github.com/gofhir/hl7v2/pkg/logger"
)

// Config is the resolved configuration.
type Config struct {
	// Options are the parser options: a preset with per-flag overrides.
	Options *hl7v2.Options

	// LogLevel is the level of the package logger.
	LogLevel logger.Level

	// Server configures cmd/hl7v2d.
	Server ServerConfig

	// QueryCacheSize is the number of compiled FHIRPath expressions kept.
	QueryCacheSize int
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxBodyBytes int64
	Workers      int
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Options:  hl7v2.DefaultOptions(),
		LogLevel: logger.LevelWarn,
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			MaxBodyBytes: 4 << 20,
			Workers:      4,
		},
		QueryCacheSize: 256,
	}
}

type fileConfig struct {
	Preset string       `toml:"preset"`
	Parser parserConfig `toml:"parser"`
	Log    struct {
		Level string `toml:"level"`
	} `toml:"log"`
	Server serverConfig `toml:"server"`
	Query  struct {
		CacheSize int `toml:"cache_size"`
	} `toml:"query"`
}

type parserConfig struct {
	Strict             bool     `toml:"strict"`
	Silent             bool     `toml:"silent"`
	AllowComplex       bool     `toml:"allow_complex"`
	IgnoreExtra        bool     `toml:"ignore_extra"`
	LaxUnderstanding   bool     `toml:"lax_understanding"`
	Recover            bool     `toml:"recover"`
	FlatXML            bool     `toml:"flat_xml"`
	Verbose            bool     `toml:"verbose"`
	SegmentFilter      []string `toml:"segment_filter"`
	ContinuationMarker string   `toml:"continuation_marker"`
	Delimiters         string   `toml:"delimiters"`
	SegmentTerminator  string   `toml:"segment_terminator"`
	DefaultVersion     string   `toml:"default_version"`
}

type serverConfig struct {
	Addr         string `toml:"addr"`
	ReadTimeout  string `toml:"read_timeout"`
	WriteTimeout string `toml:"write_timeout"`
	MaxBodyBytes int64  `toml:"max_body_bytes"`
	Workers      int    `toml:"workers"`
}

// Load reads the configuration file at path on top of Default.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return Parse(string(data))
}

// Parse reads configuration from TOML text on top of Default. Only keys that
// are present override the defaults.
func Parse(text string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.Decode(text, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load config: unknown key %q", undecoded[0].String())
	}

	opts, err := parserOptions(meta, raw)
	if err != nil {
		return Config{}, err
	}
	cfg.Options = hl7v2.NewOptions(opts...)

	if meta.IsDefined("log", "level") {
		level, err := logger.ParseLevel(raw.Log.Level)
		if err != nil {
			return Config{}, fmt.Errorf("parse log.level: %w", err)
		}
		cfg.LogLevel = level
	}

	if err := applyServer(meta, raw.Server, &cfg.Server); err != nil {
		return Config{}, err
	}

	if meta.IsDefined("query", "cache_size") {
		if raw.Query.CacheSize < 1 {
			return Config{}, fmt.Errorf("parse query.cache_size: must be positive, got %d", raw.Query.CacheSize)
		}
		cfg.QueryCacheSize = raw.Query.CacheSize
	}
	return cfg, nil
}

// parserOptions turns the preset and the [parser] table into options,
// preset first so explicit keys win.
func parserOptions(meta toml.MetaData, raw fileConfig) ([]hl7v2.Option, error) {
	var opts []hl7v2.Option
	switch strings.ToLower(strings.TrimSpace(raw.Preset)) {
	case "", "default":
	case "strict":
		opts = append(opts, hl7v2.StrictPreset()...)
	case "lax":
		opts = append(opts, hl7v2.LaxPreset()...)
	default:
		return nil, fmt.Errorf("parse preset: unknown preset %q", raw.Preset)
	}

	p := raw.Parser
	flags := []struct {
		key string
		val bool
		opt func(bool) hl7v2.Option
	}{
		{"strict", p.Strict, hl7v2.WithStrict},
		{"silent", p.Silent, hl7v2.WithSilent},
		{"allow_complex", p.AllowComplex, hl7v2.WithAllowComplex},
		{"ignore_extra", p.IgnoreExtra, hl7v2.WithIgnoreExtra},
		{"lax_understanding", p.LaxUnderstanding, hl7v2.WithLaxUnderstanding},
		{"recover", p.Recover, hl7v2.WithRecover},
		{"flat_xml", p.FlatXML, hl7v2.WithFlatXML},
		{"verbose", p.Verbose, hl7v2.WithVerbose},
	}
	for _, f := range flags {
		if meta.IsDefined("parser", f.key) {
			opts = append(opts, f.opt(f.val))
		}
	}

	if meta.IsDefined("parser", "segment_filter") {
		opts = append(opts, hl7v2.WithSegmentFilter(normalizeNames(p.SegmentFilter)...))
	}
	if meta.IsDefined("parser", "continuation_marker") {
		marker := strings.TrimSpace(p.ContinuationMarker)
		if len(marker) != 3 {
			return nil, fmt.Errorf("parse parser.continuation_marker: want 3 characters, got %q", marker)
		}
		opts = append(opts, hl7v2.WithContinuationMarker(marker))
	}
	if meta.IsDefined("parser", "delimiters") {
		d, err := delim.Extract("MSH" + p.Delimiters)
		if err != nil {
			return nil, fmt.Errorf("parse parser.delimiters: %w", err)
		}
		opts = append(opts, hl7v2.WithDelimiters(d))
	}
	if meta.IsDefined("parser", "segment_terminator") {
		if p.SegmentTerminator == "" {
			return nil, fmt.Errorf("parse parser.segment_terminator: must not be empty")
		}
		opts = append(opts, hl7v2.WithSegmentTerminator(p.SegmentTerminator))
	}
	if meta.IsDefined("parser", "default_version") {
		v, ok := hl7v2.ParseVersion(p.DefaultVersion)
		if !ok {
			return nil, fmt.Errorf("parse parser.default_version: unsupported version %q", p.DefaultVersion)
		}
		opts = append(opts, hl7v2.WithDefaultVersion(v.String()))
	}
	return opts, nil
}

func applyServer(meta toml.MetaData, raw serverConfig, cfg *ServerConfig) error {
	if meta.IsDefined("server", "addr") {
		cfg.Addr = strings.TrimSpace(raw.Addr)
	}
	if meta.IsDefined("server", "read_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ReadTimeout))
		if err != nil {
			return fmt.Errorf("parse server.read_timeout: %w", err)
		}
		cfg.ReadTimeout = d
	}
	if meta.IsDefined("server", "write_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.WriteTimeout))
		if err != nil {
			return fmt.Errorf("parse server.write_timeout: %w", err)
		}
		cfg.WriteTimeout = d
	}
	if meta.IsDefined("server", "max_body_bytes") {
		cfg.MaxBodyBytes = raw.MaxBodyBytes
	}
	if meta.IsDefined("server", "workers") {
		cfg.Workers = raw.Workers
	}
	return nil
}

func normalizeNames(in []string) []string {
	out := make([]string, 0, len(in))
	for _, name := range in {
		v := strings.ToUpper(strings.TrimSpace(name))
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
