package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofhir/hl7v2/pkg/logger"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if !cfg.Options.Recover || cfg.Options.Strict {
		t.Errorf("Options = %+v; want the library defaults", cfg.Options)
	}
	if cfg.LogLevel != logger.LevelWarn {
		t.Errorf("LogLevel = %v; want warn", cfg.LogLevel)
	}
	if cfg.Server.Addr != ":8080" || cfg.Server.Workers != 4 {
		t.Errorf("Server = %+v", cfg.Server)
	}
}

func TestParse(t *testing.T) {
	cfg, err := Parse(`
preset = "lax"

[parser]
silent = false
segment_filter = ["pid", " obx ", ""]
continuation_marker = "CNT"
delimiters = "#*!%$"
segment_terminator = "\n"
default_version = "2.3.1"

[log]
level = "debug"

[server]
addr = "127.0.0.1:9000"
read_timeout = "2s"
workers = 8

[query]
cache_size = 32
`)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	o := cfg.Options
	if !o.Recover || !o.IgnoreExtra || !o.LaxUnderstanding {
		t.Errorf("lax preset not applied: %+v", o)
	}
	if o.Silent {
		t.Error("Silent = true; want the explicit key to override the preset")
	}
	if got := strings.Join(o.SegmentFilter, ","); got != "PID,OBX" {
		t.Errorf("SegmentFilter = %q; want PID,OBX", got)
	}
	if o.ContinuationMarker != "CNT" {
		t.Errorf("ContinuationMarker = %q; want CNT", o.ContinuationMarker)
	}
	if o.Delimiters.Field != '#' || o.Delimiters.Subcomponent != '$' {
		t.Errorf("Delimiters = %+v", o.Delimiters)
	}
	if o.SegmentTerminator != "\n" {
		t.Errorf("SegmentTerminator = %q; want newline", o.SegmentTerminator)
	}
	if o.DefaultVersion != "2.3.1" {
		t.Errorf("DefaultVersion = %q; want 2.3.1", o.DefaultVersion)
	}
	if cfg.LogLevel != logger.LevelDebug {
		t.Errorf("LogLevel = %v; want debug", cfg.LogLevel)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" || cfg.Server.ReadTimeout != 2*time.Second || cfg.Server.Workers != 8 {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Server.WriteTimeout != Default().Server.WriteTimeout {
		t.Errorf("WriteTimeout = %v; want the default", cfg.Server.WriteTimeout)
	}
	if cfg.QueryCacheSize != 32 {
		t.Errorf("QueryCacheSize = %d; want 32", cfg.QueryCacheSize)
	}
}

func TestParseStrictPreset(t *testing.T) {
	cfg, err := Parse(`preset = "strict"`)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !cfg.Options.Strict || cfg.Options.Recover || !cfg.Options.Verbose {
		t.Errorf("Options = %+v; want the strict preset", cfg.Options)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"syntax", `preset = `, "load config"},
		{"unknown key", "[parser]\nstrictt = true", "unknown key"},
		{"preset", `preset = "loose"`, "unknown preset"},
		{"log level", "[log]\nlevel = \"loud\"", "log.level"},
		{"delimiters", "[parser]\ndelimiters = \"||||\"", "parser.delimiters"},
		{"marker", "[parser]\ncontinuation_marker = \"AD\"", "continuation_marker"},
		{"terminator", "[parser]\nsegment_terminator = \"\"", "segment_terminator"},
		{"version", "[parser]\ndefault_version = \"9.9\"", "default_version"},
		{"timeout", "[server]\nread_timeout = \"soon\"", "server.read_timeout"},
		{"cache", "[query]\ncache_size = 0", "query.cache_size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Parse() error = %v; want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hl7v2.toml")
	if err := os.WriteFile(path, []byte("[server]\naddr = \":9999\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Addr != ":9999" {
		t.Errorf("Addr = %q; want :9999", cfg.Server.Addr)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("Load(missing) should fail")
	}
}
