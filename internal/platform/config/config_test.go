package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	apperrors "scan-facts/internal/platform/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Format != "tsv" || cfg.Newlines != "normalized" || cfg.Dedupe != "off" {
		t.Fatalf("unexpected enumerated defaults: %+v", cfg)
	}
	if cfg.Workers != 4 {
		t.Fatalf("expected default workers 4, got %d", cfg.Workers)
	}
	if !cfg.StripANSI {
		t.Fatalf("expected strip-ansi enabled by default")
	}
	if cfg.Host == "" {
		t.Fatalf("expected a default host")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate, got %v", err)
	}
}

func TestLoadFileYAML(t *testing.T) {
	path := writeFile(t, "scan.yaml", `
parser: nmap
host: kali
format: jsonl
workers: 8
strip_ansi: false
inputs:
  - captures/nmap-1.txt
  - " "
  - captures/nmap-2.txt
`)
	fc, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	cfg := Default()
	cfg.ApplyFile(fc, nil)

	if cfg.Parser != "nmap" || cfg.Host != "kali" || cfg.Format != "jsonl" || cfg.Workers != 8 || cfg.StripANSI {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if diff := cmp.Diff([]string{"captures/nmap-1.txt", "captures/nmap-2.txt"}, cfg.Inputs); diff != "" {
		t.Fatalf("inputs mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFileJSONWithCommaInputs(t *testing.T) {
	path := writeFile(t, "scan.json", `{"command": "nikto -h http://10.0.0.5/", "inputs": "a.txt, b.txt ,,c.txt", "dedupe": "exact"}`)
	fc, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	cfg := Default()
	cfg.ApplyFile(fc, nil)

	if cfg.Command != "nikto -h http://10.0.0.5/" || cfg.Dedupe != "exact" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if diff := cmp.Diff([]string{"a.txt", "b.txt", "c.txt"}, cfg.Inputs); diff != "" {
		t.Fatalf("inputs mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFileUnknownExtensionFallsBack(t *testing.T) {
	fc, err := LoadFile(writeFile(t, "scan.conf", `{"workers": 2}`))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if fc.Workers == nil || *fc.Workers != 2 {
		t.Fatalf("workers not read from %+v", fc)
	}
}

func TestLoadFileErrors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil || !strings.Contains(err.Error(), "no existe") {
		t.Fatalf("missing file error = %v", err)
	}
	if _, err := LoadFile(t.TempDir()); err == nil || !strings.Contains(err.Error(), "directorio") {
		t.Fatalf("directory error = %v", err)
	}
	if _, err := LoadFile(writeFile(t, "bad.json", `{"inputs": 3}`)); err == nil {
		t.Fatalf("invalid inputs type should fail")
	}
}

func TestApplyFileRespectsExplicitFlags(t *testing.T) {
	fc, err := LoadFile(writeFile(t, "scan.yml", "format: jsonl\nworkers: 9\nverbosity: 3\ninputs: x.txt\n"))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	cfg := Default()
	cfg.Format = "tsv"
	cfg.Inputs = []string{"cli.txt"}
	changed := map[string]bool{FlagFormat: true, FlagInputs: true}
	cfg.ApplyFile(fc, func(name string) bool { return changed[name] })

	if cfg.Format != "tsv" {
		t.Fatalf("explicit --format must win, got %q", cfg.Format)
	}
	if cfg.Workers != 9 || cfg.Verbosity != 3 {
		t.Fatalf("unset flags should take file values, got %+v", cfg)
	}
	if diff := cmp.Diff([]string{"cli.txt"}, cfg.Inputs); diff != "" {
		t.Fatalf("positional inputs must win (-want +got):\n%s", diff)
	}
}

func TestApplyFileLogLevel(t *testing.T) {
	fc, err := LoadFile(writeFile(t, "scan.yml", "log_level: \" Debug \"\n"))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	cfg := Default()
	cfg.ApplyFile(fc, func(string) bool { return false })
	cfg.Normalize()

	if cfg.LogLevel != "debug" {
		t.Fatalf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"format", func(c *Config) { c.Format = "xml" }, FlagFormat},
		{"newlines", func(c *Config) { c.Newlines = "crlf" }, FlagNewlines},
		{"dedupe", func(c *Config) { c.Dedupe = "fuzzy" }, FlagDedupe},
		{"workers", func(c *Config) { c.Workers = 0 }, FlagWorkers},
		{"verbosity", func(c *Config) { c.Verbosity = -1 }, FlagVerbosity},
		{"host", func(c *Config) { c.Host = "" }, FlagHost},
		{"scope", func(c *Config) { c.Scope = "*.example.com" }, FlagScope},
		{"log level", func(c *Config) { c.LogLevel = "verbose" }, FlagLogLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !apperrors.IsConfiguration(err) {
				t.Fatalf("Validate() = %v, want configuration error", err)
			}
			if got := apperrors.GetContext(err)["field"]; got != tt.field {
				t.Fatalf("error field = %q, want %q", got, tt.field)
			}
			if apperrors.GetSuggestion(err) == "" {
				t.Fatalf("configuration errors should carry a suggestion")
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	cfg := Config{Format: " JSONL ", Newlines: "", Dedupe: "", Inputs: []string{" a ", ""}, Host: " kali "}
	cfg.Normalize()

	if cfg.Format != "jsonl" || cfg.Newlines != "normalized" || cfg.Dedupe != "off" || cfg.Host != "kali" {
		t.Fatalf("unexpected normalized config %+v", cfg)
	}
	if diff := cmp.Diff([]string{"a"}, cfg.Inputs); diff != "" {
		t.Fatalf("inputs mismatch (-want +got):\n%s", diff)
	}
}
