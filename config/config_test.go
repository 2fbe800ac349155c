package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/minios-linux/treesync/merge"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	t.Run("missing file returns nil", func(t *testing.T) {
		f, err := LoadFile(t.TempDir())
		if err != nil {
			t.Fatalf("LoadFile error: %v", err)
		}
		if f != nil {
			t.Fatalf("LoadFile expected nil, got %#v", f)
		}
	})

	t.Run("parses all fields", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, FileName), "source_locale: en-US\n"+
			"locales: [fr, de]\n"+
			"preserve: false\n"+
			"provider: openai\n"+
			"model: gpt-4o-mini\n"+
			"base_url: http://localhost:11434/v1\n"+
			"concurrency: 2\n"+
			"timeout: 30s\n"+
			"max_retries: 0\n")

		f, err := LoadFile(dir)
		if err != nil {
			t.Fatalf("LoadFile error: %v", err)
		}
		if f.SourceLocale != "en-US" || !reflect.DeepEqual(f.Locales, []string{"fr", "de"}) {
			t.Fatalf("unexpected file: %#v", f)
		}
		if f.Preserve == nil || *f.Preserve || f.Keep != nil {
			t.Fatalf("Preserve/Keep = %v/%v", f.Preserve, f.Keep)
		}
		if f.Timeout != 30*time.Second || f.Concurrency != 2 {
			t.Fatalf("Timeout/Concurrency = %v/%d", f.Timeout, f.Concurrency)
		}
		if f.MaxRetries == nil || *f.MaxRetries != 0 {
			t.Fatalf("MaxRetries = %v", f.MaxRetries)
		}
	})

	t.Run("rejects unknown keys", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, FileName), "languages: [ru]\n")
		_, err := LoadFile(dir)
		if err == nil {
			t.Fatal("expected error for unknown key")
		}
		if !strings.Contains(err.Error(), "languages") {
			t.Fatalf("error %q does not name the key", err)
		}
	})

	t.Run("empty file", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, FileName), "")
		f, err := LoadFile(dir)
		if err != nil || f == nil {
			t.Fatalf("LoadFile = %v, %v", f, err)
		}
	})
}

func TestWriteFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	keep := false
	in := &File{SourceLocale: "en", Locales: []string{"fr"}, Keep: &keep, Timeout: 15 * time.Second}
	if err := WriteFile(dir, in); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
	out, err := LoadFile(dir)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip = %#v, want %#v", out, in)
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Loader{
		EnvFile: filepath.Join(dir, "missing.env"),
		Environ: map[string]string{},
		Flags:   func(c *Config) { c.Path = dir },
	}.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Dir != dir || cfg.SourceLocale != "en" || cfg.Provider != "google" {
		t.Fatalf("unexpected defaults: %#v", cfg)
	}
	if cfg.Concurrency != DefaultConcurrency || cfg.Timeout != DefaultTimeout || cfg.MaxRetries != DefaultMaxRetries {
		t.Fatalf("unexpected defaults: %#v", cfg)
	}
	if cfg.Policy() != merge.DefaultPolicy() {
		t.Fatalf("Policy() = %+v", cfg.Policy())
	}
}

func TestLoadLayering(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, FileName), "source_locale: de\nconcurrency: 2\nmodel: from-yaml\nkeep: true\n")
	envFile := filepath.Join(dir, "test.env")
	writeFile(t, envFile, "TREESYNC_CONCURRENCY=3\nTREESYNC_API_KEY=from-dotenv\nTREESYNC_MODEL=from-dotenv\n")

	cfg, err := Loader{
		EnvFile: envFile,
		Environ: map[string]string{
			"TREESYNC_PATH":     dir,
			"TREESYNC_MODEL":    "from-env",
			"TREESYNC_LOCALES":  "fr,ja",
			"TREESYNC_PRESERVE": "false",
		},
		Flags: func(c *Config) {
			keep := false
			c.Keep = &keep
			c.Concurrency = 5
		},
	}.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.SourceLocale != "de" {
		t.Errorf("SourceLocale = %q, want de (yaml)", cfg.SourceLocale)
	}
	if cfg.APIKey != "from-dotenv" {
		t.Errorf("APIKey = %q, want from-dotenv", cfg.APIKey)
	}
	if cfg.Model != "from-env" {
		t.Errorf("Model = %q, want from-env", cfg.Model)
	}
	if cfg.Concurrency != 5 {
		t.Errorf("Concurrency = %d, want 5 (flag)", cfg.Concurrency)
	}
	if !reflect.DeepEqual(cfg.Locales, []string{"fr", "ja"}) {
		t.Errorf("Locales = %v", cfg.Locales)
	}
	if want := (merge.Policy{PreserveTranslations: false, KeepExtras: false}); cfg.Policy() != want {
		t.Errorf("Policy() = %+v, want %+v", cfg.Policy(), want)
	}
}

func TestLoadSourceFilePath(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "en-GB.json")
	writeFile(t, src, "{}")

	cfg, err := Loader{
		EnvFile: filepath.Join(dir, "none.env"),
		Environ: map[string]string{},
		Flags:   func(c *Config) { c.Path = src },
	}.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Dir != dir || cfg.SourceLocale != "en-GB" {
		t.Fatalf("Dir/SourceLocale = %q/%q", cfg.Dir, cfg.SourceLocale)
	}
}

func TestLoadBadEnvValue(t *testing.T) {
	dir := t.TempDir()
	_, err := Loader{
		EnvFile: filepath.Join(dir, "none.env"),
		Environ: map[string]string{"TREESYNC_PATH": dir, "TREESYNC_CONCURRENCY": "many"},
	}.Load()
	if err == nil {
		t.Fatal("expected error for non-numeric concurrency")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }, "concurrency"},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }, "timeout"},
		{"unknown provider", func(c *Config) { c.Provider = "deepl" }, "unknown provider"},
		{"openai without url", func(c *Config) { c.Provider = "openai"; c.Model = "m" }, "--base-url"},
		{"openai without model", func(c *Config) { c.Provider = "openai"; c.BaseURL = "http://x" }, "--model"},
		{"openai complete", func(c *Config) { c.Provider = "openai"; c.BaseURL = "http://x"; c.Model = "m" }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestTranslateOptions(t *testing.T) {
	cfg := Defaults()
	cfg.APIKey = "k"
	opts := cfg.TranslateOptions()
	if opts.APIKey != "k" || opts.Provider != "google" || opts.Timeout != DefaultTimeout {
		t.Fatalf("TranslateOptions() = %+v", opts)
	}
	if opts.MaxRetries != DefaultMaxRetries {
		t.Fatalf("MaxRetries = %d, want %d", opts.MaxRetries, DefaultMaxRetries)
	}

	cfg.MaxRetries = 0
	if got := cfg.TranslateOptions().MaxRetries; got >= 0 {
		t.Fatalf("MaxRetries 0 maps to %d, want a negative value", got)
	}
}

func TestLoadFallbackFillsEmptyFields(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Loader{
		EnvFile: filepath.Join(dir, "none.env"),
		Environ: map[string]string{"TREESYNC_PATH": dir, "TREESYNC_PROVIDER": "openai", "TREESYNC_MODEL": "m"},
		Fallback: func(c *Config) {
			if c.BaseURL == "" {
				c.BaseURL = "http://stored/v1"
			}
			if c.APIKey == "" {
				c.APIKey = "stored"
			}
		},
	}.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.BaseURL != "http://stored/v1" || cfg.APIKey != "stored" {
		t.Fatalf("BaseURL/APIKey = %q/%q", cfg.BaseURL, cfg.APIKey)
	}
}

func TestLoadCredentialFirstDefersPathError(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing")
	load := func(key string) (*Config, error) {
		return Loader{
			EnvFile:         filepath.Join(dir, "none.env"),
			Environ:         map[string]string{"TREESYNC_PATH": missing},
			CredentialFirst: true,
			Fallback: func(c *Config) {
				if c.APIKey == "" {
					c.APIKey = key
				}
			},
		}.Load()
	}

	cfg, err := load("")
	if err != nil {
		t.Fatalf("Load without a key error: %v", err)
	}
	if cfg.Dir != missing || cfg.APIKey != "" {
		t.Fatalf("Dir/APIKey = %q/%q", cfg.Dir, cfg.APIKey)
	}

	if _, err := load("stored"); err == nil {
		t.Fatal("expected a path error once a key is known")
	}

	_, err = Loader{
		EnvFile: filepath.Join(dir, "none.env"),
		Environ: map[string]string{"TREESYNC_PATH": missing},
	}.Load()
	if err == nil {
		t.Fatal("expected a path error without CredentialFirst")
	}
}
