// Package config resolves the settings of one treesync run.
//
// Values are layered, lowest precedence first:
//
//  1. built-in defaults
//  2. .treesync.yaml in the locale directory
//  3. a .env file in the working directory
//  4. TREESYNC_* environment variables
//  5. command-line flags the user actually passed
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/minios-linux/treesync/merge"
	"github.com/minios-linux/treesync/store"
	"github.com/minios-linux/treesync/translate"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "TREESYNC_"

// DefaultEnvFile is the .env file read from the working directory.
const DefaultEnvFile = ".env"

// Defaults.
const (
	DefaultSourceLocale = "en"
	DefaultConcurrency  = 8
	DefaultTimeout      = 60 * time.Second
	DefaultMaxRetries   = 3
)

// Config holds the settings of one run.
type Config struct {
	// Path is the locale directory or the source locale file.
	Path string `env:"PATH"`
	// Dir is the locale directory resolved from Path.
	Dir string
	// SourceLocale is the locale translated from.
	SourceLocale string `env:"SOURCE"`
	// Locales restricts the target locales. Empty means every file found.
	Locales []string `env:"LOCALES" envSeparator:","`

	// Preserve and Keep are tri-state: nil means true.
	Preserve *bool `env:"PRESERVE"`
	Keep     *bool `env:"KEEP"`

	Provider string `env:"PROVIDER"`
	Model    string `env:"MODEL"`
	BaseURL  string `env:"BASE_URL"`
	Proxy    string `env:"PROXY"`
	APIKey   string `env:"API_KEY"`

	Concurrency int           `env:"CONCURRENCY"`
	Timeout     time.Duration `env:"TIMEOUT"`
	MaxRetries  int           `env:"MAX_RETRIES"`

	DryRun  bool `env:"DRY_RUN"`
	Verbose bool `env:"VERBOSE"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Path:         ".",
		SourceLocale: DefaultSourceLocale,
		Provider:     translate.ProviderGoogle,
		Concurrency:  DefaultConcurrency,
		Timeout:      DefaultTimeout,
		MaxRetries:   DefaultMaxRetries,
	}
}

// Loader builds a Config from every layer.
type Loader struct {
	// EnvFile is the .env file to read. Empty means DefaultEnvFile. A
	// missing file is not an error.
	EnvFile string
	// Environ overrides the process environment, mainly for tests.
	Environ map[string]string
	// Flags applies command-line flags to the config. It must only set
	// fields for flags that were explicitly passed.
	Flags func(*Config)
	// Fallback fills fields still empty after every layer, such as a key
	// from the credential store. It runs before the path is resolved.
	Fallback func(*Config)
	// CredentialFirst defers path errors while no API key is known, so a
	// run without a key reports the missing key rather than a bad path.
	// Dir is left equal to Path in that case.
	CredentialFirst bool
}

// Load resolves the configuration. The config file is looked up in the
// directory named by the environment and flag layers, so those are applied
// once to find it and again on top of it.
func (l Loader) Load() (*Config, error) {
	environ, err := l.environment()
	if err != nil {
		return nil, err
	}

	probe := Defaults()
	if err := l.overlay(probe, environ); err != nil {
		return nil, err
	}
	cfg := Defaults()
	dir, _, pathErr := store.Resolve(probe.Path, probe.SourceLocale)
	if pathErr != nil && !l.CredentialFirst {
		return nil, pathErr
	}
	if pathErr == nil {
		f, err := LoadFile(dir)
		if err != nil {
			return nil, err
		}
		if f != nil {
			f.apply(cfg)
		}
	}
	if err := l.overlay(cfg, environ); err != nil {
		return nil, err
	}
	if l.Fallback != nil {
		l.Fallback(cfg)
	}

	// A file path names the source locale after the file.
	resolved, source, err := store.Resolve(cfg.Path, cfg.SourceLocale)
	switch {
	case err == nil:
		cfg.Dir, cfg.SourceLocale = resolved, source
	case l.CredentialFirst && cfg.APIKey == "":
		cfg.Dir = cfg.Path
	default:
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l Loader) overlay(cfg *Config, environ map[string]string) error {
	if err := env.ParseWithOptions(cfg, env.Options{
		Prefix:      EnvPrefix,
		Environment: environ,
	}); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}
	if l.Flags != nil {
		l.Flags(cfg)
	}
	return nil
}

// environment merges the .env file under the process environment.
func (l Loader) environment() (map[string]string, error) {
	name := l.EnvFile
	if name == "" {
		name = DefaultEnvFile
	}

	merged := make(map[string]string)
	dotenv, err := godotenv.Read(name)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	for k, v := range dotenv {
		merged[k] = v
	}

	environ := l.Environ
	if environ == nil {
		environ = env.ToMap(os.Environ())
	}
	for k, v := range environ {
		merged[k] = v
	}
	return merged, nil
}

// Policy resolves the preserve and keep tri-states.
func (c *Config) Policy() merge.Policy {
	return merge.ResolvePolicy(c.Preserve, c.Keep)
}

// Validate checks settings that do not depend on the credential.
func (c *Config) Validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must not be negative, got %d", c.MaxRetries)
	}
	if c.SourceLocale == "" {
		return errors.New("source locale is empty")
	}

	if !slices.Contains(translate.Providers, c.Provider) {
		return fmt.Errorf("unknown provider %q (valid: %v)", c.Provider, translate.Providers)
	}
	if c.Provider == translate.ProviderOpenAI {
		if c.BaseURL == "" {
			return errors.New("provider openai requires --base-url")
		}
		if c.Model == "" {
			return errors.New("provider openai requires --model")
		}
	}
	return nil
}

// TranslateOptions returns the provider options for this run.
func (c *Config) TranslateOptions() translate.Options {
	// An explicit 0 here means no retries; translate reads 0 as its default.
	retries := c.MaxRetries
	if retries == 0 {
		retries = -1
	}
	return translate.Options{
		Provider:     c.Provider,
		APIKey:       c.APIKey,
		BaseURL:      c.BaseURL,
		Model:        c.Model,
		Proxy:        c.Proxy,
		Timeout:      c.Timeout,
		MaxRetries:   retries,
	}
}
