// .treesync.yaml configuration file support.
//
// A .treesync.yaml file in the locale directory holds per-project defaults
// so that repeated runs need only the credential:
//
//	source_locale: en
//	locales: [fr, de, ja]
//	preserve: true
//	keep: false
//	provider: openai
//	model: gpt-4o-mini
//	base_url: https://api.openai.com/v1
//	concurrency: 4
//	timeout: 30s

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the project config file name.
const FileName = ".treesync.yaml"

// File is the .treesync.yaml structure. Unset fields leave lower layers alone.
type File struct {
	SourceLocale string        `yaml:"source_locale,omitempty"`
	Locales      []string      `yaml:"locales,omitempty"`
	Preserve     *bool         `yaml:"preserve,omitempty"`
	Keep         *bool         `yaml:"keep,omitempty"`
	Provider     string        `yaml:"provider,omitempty"`
	Model        string        `yaml:"model,omitempty"`
	BaseURL      string        `yaml:"base_url,omitempty"`
	Proxy        string        `yaml:"proxy,omitempty"`
	Concurrency  int           `yaml:"concurrency,omitempty"`
	Timeout      time.Duration `yaml:"timeout,omitempty"`
	MaxRetries   *int          `yaml:"max_retries,omitempty"`
}

// LoadFile loads .treesync.yaml from dir. Returns nil if the file does not
// exist. Unknown keys are rejected.
func LoadFile(dir string) (*File, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if f.Concurrency < 0 {
		return nil, fmt.Errorf("%s: concurrency must be positive", path)
	}
	return &f, nil
}

// apply copies the fields set in f onto c.
func (f *File) apply(c *Config) {
	if f.SourceLocale != "" {
		c.SourceLocale = f.SourceLocale
	}
	if len(f.Locales) > 0 {
		c.Locales = f.Locales
	}
	if f.Preserve != nil {
		c.Preserve = f.Preserve
	}
	if f.Keep != nil {
		c.Keep = f.Keep
	}
	if f.Provider != "" {
		c.Provider = f.Provider
	}
	if f.Model != "" {
		c.Model = f.Model
	}
	if f.BaseURL != "" {
		c.BaseURL = f.BaseURL
	}
	if f.Proxy != "" {
		c.Proxy = f.Proxy
	}
	if f.Concurrency > 0 {
		c.Concurrency = f.Concurrency
	}
	if f.Timeout > 0 {
		c.Timeout = f.Timeout
	}
	if f.MaxRetries != nil {
		c.MaxRetries = *f.MaxRetries
	}
}

// WriteFile writes f as .treesync.yaml in dir.
func WriteFile(dir string, f *File) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", FileName, err)
	}
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
