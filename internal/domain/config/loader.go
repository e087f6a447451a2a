package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format is a configuration file syntax.
type Format int

const (
	FormatYAML Format = iota
	FormatTOML
)

// Candidates are the project-relative locations searched, in order.
var Candidates = []string{
	".bivvy/config.yml",
	".bivvy/config.yaml",
	".bivvy/config.toml",
}

// FormatFor picks the syntax from the file extension. Anything that is not
// .toml is read as YAML.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// Loader reads configuration files.
type Loader struct{}

// NewLoader creates a Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Find returns the first existing candidate below root.
func (l *Loader) Find(root string) (string, error) {
	for _, rel := range Candidates {
		path := filepath.Join(root, rel)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", NewConfigNotFoundError(filepath.Join(root, Candidates[0]))
}

// Load reads and decodes the file at path.
func (l *Loader) Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, NewConfigNotFoundError(path)
		}
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}

	cfg, err := Parse(data, FormatFor(path))
	if err != nil {
		return nil, NewConfigParseError(path, err)
	}
	return cfg, nil
}

// LoadProject loads explicit when given, otherwise the first candidate
// below root. It returns the path that was read.
func (l *Loader) LoadProject(root, explicit string) (*Config, string, error) {
	path := explicit
	if path == "" {
		found, err := l.Find(root)
		if err != nil {
			return nil, "", err
		}
		path = found
	}
	cfg, err := l.Load(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// Parse decodes configuration bytes. Unknown keys are rejected so typos
// surface instead of being silently ignored.
func Parse(data []byte, format Format) (*Config, error) {
	var cfg Config

	switch format {
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return nil, err
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	}

	return &cfg, nil
}
