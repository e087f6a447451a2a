// Package historyfile persists run records as YAML under the project's
// .bivvy directory.
package historyfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/bivvy/internal/domain/history"
)

// DefaultPath is the history file relative to the project root.
const DefaultPath = ".bivvy/history.yml"

type fileDTO struct {
	Runs []recordDTO `yaml:"runs"`
}

type recordDTO struct {
	ID           string    `yaml:"id"`
	Timestamp    time.Time `yaml:"timestamp"`
	Workflow     string    `yaml:"workflow"`
	Environment  string    `yaml:"environment,omitempty"`
	DurationMS   int64     `yaml:"duration_ms"`
	Status       string    `yaml:"status"`
	StepsRun     []string  `yaml:"steps_run,omitempty"`
	StepsSkipped []string  `yaml:"steps_skipped,omitempty"`
	Error        string    `yaml:"error,omitempty"`
}

func toDTO(r history.Record) recordDTO {
	return recordDTO{
		ID:           r.ID,
		Timestamp:    r.Timestamp,
		Workflow:     r.Workflow,
		Environment:  r.Environment,
		DurationMS:   r.Duration.Milliseconds(),
		Status:       string(r.Status),
		StepsRun:     r.StepsRun,
		StepsSkipped: r.StepsSkipped,
		Error:        r.Error,
	}
}

func fromDTO(d recordDTO) history.Record {
	return history.Record{
		ID:           d.ID,
		Timestamp:    d.Timestamp,
		Workflow:     d.Workflow,
		Environment:  d.Environment,
		Duration:     time.Duration(d.DurationMS) * time.Millisecond,
		Status:       history.Status(d.Status),
		StepsRun:     d.StepsRun,
		StepsSkipped: d.StepsSkipped,
		Error:        d.Error,
	}
}

// YAMLRepository implements history.Repository on a single YAML file,
// oldest run first.
type YAMLRepository struct {
	mu        sync.Mutex
	path      string
	retention int
	newID     func() string
}

// RepositoryOption configures a YAMLRepository.
type RepositoryOption func(*YAMLRepository)

// WithRetention caps the number of stored runs. Values below one select
// history.DefaultRetention.
func WithRetention(n int) RepositoryOption {
	return func(r *YAMLRepository) { r.retention = n }
}

// WithIDGenerator replaces uuid.NewString.
func WithIDGenerator(fn func() string) RepositoryOption {
	return func(r *YAMLRepository) { r.newID = fn }
}

// NewYAMLRepository creates a repository for the file at path.
func NewYAMLRepository(path string, opts ...RepositoryOption) *YAMLRepository {
	r := &YAMLRepository{path: path, newID: uuid.NewString}
	for _, opt := range opts {
		opt(r)
	}
	if r.retention < 1 {
		r.retention = history.DefaultRetention
	}
	return r
}

// Path returns the history file location.
func (r *YAMLRepository) Path() string {
	return r.path
}

func (r *YAMLRepository) Append(_ context.Context, record history.Record) (history.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.load()
	if err != nil {
		return record, err
	}
	if record.ID == "" {
		record.ID = r.newID()
	}
	file.Runs = append(file.Runs, toDTO(record))
	if excess := len(file.Runs) - r.retention; excess > 0 {
		file.Runs = file.Runs[excess:]
	}
	return record, r.save(file)
}

func (r *YAMLRepository) List(_ context.Context, limit int) ([]history.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.load()
	if err != nil {
		return nil, err
	}
	records := make([]history.Record, 0, len(file.Runs))
	for i := len(file.Runs) - 1; i >= 0; i-- {
		records = append(records, fromDTO(file.Runs[i]))
		if limit > 0 && len(records) == limit {
			break
		}
	}
	return records, nil
}

// load returns an empty history when the file does not exist yet.
func (r *YAMLRepository) load() (fileDTO, error) {
	var file fileDTO
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return file, nil
	}
	if err != nil {
		return file, fmt.Errorf("failed to read history: %w", err)
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return file, fmt.Errorf("%w: %w", history.ErrHistoryCorrupt, err)
	}
	return file, nil
}

func (r *YAMLRepository) save(file fileDTO) error {
	data, err := yaml.Marshal(&file)
	if err != nil {
		return fmt.Errorf("%w: %w", history.ErrSaveFailed, err)
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("%w: failed to create directory: %w", history.ErrSaveFailed, err)
	}

	tmpPath := r.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("%w: %w", history.ErrSaveFailed, err)
	}
	if err := os.Rename(tmpPath, r.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: %w", history.ErrSaveFailed, err)
	}
	return nil
}

var _ history.Repository = (*YAMLRepository)(nil)
