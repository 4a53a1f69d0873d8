package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the lock file name inside a product directory.
const FileName = "splent.lock.yaml"

// SchemaVersion is the only lock format this build understands.
const SchemaVersion = 1

// File represents splent.lock.yaml.
type File struct {
	Version     int                 `yaml:"version"`
	Product     string              `yaml:"product"`
	GeneratedAt string              `yaml:"generated_at"`
	ToolVersion string              `yaml:"tool_version"`
	Features    map[string]*Feature `yaml:"features"`
}

// Feature records the pinned state of a single feature entry.
type Feature struct {
	URL    string `yaml:"url,omitempty"`
	Ref    string `yaml:"ref"`
	Commit string `yaml:"commit"`
}

// New returns an empty lock for product stamped with the current time.
func New(product, toolVersion string) *File {
	return &File{
		Version:     SchemaVersion,
		Product:     product,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		ToolVersion: toolVersion,
		Features:    map[string]*Feature{},
	}
}

// Path returns the lock file path for a product directory.
func Path(productDir string) string {
	return filepath.Join(productDir, FileName)
}

// Set records entry (a pyproject feature string) at ref and commit.
func (f *File) Set(entry, url, ref, commit string) {
	if f.Features == nil {
		f.Features = map[string]*Feature{}
	}
	f.Features[entry] = &Feature{URL: url, Ref: ref, Commit: commit}
}

// Get returns the locked state for entry, or nil.
func (f *File) Get(entry string) *Feature {
	if f == nil || f.Features == nil {
		return nil
	}
	return f.Features[entry]
}

// Entries returns the locked entries in sorted order.
func (f *File) Entries() []string {
	out := make([]string, 0, len(f.Features))
	for k := range f.Features {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Load reads a splent.lock.yaml file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is product lock file path
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("lock file not found: %s: %w", path, err)
		}
		return nil, fmt.Errorf("reading lock file: %w", err)
	}
	return Parse(data)
}

// Parse parses splent.lock.yaml content.
func Parse(data []byte) (*File, error) {
	var lf File
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("parsing lock YAML: %w", err)
	}
	if lf.Version != SchemaVersion {
		return nil, fmt.Errorf("unsupported lock version: %d (expected %d)", lf.Version, SchemaVersion)
	}
	for entry, feat := range lf.Features {
		if feat == nil || feat.Commit == "" {
			return nil, fmt.Errorf("lock entry %q has no commit", entry)
		}
	}
	return &lf, nil
}

// Save writes the lock file to disk.
func Save(path string, lf *File) error {
	data, err := yaml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("marshaling lock file: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil { //nolint:gosec // lock file needs to be readable
		return fmt.Errorf("writing lock file: %w", err)
	}
	return nil
}
