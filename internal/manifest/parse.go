package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// ErrUnsafeEdit is returned by Save when the rewritten file would not read
// back as the requested project. The file is left untouched.
var ErrUnsafeEdit = errors.New("pyproject edit cannot be applied safely")

type pyproject struct {
	Project struct {
		Name                 string              `toml:"name"`
		Version              string              `toml:"version"`
		Dependencies         []string            `toml:"dependencies"`
		OptionalDependencies map[string][]string `toml:"optional-dependencies"`
	} `toml:"project"`
}

var (
	fallbackArray = regexp.MustCompile(`(?s)features\s*=\s*\[(.*?)\]`)
	fallbackItem  = regexp.MustCompile(`"([^"\n]+)"|'([^'\n]+)'`)
)

// Path returns the pyproject.toml path inside productDir.
func Path(productDir string) string {
	return filepath.Join(productDir, FileName)
}

// Load reads and parses a pyproject.toml file.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is the product manifest
	if err != nil {
		return nil, fmt.Errorf("reading pyproject: %w", err)
	}
	return Parse(data)
}

// Parse decodes pyproject content. When the document is not valid TOML, the
// features array is recovered by pattern matching and Fallback is set.
func Parse(data []byte) (*Project, error) {
	p, err := decode(data)
	if err != nil {
		features, ok := fallbackFeatures(data)
		if !ok {
			return nil, err
		}
		return &Project{Features: features, FeaturesDefined: true, Fallback: true}, nil
	}
	return p, nil
}

// decode is the strict TOML reading of data.
func decode(data []byte) (*Project, error) {
	var raw pyproject
	meta, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, fmt.Errorf("parsing pyproject: %w", err)
	}
	p := &Project{
		Name:            strings.TrimSpace(raw.Project.Name),
		Version:         strings.TrimSpace(raw.Project.Version),
		Dependencies:    raw.Project.Dependencies,
		FeaturesDefined: meta.IsDefined("project", "optional-dependencies", "features"),
	}
	for _, entry := range raw.Project.OptionalDependencies["features"] {
		if e := strings.TrimSpace(entry); e != "" {
			p.Features = append(p.Features, e)
		}
	}
	return p, nil
}

func fallbackFeatures(data []byte) ([]string, bool) {
	m := fallbackArray.FindSubmatch(data)
	if m == nil {
		return nil, false
	}
	var out []string
	for _, item := range fallbackItem.FindAllSubmatch(m[1], -1) {
		v := string(item[1])
		if v == "" {
			v = string(item[2])
		}
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out, true
}

// Save rewrites the file at path so it declares p's name, version and
// features. Everything else in the file is left untouched.
func Save(path string, p *Project) error {
	data, err := os.ReadFile(path) //nolint:gosec // path is the product manifest
	if err != nil {
		return fmt.Errorf("reading pyproject: %w", err)
	}
	cur, err := Parse(data)
	if err != nil {
		return err
	}

	out := data
	if p.Name != "" && p.Name != cur.Name {
		if out, err = SetName(out, p.Name); err != nil {
			return err
		}
	}
	if p.Version != "" && p.Version != cur.Version {
		if out, err = SetVersion(out, p.Version); err != nil {
			return err
		}
	}
	if !slices.Equal(p.Features, cur.Features) {
		if out, err = SetFeatures(out, p.Features); err != nil {
			return err
		}
	}
	if err := verifyEdit(out, cur.Fallback, p); err != nil {
		return err
	}
	if err := os.WriteFile(path, out, 0644); err != nil { //nolint:gosec // manifest must stay readable
		return fmt.Errorf("writing pyproject: %w", err)
	}
	return nil
}

// verifyEdit re-reads the edited content the way Load will and checks it
// declares what p asks for. A document that was valid TOML must stay valid.
func verifyEdit(out []byte, fallback bool, p *Project) error {
	var got *Project
	if fallback {
		features, _ := fallbackFeatures(out)
		got = &Project{Features: features}
	} else {
		var err error
		if got, err = decode(out); err != nil {
			return fmt.Errorf("%w: %w", ErrUnsafeEdit, err)
		}
		if (p.Name != "" && got.Name != p.Name) || (p.Version != "" && got.Version != p.Version) {
			return fmt.Errorf("%w: project name or version not updated", ErrUnsafeEdit)
		}
	}
	if !slices.Equal(got.Features, p.Features) {
		return fmt.Errorf("%w: features would read back as %q", ErrUnsafeEdit, got.Features)
	}
	return nil
}

// Edit loads path, applies fn and saves the result.
func Edit(path string, fn func(*Project) error) (*Project, error) {
	p, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := fn(p); err != nil {
		return nil, err
	}
	if err := Save(path, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Products lists the product directories of a workspace: top-level,
// non-hidden directories holding a pyproject.toml.
func Products(workspace string) ([]string, error) {
	entries, err := os.ReadDir(workspace)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading workspace: %w", err)
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if _, err := os.Stat(filepath.Join(workspace, e.Name(), FileName)); err == nil {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}
