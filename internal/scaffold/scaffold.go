// Package scaffold renders the file tree of a new feature.
package scaffold

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"

	"github.com/diverso-lab/splent-cli/internal/feature"
)

// ErrExists is returned when the destination already exists.
var ErrExists = errors.New("destination already exists")

// Owner is applied to rendered files when running as root, so a container
// user with this id can edit them.
const Owner = 1000

// Data feeds the templates.
type Data struct {
	Namespace     string
	NamespaceSafe string
	Name          string
	Import        string
	Pascal        string
	Version       string
}

// NewData derives template data for r.
func NewData(r feature.Ref) Data {
	version := strings.TrimPrefix(r.Version, "v")
	if version == "" {
		version = "0.1.0"
	}
	return Data{
		Namespace:     r.Namespace,
		NamespaceSafe: r.SafeNamespace(),
		Name:          r.Name,
		Import:        r.SafeNamespace() + "." + r.Name,
		Pascal:        pascalCase(r.Name),
		Version:       version,
	}
}

var packageFiles = map[string]string{
	"__init__.py":                 initTemplate,
	"routes.py":                   routesTemplate,
	"models.py":                   modelsTemplate,
	"repositories.py":             repositoriesTemplate,
	"services.py":                 servicesTemplate,
	"forms.py":                    formsTemplate,
	"seeders.py":                  seedersTemplate,
	"assets/js/scripts.js":        scriptsJSTemplate,
	"assets/js/webpack.config.js": webpackTemplate,
	"tests/__init__.py":           "",
	"tests/test_unit.py":          testUnitTemplate,
	"tests/locustfile.py":         locustTemplate,
	"tests/test_selenium.py":      seleniumTemplate,
}

var rootFiles = map[string]string{
	".gitignore":  gitignoreTemplate,
	"MANIFEST.in": manifestInTemplate,
}

// Render writes a new feature tree into dest, which must not exist. It
// returns the written paths relative to dest, sorted.
func Render(dest string, d Data) ([]string, error) {
	if _, err := os.Lstat(dest); err == nil {
		return nil, fmt.Errorf("%s: %w", dest, ErrExists)
	}

	files := map[string]string{}
	pkg := filepath.Join("src", d.NamespaceSafe, d.Name)
	for rel, tmpl := range packageFiles {
		files[filepath.Join(pkg, filepath.FromSlash(rel))] = tmpl
	}
	files[filepath.Join(pkg, "templates", d.Name, "index.html")] = indexHTMLTemplate
	files[filepath.Join("src", d.NamespaceSafe, "__init__.py")] = ""
	for rel, tmpl := range rootFiles {
		files[rel] = tmpl
	}

	written := make([]string, 0, len(files)+1)
	for rel, tmpl := range files {
		content, err := execute(rel, tmpl, d)
		if err != nil {
			return nil, err
		}
		if err := writeFile(filepath.Join(dest, rel), content); err != nil {
			return nil, err
		}
		written = append(written, rel)
	}

	py, err := Pyproject(d)
	if err != nil {
		return nil, err
	}
	if err := writeFile(filepath.Join(dest, "pyproject.toml"), py); err != nil {
		return nil, err
	}
	written = append(written, "pyproject.toml")

	if os.Geteuid() == 0 {
		chownTree(dest, Owner, Owner)
	}
	sort.Strings(written)
	return written, nil
}

func execute(name, tmpl string, d Data) ([]byte, error) {
	if tmpl == "" {
		return nil, nil
	}
	t, err := template.New(name).Parse(tmpl)
	if err != nil {
		return nil, fmt.Errorf("parsing template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, d); err != nil {
		return nil, fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func writeFile(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil { //nolint:gosec // scaffolded sources are world-readable
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func chownTree(root string, uid, gid int) {
	_ = filepath.WalkDir(root, func(path string, _ fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if err := os.Lchown(path, uid, gid); err != nil {
			log.Debug().Err(err).Str("path", path).Msg("chown")
		}
		return nil
	})
}

func pascalCase(s string) string {
	var b strings.Builder
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == '-' }) {
		b.WriteString(strings.ToUpper(part[:1]) + part[1:])
	}
	return b.String()
}

type pyprojectFile struct {
	BuildSystem buildSystem `toml:"build-system"`
	Project     project     `toml:"project"`
	Tool        tool        `toml:"tool"`
}

type buildSystem struct {
	Requires     []string `toml:"requires"`
	BuildBackend string   `toml:"build-backend"`
}

type project struct {
	Name           string   `toml:"name"`
	Version        string   `toml:"version"`
	Description    string   `toml:"description"`
	RequiresPython string   `toml:"requires-python"`
	Dependencies   []string `toml:"dependencies"`
}

type tool struct {
	Setuptools setuptools `toml:"setuptools"`
}

type setuptools struct {
	IncludePackageData bool     `toml:"include-package-data"`
	Packages           packages `toml:"packages"`
}

type packages struct {
	Find find `toml:"find"`
}

type find struct {
	Where []string `toml:"where"`
}

// Pyproject renders the feature's pyproject.toml.
func Pyproject(d Data) ([]byte, error) {
	doc := pyprojectFile{
		BuildSystem: buildSystem{
			Requires:     []string{"setuptools>=61.0", "wheel"},
			BuildBackend: "setuptools.build_meta",
		},
		Project: project{
			Name:           d.Name,
			Version:        d.Version,
			Description:    fmt.Sprintf("%s feature for SPLENT products", d.Name),
			RequiresPython: ">=3.11",
			Dependencies:   []string{},
		},
		Tool: tool{Setuptools: setuptools{
			IncludePackageData: true,
			Packages:           packages{Find: find{Where: []string{"src"}}},
		}},
	}
	data, err := toml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding pyproject: %w", err)
	}
	return data, nil
}
