package testutil

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"
)

// NewWorkspace creates an empty workspace directory and points WORKING_DIR
// and SPLENT_APP at it for the duration of the test.
func NewWorkspace(t *testing.T, app string) string {
	t.Helper()
	ws := t.TempDir()
	t.Setenv("WORKING_DIR", ws)
	t.Setenv("SPLENT_APP", app)
	t.Setenv("SPLENT_ENV", "")
	t.Setenv("SPLENT_USE_SSH", "")
	t.Setenv("SPLENT_ROLE", "")
	t.Setenv("SPLENT_DEFAULT_NAMESPACE", "")
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GITHUB_USER", "")
	t.Setenv("PYPI_USERNAME", "")
	t.Setenv("PYPI_TOKEN", "")
	t.Setenv("SPLENT_MODE", "")
	t.Setenv("SPLENT_DEVELOPER_SSH", "")
	t.Setenv("SPLENT_GIT_BASE", "")
	t.Setenv("SPLENT_GITHUB_API", "")
	t.Setenv("SPLENT_CONFIG_HOME", t.TempDir())
	return ws
}

// ProductPyproject renders a product pyproject.toml declaring features.
func ProductPyproject(name string, features ...string) string {
	quoted := make([]string, len(features))
	for i, f := range features {
		quoted[i] = fmt.Sprintf("    %q,", f)
	}
	return fmt.Sprintf(`[project]
name = %q
version = "0.1.0"
dependencies = [
    "flask",
]

[project.optional-dependencies]
features = [
%s
]
`, name, strings.Join(quoted, "\n"))
}

// WriteProduct creates <ws>/<name> with a pyproject declaring features.
func WriteProduct(t *testing.T, ws, name string, features ...string) string {
	t.Helper()
	dir := filepath.Join(ws, name)
	WriteFiles(t, dir, map[string]string{
		"pyproject.toml": ProductPyproject(name, features...),
	})
	return dir
}
