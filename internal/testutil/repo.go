// Package testutil builds git and workspace fixtures for tests.
package testutil

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// CreateBareRepo creates a bare git repository with an initial commit in a temp directory.
// Returns the path to the bare repo.
func CreateBareRepo(t *testing.T) string {
	t.Helper()
	return CreateBareRepoWithFiles(t, map[string]string{"README.md": "# test\n"})
}

// CreateBareRepoWithFiles creates a bare repo whose main branch holds files,
// followed by one commit and tag per entry in tags.
func CreateBareRepoWithFiles(t *testing.T, files map[string]string, tags ...string) string {
	t.Helper()
	dir := t.TempDir()
	bare := filepath.Join(dir, "repo.git")

	// Create a working repo first, then clone it bare.
	work := filepath.Join(dir, "work")
	run(t, dir, "git", "init", "-b", "main", work)
	run(t, work, "git", "config", "user.email", "test@example.com")
	run(t, work, "git", "config", "user.name", "Test")

	WriteFiles(t, work, files)
	run(t, work, "git", "add", ".")
	run(t, work, "git", "commit", "-m", "initial commit")

	for _, tag := range tags {
		WriteFiles(t, work, map[string]string{"VERSION": tag + "\n"})
		run(t, work, "git", "add", ".")
		run(t, work, "git", "commit", "-m", "release "+tag)
		run(t, work, "git", "tag", "-a", tag, "-m", "Release "+tag)
	}

	run(t, dir, "git", "clone", "--bare", work, bare)
	return bare
}

// FeatureFiles returns the minimal layout of a feature repository.
func FeatureFiles(nsSafe, name string) map[string]string {
	pkg := filepath.Join("src", nsSafe, name)
	files := map[string]string{
		"pyproject.toml": fmt.Sprintf("[project]\nname = %q\nversion = \"1.0.0\"\n", name),
	}
	files[filepath.Join("src", nsSafe, "__init__.py")] = ""
	files[filepath.Join(pkg, "__init__.py")] = ""
	files[filepath.Join(pkg, "routes.py")] = fmt.Sprintf("from %s.%s import bp\n", nsSafe, name)
	files[filepath.Join(pkg, "templates", name, "index.html")] = "<h1>" + name + "</h1>\n"
	files[filepath.Join("docker", "docker-compose.dev.yml")] = fmt.Sprintf("services:\n  %s:\n    image: %s:dev\n", name, name)
	files[filepath.Join("docker", ".env.example")] = strings.ToUpper(name) + "_PORT=5000\n"
	return files
}

// CreateFeatureRepo creates a bare feature repository with the given tags.
func CreateFeatureRepo(t *testing.T, nsSafe, name string, tags ...string) string {
	t.Helper()
	return CreateBareRepoWithFiles(t, FeatureFiles(nsSafe, name), tags...)
}

// CreateFeatureRemote publishes a feature repository at
// <base>/<namespace>/<name>.git so it can be cloned through SPLENT_GIT_BASE.
func CreateFeatureRemote(t *testing.T, base, namespace, name string, tags ...string) string {
	t.Helper()
	src := CreateFeatureRepo(t, strings.NewReplacer("-", "_", ".", "_").Replace(namespace), name, tags...)
	dest := filepath.Join(base, namespace, name+".git")
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		t.Fatal(err)
	}
	run(t, base, "git", "clone", "--bare", src, dest)
	return dest
}

// WriteFiles writes files (relative path -> content) below root.
func WriteFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil { //nolint:gosec // test file
			t.Fatal(err)
		}
	}
}

// Git runs a git command in dir, failing the test on error.
func Git(t *testing.T, dir string, args ...string) {
	t.Helper()
	run(t, dir, "git", args...)
}

// GitOutput runs a git command in dir and returns trimmed stdout.
func GitOutput(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("git %v failed: %v", args, err)
	}
	return strings.TrimSpace(string(out))
}

func run(t *testing.T, dir string, name string, args ...string) {
	t.Helper()
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("command %s %v failed: %v\n%s", name, args, err, out)
	}
}
