package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/diverso-lab/splent-cli/internal/logging"
	"github.com/diverso-lab/splent-cli/internal/output"
	"github.com/diverso-lab/splent-cli/internal/shell"
	"github.com/diverso-lab/splent-cli/internal/testutil"
)

func TestMain(m *testing.M) {
	logging.ConfigureTests()
	stdinIsTerminal = func() bool { return false }
	os.Exit(m.Run())
}

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err = root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

// remoteWorkspace creates a workspace whose feature remotes live in a local
// directory and whose GitHub API answers 404 to everything.
func remoteWorkspace(t *testing.T, app string) (ws, base string) {
	t.Helper()
	ws = testutil.NewWorkspace(t, app)
	base = t.TempDir()
	t.Setenv("SPLENT_GIT_BASE", "file://"+base)
	fakeGitHub(t, http.NotFoundHandler())
	return ws, base
}

// fakeGitHub points SPLENT_GITHUB_API at h.
func fakeGitHub(t *testing.T, h http.Handler) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	t.Setenv("SPLENT_GITHUB_API", srv.URL)
	return srv
}

// useRecorder swaps the process runner for a recorder until the test ends.
func useRecorder(t *testing.T) *shell.Recorder {
	t.Helper()
	rec := shell.NewRecorder()
	prev := runner
	runner = rec
	t.Cleanup(func() { runner = prev })
	return rec
}

func assertExitCode(t *testing.T, err error, want int) {
	t.Helper()
	if got := output.GetExitCode(err); got != want {
		t.Fatalf("exit code = %d, want %d (err: %v)", got, want, err)
	}
}

func assertExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Lstat(path); err != nil {
		t.Fatalf("expected %s to exist: %v", path, err)
	}
}

func assertMissing(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Lstat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected %s to be absent (err: %v)", path, err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

// cacheDir is <ws>/.splent_cache/features/<nsSafe>/<dir>.
func cacheDir(ws, nsSafe, dir string) string {
	return filepath.Join(ws, ".splent_cache", "features", nsSafe, dir)
}
