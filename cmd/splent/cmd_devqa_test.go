package main

import (
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/diverso-lab/splent-cli/internal/shell"
	"github.com/diverso-lab/splent-cli/internal/testutil"
)

// productWithNotes selects sample_app with an editable, linked notes
// feature and an uncached auth release.
func productWithNotes(t *testing.T) (ws, product, link string) {
	t.Helper()
	ws = testutil.NewWorkspace(t, "sample_app")
	product = testutil.WriteProduct(t, ws, "sample_app", "splent-io/"+authFeature+"@v1.0.0")
	for _, args := range [][]string{
		{"feature:create", "splent-io/splent_feature_notes"},
		{"feature:add", "splent-io/splent_feature_notes"},
	} {
		if _, _, err := execute(t, args...); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
	}
	return ws, product, filepath.Join(product, "features", "splent_io", "splent_feature_notes")
}

func TestWebpackCompile(t *testing.T) {
	tests := []struct {
		name      string
		flaskEnv  string
		args      []string
		wantFlags string
	}{
		{"development", "", nil, "--mode development --devtool=source-map --no-cache --color"},
		{"watch", "", []string{"--watch"}, "--mode development --watch --devtool=source-map --no-cache --color"},
		{"production", "production", nil, "--mode production --color"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("FLASK_ENV", tt.flaskEnv)
			_, product, link := productWithNotes(t)
			rec := useRecorder(t)

			_, stderr, err := execute(t, append([]string{"webpack:compile"}, tt.args...)...)
			if err != nil {
				t.Fatalf("webpack:compile: %v", err)
			}
			config := filepath.Join(link, "src", "splent_io", "splent_feature_notes", "assets", "js", "webpack.config.js")
			assertLines(t, rec.Lines(), []string{"npx webpack --config " + config + " " + tt.wantFlags})
			if rec.Calls[0].Dir != product {
				t.Errorf("dir = %s, want %s", rec.Calls[0].Dir, product)
			}
			if !strings.Contains(stderr, authFeature) {
				t.Errorf("stderr = %q, want a skip warning for the uncached feature", stderr)
			}
		})
	}
}

func TestWebpackCompile_oneFeature(t *testing.T) {
	productWithNotes(t)
	rec := useRecorder(t)
	rec.On("npx webpack", shell.Response{ExitCode: 2, Stderr: "boom"})

	_, _, err := execute(t, "webpack:compile", "splent_feature_notes")
	assertExitCode(t, err, 2)
	if len(rec.Calls) != 1 {
		t.Errorf("calls = %q, want only notes", rec.Lines())
	}

	_, _, err = execute(t, "webpack:compile", "splent_feature_other")
	assertExitCode(t, err, 1)
}

func TestLinter(t *testing.T) {
	ws, product, _ := productWithNotes(t)
	testutil.WriteFiles(t, product, map[string]string{"src/sample_app/__init__.py": ""})
	notes := cacheDir(ws, "splent_io", "splent_feature_notes")

	rec := useRecorder(t)
	if _, _, err := execute(t, "linter", "--fix", "--format"); err != nil {
		t.Fatalf("linter: %v", err)
	}
	src := filepath.Join(product, "src")
	assertLines(t, rec.Lines(), []string{
		"ruff check --fix " + src,
		"ruff check --fix " + notes,
		"ruff format " + src,
		"ruff format " + notes,
	})
}

func TestLinter_issues(t *testing.T) {
	_, product, _ := productWithNotes(t)
	rec := useRecorder(t)
	rec.On("ruff check "+product, shell.Response{ExitCode: 1, Stdout: "F401 unused import"})

	_, _, err := execute(t, "linter")
	assertExitCode(t, err, 1)
	if len(rec.Calls) != 2 {
		t.Errorf("calls = %q, want every directory checked", rec.Lines())
	}
}

func TestPytest(t *testing.T) {
	_, _, link := productWithNotes(t)
	rec := useRecorder(t)

	if _, _, err := execute(t, "test", "-k", "login"); err != nil {
		t.Fatalf("test: %v", err)
	}
	assertLines(t, rec.Lines(), []string{
		"pytest -v --rootdir=. --ignore-glob=*selenium* -W ignore::DeprecationWarning -k login",
	})
	src := filepath.Join(link, "src")
	if rec.Calls[0].Dir != src {
		t.Errorf("dir = %s, want %s", rec.Calls[0].Dir, src)
	}
	if !slices.Contains(rec.Calls[0].Env, "PYTHONPATH="+src) {
		t.Error("pytest ran without PYTHONPATH")
	}
}

func TestPytest_failure(t *testing.T) {
	productWithNotes(t)
	rec := useRecorder(t)
	rec.On("pytest", shell.Response{ExitCode: 1})

	_, _, err := execute(t, "test", "splent_feature_notes")
	assertExitCode(t, err, 1)
}

func TestPytest_noSuites(t *testing.T) {
	ws := testutil.NewWorkspace(t, "sample_app")
	testutil.WriteProduct(t, ws, "sample_app", "splent-io/"+authFeature+"@v1.0.0")
	rec := useRecorder(t)

	_, stderr, err := execute(t, "test")
	if err != nil {
		t.Fatalf("test: %v", err)
	}
	if len(rec.Calls) != 0 || !strings.Contains(stderr, "No test directories") {
		t.Errorf("calls = %q, stderr = %q", rec.Lines(), stderr)
	}
}
