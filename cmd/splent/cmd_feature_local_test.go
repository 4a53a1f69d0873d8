package main

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/diverso-lab/splent-cli/internal/testutil"
)

func TestFeatureRename_activeFeature(t *testing.T) {
	ws := testutil.NewWorkspace(t, "sample_app")
	product := testutil.WriteProduct(t, ws, "sample_app")
	for _, args := range [][]string{
		{"feature:create", "splent-io/splent_feature_notes"},
		{"feature:add", "splent-io/splent_feature_notes"},
	} {
		if _, _, err := execute(t, args...); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
	}

	stdout, _, err := execute(t, "--json", "feature:rename", "splent_feature_notes", "splent_feature_memos")
	if err != nil {
		t.Fatalf("feature:rename: %v", err)
	}
	var sum renameSummary
	if err := json.Unmarshal([]byte(stdout), &sum); err != nil {
		t.Fatalf("decoding %q: %v", stdout, err)
	}
	if !sum.Active || !sum.LinkUpdated || !sum.PyprojectUpdated {
		t.Errorf("summary = %+v, want active with link and pyproject updated", sum)
	}

	newDir := cacheDir(ws, "splent_io", "splent_feature_memos")
	assertMissing(t, cacheDir(ws, "splent_io", "splent_feature_notes"))
	assertExists(t, filepath.Join(newDir, "src", "splent_io", "splent_feature_memos"))
	assertMissing(t, filepath.Join(newDir, "src", "splent_io", "splent_feature_notes"))
	assertExists(t, filepath.Join(product, "features", "splent_io", "splent_feature_memos"))
	assertMissing(t, filepath.Join(product, "features", "splent_io", "splent_feature_notes"))

	py := readFile(t, filepath.Join(product, "pyproject.toml"))
	if !strings.Contains(py, `"splent-io/splent_feature_memos"`) || strings.Contains(py, "splent_feature_notes") {
		t.Errorf("pyproject not rewritten:\n%s", py)
	}
}

func TestFeatureRename_refusals(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(t *testing.T, ws string)
		from, to string
		wantCode int
	}{
		{
			name:     "versioned",
			from:     "splent_feature_notes@v1.0.0",
			to:       "splent_feature_memos",
			wantCode: 1,
		},
		{
			name:     "missing",
			from:     "splent_feature_notes",
			to:       "splent_feature_memos",
			wantCode: 1,
		},
		{
			name: "target exists",
			setup: func(t *testing.T, ws string) {
				testutil.WriteFiles(t, cacheDir(ws, "splent_io", "splent_feature_notes"), map[string]string{"pyproject.toml": ""})
				testutil.WriteFiles(t, cacheDir(ws, "splent_io", "splent_feature_memos"), map[string]string{"pyproject.toml": ""})
			},
			from:     "splent_feature_notes",
			to:       "splent_feature_memos",
			wantCode: 3,
		},
		{
			name: "git checkout",
			setup: func(t *testing.T, ws string) {
				testutil.WriteFiles(t, cacheDir(ws, "splent_io", "splent_feature_notes"), map[string]string{".git/HEAD": "ref: refs/heads/main\n"})
			},
			from:     "splent_feature_notes",
			to:       "splent_feature_memos",
			wantCode: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := testutil.NewWorkspace(t, "")
			if tt.setup != nil {
				tt.setup(t, ws)
			}
			_, _, err := execute(t, "feature:rename", tt.from, tt.to)
			assertExitCode(t, err, tt.wantCode)
		})
	}
}

func TestFeatureList(t *testing.T) {
	ws := testutil.NewWorkspace(t, "sample_app")
	testutil.WriteProduct(t, ws, "sample_app", "splent-io/splent_feature_notes", "splent-io/splent_feature_auth@v1.0.0")
	for _, args := range [][]string{
		{"feature:create", "splent-io/splent_feature_notes"},
		{"feature:add", "splent-io/splent_feature_notes"},
	} {
		if _, _, err := execute(t, args...); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
	}

	stdout, _, err := execute(t, "--json", "feature:list")
	if err != nil {
		t.Fatalf("feature:list: %v", err)
	}
	var rows []featureRow
	if err := json.Unmarshal([]byte(stdout), &rows); err != nil {
		t.Fatalf("decoding %q: %v", stdout, err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %+v, want 2", rows)
	}
	byName := map[string]featureRow{}
	for _, r := range rows {
		byName[r.Feature] = r
	}
	if r := byName["splent-io/splent_feature_notes"]; !r.Cached || r.Link != "ok" {
		t.Errorf("notes row = %+v, want cached with an ok link", r)
	}
	if r := byName["splent-io/splent_feature_auth@v1.0.0"]; r.Cached {
		t.Errorf("auth row = %+v, want not cached", r)
	}
}

func TestFeatureList_cache(t *testing.T) {
	ws := testutil.NewWorkspace(t, "")
	testutil.WriteFiles(t, cacheDir(ws, "splent_io", "splent_feature_auth@v1.0.0"), map[string]string{"pyproject.toml": ""})
	testutil.WriteFiles(t, cacheDir(ws, "alice", "splent_feature_notes"), map[string]string{"pyproject.toml": ""})

	stdout, _, err := execute(t, "--json", "feature:list", "--cache")
	if err != nil {
		t.Fatalf("feature:list --cache: %v", err)
	}
	var rows []featureRow
	if err := json.Unmarshal([]byte(stdout), &rows); err != nil {
		t.Fatalf("decoding %q: %v", stdout, err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %+v, want 2", rows)
	}
}

func TestFeatureList_emptyJSON(t *testing.T) {
	testutil.NewWorkspace(t, "")

	stdout, _, err := execute(t, "--json", "feature:list", "--cache")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(stdout) != "[]" {
		t.Errorf("stdout = %q, want []", stdout)
	}
}

func TestFeatureMigrateStructure(t *testing.T) {
	ws := testutil.NewWorkspace(t, "")
	legacy := cacheDir(ws, "splent_io", "splent_feature_legacy")
	testutil.WriteFiles(t, legacy, map[string]string{
		"src/splent_feature_legacy/__init__.py": "",
		"src/__pycache__/x.pyc":                 "",
	})
	current := cacheDir(ws, "splent_io", "splent_feature_auth@v1.0.0")
	testutil.WriteFiles(t, current, map[string]string{"src/splent_io/splent_feature_auth/__init__.py": ""})
	mixed := cacheDir(ws, "splent_io", "splent_feature_mixed")
	testutil.WriteFiles(t, mixed, map[string]string{"src/a/__init__.py": "", "src/b/__init__.py": ""})

	stdout, _, err := execute(t, "--json", "feature:migrate-structure")
	if err != nil {
		t.Fatalf("feature:migrate-structure: %v", err)
	}
	var rep migrateReport
	if err := json.Unmarshal([]byte(stdout), &rep); err != nil {
		t.Fatalf("decoding %q: %v", stdout, err)
	}
	if len(rep.Migrated) != 1 || len(rep.Skipped) != 1 || len(rep.Ambiguous) != 1 {
		t.Errorf("report = %+v, want one of each", rep)
	}
	assertExists(t, filepath.Join(legacy, "src", "splent_io", "splent_feature_legacy", "__init__.py"))
	assertMissing(t, filepath.Join(legacy, "src", "splent_feature_legacy"))
	assertExists(t, filepath.Join(mixed, "src", "a"))
}

func TestFeatureEnv_generate(t *testing.T) {
	ws, _, _ := productWithAuth(t)
	if _, _, err := execute(t, "feature:attach", authFeature, "v1.0.0"); err != nil {
		t.Fatal(err)
	}

	if _, _, err := execute(t, "feature:env", authFeature, "--generate"); err != nil {
		t.Fatalf("feature:env --generate: %v", err)
	}
	env := filepath.Join(cacheDir(ws, "splent_io", authFeature+"@v1.0.0"), "docker", ".env")
	if got := readFile(t, env); !strings.Contains(got, "SPLENT_FEATURE_AUTH_PORT=5000") {
		t.Errorf(".env = %q", got)
	}

	testutil.WriteFiles(t, filepath.Dir(env), map[string]string{".env": "KEEP=1\n"})
	if _, _, err := execute(t, "feature:env", authFeature, "--generate"); err != nil {
		t.Fatal(err)
	}
	if got := readFile(t, env); got != "KEEP=1\n" {
		t.Errorf(".env overwritten: %q", got)
	}
}

func TestFeatureEnv_show(t *testing.T) {
	productWithAuth(t)
	if _, _, err := execute(t, "feature:attach", authFeature, "v1.0.0"); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := execute(t, "--json", "feature:env", authFeature)
	if err != nil {
		t.Fatalf("feature:env: %v", err)
	}
	var got struct {
		Templates map[string]bool `json:"templates"`
		Exists    bool            `json:"exists"`
	}
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("decoding %q: %v", stdout, err)
	}
	if !got.Templates[".env.example"] || got.Templates[".env.dev.example"] || got.Exists {
		t.Errorf("got %+v", got)
	}
}

func TestFeatureEnv_notLinked(t *testing.T) {
	productWithAuth(t)

	_, _, err := execute(t, "feature:env", authFeature)
	assertExitCode(t, err, 1)
}
