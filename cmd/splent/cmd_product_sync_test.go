package main

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/diverso-lab/splent-cli/internal/lock"
	"github.com/diverso-lab/splent-cli/internal/shell"
	"github.com/diverso-lab/splent-cli/internal/testutil"
	"github.com/diverso-lab/splent-cli/internal/ui"
	"github.com/diverso-lab/splent-cli/internal/workspace"
)

func TestProductSync_updateLock(t *testing.T) {
	ws, base := remoteWorkspace(t, "sample_app")
	remote := testutil.CreateFeatureRemote(t, base, "splent-io", authFeature, "v1.0.0", "v1.1.0")
	product := testutil.WriteProduct(t, ws, "sample_app",
		"splent-io/"+authFeature+"@v1.0.0",
		"splent-io/splent_feature_notes",
	)

	if _, _, err := execute(t, "product:sync", "--update-lock"); err != nil {
		t.Fatalf("product:sync: %v", err)
	}

	assertExists(t, filepath.Join(product, "features", "splent_io", authFeature+"@v1.0.0", "pyproject.toml"))
	assertMissing(t, cacheDir(ws, "splent_io", "splent_feature_notes"))

	lf, err := lock.Load(lock.Path(product))
	if err != nil {
		t.Fatalf("loading lock: %v", err)
	}
	entry := lf.Get("splent-io/" + authFeature + "@v1.0.0")
	if entry == nil {
		t.Fatalf("lock entries = %v", lf.Entries())
	}
	if want := testutil.GitOutput(t, remote, "rev-parse", "v1.0.0^{commit}"); entry.Commit != want {
		t.Errorf("locked commit = %s, want %s", entry.Commit, want)
	}
	if entry.Ref != "v1.0.0" || lf.Product != "sample_app" {
		t.Errorf("lock = %+v / %+v", lf, entry)
	}
}

func TestProductSync_reusesCache(t *testing.T) {
	ws, base := remoteWorkspace(t, "sample_app")
	testutil.CreateFeatureRemote(t, base, "splent-io", authFeature, "v1.0.0")
	testutil.WriteProduct(t, ws, "sample_app", "splent-io/"+authFeature+"@v1.0.0")

	if _, _, err := execute(t, "product:sync"); err != nil {
		t.Fatal(err)
	}
	stdout, _, err := execute(t, "--json", "product:sync")
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	var sum ui.Summary
	if err := json.Unmarshal([]byte(stdout), &sum); err != nil {
		t.Fatalf("decoding %q: %v", stdout, err)
	}
	if sum.OK != 0 || sum.Skipped != 1 {
		t.Errorf("summary = %+v, want one cached", sum)
	}
}

func TestProductSync_lockedCommit(t *testing.T) {
	ws, base := remoteWorkspace(t, "sample_app")
	remote := testutil.CreateFeatureRemote(t, base, "splent-io", authFeature, "v1.0.0", "v1.1.0")
	product := testutil.WriteProduct(t, ws, "sample_app", "splent-io/"+authFeature+"@v1.1.0")

	pinned := testutil.GitOutput(t, remote, "rev-parse", "v1.0.0^{commit}")
	lf := lock.New("sample_app", "test")
	lf.Set("splent-io/"+authFeature+"@v1.1.0", "", "v1.1.0", pinned)
	if err := lock.Save(lock.Path(product), lf); err != nil {
		t.Fatal(err)
	}

	if _, _, err := execute(t, "product:sync", "--lock", "--jobs", "2"); err != nil {
		t.Fatalf("product:sync --lock: %v", err)
	}
	dir := cacheDir(ws, "splent_io", authFeature+"@v1.1.0")
	if got := testutil.GitOutput(t, dir, "rev-parse", "HEAD"); got != pinned {
		t.Errorf("HEAD = %s, want locked %s", got, pinned)
	}
}

func TestProductSync_errors(t *testing.T) {
	tests := []struct {
		name     string
		features []string
		args     []string
		wantCode int
	}{
		{"missing lock file", []string{"splent-io/" + authFeature + "@v1.0.0"}, []string{"--lock"}, 1},
		{"bad jobs", []string{"splent-io/" + authFeature + "@v1.0.0"}, []string{"--jobs", "0"}, 1},
		{"unknown remote", []string{"splent-io/nope@v1.0.0"}, nil, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws, _ := remoteWorkspace(t, "sample_app")
			testutil.WriteProduct(t, ws, "sample_app", tt.features...)

			_, _, err := execute(t, append([]string{"product:sync"}, tt.args...)...)
			assertExitCode(t, err, tt.wantCode)
		})
	}
}

func TestProductSync_force(t *testing.T) {
	ws, base := remoteWorkspace(t, "sample_app")
	testutil.CreateFeatureRemote(t, base, "splent-io", authFeature, "v1.0.0")
	testutil.WriteProduct(t, ws, "sample_app", "splent-io/"+authFeature+"@v1.0.0")
	if _, _, err := execute(t, "product:sync"); err != nil {
		t.Fatal(err)
	}
	marker := filepath.Join(cacheDir(ws, "splent_io", authFeature+"@v1.0.0"), "LOCAL_EDIT")
	testutil.WriteFiles(t, filepath.Dir(marker), map[string]string{"LOCAL_EDIT": "x"})

	if _, _, err := execute(t, "product:sync", "--force"); err != nil {
		t.Fatalf("product:sync --force: %v", err)
	}
	assertMissing(t, marker)
}

func stubReachable(t *testing.T, ok bool) {
	t.Helper()
	prev := reachable
	reachable = func(string, time.Duration) bool { return ok }
	t.Cleanup(func() { reachable = prev })
}

func TestProductCloneFeatures(t *testing.T) {
	ws, base := remoteWorkspace(t, "sample_app")
	remote := testutil.CreateFeatureRemote(t, base, "splent-io", authFeature, "v1.0.0", "v1.1.0")
	testutil.CreateFeatureRemote(t, base, "splent-io", "splent_feature_notes", "v1.0.0")
	product := testutil.WriteProduct(t, ws, "sample_app",
		"splent-io/"+authFeature+"@v1.0.0",
		"splent-io/splent_feature_notes",
	)

	if _, _, err := execute(t, "product:clone-features"); err != nil {
		t.Fatalf("product:clone-features: %v", err)
	}

	auth := cacheDir(ws, "splent_io", authFeature+"@v1.0.0")
	if got, want := testutil.GitOutput(t, auth, "rev-parse", "HEAD"), testutil.GitOutput(t, remote, "rev-parse", "v1.0.0^{commit}"); got != want {
		t.Errorf("auth HEAD = %s, want v1.0.0 %s", got, want)
	}
	assertExists(t, cacheDir(ws, "splent_io", "splent_feature_notes@v1.0.0"))
	assertExists(t, filepath.Join(product, "features", "splent_io", authFeature+"@v1.0.0"))
	assertExists(t, filepath.Join(product, "features", "splent_io", "splent_feature_notes@v1.0.0"))
}

func TestProductCloneFeatures_missingTagStaysOnMain(t *testing.T) {
	ws, base := remoteWorkspace(t, "sample_app")
	remote := testutil.CreateFeatureRemote(t, base, "splent-io", authFeature, "v1.0.0")
	testutil.WriteProduct(t, ws, "sample_app", "splent-io/"+authFeature+"@v7.0.0")

	if _, _, err := execute(t, "product:clone-features"); err != nil {
		t.Fatalf("product:clone-features: %v", err)
	}
	dir := cacheDir(ws, "splent_io", authFeature+"@v7.0.0")
	if got, want := testutil.GitOutput(t, dir, "rev-parse", "HEAD"), testutil.GitOutput(t, remote, "rev-parse", "main"); got != want {
		t.Errorf("HEAD = %s, want main %s", got, want)
	}
}

func TestProductCloneFeatures_offline(t *testing.T) {
	ws := testutil.NewWorkspace(t, "sample_app")
	testutil.WriteProduct(t, ws, "sample_app", "splent-io/"+authFeature+"@v1.0.0")
	stubReachable(t, false)

	_, _, err := execute(t, "product:clone-features")
	assertExitCode(t, err, 2)
}

func TestIsSplentDeveloper(t *testing.T) {
	tests := []struct {
		name   string
		env    map[string]string
		stderr string
		want   bool
	}{
		{"ssh forced", map[string]string{"SPLENT_USE_SSH": "true"}, "", true},
		{"developer role", map[string]string{"SPLENT_ROLE": "developer"}, "", true},
		{"key accepted", nil, "Hi alice! You've successfully authenticated, but GitHub does not provide shell access.", true},
		{"key rejected", nil, "git@github.com: Permission denied (publickey).", false},
		{"mirror configured", map[string]string{"SPLENT_GIT_BASE": "file:///srv/git"}, "successfully authenticated", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.NewWorkspace(t, "")
			rec := useRecorder(t)
			rec.On("ssh -T", shell.Response{Stderr: tt.stderr, ExitCode: 1})
			env := tt.env
			wctx, err := workspace.Load(workspace.Options{
				Root: t.TempDir(),
				Lookup: func(k string) (string, bool) {
					v, ok := env[k]
					return v, ok
				},
			})
			if err != nil {
				t.Fatal(err)
			}
			if got := isSplentDeveloper(context.Background(), wctx); got != tt.want {
				t.Errorf("isSplentDeveloper = %v, want %v", got, tt.want)
			}
		})
	}
}
