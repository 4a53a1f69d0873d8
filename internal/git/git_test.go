package git

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/diverso-lab/splent-cli/internal/testutil"
)

func TestCloneAndIsCloned(t *testing.T) {
	bare := testutil.CreateBareRepo(t)
	dest := filepath.Join(t.TempDir(), "cloned")

	if err := Clone(bare, dest, CloneOpts{}); err != nil {
		t.Fatalf("clone: %v", err)
	}
	if !IsCloned(dest) {
		t.Error("expected IsCloned to be true after clone")
	}
}

func TestClone_shallowTag(t *testing.T) {
	bare := testutil.CreateBareRepoWithFiles(t, map[string]string{"a.txt": "a"}, "v1.0.0", "v1.1.0")
	dest := filepath.Join(t.TempDir(), "auth@v1.0.0")

	if err := Clone("file://"+bare, dest, CloneOpts{Depth: 1, Branch: "v1.0.0"}); err != nil {
		t.Fatalf("clone tag: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dest, "VERSION")) //nolint:gosec // test file
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "v1.0.0\n" {
		t.Errorf("VERSION = %q, want v1.0.0", data)
	}
}

func TestClone_missingBranch(t *testing.T) {
	bare := testutil.CreateBareRepo(t)
	dest := filepath.Join(t.TempDir(), "x")
	if err := Clone(bare, dest, CloneOpts{Branch: "v9.9.9"}); err == nil {
		t.Error("expected error cloning a missing tag")
	}
}

func TestCurrentBranchAndHead(t *testing.T) {
	bare := testutil.CreateBareRepo(t)
	dest := filepath.Join(t.TempDir(), "repo")
	if err := Clone(bare, dest, CloneOpts{}); err != nil {
		t.Fatalf("clone: %v", err)
	}

	branch, err := CurrentBranch(dest)
	if err != nil {
		t.Fatal(err)
	}
	if branch != "main" {
		t.Errorf("branch = %q, want main", branch)
	}
	sha, err := HeadCommit(dest)
	if err != nil || len(sha) < 7 {
		t.Errorf("HeadCommit = %q, %v", sha, err)
	}
	full, err := HeadCommitFull(dest)
	if err != nil || len(full) != 40 {
		t.Errorf("HeadCommitFull = %q, %v", full, err)
	}
}

func TestIsDirtyAndCommit(t *testing.T) {
	bare := testutil.CreateBareRepo(t)
	dest := filepath.Join(t.TempDir(), "repo")
	if err := Clone(bare, dest, CloneOpts{}); err != nil {
		t.Fatal(err)
	}

	dirty, err := IsDirty(dest)
	if err != nil || dirty {
		t.Fatalf("fresh clone dirty=%v err=%v", dirty, err)
	}

	testutil.WriteFiles(t, dest, map[string]string{"new.txt": "x"})
	if dirty, _ := IsDirty(dest); !dirty {
		t.Error("expected dirty after writing a file")
	}

	if err := AddAll(dest); err != nil {
		t.Fatal(err)
	}
	if err := Commit(dest, "chore: add file"); err != nil {
		t.Fatal(err)
	}
	if dirty, _ := IsDirty(dest); dirty {
		t.Error("expected clean after commit")
	}
	if err := Push(dest, "origin", "main"); err != nil {
		t.Fatalf("push: %v", err)
	}
}

func TestTags(t *testing.T) {
	bare := testutil.CreateBareRepoWithFiles(t, map[string]string{"a": "a"}, "v1.0.0", "v1.2.0", "v1.10.0")

	remote, err := LsRemoteTags(bare)
	if err != nil {
		t.Fatal(err)
	}
	if len(remote) != 3 || remote[0] != "v1.10.0" {
		t.Errorf("LsRemoteTags = %v, want newest v1.10.0 first", remote)
	}

	dest := filepath.Join(t.TempDir(), "repo")
	if err := Clone(bare, dest, CloneOpts{}); err != nil {
		t.Fatal(err)
	}
	if ok, err := TagExists(dest, "v1.2.0"); err != nil || !ok {
		t.Errorf("TagExists(v1.2.0) = %v, %v", ok, err)
	}
	if ok, _ := TagExists(dest, "v2.0.0"); ok {
		t.Error("TagExists(v2.0.0) should be false")
	}

	if err := CreateAnnotatedTag(dest, "v2.0.0", "Release v2.0.0"); err != nil {
		t.Fatal(err)
	}
	if err := PushTag(dest, "v2.0.0"); err != nil {
		t.Fatal(err)
	}
	remote, _ = LsRemoteTags(bare)
	if remote[0] != "v2.0.0" {
		t.Errorf("pushed tag missing from remote: %v", remote)
	}

	local, err := Tags(dest)
	if err != nil || len(local) != 4 {
		t.Errorf("Tags = %v, %v", local, err)
	}
}

func TestSwitchAndPull(t *testing.T) {
	bare := testutil.CreateBareRepoWithFiles(t, map[string]string{"a": "a"}, "v1.0.0")
	dest := filepath.Join(t.TempDir(), "repo")
	if err := Clone(bare, dest, CloneOpts{Branch: "v1.0.0"}); err != nil {
		t.Fatal(err)
	}
	if branch, _ := CurrentBranch(dest); branch != "" {
		t.Fatalf("tag clone should be detached, got %q", branch)
	}
	if err := Switch(dest, "main"); err != nil {
		t.Fatal(err)
	}
	if branch, _ := CurrentBranch(dest); branch != "main" {
		t.Errorf("branch = %q after Switch", branch)
	}
	if err := Pull(dest); err != nil {
		t.Errorf("pull: %v", err)
	}
}

func TestFetchBranches_shallowTagClone(t *testing.T) {
	bare := testutil.CreateBareRepoWithFiles(t, map[string]string{"a": "a"}, "v1.0.0")
	dest := filepath.Join(t.TempDir(), "repo")
	if err := Clone("file://"+bare, dest, CloneOpts{Depth: 1, Branch: "v1.0.0"}); err != nil {
		t.Fatal(err)
	}
	if err := FetchBranches(dest); err != nil {
		t.Fatal(err)
	}
	ok, err := RemoteBranchExists(dest, "main")
	if err != nil || !ok {
		t.Fatalf("origin/main after FetchBranches = %v, %v", ok, err)
	}
	if err := Switch(dest, "main"); err != nil {
		t.Fatal(err)
	}
	if branch, _ := CurrentBranch(dest); branch != "main" {
		t.Errorf("branch = %q", branch)
	}
	if got := testutil.GitOutput(t, dest, "rev-parse", "--abbrev-ref", "main@{upstream}"); got != "origin/main" {
		t.Errorf("upstream = %q, want origin/main", got)
	}
	if err := Pull(dest); err != nil {
		t.Errorf("pull after switch: %v", err)
	}
}

func TestFetchBranches_newRemoteBranch(t *testing.T) {
	bare := testutil.CreateBareRepoWithFiles(t, map[string]string{"a": "a"}, "v1.0.0")
	dest := filepath.Join(t.TempDir(), "repo")
	if err := Clone("file://"+bare, dest, CloneOpts{Depth: 1, Branch: "v1.0.0"}); err != nil {
		t.Fatal(err)
	}
	testutil.Git(t, bare, "branch", "develop", "main")

	if err := FetchBranches(dest); err != nil {
		t.Fatal(err)
	}
	for _, b := range []string{"main", "develop"} {
		if ok, err := RemoteBranchExists(dest, b); err != nil || !ok {
			t.Errorf("origin/%s = %v, %v", b, ok, err)
		}
	}
	if err := Switch(dest, "develop"); err != nil {
		t.Fatalf("switch develop: %v", err)
	}
}

func TestFetchCommit_olderTag(t *testing.T) {
	bare := testutil.CreateBareRepoWithFiles(t, map[string]string{"a": "a"}, "v1.0.0", "v1.1.0")
	old := testutil.GitOutput(t, bare, "rev-parse", "v1.0.0^{commit}")
	dest := filepath.Join(t.TempDir(), "repo")
	if err := Clone("file://"+bare, dest, CloneOpts{Depth: 1, Branch: "v1.1.0"}); err != nil {
		t.Fatal(err)
	}
	if err := FetchCommit(dest, old); err != nil {
		t.Fatalf("fetch commit: %v", err)
	}
	if err := Checkout(dest, old); err != nil {
		t.Fatal(err)
	}
	head, err := HeadCommitFull(dest)
	if err != nil {
		t.Fatal(err)
	}
	if head != old {
		t.Errorf("HEAD = %s, want %s", head, old)
	}
}

func TestRemoteURL(t *testing.T) {
	bare := testutil.CreateBareRepo(t)
	dest := filepath.Join(t.TempDir(), "repo")
	if err := Clone(bare, dest, CloneOpts{}); err != nil {
		t.Fatal(err)
	}
	if err := SetRemoteURL(dest, "git@github.com:splent-io/auth.git"); err != nil {
		t.Fatal(err)
	}
	got, err := RemoteURL(dest)
	if err != nil || got != "git@github.com:splent-io/auth.git" {
		t.Errorf("RemoteURL = %q, %v", got, err)
	}
}

func TestDefaultBranch(t *testing.T) {
	bare := testutil.CreateBareRepo(t)
	branch, err := DefaultBranch(bare)
	if err != nil {
		t.Fatal(err)
	}
	if branch != "main" {
		t.Errorf("DefaultBranch = %q, want main", branch)
	}
}

func TestRepoSlug(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{url: "git@github.com:splent-io/splent_feature_auth.git", want: "splent-io/splent_feature_auth"},
		{url: "https://github.com/splent-io/splent_feature_auth.git", want: "splent-io/splent_feature_auth"},
		{url: "https://ghp_abc@github.com/drorganvidez/notes", want: "drorganvidez/notes"},
		{url: "/tmp/repo.git", wantErr: true},
	}
	for _, tt := range tests {
		got, err := RepoSlug(tt.url)
		if tt.wantErr {
			if err == nil {
				t.Errorf("RepoSlug(%q) = %q, want error", tt.url, got)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("RepoSlug(%q) = %q, %v; want %q", tt.url, got, err, tt.want)
		}
	}
}

func TestRedact(t *testing.T) {
	got := redact("cloning https://ghp_secret@github.com/o/r.git failed")
	if got != "cloning https://***@github.com/o/r.git failed" {
		t.Errorf("redact = %q", got)
	}
}

func TestIsGitInstalledAndVersion(t *testing.T) {
	if !IsGitInstalled() {
		t.Skip("git not installed")
	}
	if v, err := Version(); err != nil || v == "" {
		t.Errorf("Version = %q, %v", v, err)
	}
}
