package feature

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Ref
		wantErr bool
	}{
		{in: "splent-io/splent_feature_auth@v1.0.0", want: Ref{"splent-io", "splent_feature_auth", "v1.0.0"}},
		{in: "splent-io/splent_feature_auth", want: Ref{"splent-io", "splent_feature_auth", ""}},
		{in: "splent_feature_auth@v1.2.0", want: Ref{"default-ns", "splent_feature_auth", "v1.2.0"}},
		{in: "  profile  ", want: Ref{"default-ns", "profile", ""}},
		{in: "", wantErr: true},
		{in: "/auth", wantErr: true},
		{in: "ns/", wantErr: true},
		{in: "ns/auth@", wantErr: true},
		{in: "ns/a/b", wantErr: true},
		{in: "ns/..", wantErr: true},
		{in: "ns/auth@v1@v2", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in, "default-ns")
			if tt.wantErr {
				if err == nil {
					t.Errorf("Parse(%q) = %+v, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParse_noDefaultNamespace(t *testing.T) {
	if _, err := Parse("auth", ""); err == nil {
		t.Error("expected error without a namespace")
	}
}

func TestNamespaceSafe(t *testing.T) {
	tests := map[string]string{
		"splent-io":   "splent_io",
		"my.org-name": "my_org_name",
		"splent_io":   "splent_io",
	}
	for in, want := range tests {
		if got := NamespaceSafe(in); got != want {
			t.Errorf("NamespaceSafe(%q) = %q, want %q", in, got, want)
		}
		if got := NamespaceSafe(NamespaceSafe(in)); got != want {
			t.Errorf("NamespaceSafe not idempotent for %q", in)
		}
	}
}

func TestRefForms(t *testing.T) {
	r := MustParse("splent-io/auth@v1.0.0", "")
	if r.String() != "splent-io/auth@v1.0.0" {
		t.Errorf("String() = %q", r.String())
	}
	if r.Editable() {
		t.Error("pinned ref should not be editable")
	}
	u := r.Unversioned()
	if !u.Editable() || u.DirName() != "auth" {
		t.Errorf("Unversioned() = %+v", u)
	}
	if !SameFeature(r, MustParse("splent_io/auth", "")) {
		t.Error("escaped and raw namespaces should name the same feature")
	}
	if Equal(r, u) {
		t.Error("different versions should not be Equal")
	}
}

func TestPaths(t *testing.T) {
	ws := "/workspace"
	r := MustParse("splent-io/auth@v1.0.0", "")

	if got, want := CacheDir(ws, r), "/workspace/.splent_cache/features/splent_io/auth@v1.0.0"; got != want {
		t.Errorf("CacheDir = %q, want %q", got, want)
	}
	if got, want := LinkPath("/workspace/uvlhub", r), "/workspace/uvlhub/features/splent_io/auth@v1.0.0"; got != want {
		t.Errorf("LinkPath = %q, want %q", got, want)
	}
	if got, want := PackageDir("/c/auth@v1.0.0", r), "/c/auth@v1.0.0/src/splent_io/auth"; got != want {
		t.Errorf("PackageDir = %q, want %q", got, want)
	}
}

func TestLinkLifecycle(t *testing.T) {
	ws := t.TempDir()
	product := filepath.Join(ws, "uvlhub")
	r := MustParse("splent-io/auth@v1.0.0", "")
	target := CacheDir(ws, r)
	link := LinkPath(product, r)

	if got := CheckLink(link, target); got != LinkMissing {
		t.Errorf("before link: %v", got)
	}
	if err := os.MkdirAll(target, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := Link(target, link); err != nil {
		t.Fatal(err)
	}
	if got := CheckLink(link, target); got != LinkOK {
		t.Errorf("after link: %v", got)
	}

	// Relinking replaces the old link.
	other := CacheDir(ws, r.WithVersion("v2.0.0"))
	if err := os.MkdirAll(other, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := Link(other, link); err != nil {
		t.Fatal(err)
	}
	if got := CheckLink(link, target); got != LinkWrongTarget {
		t.Errorf("after relink: %v", got)
	}

	if err := os.RemoveAll(other); err != nil {
		t.Fatal(err)
	}
	if got := CheckLink(link, other); got != LinkBroken {
		t.Errorf("after target removal: %v", got)
	}

	removed, err := Unlink(link)
	if err != nil || !removed {
		t.Fatalf("Unlink = %v, %v", removed, err)
	}
	removed, err = Unlink(link)
	if err != nil || removed {
		t.Fatalf("second Unlink = %v, %v", removed, err)
	}
}

func TestLink_refusesDirectory(t *testing.T) {
	dir := t.TempDir()
	link := filepath.Join(dir, "features", "ns", "auth")
	if err := os.MkdirAll(link, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := Link(dir, link); err == nil {
		t.Error("expected error when a real directory is in the way")
	}
	if got := CheckLink(link, dir); got != LinkNotSymlink {
		t.Errorf("CheckLink = %v", got)
	}
}

func TestScanCacheAndBrokenLinks(t *testing.T) {
	ws := t.TempDir()
	product := filepath.Join(ws, "uvlhub")
	refs := []Ref{
		MustParse("splent-io/auth@v1.0.0", ""),
		MustParse("splent-io/profile", ""),
		MustParse("other/notes@v0.1.0", ""),
	}
	for _, r := range refs {
		if err := os.MkdirAll(CacheDir(ws, r), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := Link(CacheDir(ws, r), LinkPath(product, r)); err != nil {
			t.Fatal(err)
		}
	}

	cached, err := ScanCache(ws)
	if err != nil {
		t.Fatal(err)
	}
	if len(cached) != 3 {
		t.Fatalf("ScanCache found %d entries, want 3", len(cached))
	}
	if cached[0].Ref.Namespace != "other" || cached[0].Ref.Version != "v0.1.0" {
		t.Errorf("first entry = %+v", cached[0])
	}

	if err := os.RemoveAll(CacheDir(ws, refs[0])); err != nil {
		t.Fatal(err)
	}
	n, err := RemoveBrokenLinks(product)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("removed %d broken links, want 1", n)
	}
	links, _ := ScanLinks(product)
	if len(links) != 2 {
		t.Errorf("%d links left, want 2", len(links))
	}
}

func TestScanCache_missingRoot(t *testing.T) {
	got, err := ScanCache(t.TempDir())
	if err != nil || len(got) != 0 {
		t.Errorf("ScanCache on empty workspace = %v, %v", got, err)
	}
}

func TestRepoURL(t *testing.T) {
	r := MustParse("splent-io/auth", "")
	tests := []struct {
		useSSH bool
		token  string
		want   string
	}{
		{true, "tok", "git@github.com:splent-io/auth.git"},
		{false, "tok", "https://tok@github.com/splent-io/auth.git"},
		{false, "", "https://github.com/splent-io/auth.git"},
	}
	for _, tt := range tests {
		tr := ChooseTransport(tt.useSSH, tt.token)
		if got := RepoURL(r, tr, tt.token); got != tt.want {
			t.Errorf("RepoURL(%v) = %q, want %q", tr, got, tt.want)
		}
	}
}

func TestMirrorURL(t *testing.T) {
	r := MustParse("splent-io/splent_feature_auth@v1.0.0", "")
	got := MirrorURL("file:///srv/git/", r)
	if want := "file:///srv/git/splent-io/splent_feature_auth.git"; got != want {
		t.Errorf("MirrorURL = %q, want %q", got, want)
	}
}
