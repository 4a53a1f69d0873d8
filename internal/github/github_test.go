package github

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "tok", "splent-test")
}

// --- headers ---

func TestClient_headers(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "application/vnd.github+json" {
			t.Errorf("Accept = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != "splent-test" {
			t.Errorf("User-Agent = %q", got)
		}
		_, _ = w.Write([]byte(`[]`))
	})
	if _, err := c.ListTags(context.Background(), "splent-io", "auth"); err != nil {
		t.Fatal(err)
	}
}

func TestClient_noTokenNoAuthorization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Error("Authorization should be absent without a token")
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()
	if _, err := NewClient(srv.URL, "", "").ListTags(context.Background(), "o", "r"); err != nil {
		t.Fatal(err)
	}
}

// --- tags ---

func TestLatestTag(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/splent-io/auth/tags":
			_ = json.NewEncoder(w).Encode([]Tag{{Name: "v1.2.0"}, {Name: "v1.1.0"}})
		case "/repos/splent-io/empty/tags":
			_, _ = w.Write([]byte(`[]`))
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	got, err := c.LatestTag(ctx, "splent-io", "auth")
	if err != nil || got != "v1.2.0" {
		t.Errorf("LatestTag = %q, %v", got, err)
	}
	got, err = c.LatestTag(ctx, "splent-io", "empty")
	if err != nil || got != "" {
		t.Errorf("LatestTag(empty) = %q, %v", got, err)
	}
	if _, err := c.LatestTag(ctx, "splent-io", "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("LatestTag(missing) err = %v", err)
	}
}

func TestTagExists(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/o/r/git/refs/tags/v1.0.0":
			_, _ = w.Write([]byte(`{}`))
		case "/repos/o/r/releases/tags/v2.0.0":
			_, _ = w.Write([]byte(`{}`))
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()
	tests := []struct {
		tag  string
		want bool
	}{
		{"v1.0.0", true},
		{"v2.0.0", true},
		{"v3.0.0", false},
	}
	for _, tt := range tests {
		got, err := c.TagExists(ctx, "o", "r", tt.tag)
		if err != nil || got != tt.want {
			t.Errorf("TagExists(%s) = %v, %v; want %v", tt.tag, got, err, tt.want)
		}
	}
}

// --- releases ---

func TestCreateRelease(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		apiErr  bool
	}{
		{name: "created", status: http.StatusCreated, body: `{"id":1,"tag_name":"v1.0.0","name":"v1.0.0"}`},
		{name: "exists", status: http.StatusUnprocessableEntity, body: `{"errors":[{"code":"already_exists"}]}`, wantErr: ErrReleaseExists},
		{name: "other 422", status: http.StatusUnprocessableEntity, body: `{"message":"Validation Failed"}`, apiErr: true},
		{name: "forbidden", status: http.StatusForbidden, body: `{"message":"nope"}`, apiErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != "/repos/splent-io/auth/releases" {
					t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
				}
				var payload map[string]any
				_ = json.NewDecoder(r.Body).Decode(&payload)
				if payload["tag_name"] != "v1.0.0" || payload["draft"] != false {
					t.Errorf("payload = %v", payload)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			rel, err := c.CreateRelease(context.Background(), "splent-io/auth", "v1.0.0", "v1.0.0")
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("err = %v, want %v", err, tt.wantErr)
				}
			case tt.apiErr:
				var apiErr *APIError
				if !errors.As(err, &apiErr) || apiErr.Status != tt.status {
					t.Errorf("err = %v, want APIError %d", err, tt.status)
				}
			default:
				if err != nil || rel.TagName != "v1.0.0" {
					t.Errorf("rel = %+v, err = %v", rel, err)
				}
			}
		})
	}
}

func TestCreateRelease_badSlug(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "", "")
	if _, err := c.CreateRelease(context.Background(), "noslash", "v1", "v1"); err == nil {
		t.Error("expected error")
	}
}

// --- forks ---

func TestForkAndWait(t *testing.T) {
	var gets atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/repos/splent-io/notes/forks":
			w.WriteHeader(http.StatusAccepted)
			_, _ = w.Write([]byte(`{}`))
		case r.Method == http.MethodGet && r.URL.Path == "/repos/alice/notes":
			if gets.Add(1) < 3 {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write([]byte(`{"full_name":"alice/notes","fork":true}`))
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()
	if err := c.Fork(ctx, "splent-io", "notes"); err != nil {
		t.Fatal(err)
	}
	repo, err := c.WaitForRepo(ctx, "alice", "notes", 5, time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if !repo.Fork || repo.FullName != "alice/notes" {
		t.Errorf("repo = %+v", repo)
	}
	if gets.Load() != 3 {
		t.Errorf("polled %d times, want 3", gets.Load())
	}
}

func TestWaitForRepo_givesUp(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	_, err := c.WaitForRepo(context.Background(), "alice", "notes", 2, time.Millisecond)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want wrapped ErrNotFound", err)
	}
}

func TestFork_failure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	var apiErr *APIError
	if err := c.Fork(context.Background(), "o", "r"); !errors.As(err, &apiErr) {
		t.Errorf("err = %v", err)
	}
}
