package main

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/diverso-lab/splent-cli/internal/envfile"
	"github.com/diverso-lab/splent-cli/internal/testutil"
)

func TestEnvSet(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		want   map[string]string
		stdout string
	}{
		{
			name: "mode",
			args: []string{"mode", "--value", "PROD"},
			want: map[string]string{"SPLENT_MODE": "prod"},
		},
		{
			name:   "github",
			args:   []string{"github", "--user", "alice", "--token", "ghp_abcdefghwxyz"},
			want:   map[string]string{"GITHUB_USER": "alice", "GITHUB_TOKEN": "ghp_abcdefghwxyz"},
			stdout: "GITHUB_TOKEN set to ghp_ab...wxyz",
		},
		{
			name:   "pypi",
			args:   []string{"pypi", "--token", "short"},
			want:   map[string]string{"PYPI_USERNAME": "__token__", "PYPI_TOKEN": "short"},
			stdout: "PYPI_TOKEN set to ********",
		},
		{
			name: "developer",
			args: []string{"developer", "--value", "yes"},
			want: map[string]string{"SPLENT_DEVELOPER_SSH": "true"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := testutil.NewWorkspace(t, "")
			testutil.WriteFiles(t, ws, map[string]string{".env": "KEEP=1\n"})

			stdout, _, err := execute(t, append([]string{"env:set"}, tt.args...)...)
			if err != nil {
				t.Fatalf("env:set %v: %v", tt.args, err)
			}
			env, err := envfile.Read(filepath.Join(ws, ".env"))
			if err != nil {
				t.Fatal(err)
			}
			for k, want := range tt.want {
				if got, _ := env.Get(k); got != want {
					t.Errorf("%s = %q, want %q", k, got, want)
				}
			}
			if got, _ := env.Get("KEEP"); got != "1" {
				t.Errorf("KEEP = %q, existing keys must survive", got)
			}
			if tt.stdout != "" && !strings.Contains(stdout, tt.stdout) {
				t.Errorf("stdout = %q, want %q", stdout, tt.stdout)
			}
		})
	}
}

func TestEnvSet_invalidValues(t *testing.T) {
	for _, args := range [][]string{
		{"env:set", "mode", "--value", "staging"},
		{"env:set", "developer", "--value", "maybe"},
		{"env:set", "developer"},
		{"env:set", "--wizard"},
	} {
		t.Run(strings.Join(args[1:], " "), func(t *testing.T) {
			ws := testutil.NewWorkspace(t, "")
			_, _, err := execute(t, args...)
			assertExitCode(t, err, 1)
			assertMissing(t, filepath.Join(ws, ".env"))
		})
	}
}

func TestEnvShow(t *testing.T) {
	ws := testutil.NewWorkspace(t, "")
	testutil.WriteFiles(t, ws, map[string]string{
		".env": "SPLENT_MODE=dev\nGITHUB_TOKEN=ghp_1234567890abcd\nFLASK_ENV=development\n",
	})
	t.Setenv("SPLENT_MODE", "dev")
	t.Setenv("FLASK_ENV", "production")

	stdout, _, err := execute(t, "--json", "env:show")
	if err != nil {
		t.Fatalf("env:show: %v", err)
	}
	var states []envVarState
	if err := json.Unmarshal([]byte(stdout), &states); err != nil {
		t.Fatalf("decoding %q: %v", stdout, err)
	}
	want := []envVarState{
		{Key: "SPLENT_MODE", Status: envLoaded, File: "dev"},
		{Key: "GITHUB_TOKEN", Status: envNotLoaded, File: "ghp_12...abcd"},
		{Key: "FLASK_ENV", Status: envDiffers, File: "development", Shell: "production"},
	}
	if len(states) != len(want) {
		t.Fatalf("states = %+v, want %+v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Errorf("states[%d] = %+v, want %+v", i, states[i], want[i])
		}
	}
}

func TestEnvShow_missingFile(t *testing.T) {
	testutil.NewWorkspace(t, "")

	_, _, err := execute(t, "env:show")
	assertExitCode(t, err, 1)
}
