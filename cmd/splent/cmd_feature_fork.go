package main

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/diverso-lab/splent-cli/internal/feature"
	"github.com/diverso-lab/splent-cli/internal/git"
	"github.com/diverso-lab/splent-cli/internal/output"
)

// Fork readiness polling. Tests shorten the interval.
var (
	forkPollAttempts = 5
	forkPollInterval = 3 * time.Second
)

func newFeatureForkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feature:fork <feature>",
		Short: "Fork a feature on GitHub and clone it under your namespace",
		Long: `Fork <default namespace>/<feature> into GITHUB_USER, clone the fork into
the cache as <user>/<feature>@<version>, move its Python package to the user
namespace and push the rewrite to the fork.`,
		Args: cobra.ExactArgs(1),
		RunE: runFeatureFork,
	}
	cmd.Flags().StringP("version", "v", "v1.0.0", "Feature version to clone")
	return cmd
}

func runFeatureFork(cmd *cobra.Command, args []string) error {
	ctx, err := loadContext(cmd)
	if err != nil {
		return err
	}
	p := newPrinter(cmd)
	version, _ := cmd.Flags().GetString("version")

	user := ctx.GitHubUser()
	if ctx.GitHubToken() == "" || user == "" {
		return output.NewUserError("GITHUB_TOKEN and GITHUB_USER must be set").
			WithHint("run 'splent env:set github'")
	}
	upstream, err := parseRef(ctx, args[0])
	if err != nil {
		return err
	}
	upstream = upstream.Unversioned()

	gh := newGitHubClient(ctx)
	p.Step("Forking %s into %s", upstream, user)
	if err := gh.Fork(cmd.Context(), upstream.Namespace, upstream.Name); err != nil {
		return systemErr("forking "+upstream.String(), err)
	}
	if _, err := gh.WaitForRepo(cmd.Context(), user, upstream.Name, forkPollAttempts, forkPollInterval); err != nil {
		p.Warn("Fork may still be processing: %v", err)
	} else {
		p.Info("Fork %s/%s is ready", user, upstream.Name)
	}

	fork := feature.Ref{Namespace: user, Name: upstream.Name, Version: version}
	dest := feature.CacheDir(ctx.Root, fork)
	if pathExists(dest) {
		p.Warn("Already cached: %s", dest)
		return nil
	}
	p.Step("Cloning %s", fork)
	if _, err := cloneFeature(ctx, fork, dest); err != nil {
		return systemErr("cloning fork "+fork.String(), err)
	}

	changed, err := rewriteNamespace(dest, upstream.SafeNamespace(), fork.SafeNamespace())
	if err != nil {
		return systemErr("rewriting namespace", err)
	}
	if !changed {
		p.Info("No %s package found, namespace left as is", upstream.SafeNamespace())
		p.Success("Fork cloned to %s", dest)
		return nil
	}
	p.Info("Namespace %s -> %s", upstream.SafeNamespace(), fork.SafeNamespace())

	if err := git.AddAll(dest); err != nil {
		return systemErr("staging namespace rewrite", err)
	}
	if err := git.Commit(dest, "chore: rename namespace to "+user); err != nil {
		return systemErr("committing namespace rewrite", err)
	}
	if err := pushHead(dest); err != nil {
		p.Warn("Could not push the namespace rewrite: %v", err)
	} else {
		p.Info("Pushed the namespace rewrite to the fork")
	}
	p.Success("Fork cloned to %s", dest)
	return nil
}

// rewriteNamespace moves src/<from> to src/<to> and rewrites "<from>."
// imports in its Python files.
func rewriteNamespace(dir, from, to string) (bool, error) {
	if from == to {
		return false, nil
	}
	oldDir := filepath.Join(dir, "src", from)
	if !pathExists(oldDir) {
		return false, nil
	}
	newDir := filepath.Join(dir, "src", to)
	if err := os.Rename(oldDir, newDir); err != nil {
		return false, err
	}
	if _, err := replaceInFiles(newDir, []string{".py"}, nil, strings.NewReplacer(from+".", to+".")); err != nil {
		return true, err
	}
	return true, nil
}

// pushHead pushes the current branch, or HEAD to main when detached.
func pushHead(dir string) error {
	branch, err := git.CurrentBranch(dir)
	if err != nil {
		return err
	}
	if branch == "" {
		return git.Push(dir, "origin", "HEAD:refs/heads/"+fallbackBranch)
	}
	return git.Push(dir, "origin", branch)
}
