package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/diverso-lab/splent-cli/internal/feature"
	"github.com/diverso-lab/splent-cli/internal/git"
	"github.com/diverso-lab/splent-cli/internal/output"
	"github.com/diverso-lab/splent-cli/internal/workspace"
)

const fallbackBranch = "main"

// latestVersion picks a version for an unpinned clone: the newest GitHub
// tag, then the newest tag the remote advertises, then main.
func latestVersion(ctx context.Context, wctx *workspace.Context, r feature.Ref) string {
	tag, err := newGitHubClient(wctx).LatestTag(ctx, r.Namespace, r.Name)
	if err == nil && tag != "" {
		return tag
	}
	if err != nil {
		log.Debug().Err(err).Str("feature", r.String()).Msg("github tag lookup failed")
	}
	tags, err := git.LsRemoteTags(wctx.RepoURL(r))
	if err == nil && len(tags) > 0 {
		return tags[0]
	}
	return fallbackBranch
}

// cloneFeature shallow-clones r at its version into dest. When the version
// cannot be checked out the remote's default branch is cloned instead, and
// fellBack is true. A failed attempt never leaves dest behind.
func cloneFeature(wctx *workspace.Context, r feature.Ref, dest string) (fellBack bool, err error) {
	url := wctx.RepoURL(r)
	branch := r.Version
	if branch == "" {
		branch = fallbackBranch
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return false, fmt.Errorf("creating %s: %w", filepath.Dir(dest), err)
	}

	err = git.Clone(url, dest, git.CloneOpts{Depth: 1, Branch: branch})
	if err == nil {
		return false, nil
	}
	_ = os.RemoveAll(dest)
	if branch == fallbackBranch {
		return false, err
	}

	log.Debug().Err(err).Str("feature", r.String()).Msg("version clone failed, retrying default branch")
	if err := git.Clone(url, dest, git.CloneOpts{Depth: 1}); err != nil {
		_ = os.RemoveAll(dest)
		return false, err
	}
	return true, nil
}

// forEachParallel runs fn over items with at most jobs in flight.
func forEachParallel[T any](items []T, jobs int, fn func(T)) {
	if jobs < 1 {
		jobs = 1
	}
	sem := make(chan struct{}, jobs)
	var wg sync.WaitGroup
	for _, it := range items {
		wg.Add(1)
		go func(it T) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			fn(it)
		}(it)
	}
	wg.Wait()
}

// resolveJobs reads --jobs, defaulting to the configured value.
func resolveJobs(cmd *cobra.Command, wctx *workspace.Context) (int, error) {
	jobs, _ := cmd.Flags().GetInt("jobs")
	if !cmd.Flags().Changed("jobs") {
		return wctx.Jobs(), nil
	}
	if jobs < 1 {
		return 0, output.NewUserError("--jobs must be >= 1 (got %d)", jobs)
	}
	return jobs, nil
}

// pathExists reports whether p exists, following symlinks.
func pathExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
