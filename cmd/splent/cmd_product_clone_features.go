package main

import (
	"context"
	"net"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/diverso-lab/splent-cli/internal/feature"
	"github.com/diverso-lab/splent-cli/internal/git"
	"github.com/diverso-lab/splent-cli/internal/output"
	"github.com/diverso-lab/splent-cli/internal/shell"
	"github.com/diverso-lab/splent-cli/internal/ui"
	"github.com/diverso-lab/splent-cli/internal/workspace"
)

const defaultFeatureVersion = "v1.0.0"

// reachable reports whether addr accepts TCP connections. Tests replace it.
var reachable = func(addr string, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

func newProductCloneFeaturesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product:clone-features",
		Short: "Clone every declared feature at its tag and link it",
		Long: `Clone each feature of the active product from its main branch, then check
out the declared tag (v1.0.0 when none is given). Existing checkouts and
links are kept.`,
		Args: cobra.NoArgs,
		RunE: runProductCloneFeatures,
	}
	cmd.Flags().Int("jobs", 1, "Number of parallel clone workers")
	return cmd
}

func runProductCloneFeatures(cmd *cobra.Command, _ []string) error {
	ctx, err := loadContext(cmd)
	if err != nil {
		return err
	}
	productDir, proj, err := ctx.LoadProject()
	if err != nil {
		return err
	}
	jobs, err := resolveJobs(cmd, ctx)
	if err != nil {
		return err
	}
	p := newPrinter(cmd)

	if ctx.GitBase() == "" {
		p.Step("Checking GitHub connectivity")
		if !reachable("github.com:443", 3*time.Second) {
			return output.NewSystemError("no connection to GitHub").
				WithHint("check your network and try again")
		}
	}

	refs, err := proj.Refs(ctx.DefaultNamespace())
	if err != nil {
		return systemErr("reading features", err)
	}
	if len(refs) == 0 {
		p.Info("No features declared in pyproject.toml")
		return nil
	}

	transport := ctx.Transport()
	if isSplentDeveloper(cmd.Context(), ctx) {
		transport = feature.TransportSSH
	}
	p.Info("Cloning mode: %s", transport)

	progress := ui.NewProgress(cmd.ErrOrStderr(), len(refs))
	forEachParallel(refs, jobs, func(r feature.Ref) {
		if r.Editable() {
			r = r.WithVersion(defaultFeatureVersion)
		}
		url := feature.RepoURL(r, transport, ctx.GitHubToken())
		if base := ctx.GitBase(); base != "" {
			url = feature.MirrorURL(base, r)
		}
		status, err := cloneAtTag(url, feature.CacheDir(ctx.Root, r), r.Version)
		if err != nil {
			progress.Fail(r.String(), err)
			return
		}
		link := feature.LinkPath(productDir, r)
		if _, err := os.Lstat(link); os.IsNotExist(err) {
			if err := feature.Link(feature.CacheDir(ctx.Root, r), link); err != nil {
				progress.Fail(r.String(), err)
				return
			}
		}
		if status == "cached" {
			progress.Skip(r.String(), status)
			return
		}
		if status != "" {
			progress.Log("%s: %s", r, status)
		}
		progress.OK(r.String())
	})

	sum := progress.Summary()
	if len(sum.Failed) == 0 {
		p.Success("All features cloned and linked")
	}
	return failedItems("features", sum.Failed)
}

// cloneAtTag clones url into dest and checks out tag when the remote has it.
// It returns a note for the progress log.
func cloneAtTag(url, dest, tag string) (string, error) {
	if pathExists(dest) {
		return "cached", nil
	}
	if err := git.Clone(url, dest, git.CloneOpts{Depth: 1}); err != nil {
		_ = os.RemoveAll(dest)
		return "", err
	}
	_ = git.FetchTags(dest)
	ok, err := git.TagExists(dest, tag)
	if err != nil || !ok {
		return "tag " + tag + " not found, staying on the default branch", nil
	}
	if err := git.Checkout(dest, tag); err != nil {
		return "", err
	}
	return "", nil
}

// isSplentDeveloper decides whether to clone over SSH: SPLENT_USE_SSH, the
// developer role, or a working GitHub SSH key.
func isSplentDeveloper(ctx context.Context, wctx *workspace.Context) bool {
	if wctx.UseSSH() || wctx.Role() == "developer" {
		return true
	}
	if wctx.GitBase() != "" {
		return false
	}
	tctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	// ssh -T exits 1 even when the key is accepted, so only stderr counts.
	res, _ := runner.Run(tctx, shell.Cmd{
		Name: "ssh",
		Args: []string{"-T", "-o", "BatchMode=yes", "-o", "StrictHostKeyChecking=accept-new", "git@github.com"},
		Env:  wctx.Environ(),
	})
	return strings.Contains(strings.ToLower(string(res.Stderr)), "successfully authenticated")
}
