package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/diverso-lab/splent-cli/internal/feature"
	"github.com/diverso-lab/splent-cli/internal/git"
	"github.com/diverso-lab/splent-cli/internal/lock"
	"github.com/diverso-lab/splent-cli/internal/output"
	"github.com/diverso-lab/splent-cli/internal/ui"
	"github.com/diverso-lab/splent-cli/internal/workspace"
)

func newProductSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product:sync",
		Short: "Clone and link every versioned feature of the active product",
		Long: `Clone each versioned feature declared by the active product into the cache
when missing and link it under <product>/features. Editable features are
left alone.

--update-lock records the checked-out commits in splent.lock.yaml, and
--lock checks out the commits recorded there.`,
		Args: cobra.NoArgs,
		RunE: runProductSync,
	}
	cmd.Flags().Bool("force", false, "Remove cached checkouts and clone them again")
	cmd.Flags().Int("jobs", 1, "Number of parallel clone workers")
	cmd.Flags().Bool("lock", false, "Check out the commits from the lock file")
	cmd.Flags().Bool("update-lock", false, "Write the lock file after syncing")
	return cmd
}

type syncOptions struct {
	force      bool
	locked     *lock.File
	updateLock bool
}

func runProductSync(cmd *cobra.Command, _ []string) error {
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
	opts := syncOptions{}
	opts.force, _ = cmd.Flags().GetBool("force")
	opts.updateLock, _ = cmd.Flags().GetBool("update-lock")
	if useLock, _ := cmd.Flags().GetBool("lock"); useLock {
		lf, err := lock.Load(lock.Path(productDir))
		if err != nil {
			return output.NewUserError("--lock given but %v", err).
				WithHint("run 'splent product:sync --update-lock' to create it")
		}
		opts.locked = lf
	}
	p := newPrinter(cmd)

	refs, err := proj.Refs(ctx.DefaultNamespace())
	if err != nil {
		return systemErr("reading features", err)
	}
	var versioned []feature.Ref
	for _, r := range refs {
		if r.Editable() {
			continue
		}
		versioned = append(versioned, r)
	}
	if skipped := len(refs) - len(versioned); skipped > 0 {
		p.Info("Skipping %s (no version)", plural(skipped, "editable feature", "editable features"))
	}
	if len(versioned) == 0 {
		p.Info("No versioned features to sync")
		return nil
	}

	p.Title("Syncing %s for %s", plural(len(versioned), "feature", "features"), ctx.App)
	progress := ui.NewProgress(cmd.ErrOrStderr(), len(versioned))
	lf := lock.New(ctx.App, version)
	var mu sync.Mutex
	forEachParallel(versioned, jobs, func(r feature.Ref) {
		commit, reused, err := syncFeature(ctx, productDir, r, opts)
		if err != nil {
			progress.Fail(r.String(), err)
			return
		}
		if commit != "" {
			mu.Lock()
			lf.Set(r.String(), ctx.RepoURL(r), r.Version, commit)
			mu.Unlock()
		}
		if reused {
			progress.Skip(r.String(), "cached")
			return
		}
		progress.OK(r.String())
	})

	sum := progress.Summary()
	if opts.updateLock {
		if err := lock.Save(lock.Path(productDir), lf); err != nil {
			return systemErr("writing lock file", err)
		}
		p.Info("Lock file updated: %s", lock.Path(productDir))
	}
	if p.IsJSON() {
		if err := p.WriteJSON(sum); err != nil {
			return err
		}
	} else if len(sum.Failed) == 0 {
		p.Success("Product synced: %d cloned, %d cached", sum.OK, sum.Skipped)
	}
	return failedItems("features", sum.Failed)
}

// syncFeature makes sure r is cached, optionally at its locked commit, and
// linked into the product. It returns the checked-out commit and whether an
// existing checkout was reused.
func syncFeature(ctx *workspace.Context, productDir string, r feature.Ref, opts syncOptions) (string, bool, error) {
	dest := feature.CacheDir(ctx.Root, r)
	reused := false
	if pathExists(dest) {
		if opts.force {
			if err := os.RemoveAll(dest); err != nil {
				return "", false, fmt.Errorf("removing cache: %w", err)
			}
		} else {
			reused = true
		}
	}
	if !reused {
		fellBack, err := cloneFeature(ctx, r, dest)
		if err != nil {
			return "", false, err
		}
		if fellBack {
			log.Warn().Str("feature", r.String()).Msg("version not found, cloned the default branch")
		}
	}

	if opts.locked != nil {
		if lf := opts.locked.Get(r.String()); lf != nil {
			if err := checkoutLocked(dest, lf.Commit); err != nil {
				return "", reused, err
			}
		}
	}

	if _, err := unlinkVersions(productDir, r); err != nil {
		return "", reused, err
	}
	if _, err := linkFeature(ctx, productDir, r); err != nil {
		return "", reused, err
	}

	if !opts.updateLock {
		return "", reused, nil
	}
	commit, err := git.HeadCommitFull(dest)
	if err != nil {
		// Cached checkouts without .git cannot be locked.
		log.Debug().Err(err).Str("feature", r.String()).Msg("no commit to lock")
		return "", reused, nil
	}
	return commit, reused, nil
}

func checkoutLocked(dir, commit string) error {
	if head, err := git.HeadCommitFull(dir); err == nil && head == commit {
		return nil
	}
	if err := git.FetchCommit(dir, commit); err != nil {
		log.Debug().Err(err).Str("commit", commit).Msg("fetching locked commit")
	}
	if err := git.Checkout(dir, commit); err != nil {
		return fmt.Errorf("checkout %s: %w", commit, err)
	}
	return nil
}
