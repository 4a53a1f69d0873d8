package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/diverso-lab/splent-cli/internal/feature"
	"github.com/diverso-lab/splent-cli/internal/git"
	"github.com/diverso-lab/splent-cli/internal/manifest"
	"github.com/diverso-lab/splent-cli/internal/output"
	"github.com/diverso-lab/splent-cli/internal/workspace"
)

func newFeatureEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feature:edit <feature>",
		Short: "Turn a pinned feature into an editable checkout on main",
		Long: `Copy the versioned cache of <feature> to its editable directory, point
origin at the SSH remote, switch to main and pull. The product entry is
rewritten to the unversioned name and its link swapped.

Local changes in an existing editable checkout are handled by --strategy:
  safe   keep them and skip the git update (default)
  stash  stash them first
  reset  discard them (requires --force)`,
		Args: cobra.ExactArgs(1),
		RunE: runFeatureEdit,
	}
	cmd.Flags().String("strategy", "safe", "Dirty tree strategy: safe, stash, reset")
	cmd.Flags().Bool("force", false, "Allow destructive strategies")
	return cmd
}

func runFeatureEdit(cmd *cobra.Command, args []string) error {
	strategyStr, _ := cmd.Flags().GetString("strategy")
	force, _ := cmd.Flags().GetBool("force")
	strategy, err := workspace.ParseStrategy(strategyStr)
	if err != nil {
		return output.NewUserError("%v", err)
	}
	if strategy == workspace.StrategyReset && !force {
		return output.NewUserError("--strategy reset requires --force")
	}

	ctx, err := loadContext(cmd)
	if err != nil {
		return err
	}
	productDir, proj, err := ctx.LoadProject()
	if err != nil {
		return err
	}
	p := newPrinter(cmd)

	arg, err := parseRef(ctx, args[0])
	if err != nil {
		return err
	}
	r, ok := proj.FindByName(arg.Name, ctx.DefaultNamespace())
	if !ok {
		return output.NewUserError("feature %s is not declared in %s", arg.Name, ctx.App)
	}
	if r.Editable() {
		p.Info("%s is already editable", r)
		return nil
	}

	versioned := feature.CacheDir(ctx.Root, r)
	editable := feature.CacheDir(ctx.Root, r.Unversioned())
	if !pathExists(versioned) {
		return output.NewUserError("versioned cache not found: %s", versioned).
			WithHint("run 'splent product:sync' first")
	}
	if !pathExists(editable) {
		p.Step("Creating editable copy at %s", editable)
		if err := copyTree(versioned, editable); err != nil {
			return systemErr("copying "+versioned, err)
		}
	}

	if err := editCheckout(ctx, p, r.Unversioned(), editable, strategy); err != nil {
		return err
	}

	if _, err := editProject(productDir, func(proj *manifest.Project) error {
		proj.UpsertFeature(r.Unversioned(), ctx.DefaultNamespace())
		return nil
	}); err != nil {
		return err
	}
	if _, err := feature.Unlink(feature.LinkPath(productDir, r)); err != nil {
		return systemErr("unlinking "+r.String(), err)
	}
	if _, err := linkFeature(ctx, productDir, r.Unversioned()); err != nil {
		return err
	}
	p.Success("%s is editable on main", r.Unversioned())
	return nil
}

// editCheckout points dir at the writable remote and brings main up to date.
func editCheckout(ctx *workspace.Context, p *output.Printer, r feature.Ref, dir string, strategy workspace.Strategy) error {
	if err := git.SetRemoteURL(dir, editRemoteURL(ctx, r)); err != nil {
		return systemErr("setting origin", err)
	}

	dirty, err := git.IsDirty(dir)
	if err != nil {
		return systemErr("checking local changes", err)
	}
	if dirty {
		switch strategy {
		case workspace.StrategySafe:
			p.Warn("%s has local changes, leaving the checkout as is (use --strategy stash or reset)", r)
			return nil
		case workspace.StrategyStash:
			p.Step("Stashing local changes")
			if err := git.Stash(dir); err != nil {
				return systemErr("stash", err)
			}
		case workspace.StrategyReset:
			p.Step("Discarding local changes")
			if err := git.ResetHard(dir, "HEAD"); err != nil {
				return systemErr("reset", err)
			}
		}
	}

	steps := []struct {
		name string
		run  func(string) error
	}{
		{"fetch", git.FetchBranches},
		{"switch main", func(d string) error { return git.Switch(d, fallbackBranch) }},
		{"pull", git.Pull},
	}
	for _, s := range steps {
		if err := s.run(dir); err != nil {
			return systemErr(fmt.Sprintf("%s in %s", s.name, dir), err)
		}
	}
	return nil
}

// editRemoteURL is the push-capable origin of an editable checkout.
func editRemoteURL(ctx *workspace.Context, r feature.Ref) string {
	if base := ctx.GitBase(); base != "" {
		return feature.MirrorURL(base, r)
	}
	return feature.RepoURL(r, feature.TransportSSH, "")
}
