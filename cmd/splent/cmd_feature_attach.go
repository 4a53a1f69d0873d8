package main

import (
	"github.com/spf13/cobra"

	"github.com/diverso-lab/splent-cli/internal/feature"
	"github.com/diverso-lab/splent-cli/internal/manifest"
	"github.com/diverso-lab/splent-cli/internal/output"
	"github.com/diverso-lab/splent-cli/internal/workspace"
)

func newFeatureAttachCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "feature:attach <feature> <version>",
		Short: "Pin the active product to a released feature version",
		Long: `Verify that <version> is tagged, clone it into the cache when missing,
rewrite the product's pyproject entry to <feature>@<version> and link it.`,
		Args: cobra.ExactArgs(2),
		RunE: runFeatureAttach,
	}
}

func runFeatureAttach(cmd *cobra.Command, args []string) error {
	ctx, err := loadContext(cmd)
	if err != nil {
		return err
	}
	productDir, _, err := ctx.LoadProject()
	if err != nil {
		return err
	}
	p := newPrinter(cmd)

	base, err := parseRef(ctx, args[0])
	if err != nil {
		return err
	}
	r := base.WithVersion(args[1])

	p.Step("Checking tag %s of %s", r.Version, base)
	ok, err := tagExists(cmd.Context(), ctx, base, r.Version)
	if err != nil {
		return systemErr("checking tag "+r.Version, err)
	}
	if !ok {
		return output.NewUserError("tag %s not found for %s", r.Version, base)
	}

	if err := attachFeature(ctx, p, r, productDir); err != nil {
		return err
	}
	p.Success("Attached %s to %s", r, ctx.App)
	return nil
}

// attachFeature clones r into the cache when missing, pins the product entry
// to r and links it. The tag must already be known to exist.
func attachFeature(ctx *workspace.Context, p *output.Printer, r feature.Ref, productDir string) error {
	dest := feature.CacheDir(ctx.Root, r)
	if pathExists(dest) {
		p.Info("Using cached %s", dest)
	} else {
		p.Step("Cloning %s", r)
		fellBack, err := cloneFeature(ctx, r, dest)
		if err != nil {
			return systemErr("clone "+r.String(), err)
		}
		if fellBack {
			p.Warn("Version %s could not be checked out, cloned the default branch", r.Version)
		}
	}

	var prev string
	if _, err := editProject(productDir, func(proj *manifest.Project) error {
		prev, _ = proj.UpsertFeature(r, ctx.DefaultNamespace())
		return nil
	}); err != nil {
		return err
	}
	if prev != "" && prev != r.String() {
		p.Info("pyproject.toml: %s -> %s", prev, r)
	} else if prev == "" {
		p.Info("pyproject.toml: added %s", r)
	}

	if old, err := feature.Parse(prev, ctx.DefaultNamespace()); err == nil && prev != r.String() {
		if _, err := feature.Unlink(feature.LinkPath(productDir, old)); err != nil {
			p.Warn("Could not remove old link for %s: %v", old, err)
		}
	}
	link, err := linkFeature(ctx, productDir, r)
	if err != nil {
		return err
	}
	p.Info("Linked %s", link)
	return nil
}
