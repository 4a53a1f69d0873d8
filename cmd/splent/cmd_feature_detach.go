package main

import (
	"github.com/spf13/cobra"

	"github.com/diverso-lab/splent-cli/internal/feature"
	"github.com/diverso-lab/splent-cli/internal/manifest"
	"github.com/diverso-lab/splent-cli/internal/output"
)

func newFeatureDetachCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "feature:detach <feature> <version>",
		Short: "Unpin a versioned feature in the active product",
		Long: `Rewrite <feature>@<version> to the unversioned <feature> in pyproject.toml
and remove the versioned link. The cached checkout is kept. When an editable
checkout exists in the cache it is linked in its place.`,
		Args: cobra.ExactArgs(2),
		RunE: runFeatureDetach,
	}
}

func runFeatureDetach(cmd *cobra.Command, args []string) error {
	ctx, err := loadContext(cmd)
	if err != nil {
		return err
	}
	productDir, proj, err := ctx.LoadProject()
	if err != nil {
		return err
	}
	p := newPrinter(cmd)

	base, err := parseRef(ctx, args[0])
	if err != nil {
		return err
	}
	r := base.WithVersion(args[1])
	found, ok := proj.Find(r, ctx.DefaultNamespace())
	if !ok || found.Version != r.Version {
		return output.NewUserError("%s is not declared in %s", r, ctx.App)
	}

	if _, err := editProject(productDir, func(proj *manifest.Project) error {
		proj.UpsertFeature(r.Unversioned(), ctx.DefaultNamespace())
		return nil
	}); err != nil {
		return err
	}
	p.Info("pyproject.toml: %s -> %s", r, r.Unversioned())

	if ok, err := feature.Unlink(feature.LinkPath(productDir, r)); err != nil {
		return systemErr("unlinking "+r.String(), err)
	} else if ok {
		p.Info("Removed link for %s", r)
	} else {
		p.Warn("No link found for %s", r)
	}

	editable := r.Unversioned()
	if pathExists(feature.CacheDir(ctx.Root, editable)) {
		link, err := linkFeature(ctx, productDir, editable)
		if err != nil {
			return err
		}
		p.Info("Linked editable checkout %s", link)
	}
	p.Success("Feature %s detached", r)
	return nil
}
