package main

import (
	"github.com/spf13/cobra"

	"github.com/diverso-lab/splent-cli/internal/feature"
)

func newFeatureCloneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "feature:clone <namespace/feature[@version]>",
		Short: "Clone a feature into the workspace cache",
		Long: `Clone a feature repository into .splent_cache/features/<namespace>/<feature>@<version>.

Without a version the latest tag is used, falling back to main.`,
		Args: cobra.ExactArgs(1),
		RunE: runFeatureClone,
	}
}

func runFeatureClone(cmd *cobra.Command, args []string) error {
	ctx, err := loadContext(cmd)
	if err != nil {
		return err
	}
	p := newPrinter(cmd)

	r, err := parseRef(ctx, args[0])
	if err != nil {
		return err
	}
	if r.Editable() {
		p.Info("No version given, looking up the latest tag of %s", r)
		r = r.WithVersion(latestVersion(cmd.Context(), ctx, r))
	}

	dest := feature.CacheDir(ctx.Root, r)
	if pathExists(dest) {
		p.Warn("Already cached: %s", dest)
		return nil
	}

	p.Step("Cloning %s (%s)", r, ctx.Transport())
	fellBack, err := cloneFeature(ctx, r, dest)
	if err != nil {
		return systemErr("clone "+r.String(), err)
	}
	if fellBack {
		p.Warn("Version %s not found, cloned the default branch instead", r.Version)
	}
	p.Success("Cloned %s", r)
	p.Info("Cached at %s", dest)
	return nil
}
