package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/diverso-lab/splent-cli/internal/feature"
	"github.com/diverso-lab/splent-cli/internal/manifest"
	"github.com/diverso-lab/splent-cli/internal/output"
)

func newFeatureAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "feature:add <namespace/feature>",
		Short: "Add an editable feature from the cache to the active product",
		Args:  cobra.ExactArgs(1),
		RunE:  runFeatureAdd,
	}
}

func runFeatureAdd(cmd *cobra.Command, args []string) error {
	if !strings.Contains(args[0], "/") {
		return output.NewUserError("invalid feature %q: use <namespace>/<feature>", args[0])
	}
	ctx, err := loadContext(cmd)
	if err != nil {
		return err
	}
	productDir, _, err := ctx.LoadProject()
	if err != nil {
		return err
	}
	p := newPrinter(cmd)

	r, err := parseRef(ctx, args[0])
	if err != nil {
		return err
	}
	if !r.Editable() {
		return output.NewUserError("feature:add takes an unversioned feature; use feature:attach for %s", r)
	}
	cacheDir := feature.CacheDir(ctx.Root, r)
	if !pathExists(cacheDir) {
		return output.NewUserError("feature not found in cache: %s", cacheDir).
			WithHint("create it with 'splent feature:create %s'", r)
	}

	var added bool
	if _, err := editProject(productDir, func(proj *manifest.Project) error {
		added = proj.AddFeature(r.String())
		return nil
	}); err != nil {
		return err
	}
	if added {
		p.Info("Added %s to pyproject.toml", r)
	} else {
		p.Info("%s is already declared in pyproject.toml", r)
	}

	link, err := linkFeature(ctx, productDir, r)
	if err != nil {
		return err
	}
	p.Info("Linked %s", link)
	p.Success("Feature %s added to %s", r, ctx.App)
	return nil
}
