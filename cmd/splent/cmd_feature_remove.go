package main

import (
	"github.com/spf13/cobra"

	"github.com/diverso-lab/splent-cli/internal/feature"
	"github.com/diverso-lab/splent-cli/internal/manifest"
	"github.com/diverso-lab/splent-cli/internal/output"
)

func newFeatureRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feature:remove <feature>",
		Short: "Remove a feature from the active product",
		Long: `Remove every pyproject entry of <feature>, at any version, and its product
links. The cache is left untouched.

The namespace defaults to GITHUB_USER, then the default namespace.`,
		Args: cobra.ExactArgs(1),
		RunE: runFeatureRemove,
	}
	cmd.Flags().StringP("namespace", "n", "", "Feature namespace")
	return cmd
}

func runFeatureRemove(cmd *cobra.Command, args []string) error {
	ctx, err := loadContext(cmd)
	if err != nil {
		return err
	}
	productDir, _, err := ctx.LoadProject()
	if err != nil {
		return err
	}
	p := newPrinter(cmd)

	ns, _ := cmd.Flags().GetString("namespace")
	if ns == "" {
		ns = ctx.GitHubUser()
	}
	if ns == "" {
		ns = ctx.DefaultNamespace()
	}
	r, err := feature.Parse(args[0], ns)
	if err != nil {
		return output.NewUserError("%v", err)
	}

	var removed []string
	if _, err := editProject(productDir, func(proj *manifest.Project) error {
		removed = proj.RemoveFeature(r, ctx.DefaultNamespace(), true)
		return nil
	}); err != nil {
		return err
	}
	if len(removed) == 0 {
		p.Info("%s is not declared in pyproject.toml", r.Unversioned())
	}
	for _, e := range removed {
		p.Info("Removed %s from pyproject.toml", e)
	}

	links, err := unlinkVersions(productDir, r)
	if err != nil {
		return err
	}
	for _, l := range links {
		p.Info("Removed link %s", l)
	}
	p.Success("Feature %s removed from %s", r.Unversioned(), ctx.App)
	return nil
}
