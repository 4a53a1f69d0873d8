package main

import (
	"github.com/spf13/cobra"

	"github.com/diverso-lab/splent-cli/internal/feature"
	"github.com/diverso-lab/splent-cli/internal/ui"
)

func newFeatureListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feature:list",
		Short: "List the features of the active product",
		Long: `List the features declared by the active product with the state of their
link and cache checkout. With --cache, list every cached feature instead.`,
		Args: cobra.NoArgs,
		RunE: runFeatureList,
	}
	cmd.Flags().Bool("cache", false, "List the feature cache instead of the product")
	return cmd
}

type featureRow struct {
	Feature string `json:"feature"`
	Cached  bool   `json:"cached"`
	Link    string `json:"link,omitempty"`
	Path    string `json:"path"`
}

func runFeatureList(cmd *cobra.Command, _ []string) error {
	ctx, err := loadContext(cmd)
	if err != nil {
		return err
	}
	p := newPrinter(cmd)

	var rows []featureRow
	if cached, _ := cmd.Flags().GetBool("cache"); cached {
		found, err := feature.ScanCache(ctx.Root)
		if err != nil {
			return systemErr("scanning the feature cache", err)
		}
		for _, c := range found {
			rows = append(rows, featureRow{Feature: c.Ref.String(), Cached: true, Path: c.Dir})
		}
	} else {
		productDir, proj, err := ctx.LoadProject()
		if err != nil {
			return err
		}
		refs, err := proj.Refs(ctx.DefaultNamespace())
		if err != nil {
			return systemErr("reading features", err)
		}
		for _, r := range refs {
			dir := feature.CacheDir(ctx.Root, r)
			state := feature.CheckLink(feature.LinkPath(productDir, r), dir)
			rows = append(rows, featureRow{
				Feature: r.String(),
				Cached:  pathExists(dir),
				Link:    state.String(),
				Path:    dir,
			})
		}
	}

	if p.IsJSON() {
		if rows == nil {
			rows = []featureRow{}
		}
		return p.WriteJSON(rows)
	}
	if len(rows) == 0 {
		p.Info("No features found")
		return nil
	}
	t := ui.NewTable(cmd.OutOrStdout(), p.IsTTY(), "FEATURE", "CACHED", "LINK", "PATH")
	for _, r := range rows {
		t.Row(r.Feature, yesNo(r.Cached), r.Link, r.Path)
	}
	return t.Flush()
}
