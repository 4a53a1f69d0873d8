package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/diverso-lab/splent-cli/internal/feature"
	"github.com/diverso-lab/splent-cli/internal/manifest"
	"github.com/diverso-lab/splent-cli/internal/output"
)

func newClearFeaturesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear:features",
		Short: "Clear the feature cache and broken product links",
		Long: `Delete .splent_cache/features, or one namespace of it, then remove the
feature links of every product that no longer resolve.`,
		Args: cobra.NoArgs,
		RunE: runClearFeatures,
	}
	cmd.Flags().String("namespace", "", "Only clear this namespace (e.g. splent_io)")
	cmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func runClearFeatures(cmd *cobra.Command, _ []string) error {
	ctx, err := loadContext(cmd)
	if err != nil {
		return err
	}
	p := newPrinter(cmd)
	ns, _ := cmd.Flags().GetString("namespace")
	yes, _ := cmd.Flags().GetBool("yes")

	root := ctx.CacheRoot()
	if !pathExists(root) {
		p.Warn("No .splent_cache/features directory found")
		return nil
	}
	target := root
	if ns != "" {
		target = filepath.Join(root, feature.NamespaceSafe(ns))
		if !pathExists(target) {
			p.Warn("Namespace %s not found in cache", ns)
			return nil
		}
	}

	ok, err := confirm(yes, "--yes", "Permanently delete "+target+" and clean up broken links?")
	if err != nil {
		return err
	}
	if !ok {
		return output.NewUserError("aborted, nothing deleted")
	}

	if err := os.RemoveAll(target); err != nil {
		return systemErr("removing "+target, err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return systemErr("recreating "+root, err)
	}
	if ns == "" {
		p.Success("Feature cache cleared: all namespaces")
	} else {
		p.Success("Feature cache cleared: %s", ns)
	}

	products, err := manifest.Products(ctx.Root)
	if err != nil {
		return systemErr("listing products", err)
	}
	removed := 0
	for _, name := range products {
		n, err := feature.RemoveBrokenLinks(ctx.ProductDir(name))
		removed += n
		if err != nil {
			p.Warn("%s: %v", name, err)
		}
	}
	if removed > 0 {
		p.Info("Removed %s", plural(removed, "broken feature link", "broken feature links"))
	} else {
		p.Info("No broken links found")
	}
	return nil
}
