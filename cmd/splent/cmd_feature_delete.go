package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diverso-lab/splent-cli/internal/feature"
	"github.com/diverso-lab/splent-cli/internal/output"
)

func newFeatureDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feature:delete <feature> <version>",
		Short: "Delete a versioned feature from the cache",
		Long: `Delete <feature>@<version> from the cache. Products still declaring that
version are listed and confirmation is required unless --force is given.
Their dangling links are removed afterwards.`,
		Args: cobra.ExactArgs(2),
		RunE: runFeatureDelete,
	}
	cmd.Flags().Bool("force", false, "Delete without asking even when products use it")
	return cmd
}

func runFeatureDelete(cmd *cobra.Command, args []string) error {
	ctx, err := loadContext(cmd)
	if err != nil {
		return err
	}
	p := newPrinter(cmd)
	force, _ := cmd.Flags().GetBool("force")

	base, err := parseRef(ctx, args[0])
	if err != nil {
		return err
	}
	r := base.WithVersion(args[1])
	cacheDir := feature.CacheDir(ctx.Root, r)
	if !pathExists(cacheDir) {
		return output.NewUserError("feature version not found in cache: %s", cacheDir)
	}

	users, err := productsUsing(ctx, r)
	if err != nil {
		return err
	}
	if len(users) > 0 {
		p.Warn("%s is used by: %s", r, strings.Join(users, ", "))
		p.Warn("Deleting it breaks these products until they detach or upgrade it")
		ok, err := confirm(force, "--force", "Delete it anyway?")
		if err != nil {
			return err
		}
		if !ok {
			return output.NewUserError("aborted, nothing deleted")
		}
	}

	if err := os.RemoveAll(cacheDir); err != nil {
		return systemErr("deleting "+cacheDir, err)
	}
	p.Info("Deleted %s", cacheDir)

	for _, name := range users {
		n, err := feature.RemoveBrokenLinks(ctx.ProductDir(name))
		if err != nil {
			p.Warn("Cleaning links of %s: %v", name, err)
			continue
		}
		if n > 0 {
			p.Info("Removed %s in %s", plural(n, "broken link", "broken links"), name)
		}
	}
	p.Success("Feature %s removed from the cache", r)
	return nil
}
