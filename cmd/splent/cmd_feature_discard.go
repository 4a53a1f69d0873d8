package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diverso-lab/splent-cli/internal/feature"
	"github.com/diverso-lab/splent-cli/internal/output"
)

func newFeatureDiscardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feature:discard <feature>",
		Short: "Delete the editable checkout of a feature",
		Long: `Delete the editable (unversioned) checkout of <feature> from the cache.
Versioned snapshots are never touched.`,
		Args: cobra.ExactArgs(1),
		RunE: runFeatureDiscard,
	}
	cmd.Flags().StringP("namespace", "n", "", "Feature namespace (default: the default namespace)")
	cmd.Flags().Bool("yes", false, "Do not ask for confirmation")
	return cmd
}

func runFeatureDiscard(cmd *cobra.Command, args []string) error {
	ctx, err := loadContext(cmd)
	if err != nil {
		return err
	}
	p := newPrinter(cmd)
	yes, _ := cmd.Flags().GetBool("yes")

	ns, _ := cmd.Flags().GetString("namespace")
	if ns == "" {
		ns = ctx.DefaultNamespace()
	}
	r, err := feature.Parse(args[0], ns)
	if err != nil {
		return output.NewUserError("%v", err)
	}
	r = r.Unversioned()

	dir := feature.CacheDir(ctx.Root, r)
	if !pathExists(dir) {
		p.Info("No editable checkout of %s, nothing to discard", r)
		return nil
	}

	users, err := productsUsing(ctx, r)
	if err != nil {
		return err
	}
	if len(users) > 0 {
		p.Warn("The editable %s is used by: %s", r, strings.Join(users, ", "))
		ok, err := confirm(yes, "--yes", "Discard it and break these products?")
		if err != nil {
			return err
		}
		if !ok {
			return output.NewUserError("aborted, nothing removed")
		}
	}

	if err := os.RemoveAll(dir); err != nil {
		return systemErr("removing "+dir, err)
	}
	p.Success("Editable %s discarded, versioned snapshots kept", r)
	return nil
}
