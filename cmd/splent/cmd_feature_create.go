package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/diverso-lab/splent-cli/internal/feature"
	"github.com/diverso-lab/splent-cli/internal/output"
	"github.com/diverso-lab/splent-cli/internal/scaffold"
)

func newFeatureCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "feature:create <namespace/feature>",
		Short: "Scaffold a new editable feature in the cache",
		Args:  cobra.ExactArgs(1),
		RunE:  runFeatureCreate,
	}
}

func runFeatureCreate(cmd *cobra.Command, args []string) error {
	ctx, err := loadContext(cmd)
	if err != nil {
		return err
	}
	p := newPrinter(cmd)

	r, err := parseRef(ctx, args[0])
	if err != nil {
		return err
	}
	if !r.Editable() {
		return output.NewUserError("feature:create takes an unversioned feature, got %s", r)
	}

	dest := feature.CacheDir(ctx.Root, r)
	files, err := scaffold.Render(dest, scaffold.NewData(r))
	if errors.Is(err, scaffold.ErrExists) {
		p.Warn("Feature already exists: %s", dest)
		return nil
	}
	if err != nil {
		return systemErr("scaffolding "+r.String(), err)
	}

	if p.IsJSON() {
		return p.WriteJSON(map[string]any{"feature": r.String(), "path": dest, "files": files})
	}
	p.Success("Feature %s created with %s", r, plural(len(files), "file", "files"))
	p.Info("Location: %s", dest)
	p.Info("Add it to the active product with 'splent feature:add %s'", r)
	return nil
}
