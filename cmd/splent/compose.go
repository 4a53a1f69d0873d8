package main

import (
	"errors"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/diverso-lab/splent-cli/internal/compose"
	"github.com/diverso-lab/splent-cli/internal/feature"
	"github.com/diverso-lab/splent-cli/internal/manifest"
	"github.com/diverso-lab/splent-cli/internal/workspace"
)

// stackUnit is one compose project of a product: a feature or the product
// itself.
type stackUnit struct {
	Label     string
	DockerDir string
}

// stackUnits lists the features of proj in declared order followed by the
// product.
func stackUnits(ctx *workspace.Context, productDir string, proj *manifest.Project) ([]stackUnit, error) {
	refs, err := proj.Refs(ctx.DefaultNamespace())
	if err != nil {
		return nil, systemErr("reading features", err)
	}
	units := make([]stackUnit, 0, len(refs)+1)
	for _, r := range refs {
		units = append(units, stackUnit{
			Label:     r.SafeNamespace() + "/" + r.DirName(),
			DockerDir: feature.DockerDir(feature.CacheDir(ctx.Root, r)),
		})
	}
	units = append(units, stackUnit{Label: ctx.App, DockerDir: filepath.Join(productDir, "docker")})
	return units, nil
}

func newCompose(cmd *cobra.Command, ctx *workspace.Context) *compose.Compose {
	c := compose.New(runner, ctx.Environ())
	c.Stdout, c.Stderr = cmd.OutOrStdout(), cmd.ErrOrStderr()
	c.Stdin = cmd.InOrStdin()
	return c
}

// composeFile resolves the compose file of u, reporting false when it has
// none.
func composeFile(u stackUnit, env string) (string, bool, error) {
	file, err := compose.ResolveFile(u.DockerDir, env)
	if errors.Is(err, compose.ErrNoComposeFile) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return file, true, nil
}
