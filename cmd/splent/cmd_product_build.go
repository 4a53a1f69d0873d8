package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/diverso-lab/splent-cli/internal/compose"
	"github.com/diverso-lab/splent-cli/internal/envfile"
	"github.com/diverso-lab/splent-cli/internal/feature"
	"github.com/diverso-lab/splent-cli/internal/output"
)

const (
	deployEnvTemplate = ".env.deploy.example"
	deployComposeFile = "docker-compose.deploy.yml"
)

func newProductBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "product:build",
		Short: "Build the deployment env template and compose file",
		Long: `Merge the production env templates and compose files of the product and
every linked feature into docker/.env.deploy.example and
docker/docker-compose.deploy.yml. Features are merged in link order and
later definitions win.`,
		Args: cobra.NoArgs,
		RunE: runProductBuild,
	}
}

func runProductBuild(cmd *cobra.Command, _ []string) error {
	ctx, err := loadContext(cmd)
	if err != nil {
		return err
	}
	productDir, err := ctx.RequireProduct()
	if err != nil {
		return err
	}
	dockerDir := filepath.Join(productDir, "docker")
	if !pathExists(dockerDir) {
		return output.NewUserError("product %s has no docker/ directory", ctx.App)
	}
	p := newPrinter(cmd)
	p.Title("Building deployment artifacts for %s", ctx.App)

	dirs := []string{dockerDir}
	links, err := feature.ScanLinks(productDir)
	if err != nil {
		return systemErr("scanning feature links", err)
	}
	for _, l := range links {
		if d := feature.DockerDir(l.Dir); pathExists(d) {
			dirs = append(dirs, d)
		}
	}

	env := envfile.New()
	for _, d := range dirs {
		tmpl, ok := envfile.FirstExisting(d, envfile.TemplateNames("prod")...)
		if !ok {
			continue
		}
		f, err := envfile.Read(tmpl)
		if err != nil {
			return systemErr("reading "+tmpl, err)
		}
		envfile.Merge(env, f, true)
	}
	envPath := filepath.Join(dockerDir, deployEnvTemplate)
	if err := env.Write(envPath); err != nil {
		return systemErr("writing "+envPath, err)
	}
	p.Success("Created %s (%s)", envPath, plural(env.Len(), "variable", "variables"))

	var docs [][]byte
	for _, d := range dirs {
		file, err := compose.ResolveFile(d, "prod")
		if err != nil {
			continue
		}
		data, err := os.ReadFile(file) //nolint:gosec // compose file inside the workspace
		if err != nil {
			return systemErr("reading "+file, err)
		}
		docs = append(docs, data)
	}
	var base []byte
	if len(docs) > 0 {
		base, docs = docs[0], docs[1:]
	}
	merged, err := compose.MergeFiles(base, docs...)
	if err != nil {
		return output.NewUserError("merging compose files: %v", err)
	}
	composePath := filepath.Join(dockerDir, deployComposeFile)
	if err := os.WriteFile(composePath, merged, 0o644); err != nil { //nolint:gosec // read by docker compose
		return systemErr("writing "+composePath, err)
	}
	p.Success("Created %s", composePath)
	return nil
}
