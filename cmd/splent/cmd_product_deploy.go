package main

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diverso-lab/splent-cli/internal/compose"
	"github.com/diverso-lab/splent-cli/internal/envfile"
	"github.com/diverso-lab/splent-cli/internal/output"
)

func newProductDeployCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product:deploy",
		Short: "Deploy the product from the artifacts of product:build",
		Long: `Create docker/.env from .env.deploy.example when missing, ask for every
value still set to <SET>, and start docker-compose.deploy.yml.`,
		Args: cobra.NoArgs,
		RunE: runProductDeploy,
	}
	cmd.Flags().BoolP("yes", "y", false, "Do not prompt; fail if any value is still <SET>")
	return cmd
}

func runProductDeploy(cmd *cobra.Command, _ []string) error {
	ctx, err := loadContext(cmd)
	if err != nil {
		return err
	}
	productDir, err := ctx.RequireProduct()
	if err != nil {
		return err
	}
	yes, _ := cmd.Flags().GetBool("yes")
	p := newPrinter(cmd)

	dockerDir := filepath.Join(productDir, "docker")
	tmplPath := filepath.Join(dockerDir, deployEnvTemplate)
	composePath := filepath.Join(dockerDir, deployComposeFile)
	for _, f := range []string{tmplPath, composePath} {
		if !pathExists(f) {
			return output.NewUserError("%s not found", filepath.Base(f)).
				WithHint("run 'splent product:build' first")
		}
	}

	envPath := filepath.Join(dockerDir, ".env")
	created, err := envfile.CopyIfMissing(tmplPath, envPath)
	if err != nil {
		return systemErr("creating .env", err)
	}
	if created {
		p.Info("Created .env from %s", deployEnvTemplate)
	}
	env, err := envfile.Read(envPath)
	if err != nil {
		return systemErr("reading .env", err)
	}

	if unset := env.Unset(); len(unset) > 0 {
		if yes || !stdinIsTerminal() {
			return output.NewUserError("values still set to %s: %s", envfile.Placeholder, strings.Join(unset, ", ")).
				WithHint("edit %s or run without --yes in a terminal", envPath)
		}
		for _, key := range unset {
			ask := promptInput
			if envfile.IsSensitive(key) {
				ask = func(title, _ string, validate func(string) error) (string, error) {
					return promptSecret(title, validate)
				}
			}
			v, err := ask("Value required for "+key, "", requireNonEmpty(key))
			if err != nil {
				return err
			}
			env.Set(key, v)
		}
		if err := env.Write(envPath); err != nil {
			return systemErr("writing .env", err)
		}
		p.Info("Updated .env")
	}

	p.Title("Deploying %s", ctx.App)
	dc := newCompose(cmd, ctx)
	if err := dc.Up(cmd.Context(), dockerDir, compose.ProjectName(ctx.App, "prod"), composePath, "--env-file", envPath); err != nil {
		return systemErr("deployment failed", err)
	}
	p.Success("Deployment successful")
	return nil
}
