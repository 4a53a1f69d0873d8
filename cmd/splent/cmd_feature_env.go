package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/diverso-lab/splent-cli/internal/envfile"
	"github.com/diverso-lab/splent-cli/internal/feature"
	"github.com/diverso-lab/splent-cli/internal/output"
)

func newFeatureEnvCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feature:env <feature>",
		Short: "Show or generate the docker .env of a feature",
		Long: `Show the env templates of a feature linked into the active product, or
create its docker/.env from .env.<env>.example (else .env.example) with
--generate. An existing .env is never overwritten.`,
		Args: cobra.ExactArgs(1),
		RunE: runFeatureEnv,
	}
	cmd.Flags().Bool("generate", false, "Create docker/.env from its template")
	envFlags(cmd)
	return cmd
}

func runFeatureEnv(cmd *cobra.Command, args []string) error {
	ctx, err := loadContext(cmd)
	if err != nil {
		return err
	}
	productDir, proj, err := ctx.LoadProject()
	if err != nil {
		return err
	}
	p := newPrinter(cmd)
	generate, _ := cmd.Flags().GetBool("generate")
	env, err := resolveEnv(cmd, ctx)
	if err != nil {
		return err
	}

	arg, err := parseRef(ctx, args[0])
	if err != nil {
		return err
	}
	r, ok := proj.FindByName(arg.Name, ctx.DefaultNamespace())
	if !ok {
		return output.NewUserError("feature %s is not declared in %s", arg.Name, ctx.App)
	}
	link := feature.LinkPath(productDir, r)
	target, err := feature.Resolve(link)
	if err != nil {
		return output.NewUserError("feature link not found for %s: %s", r, link).
			WithHint("run 'splent product:sync' to create it")
	}
	dockerDir := feature.DockerDir(target)
	if !pathExists(dockerDir) {
		return output.NewUserError("docker directory not found: %s", dockerDir)
	}

	if !generate {
		return showFeatureEnv(p, r, link, target, dockerDir, env)
	}

	outcome, tmpl, err := generateDockerEnv(dockerDir, env)
	switch outcome {
	case envCreated:
		p.Success("Created %s/docker/.env from %s", r, filepath.Base(tmpl))
	case envSkipped:
		p.Info("Existing .env found for %s, left as is", r)
	case envNoTemplate:
		p.Warn("No .env template for %s in %s", r, dockerDir)
	case envFailed:
		return systemErr("generating .env for "+r.String(), err)
	}
	return nil
}

func showFeatureEnv(p *output.Printer, r feature.Ref, link, target, dockerDir, env string) error {
	envPath := filepath.Join(dockerDir, ".env")
	templates := map[string]bool{}
	for _, name := range envfile.TemplateNames(env) {
		templates[name] = pathExists(filepath.Join(dockerDir, name))
	}
	if p.IsJSON() {
		return p.WriteJSON(map[string]any{
			"feature":   r.String(),
			"link":      link,
			"target":    target,
			"env":       env,
			"templates": templates,
			"env_file":  envPath,
			"exists":    pathExists(envPath),
		})
	}
	p.Title("%s", r)
	p.Step("Link:      %s -> %s", link, target)
	for _, name := range envfile.TemplateNames(env) {
		state := "missing"
		if templates[name] {
			state = "present"
		}
		p.Step("Template:  %s (%s)", name, state)
	}
	if pathExists(envPath) {
		p.Step("Env file:  %s", envPath)
	} else {
		p.Step("Env file:  (not created)")
	}
	return nil
}
