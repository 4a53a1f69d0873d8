package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/diverso-lab/splent-cli/internal/envfile"
	"github.com/diverso-lab/splent-cli/internal/feature"
	"github.com/diverso-lab/splent-cli/internal/output"
	"github.com/diverso-lab/splent-cli/internal/ui"
)

func newProductEnvCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product:env",
		Short: "Generate or merge the docker .env files of the product",
		Long: `--generate creates the product docker/.env from its template, and with
--all the .env of every declared feature too.

--merge folds every feature .env into the product docker/.env. Keys the
product already defines keep their value.`,
		Args: cobra.NoArgs,
		RunE: runProductEnv,
	}
	cmd.Flags().Bool("generate", false, "Create missing .env files from their templates")
	cmd.Flags().Bool("merge", false, "Merge feature .env files into the product .env")
	cmd.Flags().Bool("all", false, "With --generate, also process every declared feature")
	envFlags(cmd)
	cmd.MarkFlagsMutuallyExclusive("generate", "merge")
	cmd.MarkFlagsOneRequired("generate", "merge")
	return cmd
}

func runProductEnv(cmd *cobra.Command, _ []string) error {
	ctx, err := loadContext(cmd)
	if err != nil {
		return err
	}
	productDir, proj, err := ctx.LoadProject()
	if err != nil {
		return err
	}
	env, err := resolveEnv(cmd, ctx)
	if err != nil {
		return err
	}
	dockerDir := filepath.Join(productDir, "docker")
	if !pathExists(dockerDir) {
		return output.NewUserError("docker directory not found: %s", dockerDir)
	}
	refs, err := proj.Refs(ctx.DefaultNamespace())
	if err != nil {
		return systemErr("reading features", err)
	}
	p := newPrinter(cmd)

	if merge, _ := cmd.Flags().GetBool("merge"); merge {
		return mergeProductEnv(p, ctx.Root, dockerDir, refs, env)
	}

	outcome, tmpl, err := generateDockerEnv(dockerDir, env)
	if err != nil {
		return systemErr("generating product .env", err)
	}
	switch outcome {
	case envCreated:
		p.Success("Created %s/docker/.env from %s", ctx.App, filepath.Base(tmpl))
	case envSkipped:
		p.Info("Existing .env found for %s, skipping", ctx.App)
	default:
		p.Warn("No .env template found for %s in %s", ctx.App, dockerDir)
	}
	if all, _ := cmd.Flags().GetBool("all"); !all {
		return nil
	}
	if len(refs) == 0 {
		p.Info("No features declared in pyproject.toml")
		return nil
	}

	counts := map[envOutcome]int{}
	var failed []string
	for _, r := range refs {
		outcome, _, err := generateFeatureEnv(productDir, r, env)
		if err != nil {
			p.Warn("%s: %v", r, err)
			outcome = envFailed
			failed = append(failed, r.String())
		}
		counts[outcome]++
	}
	t := ui.NewTable(cmd.OutOrStdout(), p.IsTTY(), "OUTCOME", "FEATURES")
	for _, o := range []envOutcome{envCreated, envSkipped, envNoTemplate, envFailed} {
		t.Row(string(o), counts[o])
	}
	if err := t.Flush(); err != nil {
		return err
	}
	return failedItems("env generations", failed)
}

// mergeProductEnv seeds the product .env from its best template and adds
// every feature variable the product does not define.
func mergeProductEnv(p *output.Printer, root, dockerDir string, refs []feature.Ref, env string) error {
	target := filepath.Join(dockerDir, ".env")
	base, ok := envfile.FirstExisting(dockerDir, append(envfile.TemplateNames(env), ".env")...)
	if !ok {
		return output.NewUserError("no .env.%s.example, .env.example or .env found in %s", env, dockerDir)
	}
	if base != target {
		if created, err := envfile.CopyIfMissing(base, target); err != nil {
			return systemErr("creating product .env", err)
		} else if created {
			p.Info("Product: using %s -> .env", filepath.Base(base))
		}
	}
	merged, err := envfile.Read(target)
	if err != nil {
		return systemErr("reading product .env", err)
	}

	added := 0
	for _, r := range refs {
		fdocker := feature.DockerDir(feature.CacheDir(root, r))
		src, ok := envfile.FirstExisting(fdocker, append([]string{".env"}, envfile.TemplateNames(env)...)...)
		if !ok {
			continue
		}
		fenv := filepath.Join(fdocker, ".env")
		if src != fenv {
			if _, err := envfile.CopyIfMissing(src, fenv); err != nil {
				p.Warn("%s: %v", r, err)
				continue
			}
		}
		f, err := envfile.Read(fenv)
		if err != nil {
			p.Warn("%s: %v", r, err)
			continue
		}
		added += envfile.Merge(merged, f, false)
		p.Step("Merged %s", r)
	}
	if err := merged.Write(target); err != nil {
		return systemErr("writing product .env", err)
	}
	p.Success("Merged env written to %s (%s added)", target, plural(added, "variable", "variables"))
	return nil
}
