package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/diverso-lab/splent-cli/internal/feature"
	"github.com/diverso-lab/splent-cli/internal/output"
	"github.com/diverso-lab/splent-cli/internal/shell"
)

func newLinterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "linter",
		Short: "Lint the product and its editable features with ruff",
		Args:  cobra.NoArgs,
		RunE:  runLinter,
	}
	cmd.Flags().Bool("fix", false, "Fix issues automatically")
	cmd.Flags().Bool("format", false, "Also format the code with ruff format")
	return cmd
}

func runLinter(cmd *cobra.Command, _ []string) error {
	ctx, err := loadContext(cmd)
	if err != nil {
		return err
	}
	productDir, proj, err := ctx.LoadProject()
	if err != nil {
		return err
	}
	refs, err := proj.Refs(ctx.DefaultNamespace())
	if err != nil {
		return systemErr("reading features", err)
	}
	fix, _ := cmd.Flags().GetBool("fix")
	format, _ := cmd.Flags().GetBool("format")
	p := newPrinter(cmd)

	dirs := []string{productDir}
	if src := filepath.Join(productDir, "src"); pathExists(src) {
		dirs[0] = src
	}
	for _, r := range refs {
		if !r.Editable() {
			continue
		}
		if dir := feature.CacheDir(ctx.Root, r); pathExists(dir) {
			dirs = append(dirs, dir)
		}
	}

	check := []string{"check"}
	if fix {
		check = append(check, "--fix")
	}
	var dirty []string
	for _, dir := range dirs {
		p.Step("Checking %s", dir)
		_, err := runner.Run(cmd.Context(), shell.Cmd{
			Name:   "ruff",
			Args:   append(append([]string{}, check...), dir),
			Env:    ctx.Environ(),
			Stdout: cmd.OutOrStdout(),
			Stderr: cmd.ErrOrStderr(),
		})
		if shell.IsNotFound(err) {
			return systemErr("ruff is not installed", err)
		}
		if err != nil {
			p.Warn("Issues found in %s", dir)
			dirty = append(dirty, dir)
			continue
		}
		p.Success("%s clean", dir)
	}

	if format {
		for _, dir := range dirs {
			if _, err := runner.Run(cmd.Context(), shell.Cmd{Name: "ruff", Args: []string{"format", dir}, Env: ctx.Environ(),
				Stdout: cmd.OutOrStdout(), Stderr: cmd.ErrOrStderr()}); err != nil {
				p.Warn("Formatting %s failed: %v", dir, err)
			}
		}
		p.Success("Code formatted")
	}
	if len(dirty) > 0 {
		return output.NewUserError("lint issues in %s", plural(len(dirty), "directory", "directories"))
	}
	return nil
}
