package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/diverso-lab/splent-cli/internal/compose"
	"github.com/diverso-lab/splent-cli/internal/output"
	"github.com/diverso-lab/splent-cli/internal/shell"
)

// containerWorkspace is where product containers mount the workspace.
const containerWorkspace = "/workspace"

func newProductRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product:run",
		Short: "Run the product entrypoint inside its main container",
		Long: `Run entrypoints/entrypoint.<env>.sh in the product container that mounts
the workspace, or the first product container. Without running
containers the entrypoint runs locally.`,
		Args: cobra.NoArgs,
		RunE: runProductRun,
	}
	envFlags(cmd)
	return cmd
}

func runProductRun(cmd *cobra.Command, _ []string) error {
	ctx, err := loadContext(cmd)
	if err != nil {
		return err
	}
	productDir, err := ctx.RequireProduct()
	if err != nil {
		return err
	}
	env, err := resolveEnv(cmd, ctx)
	if err != nil {
		return err
	}
	p := newPrinter(cmd)

	entrypoint := filepath.Join(productDir, "entrypoints", "entrypoint."+env+".sh")
	if !pathExists(entrypoint) {
		return output.NewUserError("entrypoint not found: %s", entrypoint)
	}
	dockerDir := filepath.Join(productDir, "docker")

	dc := newCompose(cmd, ctx)
	var ids []string
	if file, err := compose.ResolveFile(dockerDir, env); err == nil {
		ids, err = dc.PS(cmd.Context(), dockerDir, compose.ProjectName(ctx.App, env), file)
		if err != nil {
			p.Warn("Could not list containers: %v", err)
		}
	}

	if id := dc.PickContainer(cmd.Context(), ids, containerWorkspace); id != "" {
		rel, err := filepath.Rel(ctx.Root, entrypoint)
		if err != nil {
			return systemErr("locating entrypoint", err)
		}
		inContainer := filepath.ToSlash(filepath.Join(containerWorkspace, rel))
		p.Info("Executing entrypoint (%s) in container %s", env, shortID(id))
		if err := dc.Exec(cmd.Context(), id, "bash", "-lc", "bash "+inContainer); err != nil {
			return systemErr("entrypoint failed", err)
		}
		return nil
	}

	p.Warn("No containers found, running locally (%s)", env)
	_, err = runner.Run(cmd.Context(), shell.Cmd{
		Name:   "bash",
		Args:   []string{entrypoint},
		Dir:    dockerDir,
		Env:    ctx.Environ(),
		Stdin:  cmd.InOrStdin(),
		Stdout: cmd.OutOrStdout(),
		Stderr: cmd.ErrOrStderr(),
	})
	return systemErr("entrypoint failed", err)
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
