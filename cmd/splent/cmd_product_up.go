package main

import (
	"slices"

	"github.com/spf13/cobra"

	"github.com/diverso-lab/splent-cli/internal/compose"
	"github.com/diverso-lab/splent-cli/internal/output"
)

func newProductUpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product:up",
		Short: "Start the product and its features with docker compose",
		Long: `Start every feature that ships a docker-compose file, in declared order,
then the product itself. Each one runs as its own compose project.`,
		Args: cobra.NoArgs,
		RunE: runProductUp,
	}
	envFlags(cmd)
	return cmd
}

func runProductUp(cmd *cobra.Command, _ []string) error {
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
	units, err := stackUnits(ctx, productDir, proj)
	if err != nil {
		return err
	}
	p := newPrinter(cmd)
	dc := newCompose(cmd, ctx)

	p.Title("Starting %s (%s)", ctx.App, env)
	var failed []string
	for _, u := range units {
		file, ok, err := composeFile(u, env)
		if err != nil {
			return systemErr("resolving compose file", err)
		}
		if !ok {
			p.Warn("No docker-compose file for %s", u.Label)
			continue
		}
		if err := dc.Up(cmd.Context(), u.DockerDir, compose.ProjectName(u.Label, env), file); err != nil {
			p.Warn("%s: failed to start: %v", u.Label, err)
			failed = append(failed, u.Label)
			continue
		}
		p.Success("%s: started", u.Label)
	}
	return failedItems("services", failed)
}

func newProductDownCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product:down",
		Short: "Stop the product and its features",
		Long: `Stop the product first, then its features in reverse order. With -v the
compose volumes are removed as well, which asks for confirmation.`,
		Args: cobra.NoArgs,
		RunE: runProductDown,
	}
	envFlags(cmd)
	cmd.Flags().BoolP("volumes", "v", false, "Also remove volumes")
	cmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func runProductDown(cmd *cobra.Command, _ []string) error {
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
	volumes, _ := cmd.Flags().GetBool("volumes")
	yes, _ := cmd.Flags().GetBool("yes")

	title := "Stop " + ctx.App + " and its features?"
	if volumes {
		title = "Stop " + ctx.App + " and remove ALL its docker volumes?"
	}
	ok, err := confirm(yes, "--yes", title)
	if err != nil {
		return err
	}
	if !ok {
		return output.NewUserError("aborted")
	}

	units, err := stackUnits(ctx, productDir, proj)
	if err != nil {
		return err
	}
	slices.Reverse(units)
	p := newPrinter(cmd)
	dc := newCompose(cmd, ctx)

	var failed []string
	for _, u := range units {
		file, ok, err := composeFile(u, env)
		if err != nil {
			return systemErr("resolving compose file", err)
		}
		if !ok {
			continue
		}
		if err := dc.Down(cmd.Context(), u.DockerDir, compose.ProjectName(u.Label, env), file, volumes); err != nil {
			p.Warn("%s: failed to stop: %v", u.Label, err)
			failed = append(failed, u.Label)
			continue
		}
		p.Success("%s: stopped", u.Label)
	}
	return failedItems("services", failed)
}
