package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diverso-lab/splent-cli/internal/feature"
	"github.com/diverso-lab/splent-cli/internal/github"
	"github.com/diverso-lab/splent-cli/internal/output"
	"github.com/diverso-lab/splent-cli/internal/shell"
	"github.com/diverso-lab/splent-cli/internal/workspace"
)

// runner executes docker, python and node tooling. Tests swap it for a
// shell.Recorder.
var runner shell.Runner = shell.ExecRunner{}

// loadContext resolves the workspace from --workspace, --app and the
// environment.
func loadContext(cmd *cobra.Command) (*workspace.Context, error) {
	root, _ := cmd.Flags().GetString("workspace")
	app, _ := cmd.Flags().GetString("app")
	return workspace.Load(workspace.Options{Root: root, App: app})
}

// newPrinter builds the output printer for cmd, honouring --json and --color.
func newPrinter(cmd *cobra.Command) *output.Printer {
	out := cmd.OutOrStdout()
	mode, _ := cmd.Flags().GetString("color")
	styled := output.ResolveColorMode(mode, output.IsTTY(out))
	return output.NewPrinter(out, isJSONMode(cmd), styled).WithStderr(cmd.ErrOrStderr())
}

func newGitHubClient(ctx *workspace.Context) *github.Client {
	return github.NewClient(ctx.GitHubAPI(), ctx.GitHubToken(), "splent-cli/"+version)
}

// parseRef parses a feature argument with the workspace default namespace.
func parseRef(ctx *workspace.Context, arg string) (feature.Ref, error) {
	r, err := feature.Parse(arg, ctx.DefaultNamespace())
	if err != nil {
		return feature.Ref{}, output.NewUserError("%v", err)
	}
	return r, nil
}

// envFlags registers --dev and --prod.
func envFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("dev", false, "Use the development environment")
	cmd.Flags().Bool("prod", false, "Use the production environment")
}

func resolveEnv(cmd *cobra.Command, ctx *workspace.Context) (string, error) {
	dev, _ := cmd.Flags().GetBool("dev")
	prod, _ := cmd.Flags().GetBool("prod")
	return ctx.ResolveEnv(dev, prod)
}

// systemErr wraps untyped failures as system errors and leaves ExitErrors
// untouched.
func systemErr(message string, err error) error {
	if err == nil {
		return nil
	}
	var exitErr *output.ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	return output.NewSystemErrorWithCause(message, err)
}

// failedItems turns a non-empty list of failed labels into a system error.
func failedItems(what string, failed []string) error {
	if len(failed) == 0 {
		return nil
	}
	return output.NewSystemError("%d %s failed: %s", len(failed), what, strings.Join(failed, ", "))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
