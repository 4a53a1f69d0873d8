package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/diverso-lab/splent-cli/internal/envfile"
	"github.com/diverso-lab/splent-cli/internal/output"
)

// newProductSelectCmd builds the select command under use, so it can be
// registered both as product:select and as the top-level select.
func newProductSelectCmd(use string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " <product>",
		Short: "Select the active product",
		Long: `Record the product as SPLENT_APP in the workspace .env. With --shell, print
the commands that apply the selection to the current shell, for use with
eval "$(splent select <product> --shell)".`,
		Args: cobra.ExactArgs(1),
		RunE: runProductSelect,
	}
	cmd.Flags().Bool("shell", false, "Print shell commands to apply the selection")
	return cmd
}

func newSelectCmd() *cobra.Command {
	return newProductSelectCmd("select")
}

func runProductSelect(cmd *cobra.Command, args []string) error {
	app := args[0]
	ctx, err := loadContext(cmd)
	if err != nil {
		return err
	}
	dir := ctx.ProductDir(app)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return output.NewUserError("product %q not found in %s", app, ctx.Root)
	}

	path := ctx.EnvPath()
	env, err := envfile.ReadOrEmpty(path)
	if err != nil {
		return systemErr("reading "+path, err)
	}
	env.Set("SPLENT_APP", app)
	if err := env.Write(path); err != nil {
		return systemErr("writing "+path, err)
	}

	if shell, _ := cmd.Flags().GetBool("shell"); shell {
		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "export SPLENT_APP=%s\n", app)
		_, _ = fmt.Fprintf(out, "source %s\n", path)
		_, _ = fmt.Fprintln(out, "type set_prompt >/dev/null 2>&1 && set_prompt || true")
		return nil
	}
	p := newPrinter(cmd)
	if p.IsJSON() {
		return p.WriteJSON(map[string]string{"app": app, "env_file": path})
	}
	p.Success("Active product: %s", app)
	p.Info("Run 'source %s' to load it in this shell", path)
	return nil
}
