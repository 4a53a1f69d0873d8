package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/diverso-lab/splent-cli/internal/feature"
	"github.com/diverso-lab/splent-cli/internal/output"
	"github.com/diverso-lab/splent-cli/internal/shell"
)

func newWebpackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webpack:compile [feature]",
		Short: "Compile the webpack assets of one or every feature",
		Long: `Run webpack over src/<ns>/<feature>/assets/js/webpack.config.js of each
declared feature, or only of the named one. The mode is production when
FLASK_ENV=production, development otherwise.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runWebpack,
	}
	cmd.Flags().Bool("watch", false, "Keep webpack running in watch mode, in the background")
	return cmd
}

func runWebpack(cmd *cobra.Command, args []string) error {
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
	if len(args) == 1 {
		arg, err := parseRef(ctx, args[0])
		if err != nil {
			return err
		}
		r, ok := proj.FindByName(arg.Name, ctx.DefaultNamespace())
		if !ok {
			return output.NewUserError("feature %s is not declared in %s", arg.Name, ctx.App)
		}
		refs = []feature.Ref{r}
	}
	watch, _ := cmd.Flags().GetBool("watch")
	production := ctx.Getenv("FLASK_ENV") == "production"
	mode := "development"
	if production {
		mode = "production"
	}
	p := newPrinter(cmd)

	var failed []string
	for _, r := range refs {
		config, ok := webpackConfig(ctx.Root, productDir, r)
		if !ok {
			p.Warn("No webpack.config.js found in %s, skipping", r)
			continue
		}
		argv := []string{"webpack", "--config", config, "--mode", mode}
		if watch && !production {
			argv = append(argv, "--watch")
		}
		if !production {
			argv = append(argv, "--devtool=source-map", "--no-cache")
		}
		argv = append(argv, "--color")
		c := shell.Cmd{Name: "npx", Args: argv, Dir: productDir, Env: ctx.Environ()}

		if watch {
			if err := runner.Start(c); err != nil {
				p.Warn("Could not start webpack for %s: %v", r, err)
				failed = append(failed, r.String())
				continue
			}
			p.Info("Watching %s in %s mode", r, mode)
			continue
		}
		p.Step("Compiling %s", r)
		c.Stdout, c.Stderr = cmd.OutOrStdout(), cmd.ErrOrStderr()
		if _, err := runner.Run(cmd.Context(), c); err != nil {
			p.Warn("Error compiling %s: %v", r, err)
			failed = append(failed, r.String())
			continue
		}
		p.Success("Compiled %s in %s mode", r, mode)
	}
	return failedItems("webpack builds", failed)
}

// webpackConfig finds the webpack config of r through the product link,
// then in the cache.
func webpackConfig(root, productDir string, r feature.Ref) (string, bool) {
	rel := filepath.Join("src", r.SafeNamespace(), r.Name, "assets", "js", "webpack.config.js")
	for _, dir := range []string{feature.LinkPath(productDir, r), feature.CacheDir(root, r)} {
		if p := filepath.Join(dir, rel); pathExists(p) {
			return p, true
		}
	}
	return "", false
}
