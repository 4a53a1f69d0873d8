package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/diverso-lab/splent-cli/internal/feature"
	"github.com/diverso-lab/splent-cli/internal/output"
	"github.com/diverso-lab/splent-cli/internal/shell"
)

func newPytestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test [feature]",
		Short: "Run pytest over the features of the active product",
		Long: `Run pytest in the src directory of every declared feature that has a
src/<ns>/<feature>/tests package, or only of the named one. Every feature
runs even when an earlier one fails.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runPytest,
	}
	cmd.Flags().StringP("keyword", "k", "", "Only run tests matching the keyword expression")
	return cmd
}

func runPytest(cmd *cobra.Command, args []string) error {
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
	keyword, _ := cmd.Flags().GetString("keyword")
	p := newPrinter(cmd)

	var suites []feature.Ref
	for _, r := range refs {
		if pathExists(filepath.Join(feature.PackageDir(feature.LinkPath(productDir, r), r), "tests")) {
			suites = append(suites, r)
		}
	}
	if len(suites) == 0 {
		p.Warn("No test directories found")
		return nil
	}
	p.Info("Found %s", plural(len(suites), "test directory", "test directories"))

	argv := []string{"-v", "--rootdir=.", "--ignore-glob=*selenium*", "-W", "ignore::DeprecationWarning"}
	if keyword != "" {
		argv = append(argv, "-k", keyword)
	}
	var failed []string
	for _, r := range suites {
		src := filepath.Join(feature.LinkPath(productDir, r), "src")
		p.Step("Testing %s", r)
		_, err := runner.Run(cmd.Context(), shell.Cmd{
			Name:   "pytest",
			Args:   argv,
			Dir:    src,
			Env:    append(ctx.Environ(), "PYTHONPATH="+src),
			Stdout: cmd.OutOrStdout(),
			Stderr: cmd.ErrOrStderr(),
		})
		if err != nil {
			p.Warn("Tests failed in %s: %v", r, err)
			failed = append(failed, r.String())
		}
	}
	if len(failed) > 0 {
		return output.NewUserError("tests failed in %s", plural(len(failed), "feature", "features"))
	}
	return nil
}
