package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diverso-lab/splent-cli/internal/feature"
	"github.com/diverso-lab/splent-cli/internal/git"
	"github.com/diverso-lab/splent-cli/internal/github"
	"github.com/diverso-lab/splent-cli/internal/manifest"
	"github.com/diverso-lab/splent-cli/internal/output"
	"github.com/diverso-lab/splent-cli/internal/shell"
	"github.com/diverso-lab/splent-cli/internal/workspace"
)

func newFeatureReleaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feature:release <feature> <version>",
		Short: "Tag and publish a feature release",
		Long: `Bump the feature's pyproject version, commit and push pending changes,
create and push the annotated tag and publish a GitHub release.

--pypi also builds the package and uploads it with twine using PYPI_USERNAME
and PYPI_TOKEN. --attach pins the active product to the new version.`,
		Args: cobra.ExactArgs(2),
		RunE: runFeatureRelease,
	}
	cmd.Flags().Bool("attach", false, "Attach the released version to the active product")
	cmd.Flags().Bool("pypi", false, "Build and upload the package to PyPI")
	cmd.Flags().Bool("yes", false, "Commit local changes without asking")
	return cmd
}

func runFeatureRelease(cmd *cobra.Command, args []string) error {
	ctx, err := loadContext(cmd)
	if err != nil {
		return err
	}
	p := newPrinter(cmd)
	attach, _ := cmd.Flags().GetBool("attach")
	pypi, _ := cmd.Flags().GetBool("pypi")
	yes, _ := cmd.Flags().GetBool("yes")

	base, err := parseRef(ctx, args[0])
	if err != nil {
		return err
	}
	tag := args[1]
	r := base.WithVersion(tag)

	var twineEnv []string
	if pypi {
		if twineEnv, err = pypiCredentials(ctx); err != nil {
			return err
		}
	}

	dir, ok := releaseDir(ctx, r)
	if !ok {
		return output.NewUserError("feature %s not found in cache", base.Unversioned())
	}
	p.Title("Releasing %s %s from %s", base.Unversioned(), tag, dir)

	if err := bumpVersion(dir, tag); err != nil {
		return err
	}
	p.Info("pyproject.toml version -> %s", strings.TrimPrefix(tag, "v"))

	if err := commitPending(p, dir, tag, yes); err != nil {
		return err
	}
	if err := tagAndPush(p, dir, tag); err != nil {
		return err
	}
	publishRelease(cmd, ctx, p, dir, r)

	if pypi {
		if err := uploadPyPI(cmd, dir, twineEnv); err != nil {
			return err
		}
		p.Success("Uploaded %s to PyPI", r)
	}

	if attach {
		productDir, _, err := ctx.LoadProject()
		if err != nil {
			return err
		}
		if err := attachFeature(ctx, p, r, productDir); err != nil {
			return err
		}
	}
	p.Success("Released %s", r)
	return nil
}

// releaseDir returns the versioned checkout of r, else its editable one.
func releaseDir(ctx *workspace.Context, r feature.Ref) (string, bool) {
	for _, c := range []feature.Ref{r, r.Unversioned()} {
		if dir := feature.CacheDir(ctx.Root, c); pathExists(dir) {
			return dir, true
		}
	}
	return "", false
}

func bumpVersion(dir, tag string) error {
	path := filepath.Join(dir, manifest.FileName)
	data, err := os.ReadFile(path) //nolint:gosec // feature checkout
	if err != nil {
		return output.NewUserError("pyproject.toml not found in %s", dir)
	}
	updated, err := manifest.SetVersion(data, strings.TrimPrefix(tag, "v"))
	if err != nil {
		return output.NewUserError("%s: %v", path, err)
	}
	if err := os.WriteFile(path, updated, 0o644); err != nil { //nolint:gosec // pyproject is world-readable
		return systemErr("writing "+path, err)
	}
	return nil
}

func commitPending(p *output.Printer, dir, tag string, yes bool) error {
	status, err := git.StatusShort(dir)
	if err != nil {
		return systemErr("git status", err)
	}
	if strings.TrimSpace(status) == "" {
		p.Info("Working tree clean")
		return nil
	}
	p.Warn("Local changes:\n%s", strings.TrimRight(status, "\n"))
	ok, err := confirm(yes, "--yes", "Commit and push these changes before releasing?")
	if err != nil {
		return err
	}
	if !ok {
		return output.NewUserError("release cancelled: uncommitted changes")
	}
	if err := git.AddAll(dir); err != nil {
		return systemErr("git add", err)
	}
	if err := git.Commit(dir, "chore: bump version to "+tag); err != nil {
		return systemErr("git commit", err)
	}
	if err := git.Push(dir, "--set-upstream", "origin", fallbackBranch); err != nil {
		p.Warn("Could not push %s: %v", fallbackBranch, err)
		return nil
	}
	p.Info("Changes committed and pushed")
	return nil
}

func tagAndPush(p *output.Printer, dir, tag string) error {
	if err := git.FetchTags(dir); err != nil {
		p.Warn("Could not fetch tags: %v", err)
	}
	exists, err := git.TagExists(dir, tag)
	if err != nil {
		return systemErr("checking tag "+tag, err)
	}
	if exists {
		p.Warn("Tag %s already exists, not recreating it", tag)
	} else {
		if err := git.CreateAnnotatedTag(dir, tag, "Release "+tag); err != nil {
			return systemErr("creating tag "+tag, err)
		}
		p.Info("Tag %s created", tag)
	}
	if err := git.PushTag(dir, tag); err != nil {
		return systemErr("pushing tag "+tag, err)
	}
	p.Info("Tag %s pushed", tag)
	return nil
}

// publishRelease creates the GitHub release. Failures are reported but do
// not undo the pushed tag.
func publishRelease(cmd *cobra.Command, ctx *workspace.Context, p *output.Printer, dir string, r feature.Ref) {
	if ctx.GitHubToken() == "" {
		p.Warn("GITHUB_TOKEN not set, skipping the GitHub release")
		return
	}
	slug := r.Namespace + "/" + r.Name
	if remote, err := git.RemoteURL(dir); err == nil {
		if s, err := git.RepoSlug(remote); err == nil {
			slug = s
		}
	}
	rel, err := newGitHubClient(ctx).CreateRelease(cmd.Context(), slug, r.Version, r.Version)
	switch {
	case errors.Is(err, github.ErrReleaseExists):
		p.Warn("GitHub release %s already exists, skipping", r.Version)
	case err != nil:
		p.Warn("Failed to create the GitHub release: %v", err)
	default:
		p.Success("GitHub release created: %s", rel.HTMLURL)
	}
}

func pypiCredentials(ctx *workspace.Context) ([]string, error) {
	user := ctx.Getenv("PYPI_USERNAME")
	token := ctx.Getenv("PYPI_TOKEN")
	if user == "" || token == "" {
		return nil, output.NewUserError("PYPI_USERNAME and PYPI_TOKEN must be set for --pypi").
			WithHint("run 'splent env:set pypi'")
	}
	return append(ctx.Environ(), "TWINE_USERNAME="+user, "TWINE_PASSWORD="+token), nil
}

func uploadPyPI(cmd *cobra.Command, dir string, env []string) error {
	stream := shell.Cmd{Dir: dir, Env: env, Stdout: cmd.OutOrStdout(), Stderr: cmd.ErrOrStderr()}

	build := stream
	build.Name, build.Args = "python", []string{"-m", "build"}
	if _, err := runner.Run(cmd.Context(), build); err != nil {
		return systemErr("python -m build", err)
	}

	dists, _ := filepath.Glob(filepath.Join(dir, "dist", "*"))
	if len(dists) == 0 {
		return output.NewSystemError("build produced no files in %s", filepath.Join(dir, "dist"))
	}
	upload := stream
	upload.Name, upload.Args = "twine", append([]string{"upload"}, dists...)
	if _, err := runner.Run(cmd.Context(), upload); err != nil {
		return systemErr("twine upload", err)
	}
	return nil
}
