package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/diverso-lab/splent-cli/internal/feature"
	"github.com/diverso-lab/splent-cli/internal/manifest"
	"github.com/diverso-lab/splent-cli/internal/output"
	"github.com/diverso-lab/splent-cli/internal/workspace"
)

func newFeatureRenameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feature:rename <old> <new>",
		Short: "Rename a local editable feature",
		Long: `Rename an editable feature that is not a git checkout. The cache dir,
its Python package, imports and template paths are rewritten. When the
feature is active in the current product, its link and pyproject entry
follow.`,
		Args: cobra.ExactArgs(2),
		RunE: runFeatureRename,
	}
	cmd.Flags().StringP("namespace", "n", "", "Namespace (default: GITHUB_USER, then the default namespace)")
	return cmd
}

type renameSummary struct {
	Path             string `json:"path"`
	ModifiedFiles    int    `json:"modified_files"`
	Active           bool   `json:"active"`
	LinkUpdated      bool   `json:"link_updated"`
	PyprojectUpdated bool   `json:"pyproject_updated"`
}

func runFeatureRename(cmd *cobra.Command, args []string) error {
	oldName, newName := args[0], args[1]
	if strings.Contains(oldName, "@") || strings.Contains(newName, "@") {
		return output.NewUserError("versioned features cannot be renamed")
	}
	ctx, err := loadContext(cmd)
	if err != nil {
		return err
	}
	p := newPrinter(cmd)

	ns, _ := cmd.Flags().GetString("namespace")
	if ns == "" {
		ns = ctx.GitHubUser()
	}
	if ns == "" {
		ns = ctx.DefaultNamespace()
	}
	oldRef, err := feature.Parse(ns+"/"+oldName, "")
	if err != nil {
		return output.NewUserError("%v", err)
	}
	newRef, err := feature.Parse(ns+"/"+newName, "")
	if err != nil {
		return output.NewUserError("%v", err)
	}

	oldDir := feature.CacheDir(ctx.Root, oldRef)
	newDir := feature.CacheDir(ctx.Root, newRef)
	switch {
	case !pathExists(oldDir):
		return output.NewUserError("feature %s not found in namespace %s", oldRef.Name, oldRef.SafeNamespace())
	case pathExists(newDir):
		return output.NewConflictError("a feature named %s already exists in %s", newRef.Name, newRef.SafeNamespace())
	case pathExists(filepath.Join(oldDir, ".git")):
		return output.NewUserError("%s is a git checkout and cannot be renamed", oldRef)
	}

	sum := renameSummary{Path: newDir}
	productDir, proj := activeProduct(ctx)
	if proj != nil {
		if got, ok := proj.Find(oldRef, ctx.DefaultNamespace()); ok && got.Editable() {
			sum.Active = true
		}
	}

	if err := os.Rename(oldDir, newDir); err != nil {
		return systemErr("moving "+oldDir, err)
	}
	oldPkg := feature.PackageDir(newDir, oldRef)
	if pathExists(oldPkg) {
		if err := os.Rename(oldPkg, feature.PackageDir(newDir, newRef)); err != nil {
			return systemErr("moving "+oldPkg, err)
		}
	}
	nsSafe := oldRef.SafeNamespace()
	repl := strings.NewReplacer(
		nsSafe+"."+oldRef.Name, nsSafe+"."+newRef.Name,
		"templates/"+oldRef.Name+"/", "templates/"+newRef.Name+"/",
	)
	changed, err := replaceInFiles(newDir, []string{".py", ".html", ".toml", ".js"}, []string{"node_modules", "__pycache__"}, repl)
	if err != nil {
		return systemErr("rewriting references", err)
	}
	sum.ModifiedFiles = len(changed)

	if sum.Active {
		if ok, err := feature.Unlink(feature.LinkPath(productDir, oldRef)); err == nil && ok {
			if _, err := linkFeature(ctx, productDir, newRef); err != nil {
				return err
			}
			sum.LinkUpdated = true
		}
		if _, err := editProject(productDir, func(proj *manifest.Project) error {
			sum.PyprojectUpdated = renameEntry(proj, oldRef, newRef.Name, ctx.DefaultNamespace())
			return nil
		}); err != nil {
			p.Warn("Could not update pyproject.toml: %v", err)
		}
	}

	if p.IsJSON() {
		return p.WriteJSON(sum)
	}
	p.Success("Renamed %s -> %s", oldRef, newRef)
	p.Info("New path: %s", newDir)
	p.Step("Modified files:    %d", sum.ModifiedFiles)
	p.Step("Feature active:    %s", yesNo(sum.Active))
	p.Step("Link updated:      %s", yesNo(sum.LinkUpdated))
	p.Step("pyproject updated: %s", yesNo(sum.PyprojectUpdated))
	return nil
}

// activeProduct loads the selected product when there is one. Rename and
// other cache-level commands run without a product.
func activeProduct(ctx *workspace.Context) (string, *manifest.Project) {
	dir, err := ctx.RequireProduct()
	if err != nil {
		return "", nil
	}
	proj, err := manifest.Load(manifest.Path(dir))
	if err != nil {
		log.Debug().Err(err).Str("product", dir).Msg("active product has no readable pyproject")
		return dir, nil
	}
	return dir, proj
}

// renameEntry rewrites the editable entry of old in place, keeping the
// namespace spelling it was declared with.
func renameEntry(proj *manifest.Project, old feature.Ref, newName, defaultNS string) bool {
	for _, entry := range proj.Features {
		got, err := feature.Parse(entry, defaultNS)
		if err != nil || !feature.Equal(got, old) {
			continue
		}
		got.Name = newName
		return proj.ReplaceFeature(entry, got.String())
	}
	return false
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
