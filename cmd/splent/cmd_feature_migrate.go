package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diverso-lab/splent-cli/internal/feature"
)

func newFeatureMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "feature:migrate-structure",
		Short: "Nest cached feature code under its organization package",
		Long: `Move src/<feature>/ to src/<org>/<feature>/ for every cached feature still
using the flat layout. Features with more than one candidate package are
left alone.`,
		Args: cobra.NoArgs,
		RunE: runFeatureMigrate,
	}
}

type migrateReport struct {
	Migrated  []string `json:"migrated"`
	Skipped   []string `json:"skipped"`
	Ambiguous []string `json:"ambiguous"`
}

func runFeatureMigrate(cmd *cobra.Command, _ []string) error {
	ctx, err := loadContext(cmd)
	if err != nil {
		return err
	}
	p := newPrinter(cmd)

	cached, err := feature.ScanCache(ctx.Root)
	if err != nil {
		return systemErr("scanning the feature cache", err)
	}
	rep := migrateReport{Migrated: []string{}, Skipped: []string{}, Ambiguous: []string{}}
	var failed []string
	for _, c := range cached {
		label := c.Ref.Namespace + "/" + c.Ref.DirName()
		src := filepath.Join(c.Dir, "src")
		if !pathExists(src) {
			continue
		}
		org := c.Ref.Namespace
		if pathExists(filepath.Join(src, org)) {
			rep.Skipped = append(rep.Skipped, label)
			continue
		}
		pkg, ok := soleSourcePackage(src)
		if !ok {
			p.Warn("Ambiguous src layout in %s, skipping", label)
			rep.Ambiguous = append(rep.Ambiguous, label)
			continue
		}
		if !p.IsJSON() {
			p.Step("Moving %s: %s/ -> %s/%s/", label, pkg, org, pkg)
		}
		if err := nestPackage(src, org, pkg); err != nil {
			p.Warn("Could not migrate %s: %v", label, err)
			failed = append(failed, label)
			continue
		}
		rep.Migrated = append(rep.Migrated, label)
	}

	if p.IsJSON() {
		if err := p.WriteJSON(rep); err != nil {
			return err
		}
		return failedItems("migrations", failed)
	}
	if len(rep.Migrated) > 0 {
		p.Success("Structure migration complete: %s reorganized", plural(len(rep.Migrated), "feature", "features"))
	} else {
		p.Info("No features required structure migration")
	}
	if len(rep.Skipped) > 0 {
		p.Info("Already migrated: %s", strings.Join(rep.Skipped, ", "))
	}
	return failedItems("migrations", failed)
}

func nestPackage(src, org, pkg string) error {
	if err := os.MkdirAll(filepath.Join(src, org), 0o755); err != nil {
		return err
	}
	return os.Rename(filepath.Join(src, pkg), filepath.Join(src, org, pkg))
}

// soleSourcePackage returns the only non-dunder directory under src.
func soleSourcePackage(src string) (string, bool) {
	entries, err := os.ReadDir(src)
	if err != nil {
		return "", false
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), "__") {
			dirs = append(dirs, e.Name())
		}
	}
	if len(dirs) != 1 {
		return "", false
	}
	return dirs[0], true
}
