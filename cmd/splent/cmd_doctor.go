package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/diverso-lab/splent-cli/internal/feature"
	"github.com/diverso-lab/splent-cli/internal/git"
	"github.com/diverso-lab/splent-cli/internal/manifest"
	"github.com/diverso-lab/splent-cli/internal/output"
	"github.com/diverso-lab/splent-cli/internal/shell"
	"github.com/diverso-lab/splent-cli/internal/ui"
	"github.com/diverso-lab/splent-cli/internal/workspace"
)

type checkStatus string

const (
	checkPass checkStatus = "pass"
	checkWarn checkStatus = "warn"
	checkFail checkStatus = "fail"
)

type checkResult struct {
	Name    string      `json:"name"`
	Status  checkStatus `json:"status"`
	Message string      `json:"message"`
	Hint    string      `json:"hint,omitempty"`
}

type doctorSummary struct {
	Passed   int `json:"passed"`
	Warnings int `json:"warnings"`
	Failed   int `json:"failed"`
}

// doctorResult holds the checks of every phase. Later phases are empty when
// an earlier one could not find what they inspect.
type doctorResult struct {
	Version     string        `json:"version"`
	Environment []checkResult `json:"environment"`
	Pyproject   []checkResult `json:"pyproject"`
	Features    []checkResult `json:"features"`
	Symlinks    []checkResult `json:"symlinks"`
	Summary     doctorSummary `json:"summary"`
}

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose the workspace, the active product and its features",
		Long: `Run consistency checks in four phases:
  ENVIRONMENT  - git, docker and docker compose; the active product
  PYPROJECT    - the product pyproject.toml and its features list
  FEATURES     - each declared feature in the cache and its package layout
  SYMLINKS     - each product feature link and its target

Exits with code 2 when any check fails.`,
		Args: cobra.NoArgs,
		RunE: runDoctor,
	}
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	ctx, err := loadContext(cmd)
	if err != nil {
		return err
	}
	p := newPrinter(cmd)
	result := gatherDoctorChecks(cmd, ctx)

	if p.IsJSON() {
		if err := p.WriteJSON(result); err != nil {
			return err
		}
	} else {
		if err := outputDoctorHuman(p, cmd.OutOrStdout(), result); err != nil {
			return err
		}
	}
	if result.Summary.Failed > 0 {
		return output.NewSystemError("%s failed", plural(result.Summary.Failed, "check", "checks")).
			WithHint("review your SPLENT workspace")
	}
	return nil
}

func gatherDoctorChecks(cmd *cobra.Command, ctx *workspace.Context) *doctorResult {
	result := &doctorResult{Version: version}
	result.Environment = environmentChecks(cmd, ctx)

	productDir, proj, checks := pyprojectChecks(ctx)
	result.Pyproject = checks
	if proj != nil {
		refs, err := proj.Refs(ctx.DefaultNamespace())
		switch {
		case err != nil:
			result.Features = []checkResult{{Name: "features", Status: checkFail, Message: err.Error()}}
		case len(refs) == 0:
			result.Features = []checkResult{{Name: "features", Status: checkWarn, Message: "no features declared"}}
		default:
			result.Features = featureChecks(ctx, refs)
			result.Symlinks = symlinkChecks(ctx, productDir, refs)
		}
	}

	for _, phase := range [][]checkResult{result.Environment, result.Pyproject, result.Features, result.Symlinks} {
		for _, c := range phase {
			switch c.Status {
			case checkPass:
				result.Summary.Passed++
			case checkWarn:
				result.Summary.Warnings++
			case checkFail:
				result.Summary.Failed++
			}
		}
	}
	return result
}

func environmentChecks(cmd *cobra.Command, ctx *workspace.Context) []checkResult {
	var checks []checkResult
	if v, err := git.Version(); err == nil {
		checks = append(checks, checkResult{Name: "git", Status: checkPass, Message: v})
	} else {
		checks = append(checks, checkResult{Name: "git", Status: checkFail, Message: "git not found", Hint: "install git"})
	}

	if _, ok := shell.LookPath("docker"); !ok {
		checks = append(checks, checkResult{Name: "docker", Status: checkWarn, Message: "docker not found",
			Hint: "product:up, product:down and product:deploy need docker"})
	} else {
		checks = append(checks, checkResult{Name: "docker", Status: checkPass, Message: "docker found"})
		res, err := runner.Run(cmd.Context(), shell.Cmd{Name: "docker", Args: []string{"compose", "version", "--short"}, Env: ctx.Environ()})
		if err != nil {
			checks = append(checks, checkResult{Name: "compose", Status: checkWarn, Message: "docker compose not available",
				Hint: "install the docker compose plugin"})
		} else {
			checks = append(checks, checkResult{Name: "compose", Status: checkPass, Message: "docker compose " + string(bytes.TrimSpace(res.Stdout))})
		}
	}

	if ctx.App == "" {
		return append(checks, checkResult{Name: "app", Status: checkFail, Message: "SPLENT_APP not set",
			Hint: "run 'splent product:select <product>'"})
	}
	dir := ctx.ProductDir(ctx.App)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return append(checks, checkResult{Name: "app", Status: checkFail, Message: "product folder not found: " + dir})
	}
	layout := "flat layout"
	if pathExists(filepath.Join(dir, "src")) {
		layout = "with src/"
	}
	return append(checks, checkResult{Name: "app", Status: checkPass, Message: fmt.Sprintf("active product %s (%s)", ctx.App, layout)})
}

func pyprojectChecks(ctx *workspace.Context) (string, *manifest.Project, []checkResult) {
	if ctx.App == "" {
		return "", nil, []checkResult{{Name: "pyproject", Status: checkFail, Message: "cannot continue without SPLENT_APP"}}
	}
	dir := ctx.ProductDir(ctx.App)
	path := manifest.Path(dir)
	if !pathExists(path) {
		return "", nil, []checkResult{{Name: "pyproject", Status: checkFail, Message: "pyproject.toml missing"}}
	}
	proj, err := manifest.Load(path)
	if err != nil {
		return "", nil, []checkResult{{Name: "pyproject", Status: checkFail, Message: "invalid pyproject.toml: " + err.Error()}}
	}
	if proj.Fallback {
		return dir, proj, []checkResult{{Name: "pyproject", Status: checkWarn, Message: "pyproject.toml is not valid TOML, features recovered by pattern",
			Hint: "fix the TOML syntax of " + path}}
	}
	return dir, proj, []checkResult{{Name: "pyproject", Status: checkPass, Message: "pyproject.toml parsed successfully"}}
}

func featureChecks(ctx *workspace.Context, refs []feature.Ref) []checkResult {
	if !pathExists(ctx.CacheRoot()) {
		return []checkResult{{Name: "cache", Status: checkFail, Message: ".splent_cache/features not found",
			Hint: "run 'splent product:sync'"}}
	}
	checks := make([]checkResult, 0, len(refs))
	for _, r := range refs {
		dir := feature.CacheDir(ctx.Root, r)
		name := r.String()
		kind := "cache"
		if r.Editable() {
			kind = "editable checkout"
		}
		switch {
		case !pathExists(dir):
			checks = append(checks, checkResult{Name: name, Status: checkFail, Message: "missing in " + kind})
		case !pathExists(feature.PackageDir(dir, r)):
			checks = append(checks, checkResult{Name: name, Status: checkFail, Message: "missing package structure",
				Hint: "expected " + filepath.Join("src", r.SafeNamespace(), r.Name)})
		case !pathExists(filepath.Join(dir, manifest.FileName)):
			checks = append(checks, checkResult{Name: name, Status: checkWarn, Message: "missing pyproject.toml"})
		default:
			checks = append(checks, checkResult{Name: name, Status: checkPass, Message: "OK in " + kind})
		}
	}
	return checks
}

func symlinkChecks(ctx *workspace.Context, productDir string, refs []feature.Ref) []checkResult {
	checks := make([]checkResult, 0, len(refs))
	for _, r := range refs {
		state := feature.CheckLink(feature.LinkPath(productDir, r), feature.CacheDir(ctx.Root, r))
		c := checkResult{Name: r.String(), Status: checkFail, Message: "link " + state.String()}
		switch state {
		case feature.LinkOK:
			c.Status = checkPass
		case feature.LinkMissing, feature.LinkBroken, feature.LinkWrongTarget:
			c.Hint = "run 'splent product:sync'"
		}
		checks = append(checks, c)
	}
	return checks
}

func outputDoctorHuman(p *output.Printer, out io.Writer, result *doctorResult) error {
	p.Println()
	p.Print("splent doctor %s\n", result.Version)
	sections := []struct {
		title  string
		checks []checkResult
	}{
		{"ENVIRONMENT", result.Environment},
		{"PYPROJECT", result.Pyproject},
		{"FEATURES", result.Features},
		{"SYMLINKS", result.Symlinks},
	}
	for _, s := range sections {
		if err := printCheckSection(p, out, s.title, s.checks); err != nil {
			return err
		}
	}

	p.Println()
	p.Print("%s %d passed  %s %d warnings  %s %d failed\n",
		statusIcon(checkPass), result.Summary.Passed,
		statusIcon(checkWarn), result.Summary.Warnings,
		statusIcon(checkFail), result.Summary.Failed,
	)
	return nil
}

// printCheckSection renders one phase as a table. A hint goes on its own
// row under the check it belongs to.
func printCheckSection(p *output.Printer, out io.Writer, title string, checks []checkResult) error {
	if len(checks) == 0 {
		return nil
	}
	p.Println()
	t := ui.NewTable(out, p.IsTTY(), title, "CHECK", "MESSAGE")
	for _, c := range checks {
		t.Row(statusIcon(c.Status), c.Name, c.Message)
		if c.Hint != "" {
			t.Row("", "", "-> "+c.Hint)
		}
	}
	return t.Flush()
}

func statusIcon(status checkStatus) string {
	switch status {
	case checkPass:
		return "ok"
	case checkWarn:
		return "!!"
	case checkFail:
		return "XX"
	default:
		return "??"
	}
}
