package main

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/diverso-lab/splent-cli/internal/manifest"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the CLI version and the active product",
		Args:  cobra.NoArgs,
		RunE:  runVersion,
	}
}

type versionInfo struct {
	CLI     string       `json:"cli"`
	Commit  string       `json:"commit"`
	Date    string       `json:"date"`
	App     *productInfo `json:"app"`
	Runtime string       `json:"runtime"`
}

type productInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

func runVersion(cmd *cobra.Command, _ []string) error {
	info := versionInfo{CLI: version, Commit: commit, Date: date, Runtime: runtime.Version()}
	// A broken workspace still gets a version line.
	if ctx, err := loadContext(cmd); err == nil && ctx.App != "" {
		info.App = &productInfo{Name: ctx.App}
		if proj, err := manifest.Load(ctx.PyprojectPath()); err == nil {
			info.App.Version = proj.Version
		}
	}

	p := newPrinter(cmd)
	if p.IsJSON() {
		return p.WriteJSON(info)
	}
	p.Print("CLI version: %s\n", buildVersion())
	switch {
	case info.App == nil:
		p.Print("Active product: (not selected)\n")
	case info.App.Version == "":
		p.Print("Active product: %s (no version)\n", info.App.Name)
	default:
		p.Print("Active product: %s %s\n", info.App.Name, info.App.Version)
	}
	p.Print("Go: %s %s/%s\n", info.Runtime, runtime.GOOS, runtime.GOARCH)
	return nil
}
