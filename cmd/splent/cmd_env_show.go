package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/diverso-lab/splent-cli/internal/envfile"
	"github.com/diverso-lab/splent-cli/internal/output"
)

func newEnvShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "env:show",
		Short: "Compare the workspace .env with the current shell environment",
		Args:  cobra.NoArgs,
		RunE:  runEnvShow,
	}
}

type envVarState struct {
	Key    string `json:"key"`
	Status string `json:"status"`
	File   string `json:"file"`
	Shell  string `json:"shell,omitempty"`
}

const (
	envNotLoaded = "not loaded"
	envLoaded    = "loaded"
	envDiffers   = "differs"
)

func runEnvShow(cmd *cobra.Command, _ []string) error {
	ctx, err := loadContext(cmd)
	if err != nil {
		return err
	}
	path := ctx.EnvPath()
	if !pathExists(path) {
		return output.NewUserError("no .env file found at %s", path)
	}
	env, err := envfile.Read(path)
	if err != nil {
		return systemErr("reading "+path, err)
	}
	p := newPrinter(cmd)

	states := make([]envVarState, 0, env.Len())
	for _, key := range env.Keys() {
		fileValue, _ := env.Get(key)
		s := envVarState{Key: key, File: envfile.Mask(key, fileValue)}
		current := os.Getenv(key)
		switch {
		case current == "":
			s.Status = envNotLoaded
		case current == fileValue:
			s.Status = envLoaded
		default:
			s.Status = envDiffers
			s.Shell = envfile.Mask(key, current)
		}
		states = append(states, s)
	}

	if p.IsJSON() {
		return p.WriteJSON(states)
	}
	p.Info("Reading variables from %s", path)
	for _, s := range states {
		switch s.Status {
		case envNotLoaded:
			p.Warn("%s not loaded", s.Key)
			p.Step(".env:  %s", s.File)
		case envLoaded:
			p.Success("%s = %s", s.Key, s.File)
		default:
			p.Warn("%s loaded but differs", s.Key)
			p.Step("shell: %s", s.Shell)
			p.Step(".env:  %s", s.File)
		}
	}
	p.Info("Reload them with: source %s", path)
	return nil
}
