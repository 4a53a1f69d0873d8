// Package config loads the per-user splent configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const (
	DefaultNamespace = "splent-io"
	DefaultEnv       = "dev"
	DefaultGitHubAPI = "https://api.github.com"
)

// Config holds user-level defaults. Environment variables and flags win.
type Config struct {
	DefaultNamespace string `toml:"default_namespace"`
	UseSSH           bool   `toml:"use_ssh"`
	Env              string `toml:"env"`
	Jobs             int    `toml:"jobs"`
	GitHubAPI        string `toml:"github_api"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DefaultNamespace: DefaultNamespace,
		Env:              DefaultEnv,
		Jobs:             1,
		GitHubAPI:        DefaultGitHubAPI,
	}
}

// Dir returns the splent configuration directory.
//
// Resolution:
//   - $SPLENT_CONFIG_HOME if set
//   - $XDG_CONFIG_HOME/splent if set
//   - %AppData%/splent on Windows
//   - ~/.config/splent elsewhere
func Dir() string {
	if dir := os.Getenv("SPLENT_CONFIG_HOME"); dir != "" {
		return dir
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "splent")
	}
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "splent")
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "splent")
}

// Path returns the location of config.toml, or "" when no directory resolves.
func Path() string {
	dir := Dir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.toml")
}

// Load reads config.toml from Dir. A missing file yields the defaults.
func Load() (Config, error) {
	return LoadFile(Path())
}

// LoadFile reads a config file, filling unset fields with defaults.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // user config path
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}

	var raw Config
	if err := toml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	merge(&cfg, raw)
	if err := validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func merge(cfg *Config, raw Config) {
	if ns := strings.TrimSpace(raw.DefaultNamespace); ns != "" {
		cfg.DefaultNamespace = ns
	}
	if env := strings.TrimSpace(raw.Env); env != "" {
		cfg.Env = env
	}
	if raw.Jobs > 0 {
		cfg.Jobs = raw.Jobs
	}
	if api := strings.TrimSpace(raw.GitHubAPI); api != "" {
		cfg.GitHubAPI = strings.TrimRight(api, "/")
	}
	cfg.UseSSH = raw.UseSSH
}

func validate(cfg Config) error {
	if cfg.Env != "dev" && cfg.Env != "prod" {
		return fmt.Errorf("env must be dev or prod (got %q)", cfg.Env)
	}
	if strings.ContainsAny(cfg.DefaultNamespace, `/\@ `) {
		return fmt.Errorf("invalid default_namespace %q", cfg.DefaultNamespace)
	}
	return nil
}
