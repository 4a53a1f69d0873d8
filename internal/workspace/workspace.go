package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/diverso-lab/splent-cli/internal/config"
	"github.com/diverso-lab/splent-cli/internal/envfile"
	"github.com/diverso-lab/splent-cli/internal/feature"
	"github.com/diverso-lab/splent-cli/internal/manifest"
	"github.com/diverso-lab/splent-cli/internal/output"
)

// DefaultRoot is used when neither --workspace nor WORKING_DIR is set.
const DefaultRoot = "/workspace"

// Options override the environment during Load.
type Options struct {
	Root string // --workspace
	App  string // --app
	// Lookup reads the process environment. Defaults to os.LookupEnv.
	Lookup func(string) (string, bool)
}

// Context holds the resolved workspace for one command invocation.
type Context struct {
	Root   string
	App    string
	Config config.Config
	DotEnv *envfile.File

	lookup func(string) (string, bool)
}

// Load resolves the workspace root, reads <root>/.env and the user config,
// and determines the active product.
func Load(opts Options) (*Context, error) {
	lookup := opts.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}

	root := strings.TrimSpace(opts.Root)
	if root == "" {
		if v, ok := lookup("WORKING_DIR"); ok && strings.TrimSpace(v) != "" {
			root = strings.TrimSpace(v)
			if err := checkWorkingDir(root); err != nil {
				return nil, err
			}
		} else {
			root = DefaultRoot
		}
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving workspace root: %w", err)
	}

	dotenv, err := envfile.ReadOrEmpty(filepath.Join(root, ".env"))
	if err != nil {
		return nil, output.NewSystemErrorWithCause("reading workspace .env", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, output.NewUserError("%v", err).WithHint("fix or remove %s", config.Path())
	}

	c := &Context{Root: root, Config: cfg, DotEnv: dotenv, lookup: lookup}
	c.App = strings.TrimSpace(opts.App)
	if c.App == "" {
		c.App = c.Getenv("SPLENT_APP")
	}
	return c, nil
}

// checkWorkingDir catches a .env written for a container or VM being used on
// the host.
func checkWorkingDir(dir string) error {
	clean := strings.TrimRight(dir, "/")
	if clean != "/app" && clean != "/vagrant" {
		return nil
	}
	if _, err := os.Stat(clean); err == nil {
		return nil
	}
	e := output.NewUserError("WORKING_DIR is set to %q, but the directory does not exist", dir)
	if clean == "/app" {
		return e.WithHint("the .env looks configured for Docker: set WORKING_DIR=\"\" to run locally, or run splent inside the container")
	}
	return e.WithHint("the .env looks configured for Vagrant: set WORKING_DIR=\"\" to run locally, or run splent inside `vagrant ssh`")
}

// Getenv reads key from the process environment, falling back to the
// workspace .env.
func (c *Context) Getenv(key string) string {
	if v, ok := c.lookup(key); ok && v != "" {
		return v
	}
	if v, ok := c.DotEnv.Get(key); ok {
		return v
	}
	return ""
}

// Environ returns the environment for child processes: the process
// environment plus every workspace .env key it does not define.
func (c *Context) Environ() []string {
	env := os.Environ()
	for _, k := range c.DotEnv.Keys() {
		if v, ok := c.lookup(k); ok && v != "" {
			continue
		}
		v, _ := c.DotEnv.Get(k)
		env = append(env, k+"="+v)
	}
	env = append(env, "WORKING_DIR="+c.Root)
	if c.App != "" {
		env = append(env, "SPLENT_APP="+c.App)
	}
	return env
}

// EnvPath returns the workspace .env path.
func (c *Context) EnvPath() string {
	return filepath.Join(c.Root, ".env")
}

// RequireApp returns the active product name or a user error.
func (c *Context) RequireApp() (string, error) {
	if c.App == "" {
		return "", output.NewUserError("no active product: SPLENT_APP is not set").
			WithHint("run 'splent product:select <product>'")
	}
	return c.App, nil
}

// RequireProduct returns the active product directory, which must exist.
func (c *Context) RequireProduct() (string, error) {
	app, err := c.RequireApp()
	if err != nil {
		return "", err
	}
	dir := c.ProductDir(app)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return "", output.NewUserError("product directory not found: %s", dir)
	}
	return dir, nil
}

// ProductDir returns <root>/<name>.
func (c *Context) ProductDir(name string) string {
	return filepath.Join(c.Root, name)
}

// PyprojectPath returns the active product's pyproject.toml path.
func (c *Context) PyprojectPath() string {
	return manifest.Path(c.ProductDir(c.App))
}

// LoadProject requires an active product and loads its pyproject.
func (c *Context) LoadProject() (string, *manifest.Project, error) {
	dir, err := c.RequireProduct()
	if err != nil {
		return "", nil, err
	}
	path := manifest.Path(dir)
	if _, err := os.Stat(path); err != nil {
		return "", nil, output.NewUserError("pyproject.toml not found in %s", dir)
	}
	p, err := manifest.Load(path)
	if err != nil {
		return "", nil, output.NewUserError("%v", err)
	}
	return dir, p, nil
}

// CacheRoot returns the feature cache root.
func (c *Context) CacheRoot() string {
	return feature.CacheRoot(c.Root)
}

// DefaultNamespace is SPLENT_DEFAULT_NAMESPACE, else the config value, else
// splent-io.
func (c *Context) DefaultNamespace() string {
	if ns := strings.TrimSpace(c.Getenv("SPLENT_DEFAULT_NAMESPACE")); ns != "" {
		return ns
	}
	if c.Config.DefaultNamespace != "" {
		return c.Config.DefaultNamespace
	}
	return config.DefaultNamespace
}

// UseSSH reports whether feature repositories should be reached over SSH.
func (c *Context) UseSSH() bool {
	if v := c.Getenv("SPLENT_USE_SSH"); v != "" {
		return truthy(v)
	}
	return c.Config.UseSSH
}

// Role returns SPLENT_ROLE, lowercased.
func (c *Context) Role() string {
	return strings.ToLower(strings.TrimSpace(c.Getenv("SPLENT_ROLE")))
}

// GitHubUser returns GITHUB_USER.
func (c *Context) GitHubUser() string { return strings.TrimSpace(c.Getenv("GITHUB_USER")) }

// GitHubToken returns GITHUB_TOKEN.
func (c *Context) GitHubToken() string { return strings.TrimSpace(c.Getenv("GITHUB_TOKEN")) }

// GitHubAPI returns the GitHub REST base URL.
func (c *Context) GitHubAPI() string {
	if v := c.Getenv("SPLENT_GITHUB_API"); v != "" {
		return v
	}
	if c.Config.GitHubAPI != "" {
		return c.Config.GitHubAPI
	}
	return config.DefaultGitHubAPI
}

// Transport picks how feature repositories are cloned.
func (c *Context) Transport() feature.Transport {
	return feature.ChooseTransport(c.UseSSH(), c.GitHubToken())
}

// GitBase is SPLENT_GIT_BASE, an optional clone host overriding GitHub.
func (c *Context) GitBase() string { return strings.TrimSpace(c.Getenv("SPLENT_GIT_BASE")) }

// RepoURL is the clone URL for r under the active transport.
func (c *Context) RepoURL(r feature.Ref) string {
	if base := c.GitBase(); base != "" {
		return feature.MirrorURL(base, r)
	}
	return feature.RepoURL(r, c.Transport(), c.GitHubToken())
}

// Jobs returns the configured clone parallelism.
func (c *Context) Jobs() int {
	if c.Config.Jobs > 0 {
		return c.Config.Jobs
	}
	return 1
}

// ResolveEnv picks dev or prod from the --dev/--prod flags, then SPLENT_ENV,
// then the user config.
func (c *Context) ResolveEnv(dev, prod bool) (string, error) {
	switch {
	case dev && prod:
		return "", output.NewUserError("--dev and --prod are mutually exclusive")
	case dev:
		return "dev", nil
	case prod:
		return "prod", nil
	}
	if env := strings.ToLower(strings.TrimSpace(c.Getenv("SPLENT_ENV"))); env != "" {
		if env != "dev" && env != "prod" {
			return "", output.NewUserError("SPLENT_ENV must be dev or prod, got %q", env)
		}
		return env, nil
	}
	if c.Config.Env != "" {
		return c.Config.Env, nil
	}
	return config.DefaultEnv, nil
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// Strategy represents how to handle dirty working trees.
type Strategy string

const (
	StrategySafe  Strategy = "safe"
	StrategyStash Strategy = "stash"
	StrategyReset Strategy = "reset"
)

// ParseStrategy parses a strategy string, defaulting to "safe".
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategySafe, "":
		return StrategySafe, nil
	case StrategyStash:
		return StrategyStash, nil
	case StrategyReset:
		return StrategyReset, nil
	default:
		return "", fmt.Errorf("unknown strategy: %q (must be safe, stash, or reset)", s)
	}
}
