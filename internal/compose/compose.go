// Package compose drives docker compose for features and products and merges
// their compose files into deployment artifacts.
package compose

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/diverso-lab/splent-cli/internal/shell"
)

// ErrNoComposeFile is returned when a docker dir holds no compose file.
var ErrNoComposeFile = errors.New("no docker-compose file")

var projectReplacer = strings.NewReplacer("/", "_", "@", "_", ".", "_", "-", "_")

// ProjectName returns the compose project name for name in env.
func ProjectName(name, env string) string {
	return strings.ToLower(projectReplacer.Replace(name + "_" + env))
}

// ResolveFile returns docker-compose.<env>.yml from dockerDir, falling back
// to docker-compose.yml.
func ResolveFile(dockerDir, env string) (string, error) {
	for _, name := range []string{"docker-compose." + env + ".yml", "docker-compose.yml"} {
		p := filepath.Join(dockerDir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w in %s", ErrNoComposeFile, dockerDir)
}

// Compose runs docker compose and docker through a shell.Runner.
type Compose struct {
	Runner shell.Runner
	Env    []string
	// Stdout and Stderr receive streamed output of lifecycle commands. Nil
	// captures it instead.
	Stdout io.Writer
	Stderr io.Writer
	// Stdin is attached to Exec.
	Stdin  io.Reader
}

// New returns a Compose over r.
func New(r shell.Runner, env []string) *Compose {
	return &Compose{Runner: r, Env: env}
}

func (c *Compose) run(ctx context.Context, dir string, stream bool, args ...string) (shell.Result, error) {
	cmd := shell.Cmd{Name: "docker", Args: args, Dir: dir, Env: c.Env}
	if stream {
		cmd.Stdout, cmd.Stderr = c.Stdout, c.Stderr
	}
	return c.Runner.Run(ctx, cmd)
}

func composeArgs(project, file string, rest ...string) []string {
	return append([]string{"compose", "-p", project, "-f", file}, rest...)
}

// Up starts project detached. Extra arguments (such as --env-file) go
// between -f and up.
func (c *Compose) Up(ctx context.Context, dir, project, file string, extra ...string) error {
	args := composeArgs(project, file, extra...)
	args = append(args, "up", "-d")
	_, err := c.run(ctx, dir, true, args...)
	return err
}

// Down stops project, removing volumes when asked.
func (c *Compose) Down(ctx context.Context, dir, project, file string, volumes bool) error {
	args := composeArgs(project, file, "down")
	if volumes {
		args = append(args, "-v")
	}
	_, err := c.run(ctx, dir, true, args...)
	return err
}

// PS returns the container IDs of project.
func (c *Compose) PS(ctx context.Context, dir, project, file string) ([]string, error) {
	res, err := c.run(ctx, dir, false, composeArgs(project, file, "ps", "-q")...)
	if err != nil {
		return nil, err
	}
	return strings.Fields(string(res.Stdout)), nil
}

// Mounts returns the mount destinations of a container.
func (c *Compose) Mounts(ctx context.Context, id string) ([]string, error) {
	res, err := c.run(ctx, "", false, "inspect", "-f", "{{ range .Mounts }}{{ .Destination }} {{ end }}", id)
	if err != nil {
		return nil, err
	}
	return strings.Fields(string(res.Stdout)), nil
}

// PickContainer returns the first of ids that mounts dest, else the first id,
// else "".
func (c *Compose) PickContainer(ctx context.Context, ids []string, dest string) string {
	for _, id := range ids {
		mounts, err := c.Mounts(ctx, id)
		if err != nil {
			continue
		}
		for _, m := range mounts {
			if m == dest {
				return id
			}
		}
	}
	if len(ids) > 0 {
		return ids[0]
	}
	return ""
}

// Exec runs argv inside container id with stdin attached.
func (c *Compose) Exec(ctx context.Context, id string, argv ...string) error {
	args := append([]string{"exec", "-i", id}, argv...)
	_, err := c.Runner.Run(ctx, shell.Cmd{Name: "docker", Args: args, Env: c.Env,
		Stdin: c.Stdin, Stdout: c.Stdout, Stderr: c.Stderr})
	return err
}

// PSPorts returns `docker ps` output as "<name> <ports>" lines.
func (c *Compose) PSPorts(ctx context.Context) (string, error) {
	res, err := c.run(ctx, "", false, "ps", "--format", "{{.Names}} {{.Ports}}")
	if err != nil {
		return "", err
	}
	return string(res.Stdout), nil
}
