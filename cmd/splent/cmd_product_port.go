package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/diverso-lab/splent-cli/internal/compose"
	"github.com/diverso-lab/splent-cli/internal/output"
)

// vagrantHost is the private address of the workspace VM.
const vagrantHost = "10.10.10.10"

func newProductPortCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product:port",
		Short: "Show the URL the product web service is published on",
		Args:  cobra.NoArgs,
		RunE:  runProductPort,
	}
	envFlags(cmd)
	return cmd
}

type portInfo struct {
	Service       string `json:"service"`
	Host          string `json:"host"`
	HostPort      string `json:"host_port"`
	ContainerPort string `json:"container_port"`
	URL           string `json:"url"`
}

func runProductPort(cmd *cobra.Command, _ []string) error {
	ctx, err := loadContext(cmd)
	if err != nil {
		return err
	}
	productDir, err := ctx.RequireProduct()
	if err != nil {
		return err
	}
	env, err := resolveEnv(cmd, ctx)
	if err != nil {
		return err
	}

	file, err := compose.ResolveFile(filepath.Join(productDir, "docker"), env)
	if err != nil {
		return output.NewUserError("%v", err)
	}
	data, err := os.ReadFile(file) //nolint:gosec // compose file inside the workspace
	if err != nil {
		return systemErr("reading "+file, err)
	}
	service, err := compose.FindService(data, ctx.App)
	if err != nil {
		return output.NewUserError("no service for product %s in %s", ctx.App, filepath.Base(file))
	}

	ps, err := newCompose(cmd, ctx).PSPorts(cmd.Context())
	if err != nil {
		return systemErr("listing containers", err)
	}
	port, err := compose.ParsePorts(ps, service)
	if err != nil {
		return output.NewUserError("%v", err).WithHint("start it with 'splent product:up'")
	}

	host := "localhost"
	if pathExists(filepath.Join(ctx.Root, ".vagrant")) {
		host = vagrantHost
	}
	info := portInfo{
		Service:       service,
		Host:          host,
		HostPort:      port.Host,
		ContainerPort: port.Container,
		URL:           fmt.Sprintf("http://%s:%s", host, port.Host),
	}
	p := newPrinter(cmd)
	if p.IsJSON() {
		return p.WriteJSON(info)
	}
	p.Info("Service %s: container port %s published on %s", service, port.Container, port.Host)
	p.Println(info.URL)
	return nil
}
