package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/diverso-lab/splent-cli/internal/envfile"
	"github.com/diverso-lab/splent-cli/internal/output"
	"github.com/diverso-lab/splent-cli/internal/workspace"
)

// envSetter configures one group of workspace variables. Flag values are
// used when given; anything missing is prompted for.
type envSetter struct {
	use   string
	short string
	label string
	flags func(*cobra.Command)
	run   func(cmd *cobra.Command) ([][2]string, error)
}

var envSetters = []envSetter{
	{
		use:   "mode",
		short: "Set SPLENT_MODE (dev or prod)",
		label: "Set mode (dev/prod)",
		flags: func(c *cobra.Command) { c.Flags().String("value", "", "dev or prod") },
		run:   setModeVars,
	},
	{
		use:   "github",
		short: "Set GITHUB_USER and GITHUB_TOKEN",
		label: "Configure GitHub credentials",
		flags: func(c *cobra.Command) {
			c.Flags().String("user", "", "GitHub username")
			c.Flags().String("token", "", "GitHub personal access token")
		},
		run: setGitHubVars,
	},
	{
		use:   "pypi",
		short: "Set the PyPI upload token",
		label: "Configure PyPI token",
		flags: func(c *cobra.Command) { c.Flags().String("token", "", "PyPI API token") },
		run:   setPyPIVars,
	},
	{
		use:   "developer",
		short: "Enable or disable SSH for feature development",
		label: "Configure developer SSH mode",
		flags: func(c *cobra.Command) { c.Flags().String("value", "", "true or false") },
		run:   setDeveloperVars,
	},
}

func newEnvSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env:set",
		Short: "Set workspace environment variables",
		Long: `Write configuration into the workspace .env. Each subcommand sets one
group of variables; --wizard walks through them from a menu.`,
		Args: cobra.NoArgs,
		RunE: runEnvSetWizard,
	}
	cmd.Flags().Bool("wizard", false, "Run the interactive setup wizard")
	for _, s := range envSetters {
		cmd.AddCommand(newEnvSetSubCmd(s))
	}
	return cmd
}

func newEnvSetSubCmd(s envSetter) *cobra.Command {
	cmd := &cobra.Command{
		Use:   s.use,
		Short: s.short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, err := loadContext(cmd)
			if err != nil {
				return err
			}
			vars, err := s.run(cmd)
			if err != nil {
				return err
			}
			return writeEnvVars(cmd, ctx, vars)
		},
	}
	s.flags(cmd)
	return cmd
}

func runEnvSetWizard(cmd *cobra.Command, _ []string) error {
	if wizard, _ := cmd.Flags().GetBool("wizard"); !wizard {
		return cmd.Help()
	}
	ctx, err := loadContext(cmd)
	if err != nil {
		return err
	}
	options := make([]string, 0, len(envSetters)+1)
	for _, s := range envSetters {
		options = append(options, s.label)
	}
	options = append(options, "Exit")

	for {
		i, err := promptSelect("SPLENT env config wizard", options)
		if err != nil {
			return err
		}
		if i == len(envSetters) {
			return nil
		}
		vars, err := envSetters[i].run(cmd)
		if err != nil {
			return err
		}
		if err := writeEnvVars(cmd, ctx, vars); err != nil {
			return err
		}
	}
}

// flagOrPrompt returns the flag value when set, else prompts.
func flagOrPrompt(cmd *cobra.Command, flag string, prompt func() (string, error)) (string, error) {
	if f := cmd.Flags().Lookup(flag); f != nil && f.Value.String() != "" {
		return strings.TrimSpace(f.Value.String()), nil
	}
	return prompt()
}

func setModeVars(cmd *cobra.Command) ([][2]string, error) {
	modes := []string{"dev", "prod"}
	mode, err := flagOrPrompt(cmd, "value", func() (string, error) {
		i, err := promptSelect("Select execution mode for SPLENT", modes)
		if err != nil {
			return "", err
		}
		return modes[i], nil
	})
	if err != nil {
		return nil, err
	}
	mode = strings.ToLower(mode)
	if mode != "dev" && mode != "prod" {
		return nil, output.NewUserError("mode must be dev or prod, got %q", mode)
	}
	return [][2]string{{"SPLENT_MODE", mode}}, nil
}

func setGitHubVars(cmd *cobra.Command) ([][2]string, error) {
	user, err := flagOrPrompt(cmd, "user", func() (string, error) {
		return promptInput("GitHub username", "", requireNonEmpty("username"))
	})
	if err != nil {
		return nil, err
	}
	token, err := flagOrPrompt(cmd, "token", func() (string, error) {
		return promptSecret("GitHub personal access token", requireNonEmpty("token"))
	})
	if err != nil {
		return nil, err
	}
	return [][2]string{{"GITHUB_USER", user}, {"GITHUB_TOKEN", token}}, nil
}

func setPyPIVars(cmd *cobra.Command) ([][2]string, error) {
	token, err := flagOrPrompt(cmd, "token", func() (string, error) {
		return promptSecret("PyPI token", requireNonEmpty("token"))
	})
	if err != nil {
		return nil, err
	}
	return [][2]string{{"PYPI_USERNAME", "__token__"}, {"PYPI_TOKEN", token}}, nil
}

func setDeveloperVars(cmd *cobra.Command) ([][2]string, error) {
	value, err := flagOrPrompt(cmd, "value", func() (string, error) {
		if !stdinIsTerminal() {
			return "", output.NewUserError("stdin is not a terminal").WithHint("pass --value true|false")
		}
		ok, err := promptConfirm("Enable SSH usage for SPLENT feature development?")
		if err != nil {
			return "", err
		}
		if ok {
			return "true", nil
		}
		return "false", nil
	})
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(value) {
	case "true", "yes", "y", "1":
		value = "true"
	case "false", "no", "n", "0":
		value = "false"
	default:
		return nil, output.NewUserError("--value must be true or false, got %q", value)
	}
	return [][2]string{{"SPLENT_DEVELOPER_SSH", value}}, nil
}

func writeEnvVars(cmd *cobra.Command, ctx *workspace.Context, vars [][2]string) error {
	path := ctx.EnvPath()
	env, err := envfile.ReadOrEmpty(path)
	if err != nil {
		return systemErr("reading "+path, err)
	}
	for _, kv := range vars {
		env.Set(kv[0], kv[1])
	}
	if err := env.Write(path); err != nil {
		return systemErr("writing "+path, err)
	}
	p := newPrinter(cmd)
	for _, kv := range vars {
		p.Success("%s set to %s", kv[0], envfile.Mask(kv[0], kv[1]))
	}
	p.Info("Remember to reload environment variables: source %s", path)
	return nil
}
