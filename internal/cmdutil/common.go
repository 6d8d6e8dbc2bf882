package cmdutil

import (
	"github.com/ryan-gang/mailqueue/internal/app"
	"github.com/ryan-gang/mailqueue/internal/config"
	"github.com/ryan-gang/mailqueue/internal/util"
	"github.com/spf13/cobra"
)

// WorkdirFromFlags returns the --workdir flag, falling back to the default
// workdir when it is empty.
func WorkdirFromFlags(cmd *cobra.Command) (string, error) {
	workdir, err := cmd.Flags().GetString("workdir")
	if err != nil {
		return "", err
	}
	if workdir != "" {
		return workdir, nil
	}
	return config.DefaultWorkdir()
}

// LoadConfigOrExit loads configuration and prints the error if it fails.
func LoadConfigOrExit(cmd *cobra.Command) *config.Config {
	workdir, err := WorkdirFromFlags(cmd)
	if err != nil {
		util.LogError(util.ConfigError, "resolving workdir", err)
		return nil
	}
	cfg, err := config.Load(workdir)
	if err != nil {
		util.LogError(util.ConfigError, "loading configuration", err)
		return nil
	}
	return cfg
}

// OpenAppOrExit opens every store for the command. The caller must Close
// the returned App.
func OpenAppOrExit(cmd *cobra.Command) *app.App {
	cfg := LoadConfigOrExit(cmd)
	if cfg == nil {
		return nil
	}
	verbose, _ := cmd.Flags().GetBool("verbose")
	a, err := app.NewWithConfig(cfg, verbose)
	if err != nil {
		util.LogError(util.ConfigError, "opening workdir", err)
		return nil
	}
	return a
}

// ProfileFlag returns the --profile override, if any.
func ProfileFlag(cmd *cobra.Command) string {
	name, _ := cmd.Flags().GetString("profile")
	return name
}
