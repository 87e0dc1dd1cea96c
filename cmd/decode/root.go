package main

import (
	"log/slog"

	"github.com/JonMunkholm/setdecoder/internal/config"
	"github.com/JonMunkholm/setdecoder/internal/logging"
	"github.com/spf13/cobra"
)

// app is the state shared by subcommands once the root has run.
type app struct {
	envFiles  []string
	logLevel  string
	logFormat string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "decode",
		Short:         "Expand set SKUs in order exports into their component products",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	cmd.PersistentFlags().StringSliceVar(&a.envFiles, "env-file", nil, "Load settings from these .env files (default: .env if present)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error (default: LOG_LEVEL)")
	cmd.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "Log format: text or json (default: LOG_FORMAT)")

	cmd.AddCommand(newRunCmd(a), newTemplateCmd(a))
	return cmd
}

// init loads .env files and configuration and builds the stderr logger.
func (a *app) init(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(a.envFiles...); err != nil {
		return withCode(exitUsage, err)
	}
	cfg, err := config.Load()
	if err != nil {
		return withCode(exitUsage, err)
	}
	a.cfg = cfg

	level, format := cfg.Logging.Level, cfg.Logging.Format
	if a.logLevel != "" {
		level = a.logLevel
	}
	if a.logFormat != "" {
		format = a.logFormat
	}
	a.logger = logging.New(cmd.ErrOrStderr(), level, format)
	return nil
}
