package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"xgb/internal/config"
	"xgb/internal/format"
	"xgb/internal/logging"
	"xgb/internal/orchestrate"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	cfg        = config.New()
	settings   *config.Settings
	workspace  *orchestrate.Workspace
	outputMode format.Mode
)

var rootFlags struct {
	format string
}

var rootCmd = &cobra.Command{
	Use:   "xgb",
	Short: "Supervised ML workflow orchestrator for gradient-boosted tree models",
	Long: `xgb keeps a store of CSV datasets and a store of projects. Each project
holds its training parameters, its saved models and a ledger of every
training run with its metrics.`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// settingFlags maps viper keys to the persistent flags that override them.
var settingFlags = map[string]string{
	config.KeyHome:         "home",
	config.KeyDataDir:      "data-dir",
	config.KeyProjectDir:   "project-dir",
	config.KeyTemplatesDir: "templates-dir",
	config.KeyEditor:       "editor",
	config.KeyLogLevel:     "log-level",
	config.KeyLogFormat:    "log-format",
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("home", "", "xgb home directory (default: current directory, env XGB_HOME)")
	pf.String("data-dir", "", "dataset store, relative to home (default DATA-STORE)")
	pf.String("project-dir", "", "project store, relative to home (default PROJECT-STORE)")
	pf.String("templates-dir", "", "directory overriding the built-in project templates")
	pf.String("editor", "", "editor used by 'xgb config' (default $EDITOR or vi)")
	pf.String("log-level", "", "log level: debug, info, warn, error (default info)")
	pf.String("log-format", "", "log format: text or json (default text)")
	pf.StringVar(&rootFlags.format, "format", "table", "output format: table or markdown")
	for key, name := range settingFlags {
		_ = cfg.BindPFlag(key, pf.Lookup(name))
	}

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(dataCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(championCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.Version = version
}

// setup resolves settings, configures logging and opens the workspace before
// any subcommand runs.
func setup(cmd *cobra.Command, _ []string) error {
	s, err := config.Load(cfg)
	if err != nil {
		return err
	}
	level, err := logging.ParseLevel(s.LogLevel)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logging.Init(level, s.LogFormat, cmd.ErrOrStderr())

	mode, err := format.ParseMode(rootFlags.format)
	if err != nil {
		return err
	}
	ws, err := orchestrate.Open(s)
	if err != nil {
		return err
	}
	settings, workspace, outputMode = s, ws, mode
	return nil
}
