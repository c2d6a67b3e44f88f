// Package cmd provides the command-line interface for the content upgrade service.
//
// This package implements a cobra-based CLI with commands for:
//   - upgrade: Upgrade a content document file to a newer schema version
//   - plan: List the upgrade steps between two versions
//   - service: Start the content upgrade HTTP API server
//   - token: Issue a JWT for the service API
//   - hash-key: Hash an API key for auth.api_key_hash
//   - version: Display version and build information
//
// The CLI supports configuration via:
//   - Command-line flags
//   - Configuration files (YAML format)
//   - Environment variables prefixed with CONTENTUPGRADE_
//
// Configuration File Locations:
//   - Specified via --config flag
//   - $HOME/.contentupgrade.yaml (default)
package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"evalgo.org/contentupgrade/internal/config"
	"evalgo.org/contentupgrade/internal/logging"
)

var (
	// cfgFile holds the path to the configuration file
	cfgFile string

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "contentupgrade",
		Short: "Content upgrade service - schema migrations for interactive content",
		Long: `contentupgrade brings stored content documents up to the current schema
version of their content type by running the registered upgrade steps in order.

It can be used:
  - As a CLI on single content files (upgrade, plan)
  - As an HTTP service accepting batches of upgrade tasks (service)

Use "contentupgrade service" to start the API server.`,
		SilenceUsage: true,
	}
)

// Execute executes the root command and returns any error that occurs.
// This is the main entry point for the CLI application.
func Execute() error {
	return rootCmd.Execute()
}

// init initializes the command-line interface.
// It sets up logging, configuration initialization, and command flags.
func init() {
	logging.SetOutput(os.Stderr)
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.contentupgrade.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text or json)")

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))

	config.Bind(viper.GetViper())
}

// initConfig reads in config file and environment variables if set.
// This function is called during cobra initialization before command execution.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".contentupgrade")
	}

	if err := viper.ReadInConfig(); err == nil {
		logrus.WithField("file", viper.ConfigFileUsed()).Debug("Using config file")
	}
}

// loadConfig decodes the merged configuration and applies its log settings.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if err := logging.Configure(cfg.Log.Level, cfg.Log.Format); err != nil {
		return nil, err
	}
	return cfg, nil
}
