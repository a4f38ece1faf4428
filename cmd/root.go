// Package cmd holds the tripjournal command line: serve, migrate, seed and
// hash-passcode.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cppla/tripjournal/config"
	"github.com/cppla/tripjournal/utils"
)

const configFlag = "config"

// NewRootCommand builds the tripjournal command tree. Running it without a
// subcommand serves the site.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "tripjournal",
		Short: "Travel journal site with a passcode protected editor",
		Long: `tripjournal serves a travel journal: posts with photos and videos, a timeline,
a map of where they were taken, an RSS feed and a sitemap.

Configuration is read from a JSON file (default config/config.json) and can be
overridden by environment variables such as DATABASE_URI or ADMIN_PASSCODE.`,
		SilenceUsage: true,
		RunE:         runServe,
	}
	root.PersistentFlags().String(configFlag, config.DefaultConfigPath, "Path to the JSON configuration file")
	addServeFlags(root)

	root.AddCommand(newServeCommand())
	root.AddCommand(newMigrateCommand())
	root.AddCommand(newSeedCommand())
	root.AddCommand(newHashPasscodeCommand())
	return root
}

// Execute runs the command line and returns the first error.
func Execute() error {
	return NewRootCommand().Execute()
}

// loadConfig reads the file named by --config and installs it process wide.
func loadConfig(cmd *cobra.Command) (config.AppConfig, error) {
	path, err := cmd.Flags().GetString(configFlag)
	if err != nil {
		return config.AppConfig{}, err
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return config.AppConfig{}, fmt.Errorf("load config: %w", err)
	}
	config.Use(cfg)
	if err := utils.InitLogger(cfg); err != nil {
		return config.AppConfig{}, fmt.Errorf("init logger: %w", err)
	}
	return cfg, nil
}
