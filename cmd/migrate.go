package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cppla/tripjournal/config"
	"github.com/cppla/tripjournal/utils"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or extend the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			db, err := config.InitDatabase(cfg)
			if err != nil {
				return err
			}
			if err := config.Migrate(db); err != nil {
				return err
			}
			utils.Sugar.Infof("schema migrated (driver=%s)", cfg.DBDriver)
			return nil
		},
	}
}
