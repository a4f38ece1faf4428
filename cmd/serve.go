package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cppla/tripjournal/config"
	"github.com/cppla/tripjournal/routes"
	"github.com/cppla/tripjournal/utils"
)

const (
	migrateFlag         = "migrate"
	janitorIntervalFlag = "janitor-interval"
)

func newServeCommand() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server. SIGINT or SIGTERM drain in-flight requests and exit;
SIGUSR2 restarts the binary in place without dropping the listening socket.`,
		RunE: runServe,
	}
	addServeFlags(serveCmd)
	return serveCmd
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().Bool(migrateFlag, true, "Create or extend the schema before serving")
	cmd.Flags().Duration(janitorIntervalFlag, 5*time.Minute, "How often expired sessions and old page views are purged")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = utils.Logger.Sync() }()

	db, err := config.InitDatabase(cfg)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}

	if migrate, _ := cmd.Flags().GetBool(migrateFlag); migrate {
		if err := config.Migrate(db); err != nil {
			return err
		}
	}

	utils.InitRedis(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	interval, _ := cmd.Flags().GetDuration(janitorIntervalFlag)
	utils.StartJanitor(ctx, db, interval)

	srv := utils.NewServer(":"+cfg.AppPort, routes.SetupRouter(db, cfg))
	srv.OnShutdown(cancel)
	srv.OnShutdown(utils.CloseRedis)
	srv.OnShutdown(func() {
		if err := sqlDB.Close(); err != nil {
			utils.Sugar.Warnf("close database: %v", err)
		}
	})

	utils.Sugar.Infof("starting server on port %s (driver=%s)", cfg.AppPort, cfg.DBDriver)
	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	utils.Sugar.Info("server stopped")
	return nil
}
