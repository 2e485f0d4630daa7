package main

import (
	"log"

	_ "taskspace/docs"
	"taskspace/internal/config"
	"taskspace/internal/database"
	"taskspace/internal/server"

	"github.com/spf13/cobra"
)

// @title           Taskspace API
// @version         1.0
// @description     Workspaces, members and prioritized tasks.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @schemes http
func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

func newRootCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Reconcile and migrate the database, then serve the API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	root := &cobra.Command{
		Use:           "taskspace",
		Short:         "Taskspace API server",
		Args:          cobra.NoArgs,
		RunE:          runServe,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd, &cobra.Command{
		Use:   "migrate",
		Short: "Reconcile workspace_member and apply schema migrations, then exit",
		Args:  cobra.NoArgs,
		RunE:  runMigrate,
	})
	return root
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()

	s, err := server.Init(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	s.Run()
	return nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()

	db, err := database.Open(cfg.DSN())
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	if err := server.Migrate(cmd.Context(), db, cfg, nil); err != nil {
		return err
	}

	log.Println("✅ Database is up to date")
	return nil
}
