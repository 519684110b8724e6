package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stopwatch-io/stopwatch-ce/internal/config"
	"github.com/stopwatch-io/stopwatch-ce/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if err := config.Load(configPathFlag); err != nil {
		return err
	}
	cfg := config.Get()

	db, err := database.Open(database.Options{
		Driver:   cfg.Database.Driver,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Name:     cfg.Database.Name,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Path:     cfg.Database.Path,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(context.Background(), db); err != nil {
		return err
	}
	fmt.Println("schema is up to date")
	return nil
}
