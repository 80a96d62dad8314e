/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"fmt"

	"github.com/kgkhs001/BrighamWomensApp/internal/database"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed [file]",
	Short: "Load locations and inventory from a YAML fixture",
	Long: `Load the location directory and inventory quantities from a YAML file.
Existing rows are updated in place, so the command can be run repeatedly.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "seed.yaml"
		if len(args) == 1 {
			path = args[0]
		}

		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		seed, err := database.LoadSeed(path)
		if err != nil {
			return err
		}

		db, err := database.Connect(cfg.Database, logger)
		if err != nil {
			return fmt.Errorf("failed to connect database: %w", err)
		}
		defer database.Close(db)

		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		if err := seed.Apply(cmd.Context(), db); err != nil {
			return fmt.Errorf("failed to apply seed: %w", err)
		}

		logger.WithFields(logrus.Fields{
			"file":      path,
			"locations": len(seed.Locations),
			"inventory": len(seed.Inventory),
		}).Info("seed applied")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
