package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hazemkhaled/raggate/internal/auth"
	"github.com/hazemkhaled/raggate/internal/config"
	"github.com/hazemkhaled/raggate/internal/db"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert demo users into the user store",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		database, err := db.Open(filepath.Join(cfg.DataDir, "raggate.db"))
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		store := auth.NewStore(database)
		if err := auth.Seed(context.Background(), store); err != nil {
			return fmt.Errorf("seeding users: %w", err)
		}

		for _, u := range auth.DefaultSeedUsers {
			fmt.Printf("seeded %s (%v)\n", u.Email, u.Roles)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
