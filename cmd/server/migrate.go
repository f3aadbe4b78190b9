package main

import (
	"fmt"

	"github.com/securebank/backend/internal/database"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func migrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back the embedded schema migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			direction := database.Up
			if args[0] == "down" {
				direction = database.Down
			}

			db, err := database.Open(a.cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := database.Migrate(db, direction)
			if err != nil {
				return fmt.Errorf("migrate %s: %w", args[0], err)
			}

			logrus.WithFields(logrus.Fields{
				"direction": args[0],
				"applied":   applied,
			}).Info("Migrations complete")
			return nil
		},
	}
}
