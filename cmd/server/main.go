package main

import (
	"os"

	"github.com/securebank/backend/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// @title SecureBank Ledger API
// @version 1.0
// @description Accounts, deposits, withdrawals and transfers over a PostgreSQL ledger
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// app carries what every subcommand needs once the pre-run hook has loaded it.
type app struct {
	cfg *config.Config
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "bankd",
		Short:         "SecureBank ledger API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			cfg.Log.ConfigureLogger()
			a.cfg = cfg
			return nil
		},
	}

	serve := serveCommand(a)
	root.AddCommand(serve, migrateCommand(a))
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		logrus.WithError(err).Error("bankd failed")
		os.Exit(1)
	}
}
