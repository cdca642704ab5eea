package main

import (
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations and seed demo data when SEED_DEMO=true",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer application.Close()
			if err := application.MigrateAndSeed(); err != nil {
				return err
			}
			zlog.Info().Msg("migrations applied")
			return nil
		},
	}
}
