package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cratey/cratey/internal/app"
)

func main() {
	root := &cobra.Command{
		Use:           "cratey",
		Short:         "CRATEY direct-to-fan music storefront",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			_ = godotenv.Load()
			setupLogging(app.LoadConfig())
		},
	}
	root.AddCommand(serveCmd(), migrateCmd(), reaccessCmd())

	if err := root.ExecuteContext(context.Background()); err != nil {
		zlog.Fatal().Err(err).Msg("command failed")
	}
}

func setupLogging(cfg app.Config) {
	zerolog.TimeFieldFormat = time.RFC3339
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.IsProduction() {
		zlog.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
		return
	}
	zlog.Logger = zlog.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
}

// bootstrap opens the database and wires the application.
func bootstrap(ctx context.Context) (*app.App, error) {
	cfg := app.LoadConfig()
	db, err := app.OpenDB(cfg)
	if err != nil {
		return nil, err
	}
	return app.NewApp(ctx, cfg, db)
}
