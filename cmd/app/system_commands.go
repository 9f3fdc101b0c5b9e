package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/enrollments/cmd/app/commands"
	"github.com/allisson/enrollments/internal/app"
	"github.com/allisson/enrollments/internal/config"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Start the HTTP server (payment webhook, course reads, health) and the metrics server",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunServer(ctx, version)
			},
		},
		{
			Name:  "worker",
			Usage: "Run the notification consumer and the scheduled jobs",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunWorker(ctx, version)
			},
		},
		{
			Name:  "migrate",
			Usage: "Run database migrations (ensures indexes for mongodb)",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				if cfg.DBDriver == config.DriverMongoDB {
					db, err := container.MongoDatabase()
					if err != nil {
						return err
					}
					return commands.RunMongoIndexes(ctx, container.Logger(), db)
				}

				return commands.RunMigrations(container.Logger(), cfg.DBDriver, cfg.DBConnectionString)
			},
		},
		{
			Name:  "encrypt-webhook-secret",
			Usage: "Encrypt the webhook secret with a KMS key for WEBHOOK_SECRET_CIPHERTEXT",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "kms-key-uri",
					Aliases: []string{"k"},
					Usage:   "KMS key URI (defaults to KMS_KEY_URI)",
				},
				&cli.StringFlag{
					Name:    "secret",
					Aliases: []string{"s"},
					Usage:   "Webhook secret (read from stdin when omitted)",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				keyURI := cmd.String("kms-key-uri")
				if keyURI == "" {
					keyURI = cfg.KMSKeyURI
				}

				return commands.RunEncryptWebhookSecret(
					ctx,
					container.KMSService(),
					container.Logger(),
					commands.DefaultIO(),
					keyURI,
					cmd.String("secret"),
					cmd.String("format"),
				)
			},
		},
	}
}
