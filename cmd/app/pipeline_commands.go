package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/enrollments/cmd/app/commands"
	"github.com/allisson/enrollments/internal/app"
	"github.com/allisson/enrollments/internal/config"
)

func getPipelineCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "retry-failed-emails",
			Usage: "Re-publish the notifications parked on the failed-emails queue",
			Flags: []cli.Flag{formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				sweeper, err := container.Sweeper()
				if err != nil {
					return err
				}

				return commands.RunRetryFailedEmails(
					ctx,
					sweeper,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "delete-scheduled-accounts",
			Usage: "Delete the accounts whose scheduled deletion date has passed",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:    "dry-run",
					Aliases: []string{"n"},
					Value:   false,
					Usage:   "Show which accounts would be deleted without deleting",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				accountDeletionUseCase, err := container.AccountDeletionUseCase()
				if err != nil {
					return err
				}

				return commands.RunDeleteScheduledAccounts(
					ctx,
					accountDeletionUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.Bool("dry-run"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "schedule-account-deletion",
			Usage: "Schedule an account for deletion after the grace period",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "user-id",
					Aliases:  []string{"u"},
					Required: true,
					Usage:    "User ID",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				accountDeletionUseCase, err := container.AccountDeletionUseCase()
				if err != nil {
					return err
				}

				return commands.RunScheduleAccountDeletion(
					ctx,
					accountDeletionUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("user-id"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "queue-stats",
			Usage: "Print the length of the failed-emails and failed-payments queues",
			Flags: []cli.Flag{formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				overflowRepository, err := container.OverflowRepository()
				if err != nil {
					return err
				}

				return commands.RunQueueStats(
					ctx,
					overflowRepository,
					commands.DefaultIO().Writer,
					cmd.String("format"),
				)
			},
		},
	}
}
