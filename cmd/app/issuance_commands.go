package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/certkeep/certkeep/cmd/app/commands"
	"github.com/certkeep/certkeep/internal/app"
	"github.com/certkeep/certkeep/internal/config"
)

func getIssuanceCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "issue",
			Usage: "Start a certificate issuance run against the selected issuer",
			Flags: []cli.Flag{
				&cli.StringSliceFlag{
					Name:     "domain",
					Aliases:  []string{"d"},
					Required: true,
					Usage:    "Domain to include on the certificate (repeatable)",
				},
				&cli.StringFlag{
					Name:    "issuer",
					Aliases: []string{"i"},
					Usage:   "Issuer id to use instead of the selected issuer",
				},
				&cli.StringFlag{
					Name:    "key-algorithm",
					Aliases: []string{"k"},
					Value:   "P256",
					Usage:   "Certificate key algorithm: P256, P384, RSA2048, RSA4096",
				},
				&cli.BoolFlag{
					Name:    "wait",
					Aliases: []string{"w"},
					Value:   true,
					Usage:   "Poll the run until it finishes or pauses for manual action",
				},
				&cli.DurationFlag{
					Name:  "poll-interval",
					Value: 2 * time.Second,
					Usage: "Interval between run state polls when waiting",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				issuanceUseCase, err := container.IssuanceUseCase()
				if err != nil {
					return err
				}

				return commands.RunIssue(
					ctx,
					issuanceUseCase,
					container.Logger(),
					cmd.StringSlice("domain"),
					cmd.String("issuer"),
					cmd.String("key-algorithm"),
					cmd.Bool("wait"),
					cmd.Duration("poll-interval"),
					cmd.String("format"),
					commands.DefaultIO().Writer,
				)
			},
		},
		{
			Name:  "list-certificates",
			Usage: "List stored certificates, newest first",
			Flags: []cli.Flag{
				&cli.DurationFlag{
					Name:    "expiring-within",
					Aliases: []string{"e"},
					Usage:   "Only list certificates expiring inside this window (e.g. 720h)",
				},
				&cli.IntFlag{
					Name:  "offset",
					Value: 0,
					Usage: "Pagination offset",
				},
				&cli.IntFlag{
					Name:  "limit",
					Value: 50,
					Usage: "Pagination limit",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				inventory, err := container.CertInventory()
				if err != nil {
					return err
				}

				return commands.RunListCertificates(
					ctx,
					inventory,
					container.Logger(),
					cmd.Duration("expiring-within"),
					int(cmd.Int("offset")),
					int(cmd.Int("limit")),
					cmd.String("format"),
					commands.DefaultIO().Writer,
				)
			},
		},
	}
}
