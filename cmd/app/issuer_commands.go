package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/certkeep/certkeep/cmd/app/commands"
	"github.com/certkeep/certkeep/internal/app"
	"github.com/certkeep/certkeep/internal/config"
)

func getIssuerCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-issuer",
			Usage: "Register an ACME issuer and provision its account key",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "label",
					Aliases:  []string{"l"},
					Required: true,
					Usage:    "Human-readable issuer label",
				},
				&cli.StringFlag{
					Name:    "environment",
					Aliases: []string{"e"},
					Value:   "staging",
					Usage:   "ACME environment: 'staging' or 'production'",
				},
				&cli.StringFlag{
					Name:  "directory-url",
					Usage: "Custom ACME directory URL (overrides the environment default)",
				},
				&cli.StringFlag{
					Name:    "email",
					Aliases: []string{"m"},
					Usage:   "Contact email registered with the CA",
				},
				&cli.BoolFlag{
					Name:  "agree-tos",
					Usage: "Agree to the CA's terms of service",
				},
				&cli.StringFlag{
					Name:    "key-algorithm",
					Aliases: []string{"k"},
					Value:   "P256",
					Usage:   "Account key algorithm: P256, P384, RSA2048, RSA4096",
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

				issuerUseCase, err := container.IssuerUseCase()
				if err != nil {
					return err
				}

				return commands.RunCreateIssuer(
					ctx,
					issuerUseCase,
					container.Logger(),
					cmd.String("label"),
					cmd.String("environment"),
					cmd.String("directory-url"),
					cmd.String("email"),
					cmd.Bool("agree-tos"),
					cmd.String("key-algorithm"),
					cmd.String("format"),
					commands.DefaultIO(),
				)
			},
		},
		{
			Name:  "select-issuer",
			Usage: "Mark an issuer as the one used for new issuance runs",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "id",
					Aliases:  []string{"i"},
					Required: true,
					Usage:    "Issuer ID",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				issuerUseCase, err := container.IssuerUseCase()
				if err != nil {
					return err
				}

				return commands.RunSelectIssuer(
					ctx,
					issuerUseCase,
					container.Logger(),
					cmd.String("id"),
					commands.DefaultIO().Writer,
				)
			},
		},
		{
			Name:  "ensure-account",
			Usage: "Register the issuer's account key with the CA",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "id",
					Aliases:  []string{"i"},
					Required: true,
					Usage:    "Issuer ID",
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

				issuerUseCase, err := container.IssuerUseCase()
				if err != nil {
					return err
				}

				return commands.RunEnsureAccount(
					ctx,
					issuerUseCase,
					container.Logger(),
					cmd.String("id"),
					cmd.String("format"),
					commands.DefaultIO().Writer,
				)
			},
		},
	}
}
