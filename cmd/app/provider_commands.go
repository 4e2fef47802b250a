package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/certkeep/certkeep/cmd/app/commands"
	"github.com/certkeep/certkeep/internal/app"
	"github.com/certkeep/certkeep/internal/config"
)

func getProviderCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-dns-provider",
			Usage: "Register a DNS provider for challenge publication",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "kind",
					Aliases:  []string{"k"},
					Required: true,
					Usage:    "Provider kind: manual, cloudflare, digitalocean, route53",
				},
				&cli.StringFlag{
					Name:     "label",
					Aliases:  []string{"l"},
					Required: true,
					Usage:    "Human-readable provider label",
				},
				&cli.StringSliceFlag{
					Name:     "suffix",
					Aliases:  []string{"s"},
					Required: true,
					Usage:    "Domain suffix the provider is responsible for (repeatable)",
				},
				&cli.StringFlag{
					Name:  "token",
					Usage: "API token (cloudflare, digitalocean)",
				},
				&cli.StringFlag{
					Name:  "access-key",
					Usage: "Access key ID (route53)",
				},
				&cli.StringFlag{
					Name:  "secret-key",
					Usage: "Secret access key (route53)",
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

				providerUseCase, err := container.ProviderUseCase()
				if err != nil {
					return err
				}

				return commands.RunCreateDNSProvider(
					ctx,
					providerUseCase,
					container.Logger(),
					cmd.String("kind"),
					cmd.String("label"),
					cmd.StringSlice("suffix"),
					cmd.String("token"),
					cmd.String("access-key"),
					cmd.String("secret-key"),
					cmd.String("format"),
					commands.DefaultIO(),
				)
			},
		},
		{
			Name:  "test-dns-provider",
			Usage: "Validate a DNS provider's credential with a low-privilege call",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "id",
					Aliases:  []string{"i"},
					Required: true,
					Usage:    "Provider ID",
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

				providerUseCase, err := container.ProviderUseCase()
				if err != nil {
					return err
				}

				return commands.RunTestDNSProvider(
					ctx,
					providerUseCase,
					container.Logger(),
					cmd.String("id"),
					cmd.String("format"),
					commands.DefaultIO().Writer,
				)
			},
		},
	}
}
