// spiderctl administers spider definitions and triggers spiders without the
// HTTP service, e.g. from a host crontab.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"spidertrigger/internal/config"
	"syscall"

	"github.com/urfave/cli/v2"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: config.ParseLevel(config.GetEnv("LOG_LEVEL", "warn")),
	})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "\n%s\n\n", err)
		stop()
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "spiderctl"
	app.Usage = "Manage and trigger containerized spiders"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    flagConfig,
			Aliases: []string{"c"},
			Usage:   "Path to the YAML runtime configuration file",
			Value:   defaultConfigPath,
			EnvVars: []string{"CONFIG_FILE"},
		},
	}
	app.Commands = []*cli.Command{
		{
			Name:      "containers",
			Usage:     "List the containers launched for a spider, newest first",
			ArgsUsage: "[--output FORMAT] [--limit N] SPIDER_ID",
			Flags: []cli.Flag{
				cliFlagOutput,
				&cli.IntFlag{
					Name:    flagLimit,
					Aliases: []string{"n"},
					Usage:   "Maximum number of containers to list (0 for all)",
					Value:   20,
				},
			},
			Action: containersList,
		},
		{
			Name:  "spider",
			Usage: "Manage spider definitions",
			Subcommands: []*cli.Command{
				{
					Name:      "create",
					Usage:     "Create spiders from a YAML file",
					ArgsUsage: "FILE",
					Action:    spiderCreate,
				},
				{
					Name:      "disable",
					Usage:     "Stop a spider from being triggered",
					ArgsUsage: "SPIDER_ID",
					Action:    spiderDisable,
				},
				{
					Name:      "enable",
					Usage:     "Allow a spider to be triggered",
					ArgsUsage: "SPIDER_ID",
					Action:    spiderEnable,
				},
				{
					Name:  "list",
					Usage: "List spiders",
					Flags: []cli.Flag{
						cliFlagOutput,
					},
					Action: spiderList,
				},
			},
		},
		{
			Name:      "trigger",
			Usage:     "Launch one batch of a spider",
			ArgsUsage: "[--output FORMAT] SPIDER_ID",
			Description: "Creates and starts the spider container on the configured " +
				"Docker endpoint and records it. Exits non-zero on any failure. " +
				"Flags must precede SPIDER_ID.",
			Flags: []cli.Flag{
				cliFlagOutput,
			},
			Action: triggerSpider,
		},
	}
	return app
}
