// Command bootstrap is a custom runtime entry point serving dynamic
// packages through the Lambda Runtime API.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aura-studio/lambdaric/audit"
	"github.com/aura-studio/lambdaric/bootstrap"
	"github.com/aura-studio/lambdaric/loop"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "bootstrap",
		Usage: "serve invocations from the Lambda Runtime API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to lambda.yaml, searched next to the binary when empty",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "development logging and per-invocation audit log",
			},
			&cli.StringFlag{
				Name:  "variant",
				Usage: "loop variant: blocking or cooperative",
			},
			&cli.DurationFlag{
				Name:  "heartbeat",
				Usage: "log a ping at this interval, 0 disables",
			},
			&cli.StringFlag{
				Name:  "audit-queue",
				Usage: "SQS queue url receiving one record per invocation",
			},
		},
		Action: run,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	var opts []bootstrap.Option
	path := cmd.String("config")
	if path == "" {
		path, _ = bootstrap.FindDefaultConfigFile()
	}
	if path != "" {
		cfg, err := bootstrap.LoadConfigFile(path)
		if err != nil {
			return err
		}
		opts = append(opts, cfg)
	}
	if cmd.Bool("debug") {
		opts = append(opts, bootstrap.WithDebug(true))
	}
	if v := cmd.String("variant"); v != "" {
		opts = append(opts, bootstrap.WithVariant(bootstrap.Variant(v)))
	}
	if d := cmd.Duration("heartbeat"); d > 0 {
		opts = append(opts, bootstrap.WithLoopOptions(loop.WithHeartbeat(d)))
	}
	if q := cmd.String("audit-queue"); q != "" {
		opts = append(opts, bootstrap.WithAuditOptions(audit.WithQueueURL(q)))
	}

	err := bootstrap.Start(ctx, opts...)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
