package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/maheshrc27/postflow/configs"
	"github.com/maheshrc27/postflow/internal/app"
	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	envFlag := &cli.StringFlag{
		Name:  "env",
		Usage: "path to the environment file",
		Value: ".env",
	}

	cmd := &cli.Command{
		Name:  "scheduler",
		Usage: "publishing pipeline maintenance commands",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "publish one batch of due schedules and print the run summary",
				Flags: []cli.Flag{
					envFlag,
					&cli.IntFlag{
						Name:  "limit",
						Usage: "maximum number of schedules to process (0 uses SCHEDULER_BATCH_LIMIT)",
					},
				},
				Action: runAction,
			},
			{
				Name:  "validate",
				Usage: "run the pre-publish checks for a post",
				Flags: []cli.Flag{
					envFlag,
					&cli.IntFlag{Name: "post", Usage: "post id", Required: true},
				},
				Action: validateAction,
			},
			{
				Name:  "reconcile",
				Usage: "recompute a post status from its schedules",
				Flags: []cli.Flag{
					envFlag,
					&cli.IntFlag{Name: "post", Usage: "post id", Required: true},
				},
				Action: reconcileAction,
			},
		},
	}

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	cfg, pipeline, closeDB, err := openPipeline(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer closeDB()

	limit := int(cmd.Int("limit"))
	if limit <= 0 {
		limit = cfg.Scheduler.BatchLimit
	}

	result, err := pipeline.Scheduler.RunOnce(ctx, limit)
	if err != nil {
		return fmt.Errorf("scheduler run: %w", err)
	}
	return printJSON(result)
}

func validateAction(ctx context.Context, cmd *cli.Command) error {
	_, pipeline, closeDB, err := openPipeline(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer closeDB()

	result := pipeline.Validator.Validate(ctx, cmd.Int("post"))
	return printJSON(map[string]any{
		"valid":    result.Valid,
		"errors":   result.Errors,
		"warnings": result.Warnings,
	})
}

func reconcileAction(ctx context.Context, cmd *cli.Command) error {
	_, pipeline, closeDB, err := openPipeline(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer closeDB()

	return pipeline.Reconciler.Reconcile(ctx, cmd.Int("post"))
}

func openPipeline(ctx context.Context, envFile string) (*config.Config, *app.Pipeline, func(), error) {
	if err := godotenv.Load(envFile); err != nil {
		slog.Warn("failed to load environment file", "path", envFile, "error", err)
	}
	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("ping database: %w", err)
	}

	pipeline, err := app.NewPipeline(ctx, cfg, db)
	if err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	return cfg, pipeline, func() { db.Close() }, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
