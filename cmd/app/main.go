package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/ansuz/internal"
	"github.com/starford/ansuz/internal/attach"
	"github.com/starford/ansuz/internal/catalog"
	"github.com/starford/ansuz/internal/convert"
	"github.com/starford/ansuz/internal/fixture"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/mcpserver"
	"github.com/starford/ansuz/internal/storage"
	pkgconfig "github.com/starford/ansuz/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func runFixture(ctx context.Context, cmd *cli.Command) error {
	root := cmd.String("root")
	if root == "" {
		r, err := fixture.DefaultRoot()
		if err != nil {
			return fmt.Errorf("resolve fixture root: %w", err)
		}
		root = r
	}

	if err := fixture.Build(root); err != nil {
		return fmt.Errorf("build fixture: %w", err)
	}
	fmt.Printf("fixture vault written to %s\n", root)

	if cmd.Bool("verify") {
		problems, err := fixture.Verify(root)
		if err != nil {
			return fmt.Errorf("verify fixture: %w", err)
		}
		for _, p := range problems {
			fmt.Printf("problem: %s\n", p)
		}
		if len(problems) > 0 {
			return fmt.Errorf("fixture verification found %d problem(s)", len(problems))
		}
	}
	return nil
}

func runConvert(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := internal.NewLogger(cfg.App.LogLevel)
	slog.SetDefault(logger)

	store, err := storage.NewFS(cfg.Source.Path, ".org")
	if err != nil {
		return fmt.Errorf("init source storage: %w", err)
	}
	attachStore, err := attach.NewStore(cfg.AttachmentsRoot())
	if err != nil {
		return fmt.Errorf("init attachments: %w", err)
	}
	if err := os.MkdirAll(cfg.Output.Path, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	out, err := storage.NewFS(cfg.Output.Path, ".md")
	if err != nil {
		return fmt.Errorf("init output storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	svc := catalog.NewService(store, db)

	useTitle := cfg.Output.UseTitle
	if cmd.IsSet("use-title") {
		useTitle = cmd.Bool("use-title")
	}

	res, err := convert.Run(ctx, svc, attachStore, out, logger, convert.Options{
		UseTitle: useTitle,
		Workers:  int(cmd.Int("workers")),
	})
	if err != nil {
		return fmt.Errorf("convert: %w", err)
	}

	logger.Info("Conversion finished",
		slog.Int("notes", res.Notes),
		slog.Int("attachments_copied", res.AttachmentsCopied),
		slog.Int("attachments_missing", len(res.MissingAttachments)))
	for _, m := range res.MissingAttachments {
		logger.Warn("attachment missing", slog.String("name", m))
	}
	return nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// MCP talks JSON-RPC on stdout, so logs go to stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	store, err := storage.NewFS(cfg.Source.Path, ".org")
	if err != nil {
		return fmt.Errorf("init source storage: %w", err)
	}
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	svc := catalog.NewService(store, db)
	if err := svc.Sync(logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	return mcpserver.New(svc).ServeStdio()
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}

	cmd := &cli.Command{
		Name:  "ansuz",
		Usage: "Org-roam vault tooling: fixture generation, Markdown conversion, catalog API, and MCP integration",
		Commands: []*cli.Command{
			{
				Name:   "fixture",
				Usage:  "Generate a small fake Org-roam vault with sharded attachment placeholders",
				Action: runFixture,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "root",
						Usage: "Target directory for the fixture vault (defaults to fakedata next to the binary)",
					},
					&cli.BoolFlag{
						Name:  "verify",
						Usage: "Check link targets and attachment reachability after generating",
					},
				},
			},
			{
				Name:   "convert",
				Usage:  "Convert the Org source vault to a Markdown vault",
				Action: runConvert,
				Flags: []cli.Flag{
					configFlag,
					&cli.BoolFlag{
						Name:  "use-title",
						Usage: "Name attachment folders after note titles instead of node IDs",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of files converted concurrently (0 for default)",
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Run the catalog HTTP API with file watching and SSE",
				Action: runServe,
				Flags:  []cli.Flag{configFlag},
			},
			{
				Name:   "mcp",
				Usage:  "Run the MCP server on stdio",
				Action: runMCP,
				Flags:  []cli.Flag{configFlag},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
