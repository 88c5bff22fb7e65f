package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/ashgrove/hauntmap/internal"
	"github.com/ashgrove/hauntmap/internal/importer"
	"github.com/ashgrove/hauntmap/internal/mcpserver"
	"github.com/ashgrove/hauntmap/internal/view"
	pkgconfig "github.com/ashgrove/hauntmap/pkg/config"
)

func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}
}

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadWithDefaults(cmd.String("config"), "config/config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
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

func runImport(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("usage: hauntmap import <file.csv>")
	}

	st, err := internal.OpenStore(cfg)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer st.Close()

	sum, err := importer.NewRunner(st, slog.Default()).Run(ctx, path)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Printf("Total records processed: %d\n", sum.Parsed)
	fmt.Printf("Successfully inserted:   %d\n", sum.Inserted)
	fmt.Printf("Errors:                  %d\n", sum.Failed)
	for _, b := range sum.Batches {
		if b.Err != nil {
			fmt.Printf("  batch %d: %v\n", b.Batch, b.Err)
		}
	}
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	st, err := internal.OpenStore(cfg)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer st.Close()

	session := view.NewSession(st)
	if err := session.Load(ctx, cfg.View.LocationPolicy); err != nil {
		slog.Warn("initial load failed, starting with an empty working set",
			slog.String("error", err.Error()))
	}

	return mcpserver.New(session).ServeStdio()
}

func main() {
	cmd := &cli.Command{
		Name:   "hauntmap",
		Usage:  "Crowdsourced ghost-sighting map: stats, filterable table, and submissions over a shared store",
		Action: runServe,
		Flags:  []cli.Flag{configFlag()},
		Commands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "Bulk-load sightings from a CSV export",
				ArgsUsage: "<file.csv>",
				Flags:     []cli.Flag{configFlag()},
				Action:    runImport,
			},
			{
				Name:   "mcp",
				Usage:  "Serve sighting tools over MCP stdio",
				Flags:  []cli.Flag{configFlag()},
				Action: runMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
