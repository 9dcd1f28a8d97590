package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Leocrydis/SENomexLayers/internal"
	pkgconfig "github.com/Leocrydis/SENomexLayers/pkg/config"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if root := cmd.String("root"); root != "" {
		cfg.Search.Root = root
	}
	if prefix := cmd.String("prefix"); prefix != "" {
		cfg.Search.Prefix = prefix
	}
	return cfg, nil
}

// identifiers accepts both repeated arguments and a single comma-separated
// list, matching the two observed invocation styles.
func identifiers(cmd *cli.Command) []string {
	var ids []string
	for _, arg := range cmd.Args().Slice() {
		for _, id := range strings.Split(arg, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func runResolve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.RunBatch(ctx,
		internal.WithConfig(cfg),
		internal.WithIdentifiers(identifiers(cmd)),
	); err != nil {
		return fmt.Errorf("resolve error: %w", err)
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
	if err := internal.RunMCP(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("mcp run error: %w", err)
	}
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "senomex",
		Usage: "Retrieve NOMEX_LAYERS custom properties from CAD part files, with live-application fallback for locked files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Search root for part files (overrides config)",
				Sources: cli.EnvVars("SENOMEX_ROOT"),
			},
			&cli.StringFlag{
				Name:    "prefix",
				Usage:   "Property name prefix to match (overrides config)",
				Sources: cli.EnvVars("SENOMEX_PREFIX"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "resolve",
				Usage:     "Resolve part identifiers to matching properties and print one line per match",
				ArgsUsage: "IDENTIFIER [IDENTIFIER...] (or one comma-separated list)",
				Action:    runResolve,
			},
			{
				Name:   "serve",
				Usage:  "Serve the REST API with SSE part-change events",
				Action: runServe,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the resolver tools over MCP stdio transport",
				Action: runMCP,
			},
		},
		// Bare invocation with identifiers behaves like "resolve".
		Action: runResolve,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
