package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/hpungsan/abacus/internal/config"
	"github.com/hpungsan/abacus/internal/db"
	"github.com/hpungsan/abacus/internal/errors"
	"github.com/hpungsan/abacus/internal/mcp"
	"github.com/hpungsan/abacus/internal/ops"
	"github.com/hpungsan/abacus/internal/web"
)

// stdout is where command results go. Tests swap it for a buffer.
var stdout io.Writer = os.Stdout

// newCLIApp creates the CLI application with all commands.
// database and cfg may be nil when only help or version output is needed.
func newCLIApp(database *db.DB, cfg *config.Config, log *logrus.Logger) *cli.App {
	var repo *ops.Repository
	if database != nil {
		repo = ops.NewRepository(database, ops.SystemClock{})
	}

	app := &cli.App{
		Name:    "abacus",
		Usage:   "Calculator history service",
		Version: Version,
		Commands: []*cli.Command{
			serveCmd(repo, database, cfg, log),
			listCmd(repo),
			addCmd(repo),
			clearCmd(repo),
			mcpCmd(repo, cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// serveCmd creates the serve command.
func serveCmd(repo *ops.Repository, database *db.DB, cfg *config.Config, log *logrus.Logger) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API and frontend (default)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "Listen host (overrides HOST)"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Listen port (overrides PORT)"},
			&cli.StringFlag{Name: "static-dir", Usage: "Frontend bundle directory (overrides STATIC_DIR)"},
		},
		Action: func(c *cli.Context) error {
			serveCfg := *cfg
			if c.IsSet("host") {
				serveCfg.Host = c.String("host")
			}
			if c.IsSet("port") {
				serveCfg.Port = c.Int("port")
			}
			if c.IsSet("static-dir") {
				serveCfg.StaticDir = c.String("static-dir")
			}

			srv := web.NewServer(repo, database, &serveCfg, log)
			return web.Run(srv, log)
		},
	}
}

// listCmd creates the list command.
func listCmd(repo *ops.Repository) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "Print the most recent calculations, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.HistoryLimit, Usage: "Maximum items to return (at most 50)"},
		},
		Action: func(c *cli.Context) error {
			if c.Int("limit") < 1 {
				return outputError(errors.NewInvalidInput("limit must be positive"))
			}

			items, err := repo.ListRecent(c.Context, c.Int("limit"))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(items)
		},
	}
}

// addCmd creates the add command.
func addCmd(repo *ops.Repository) *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Record a calculation",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "expression", Aliases: []string{"e"}, Usage: "Expression as displayed, e.g. \"2 + 2\""},
			&cli.StringFlag{Name: "result", Aliases: []string{"r"}, Usage: "Result as displayed, e.g. \"4\""},
		},
		Action: func(c *cli.Context) error {
			output, err := repo.Create(c.Context, ops.CreateInput{
				Expression: c.String("expression"),
				Result:     c.String("result"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// clearCmd creates the clear command.
func clearCmd(repo *ops.Repository) *cli.Command {
	return &cli.Command{
		Name:  "clear",
		Usage: "Permanently delete the whole history",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Confirm deletion"},
		},
		Action: func(c *cli.Context) error {
			if !c.Bool("yes") {
				return outputError(errors.NewInvalidInput("refusing to clear history without --yes"))
			}

			output, err := repo.ClearAll(c.Context)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// mcpCmd creates the mcp command.
func mcpCmd(repo *ops.Repository, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the history as MCP tools over stdio",
		Action: func(_ *cli.Context) error {
			return mcp.Run(repo, cfg, Version)
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// outputError formats err as a JSON error object for stderr. Internal
// errors never carry details.
func outputError(err error) error {
	aErr := errors.From(err)

	errorObj := map[string]any{
		"code":    aErr.Code,
		"message": aErr.Message,
		"status":  aErr.Status,
	}
	if aErr.Code != errors.ErrInternal && aErr.Details != nil {
		errorObj["details"] = aErr.Details
	}

	b, _ := json.Marshal(map[string]any{"error": errorObj})
	return cli.Exit(string(b), 1)
}
