package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/abacus/internal/config"
	"github.com/hpungsan/abacus/internal/db"
	"github.com/hpungsan/abacus/internal/logging"
	"github.com/hpungsan/abacus/internal/mcp"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// normalizeArgs makes a bare invocation, or one with only flags, start the
// HTTP server: "abacus --port 8080" runs "abacus serve --port 8080".
func normalizeArgs(args []string) []string {
	if len(args) < 2 {
		return append(append([]string{}, args...), "serve")
	}
	if strings.HasPrefix(args[1], "-") && !isHelpOrVersion(args) {
		out := make([]string, 0, len(args)+1)
		out = append(out, args[0], "serve")
		return append(out, args[1:]...)
	}
	return args
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion(args []string) bool {
	if len(args) < 2 {
		return false
	}
	arg := args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// baseDirectory is where abacus.db, config.json and .env live by default.
func baseDirectory() string {
	if dir := os.Getenv("ABACUS_HOME"); dir != "" {
		return dir
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(homeDir, ".abacus")
}

func main() {
	args := normalizeArgs(os.Args)

	// Handle --help/--version before DB init (no DB needed)
	if isHelpOrVersion(args) {
		exit(newCLIApp(nil, nil, logging.Discard()).Run(args))
		return
	}

	baseDir := baseDirectory()

	cfg, err := config.Load(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Logs go to stderr; stdout carries command output and the MCP stream.
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		log.WithField("tools", unknown).Warn("ignoring unknown disabled_tools entries")
	}

	database, err := db.Open(context.Background(), cfg.DatabaseURL, baseDir)
	if err != nil {
		log.WithError(err).Error("failed to initialize database")
		os.Exit(1)
	}
	defer database.Close()
	database.ConfigurePool(cfg)

	log.WithField("dialect", database.Dialect()).Debug("database ready")

	err = newCLIApp(database, cfg, log).Run(args)
	if err != nil {
		database.Close()
	}
	exit(err)
}

// exit reports err and terminates with its exit code. Exit errors carry
// their own stderr text; anything else gets an "error:" prefix.
func exit(err error) {
	if err == nil {
		return
	}

	var exitErr cli.ExitCoder
	if stderrors.As(err, &exitErr) {
		if msg := exitErr.Error(); msg != "" {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(exitErr.ExitCode())
	}

	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
