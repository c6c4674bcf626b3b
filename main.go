package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/lexandro/notebrowser-mcp/config"
	"github.com/lexandro/notebrowser-mcp/register"
	"github.com/lexandro/notebrowser-mcp/server"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "notebrowser-mcp",
		Short:         "MCP server for browsing, searching and tagging a folder of notes",
		Version:       server.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configFile)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Config file (default: ~/.config/notebrowser/config.yaml)")
	flags.String("root", "", "Workspace directory (default: current working directory)")
	flags.String("log-level", "info", "Log level: debug|info|warn|error")
	flags.String("log-file", "", "Log file path, rotated automatically (default: stderr)")
	flags.StringSlice("exclude", nil, "Extra ignore pattern (repeatable)")
	flags.Bool("no-ignore", false, "Search and watch files matched by .gitignore and .notesignore too")
	flags.Int("max-results", 0, "Maximum search results, 0 for no limit")

	addServeFlags(root.Flags())

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configFile)
		},
	}
	addServeFlags(serve.Flags())

	root.AddCommand(serve)
	root.AddCommand(register.NewCommand(afero.NewOsFs()))
	root.AddCommand(newTreeCommand(&configFile))
	root.AddCommand(newSearchCommand(&configFile))
	root.AddCommand(newTagsCommand(&configFile))
	return root
}

func addServeFlags(flags *pflag.FlagSet) {
	flags.Bool("watch", true, "Watch the workspace for external changes")
	flags.Int("debounce", 100, "Watcher quiet period in milliseconds")
	flags.Int("sync-interval", 300, "Seconds between reconciles of loaded folders, 0 to disable")
	flags.Int("settle-timeout", 2000, "Milliseconds a move waits for the filesystem to settle")
}

func runServe(cmd *cobra.Command, configFile string) error {
	a, err := bootstrap(cmd, configFile)
	if err != nil {
		return err
	}
	defer a.close()

	a.logger.Info("starting notebrowser-mcp",
		"version", server.Version,
		"root", a.cfg.Root,
		"watch", a.cfg.Watch.Enabled,
		"syncInterval", a.cfg.Sync.Interval(),
	)
	if err := a.open(cmd.Context(), a.cfg.Root); err != nil {
		a.logger.Warn("could not open the initial workspace, waiting for notes_open", "root", a.cfg.Root, "error", err)
	}

	if err := a.serve(); err != nil {
		a.logger.Error("MCP server error", "error", err)
		return err
	}
	return nil
}

// bootstrap loads the configuration, sets up logging and builds the app.
func bootstrap(cmd *cobra.Command, configFile string) (*app, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	if cfg.Root == "" {
		if cfg.Root, err = os.Getwd(); err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
	}
	cfg.Root, _ = filepath.Abs(cfg.Root)

	logger := setupLogger(cfg.Log, cmd.ErrOrStderr())
	return newApp(cmd.Context(), cfg, logger), nil
}

// setupLogger creates an slog.Logger writing to stderr or a rotated file.
// It never writes to stdout, which carries the MCP stdio transport.
func setupLogger(cfg config.LogConfig, stderr io.Writer) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	writer := stderr
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			fmt.Fprintf(stderr, "Warning: cannot create log directory for %s: %v, falling back to stderr\n", cfg.File, err)
		} else {
			writer = &lumberjack.Logger{
				Filename:   cfg.File,
				MaxSize:    cfg.MaxSizeMB,
				MaxBackups: cfg.MaxBackups,
			}
		}
	}

	handler := slog.NewTextHandler(writer, &slog.HandlerOptions{Level: logLevel})
	return slog.New(handler)
}
