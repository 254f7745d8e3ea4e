package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spacenote/spacenote/spacenote"
	"github.com/spacenote/spacenote/spacenote/store"
	"github.com/spacenote/spacenote/types"
)

// CLI bundles the root command, its Viper configuration, and the lazily
// opened application.
type CLI struct {
	rootCmd *cobra.Command
	viper   *viper.Viper
	app     *spacenote.App
}

// NewCLI builds the command tree. Nothing touches storage until a
// command runs.
func NewCLI() *CLI {
	cli := &CLI{viper: viper.New()}
	cli.setupConfig()
	cli.createRootCommand()
	cli.addCommands()
	return cli
}

// setupConfig wires flags, environment variables, and an optional config
// file, in that order of precedence.
func (cli *CLI) setupConfig() {
	if configFile := os.Getenv("SPACENOTE_CONFIG"); configFile != "" {
		cli.viper.SetConfigFile(configFile)
	} else {
		cli.viper.SetConfigName("spacenote")
		cli.viper.SetConfigType("json")
		cli.viper.AddConfigPath(".")
		cli.viper.AddConfigPath("$HOME/.spacenote")
	}

	cli.viper.AutomaticEnv()
	cli.viper.SetEnvPrefix("SPACENOTE")
	cli.viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	_ = cli.viper.ReadInConfig()
}

func (cli *CLI) createRootCommand() {
	cli.rootCmd = &cobra.Command{
		Use:   "spacenote",
		Short: "SpaceNote CLI - spaces with user-defined note schemas",
		Long: `SpaceNote manages spaces whose note structure is defined by the space
owner: typed fields, saved filters, comments and file attachments.

Configuration sources (in order of precedence):
1. Command line flags
2. Environment variables (SPACENOTE_*)
3. Configuration file (SPACENOTE_CONFIG, ./spacenote.json, ~/.spacenote/spacenote.json)

Examples:
  spacenote --data ./data space create tasks "Team tasks" --members alice,bob
  spacenote field add tasks --name status --type choice --values open,closed --default open
  spacenote note create tasks --as alice --set status=open
  spacenote note list tasks --filter open-tasks --as alice`,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return cli.viper.BindPFlags(cmd.Flags())
		},
		SilenceUsage: true,
	}

	flags := cli.rootCmd.PersistentFlags()
	flags.StringP("data", "d", "./data", "Data directory for the JSON store")
	flags.String("store", "json", "Storage backend (json|memory|mongo)")
	flags.String("mongo-uri", "", "MongoDB connection URI (store=mongo)")
	flags.String("mongo-db", "spacenote", "MongoDB database name (store=mongo)")
	flags.String("log-level", "warn", "Log level (debug|info|warn|error)")
	flags.String("as", "", "Username to act as")
}

// openApp builds the store selected by configuration and starts the
// application over it.
func (cli *CLI) openApp(ctx context.Context) (*spacenote.App, error) {
	if cli.app != nil {
		return cli.app, nil
	}

	logger := newLogger(cli.viper.GetString("log-level"))

	var st store.Store
	var err error
	switch backend := cli.viper.GetString("store"); backend {
	case "memory":
		st = store.NewMemory()
	case "json":
		dataDir := cli.viper.GetString("data")
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		st, err = store.NewJSON(store.DefaultPath(dataDir))
		if err != nil {
			return nil, err
		}
	case "mongo":
		uri := cli.viper.GetString("mongo-uri")
		if uri == "" {
			return nil, fmt.Errorf("%w: --mongo-uri is required with --store mongo", types.ErrConfig)
		}
		st, err = store.NewMongo(ctx, uri, cli.viper.GetString("mongo-db"))
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", types.ErrConfig, backend)
	}

	app := spacenote.New(st, logger)
	if err := app.Start(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	cli.app = app
	return app, nil
}

// currentUser resolves the --as flag to a user, nil when unset.
func (cli *CLI) currentUser(app *spacenote.App) (*types.User, error) {
	username := cli.viper.GetString("as")
	if username == "" {
		return nil, nil
	}
	return app.Users.GetUser(username)
}

// Execute runs the CLI and closes the application afterwards.
func (cli *CLI) Execute() error {
	err := cli.rootCmd.Execute()
	if cli.app != nil {
		if closeErr := cli.app.Close(); err == nil {
			err = closeErr
		}
	}
	return err
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "info":
		l = slog.LevelInfo
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelWarn
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

// printJSON renders command output as indented JSON on stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
