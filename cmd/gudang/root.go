package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/gudangapp/gudang/internal/api"
	"github.com/gudangapp/gudang/internal/cache"
	"github.com/gudangapp/gudang/internal/config"
	"github.com/gudangapp/gudang/internal/session"
	"github.com/gudangapp/gudang/internal/snapshot"
	"github.com/gudangapp/gudang/internal/token"
	"github.com/gudangapp/gudang/internal/workflow"
)

// Global flag values.
var (
	flagConfigDir string
	flagDataDir   string
	flagBaseURL   string
	flagJSON      bool
	flagVerbose   bool
)

// app holds the wired-up application state, built by PersistentPreRunE so
// every subcommand can use it.
var app struct {
	cfg       *config.Config
	store     *cache.Store
	client    *api.Client
	tokens    *token.Store
	session   *session.Session
	snapshots *snapshot.Store
	submitter *workflow.ItemSubmitter
}

var rootCmd = &cobra.Command{
	Use:           "gudang",
	Short:         "Gudang is a console for the remote inventory service",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initApp()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeApp()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: $XDG_CONFIG_HOME/gudang)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory for tokens and snapshots (default: <config-dir>/data)")
	rootCmd.PersistentFlags().StringVar(&flagBaseURL, "server", "", "server base URL (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log requests and responses")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(itemsCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(lookupsCmd)
	rootCmd.AddCommand(logsCmd)
}

// initApp loads configuration and wires the cache, API client, token store,
// session and snapshot store together.
func initApp() error {
	configDir := flagConfigDir
	if configDir == "" {
		var err error
		configDir, err = config.DefaultConfigDir()
		if err != nil {
			return err
		}
	}

	cfg, err := config.Load(configDir)
	if err != nil {
		return err
	}
	if flagDataDir != "" {
		cfg.DataDir = flagDataDir
	}
	if flagBaseURL != "" {
		cfg.BaseURL = flagBaseURL
	}
	if flagVerbose {
		cfg.Verbose = true
	}

	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	tokens, err := token.NewStore(cfg.DataDir)
	if err != nil {
		return err
	}

	opts := []api.Option{api.WithTimeout(cfg.HTTPTimeout)}
	if tok, err := tokens.Load(); err == nil && !token.Expired(tok, time.Now()) {
		opts = append(opts, api.WithToken(tok))
	}
	client := api.New(cfg.BaseURL, opts...)

	snapshots, err := snapshot.Open(filepath.Join(cfg.DataDir, "snapshot.db"))
	if err != nil {
		return err
	}

	store := cache.NewStore()

	app.cfg = cfg
	app.store = store
	app.client = client
	app.tokens = tokens
	app.session = session.New(store, client, tokens)
	app.snapshots = snapshots
	app.submitter = workflow.NewItemSubmitter(store, client)
	return nil
}

func closeApp() error {
	if app.session != nil {
		app.session.Close()
	}
	if app.snapshots != nil {
		return app.snapshots.Close()
	}
	return nil
}
