package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/vmunix/webpress/internal/app"
	"github.com/vmunix/webpress/internal/config"
	"github.com/vmunix/webpress/internal/dispatch"
	"github.com/vmunix/webpress/internal/events"
)

var version = "dev"

var (
	configPath   string
	settingsPath string
	jsonOutput   bool
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:   "webpress",
	Short: "Batch image to WebP compressor",
	Long: `webpress - batch image to WebP compressor

Scans directories for PNG, JPEG, GIF and WebP images and re-encodes
them as lossy WebP on a pool of workers, one per available CPU.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: discovered)")
	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", "", "Settings file (default: $XDG_CONFIG_HOME/webpress/settings.toml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("webpress {{.Version}}\n")
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newLogger(cfg config.LogConfig, override string) *slog.Logger {
	level := cfg.Level
	if override != "" {
		level = override
	}
	opts := &slog.HandlerOptions{Level: parseLogLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// env holds what a command needs once config is loaded.
type env struct {
	cfg        *config.Config
	source     string // config file in use, "" for defaults
	logger     *slog.Logger
	settings   *config.SettingsStore
	db         *sql.DB // nil when history is disabled
	bus        *events.Bus
	dispatcher *dispatch.Dispatcher
	svc        *app.Service
}

func loadEnv() (*env, error) {
	cfg, source, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg.Log, logLevel)
	slog.SetDefault(logger)

	path := settingsPath
	if path == "" {
		path = config.DefaultSettingsPath()
	}

	return &env{
		cfg:      cfg,
		source:   source,
		logger:   logger,
		settings: config.NewSettingsStore(path),
	}, nil
}

// startService builds the event bus and service. The history database is
// opened when enabled; failure to open it only disables persistence.
func (e *env) startService() {
	var log *events.EventLog
	if e.cfg.History.IsEnabled() {
		db, err := openHistory(e.cfg.History.Path)
		if err != nil {
			e.logger.Warn("event history disabled", "path", e.cfg.History.Path, "error", err)
		} else {
			e.db = db
			log = events.NewEventLog(db)
		}
	}

	e.bus = events.NewBus(log, e.logger.With("component", "events"))
	e.dispatcher = dispatch.NewDispatcher(e.bus, e.cfg.Compress.Workers, e.logger.With("component", "dispatch"))
	e.svc = app.NewService(e.dispatcher, e.settings, e.logger)
}

func (e *env) Close() {
	if e.bus != nil {
		_ = e.bus.Close()
	}
	if e.db != nil {
		_ = e.db.Close()
	}
}

func openHistory(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Workers append concurrently; a single connection serializes writes.
	db.SetMaxOpenConns(1)

	if err := events.Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}
