// Package main implements the lazysched CLI.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Joseda-hg/lazysched/internal/config"
	"github.com/Joseda-hg/lazysched/internal/db"
	appLog "github.com/Joseda-hg/lazysched/internal/log"
	"github.com/Joseda-hg/lazysched/internal/model"
	"github.com/Joseda-hg/lazysched/internal/schedule"
	"github.com/Joseda-hg/lazysched/internal/tui"
	"github.com/Joseda-hg/lazysched/internal/web"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	dbPath     string
	web        bool
	webOnly    bool
	port       int
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "lazysched",
		Short:        "Personal schedule and todo manager",
		Long:         "lazysched keeps a dated todo list and shows it as a list or a month calendar.\nWithout a subcommand it opens the terminal UI.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInteractive(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file path (.json, .yaml or .yml)")
	cmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "sqlite db path")
	cmd.Flags().BoolVar(&opts.web, "web", false, "enable web server")
	cmd.Flags().BoolVar(&opts.webOnly, "web-only", false, "run web server only")
	cmd.Flags().IntVar(&opts.port, "port", 0, "web server port")

	cmd.AddCommand(
		newAddCmd(opts),
		newListCmd(opts),
		newTodayCmd(opts),
		newToggleCmd(opts),
		newDeleteCmd(opts),
		newCalendarCmd(opts),
		newExportICSCmd(opts),
		newImportICSCmd(opts),
	)
	return cmd
}

// app is everything a command needs once config, logging and the database
// are set up.
type app struct {
	cfg   config.Config
	store *schedule.Store

	sqlDB     *sql.DB
	logCloser io.Closer
}

func openApp(opts *rootOptions) (*app, error) {
	cfgPath, err := resolveConfigPath(opts.configPath)
	if err != nil {
		return nil, err
	}

	_, statErr := os.Stat(cfgPath)
	firstRun := errors.Is(statErr, os.ErrNotExist)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(filepath.Dir(cfgPath), "lazysched.db")
	}
	if cfg.LogPath == "" {
		cfg.LogPath = filepath.Join(filepath.Dir(cfgPath), "lazysched.log")
	}
	cfg.Normalize()

	// The first run writes the defaults out so there is a file to edit.
	// Flag overrides below only apply to this run.
	if firstRun {
		if err := config.Save(cfgPath, cfg); err != nil {
			return nil, fmt.Errorf("save config: %w", err)
		}
	}

	if opts.dbPath != "" {
		cfg.DBPath = opts.dbPath
	}
	if opts.web || opts.webOnly {
		cfg.WebEnabled = true
	}
	if opts.port != 0 {
		cfg.WebPort = opts.port
	}

	logCloser, err := appLog.OpenFile(cfg.LogPath)
	if err != nil {
		return nil, err
	}
	if err := appLog.SetLevel(cfg.LogLevel); err != nil {
		closeLog(logCloser)
		return nil, err
	}

	if err := config.EnsureDir(cfg.DBPath); err != nil {
		closeLog(logCloser)
		return nil, err
	}
	sqlDB, err := db.Open(cfg.DBPath)
	if err != nil {
		closeLog(logCloser)
		return nil, fmt.Errorf("open db: %w", err)
	}

	ctx := context.Background()
	persisted := db.NewStore(sqlDB)
	todos := persisted.Load(ctx)
	store := schedule.New(todos, persisted,
		schedule.WithLastID(persisted.LastID(ctx)),
		schedule.WithVariant(model.ParseVariant(cfg.Variant)),
		schedule.WithClock(now),
	)
	appLog.Info("schedule loaded", "db", cfg.DBPath, "todos", len(todos), "variant", cfg.Variant)

	return &app{
		cfg:       cfg,
		store:     store,
		sqlDB:     sqlDB,
		logCloser: logCloser,
	}, nil
}

func (a *app) Close() error {
	err := a.sqlDB.Close()
	closeLog(a.logCloser)
	return err
}

func closeLog(closer io.Closer) {
	appLog.SetOutput(os.Stderr)
	_ = closer.Close()
}

func resolveConfigPath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	return config.DefaultConfigPath()
}

func (a *app) webServer() *web.Server {
	return web.NewServer(a.store, web.Options{
		WeekStart: a.cfg.FirstWeekday(),
		BasicAuth: a.cfg.BasicAuth,
	})
}

func runInteractive(cmd *cobra.Command, opts *rootOptions) error {
	a, err := openApp(opts)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg.WebEnabled {
		addr := fmt.Sprintf(":%d", a.cfg.WebPort)
		handler := a.webServer().Handler()
		if opts.webOnly {
			fmt.Fprintf(cmd.OutOrStdout(), "Web server running at http://localhost%s\n", addr)
			appLog.Info("web server starting", "addr", addr)
			if err := http.ListenAndServe(addr, handler); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}

		go func() {
			appLog.Info("web server starting", "addr", addr)
			if err := http.ListenAndServe(addr, handler); err != nil {
				appLog.Error("web server stopped", err, "addr", addr)
			}
		}()
	}

	return tui.Run(a.store, tui.Options{
		WeekStart:   a.cfg.FirstWeekday(),
		DefaultView: a.cfg.DefaultView,
	})
}
