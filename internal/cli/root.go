// Package cli implements the matchcolor command line.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/atinylittleshell/matchcolor/internal/config"
	"github.com/atinylittleshell/matchcolor/internal/core"
	"github.com/atinylittleshell/matchcolor/internal/game"
	"github.com/atinylittleshell/matchcolor/internal/presentation"
	"github.com/atinylittleshell/matchcolor/internal/scheduler"
	"github.com/atinylittleshell/matchcolor/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Deps overrides what the root command would otherwise build from flags.
// Nil fields fall back to the defaults.
type Deps struct {
	Store  storage.Store
	Clock  scheduler.Clock
	Logger *zap.Logger
}

// App is the state shared by every subcommand once the root command has
// opened the player.
type App struct {
	Config   config.Config
	Player   *game.Player
	Terminal *presentation.Terminal
	Logger   *zap.Logger

	deps       Deps
	store      storage.Store
	ownsStore  bool
	configPath string
	dbPath     string
	logLevel   string
}

func NewApp(deps Deps) *App {
	return &App{deps: deps}
}

// NewRootCmd creates the top-level "matchcolor" command and registers all
// subcommands against app. The caller must Close app after Execute.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "matchcolor",
		Short:         "Achievements, coins and power-ups for the color matching game",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.open(cmd)
		},
	}

	root.PersistentFlags().StringVar(&app.configPath, "config", "", "config file (default ~/.config/matchcolor/config.yaml)")
	root.PersistentFlags().StringVar(&app.dbPath, "db", "", "database file")
	root.PersistentFlags().StringVar(&app.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newStatusCmd(app),
		newAchievementsCmd(app),
		newPowerUpsCmd(app),
		newCoinsCmd(app),
		newBuyCmd(app),
		newPlayCmd(app),
		newResetCmd(app),
	)

	return root
}

func (a *App) open(cmd *cobra.Command) error {
	configPath := a.configPath
	if configPath == "" {
		configPath = core.ConfigFile()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if a.dbPath != "" {
		cfg.StorePath = a.dbPath
	}
	a.Config = cfg

	logger := a.deps.Logger
	if logger == nil {
		logger, err = initializeLogger(cfg)
		if err != nil {
			return err
		}
	}
	a.Logger = logger
	logger.Info("-------- new matchcolor session --------", zap.Strings("args", os.Args))

	store := a.deps.Store
	if store == nil {
		path := cfg.StorePath
		if path == "" {
			path = core.StoreFile()
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
		sqlite, err := storage.NewSQLiteStore(path)
		if err != nil {
			return err
		}
		store = sqlite
		a.ownsStore = true
	}
	a.store = store

	a.Terminal = presentation.NewTerminal(cmd.OutOrStdout())
	a.Player = game.NewPlayer(game.Options{
		Config:    cfg,
		Store:     store,
		Presenter: a.Terminal,
		Clock:     a.deps.Clock,
		Logger:    logger,
	})
	a.Player.Start()

	return nil
}

// Close presents any unlock still queued, persists the player and closes
// the store if the app opened it. Safe to call when open never ran.
func (a *App) Close() error {
	if a.Player != nil {
		a.Player.FlushNotifications()
		a.Player.Close()
		a.Player = nil
	}

	var err error
	if a.ownsStore && a.store != nil {
		err = a.store.Close()
		a.store = nil
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return err
}

func initializeLogger(cfg config.Config) (*zap.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}

	loggerConfig := zap.NewProductionConfig()
	loggerConfig.Level = level
	loggerConfig.OutputPaths = []string{
		core.LogFile(),
	}
	return loggerConfig.Build()
}
