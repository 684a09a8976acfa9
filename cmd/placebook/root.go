package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/peebers/placebook/internal/config"
	"github.com/peebers/placebook/internal/db"
	"github.com/peebers/placebook/internal/logging"
	"github.com/peebers/placebook/internal/photostore/local"
	"github.com/peebers/placebook/internal/pipeline"
	"github.com/peebers/placebook/internal/places/google"
	"github.com/peebers/placebook/internal/repository"
	"github.com/peebers/placebook/internal/store"
)

// app holds what every subcommand shares once the root command has run its
// pre-run hook.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	cleanup  func()
	released bool
}

func newApp() *app {
	return &app{cleanup: func() {}}
}

// close releases what init opened, the log file in particular. It runs after
// Execute whether or not the command failed.
func (a *app) close() {
	a.cleanup()
	a.cleanup = func() {}
	a.released = true
}

// execute runs root and then releases a.
func execute(a *app, root *cobra.Command) error {
	defer a.close()
	return root.Execute()
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "placebook",
		Short: "placebook - look up places on a map and bookmark them",
		Long: "placebook resolves map points of interest through the Places API,\n" +
			"annotates markers with the place and its photo, and keeps a live\n" +
			"collection of bookmarked places.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	root.AddCommand(newServeCmd(a))
	root.AddCommand(newLookupCmd(a))
	root.AddCommand(newBookmarksCmd(a))
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, cleanup, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	a.cfg = cfg
	a.logger = logger
	a.cleanup = cleanup
	return nil
}

func (a *app) newPipeline() (*pipeline.Pipeline, error) {
	if a.cfg.PlacesAPIKey == "" {
		return nil, fmt.Errorf("PLACES_API_KEY is required")
	}
	client := google.NewClient(a.cfg.PlacesAPIKey, a.cfg.PlacesBaseURL)
	return pipeline.New(client, a.cfg.PhotoMaxWidth, a.cfg.PhotoMaxHeight, a.logger), nil
}

// openRepository opens the database and photo directory. The returned func
// closes the database.
func (a *app) openRepository() (*repository.BookmarkRepository, func(), error) {
	database, err := db.Open(a.cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	closeDB := func() {
		if err := database.Close(); err != nil {
			a.logger.Error("failed to close database", "error", err)
		}
	}

	photos, err := local.NewLocalPhotoStore(a.cfg.PhotoPath)
	if err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("failed to initialize photo store: %w", err)
	}

	repo := repository.NewBookmarkRepository(store.NewBookmarkStore(database), photos, a.logger,
		repository.WithPollInterval(a.cfg.WatchInterval))
	return repo, closeDB, nil
}
