// Package main is the entry point for the paperlab CLI.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"paperlab/internal/arxiv"
	"paperlab/internal/config"
	"paperlab/internal/domain"
	"paperlab/internal/logging"
	"paperlab/internal/papers"
	"paperlab/internal/storage"
)

// version is set at build time via ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "paperlab",
	Short: "Reading list and dashboard over the arXiv API",
	Long: `paperlab searches arXiv for a topic, shows each result as a card that can be
expanded to its abstract and authors, and keeps bookmarks grouped by category.

Run "paperlab serve" for the web dashboard (and the Telegram bot when a token is
configured), or "paperlab search" for cards in the terminal.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("config-dir", ".", "directory holding config.yaml")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app is the wiring shared by the subcommands.
type app struct {
	cfg     config.Config
	log     *logrus.Logger
	cache   *storage.BadgerCache
	library *papers.Service
}

func newApp(cmd *cobra.Command) (*app, error) {
	dir, _ := cmd.Flags().GetString("config-dir")
	cfg, err := config.LoadConfig(dir)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	log, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"cache_path":   cfg.CachePath,
		"catalog_path": cfg.CatalogPath,
		"arxiv_api":    cfg.ArxivAPIURL,
	}).Info("Configuration loaded successfully")

	cache, err := storage.NewBadgerCache(cfg.CachePath, log)
	if err != nil {
		return nil, fmt.Errorf("opening result cache: %w", err)
	}

	client := arxiv.NewClient(cfg.ArxivAPIURL, nil, cfg.HTTPTimeout, log)
	return &app{
		cfg:     cfg,
		log:     log,
		cache:   cache,
		library: papers.NewService(client, cache, cfg.HTTPTimeout, log),
	}, nil
}

// query fills unset search parameters from the configuration.
func (a *app) query(text string, maxResults int) domain.Query {
	if text == "" {
		text = a.cfg.DefaultQuery
	}
	if maxResults <= 0 {
		maxResults = a.cfg.MaxResults
	}
	return domain.Query{Text: text, MaxResults: maxResults, SortBy: a.cfg.Sort()}
}

func (a *app) Close() {
	a.log.Info("Closing result cache...")
	if err := a.cache.Close(); err != nil {
		a.log.WithError(err).Error("Error closing result cache")
	}
}
