package main

import (
	"os/signal"
	"sync"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"paperlab/internal/bookmarks"
	"paperlab/internal/bot"
	"paperlab/internal/catalog"
	"paperlab/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web dashboard, and the Telegram bot when a token is set",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides LISTEN_ADDR)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	log := a.log

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cat, err := catalog.Open(ctx, a.cfg.CatalogPath, log)
	if err != nil {
		return err
	}
	defer cat.Close()

	if !log.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.ReleaseMode)
	}

	// One bookmark index shared by the web and chat front ends.
	index := bookmarks.NewIndex()

	server, err := web.NewServer(a.library, index, web.Options{
		DefaultQuery: a.cfg.DefaultQuery,
		MaxResults:   a.cfg.MaxResults,
		SortBy:       a.cfg.Sort(),
	}, log, web.WithCategories(cat))
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	if a.cfg.TelegramBotToken != "" {
		botHandler, err := bot.NewHandler(a.cfg.TelegramBotToken, a.library, index, cat, a.cfg.Sort(), log)
		if err != nil {
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			botHandler.Start(ctx)
		}()
	} else {
		log.Info("TELEGRAM_BOT_TOKEN not set, chat front end disabled")
	}

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = a.cfg.ListenAddr
	}

	log.Info("paperlab is running. Press Ctrl+C to exit.")
	err = server.Run(ctx, addr)
	stop()
	wg.Wait()
	if err != nil {
		return err
	}
	log.Info("paperlab shut down gracefully.")
	return nil
}

