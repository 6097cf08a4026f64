package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/yuipii/strawberry-website-bot/pkg/app/config"
	"github.com/yuipii/strawberry-website-bot/pkg/domain/service"
	"github.com/yuipii/strawberry-website-bot/pkg/infrastructure/catalogfile"
	"github.com/yuipii/strawberry-website-bot/pkg/infrastructure/mysql"
	"github.com/yuipii/strawberry-website-bot/pkg/metrics"
	"github.com/yuipii/strawberry-website-bot/pkg/telegram"
	"github.com/yuipii/strawberry-website-bot/transport"
)

func main() {
	app := &cli.App{
		Name:   "strawberry-website-bot",
		Usage:  "order intake backend with a Telegram admin bot",
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("Service failed")
	}
}

func run(_ *cli.Context) error {
	log.SetFormatter(&log.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := mysql.Connect(cfg.OrdersDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := mysql.Migrate(db); err != nil {
		return err
	}
	ledger := mysql.NewLedger(db)

	reg := metrics.NewRegistry()
	catalog := service.NewCatalog(catalogfile.NewStore(cfg.ProductsFile), reg)

	client := telegram.NewClient(cfg.BotToken)
	notifier := telegram.NewNotifier(client, cfg.SellerChatID, reg)
	conversation := service.NewConversation(catalog, notifier)
	commands := service.NewRouter(catalog, ledger, conversation, notifier, cfg.AdminChatIDs)

	// An unreachable bot only disables the admin chat surface; the HTTP API
	// still serves orders.
	var poller *telegram.Poller
	if info, err := client.GetMe(); err != nil {
		log.WithError(err).Warn("Bot unavailable, admin chat disabled")
	} else {
		log.WithFields(log.Fields{
			"name":     info.FirstName,
			"username": info.Username,
		}).Info("Bot is available")

		for _, admin := range cfg.AdminChatIDs {
			notifier.SendAsync(admin, "🤖 Бот запущен и готов к работе!")
			notifier.SendAsync(admin, service.HelpMessage)
		}

		poller = telegram.NewPoller(client, commands, reg)
		go poller.Run()
		log.Info("Long polling started")
	}

	router := transport.Router(catalog, ledger, notifier, client, reg, cfg.StaticDir)
	srv := startServer(cfg.HTTPAddr, router)

	waitForKillSignal(getKillSignalChan())

	// Drain in-flight HTTP handlers before stopping the components they use.
	err = srv.Shutdown(context.Background())
	if poller != nil {
		poller.Stop()
	}
	notifier.Close()
	return err
}

func startServer(addr string, router http.Handler) *http.Server {
	log.WithField("addr", addr).Info("Starting server")

	srv := &http.Server{Addr: addr, Handler: router}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	return srv
}

func getKillSignalChan() chan os.Signal {
	osKillSignalChan := make(chan os.Signal, 1)
	signal.Notify(osKillSignalChan, os.Interrupt, syscall.SIGTERM)
	return osKillSignalChan
}

func waitForKillSignal(killSignalChan <-chan os.Signal) {
	killSignal := <-killSignalChan
	switch killSignal {
	case os.Interrupt:
		log.Info("Got SIGINT...")
	case syscall.SIGTERM:
		log.Info("Got SIGTERM...")
	}
}
